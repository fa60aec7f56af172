package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ziadkadry99/folio/internal/public"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.Sanitizer != "denylist" {
		t.Errorf("expected default sanitizer denylist, got %q", cfg.Sanitizer)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected default session_ttl 24h, got %v", cfg.SessionTTL)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.yml")

	original := DefaultConfig()
	original.Port = 9090
	original.SiteTitle = "Jane Doe"
	original.Admins = []string{"owner@example.com", "second@example.com"}
	original.SessionTTL = 2 * time.Hour
	original.OAuth.ClientID = "client-id"
	original.Public.Categories = []string{"news"}
	original.Sanitizer = "strict"

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Port != 9090 {
		t.Errorf("port: got %d", loaded.Port)
	}
	if loaded.SiteTitle != "Jane Doe" {
		t.Errorf("site_title: got %q", loaded.SiteTitle)
	}
	if len(loaded.Admins) != 2 || loaded.Admins[1] != "second@example.com" {
		t.Errorf("admins: got %v", loaded.Admins)
	}
	if loaded.SessionTTL != 2*time.Hour {
		t.Errorf("session_ttl: got %v", loaded.SessionTTL)
	}
	if loaded.OAuth.ClientID != "client-id" {
		t.Errorf("oauth.client_id: got %q", loaded.OAuth.ClientID)
	}
	if len(loaded.Public.Categories) != 1 || loaded.Public.Categories[0] != "news" {
		t.Errorf("public.categories: got %v", loaded.Public.Categories)
	}
	if loaded.Sanitizer != "strict" {
		t.Errorf("sanitizer: got %q", loaded.Sanitizer)
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.Port)
	}
	if len(cfg.Public.Categories) != 5 {
		t.Errorf("expected default public categories, got %v", cfg.Public.Categories)
	}
	if len(cfg.Uploads.Allowed) == 0 {
		t.Error("expected default upload patterns")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("FOLIO_PORT", "7000")
	t.Setenv("FOLIO_ADMINS", "a@example.com, b@example.com")
	t.Setenv("FOLIO_OAUTH__CLIENT_SECRET", "s3cret")
	t.Setenv("FOLIO_LOG__LEVEL", "debug")
	t.Setenv("FOLIO_AUDIT__RETENTION", "720h")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Port != 7000 {
		t.Errorf("port override failed: got %d", loaded.Port)
	}
	if len(loaded.Admins) != 2 || loaded.Admins[0] != "a@example.com" || loaded.Admins[1] != "b@example.com" {
		t.Errorf("admins override failed: got %v", loaded.Admins)
	}
	if loaded.OAuth.ClientSecret != "s3cret" {
		t.Errorf("nested override failed: got %q", loaded.OAuth.ClientSecret)
	}
	if loaded.Log.Level != "debug" {
		t.Errorf("log.level override failed: got %q", loaded.Log.Level)
	}
	if loaded.Audit.Retention != 720*time.Hour {
		t.Errorf("audit.retention override failed: got %v", loaded.Audit.Retention)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yml")
	if err := os.WriteFile(path, []byte("port: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port", func(c *Config) { c.Port = 0 }},
		{"base url", func(c *Config) { c.BaseURL = "example.com" }},
		{"data dir", func(c *Config) { c.DataDir = "" }},
		{"session ttl", func(c *Config) { c.SessionTTL = 0 }},
		{"sanitizer", func(c *Config) { c.Sanitizer = "lenient" }},
		{"upload limit", func(c *Config) { c.Uploads.MaxBytes = -1 }},
		{"audit retention", func(c *Config) { c.Audit.Retention = -time.Hour }},
		{"category", func(c *Config) { c.Public.Categories = []string{"blog"} }},
		{"schedule", func(c *Config) { c.Public.RefreshSchedule = "whenever" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"webhook", func(c *Config) { c.Webhooks = []string{"not a url"} }},
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig should be valid, got: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateEmptyRefreshSchedule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Public.RefreshSchedule = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty refresh_schedule should disable warming, got: %v", err)
	}
	if _, err := public.NewWarmer(nil, cfg.Public.RefreshSchedule, nil); err != nil {
		t.Errorf("NewWarmer rejected a schedule Validate accepted: %v", err)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/srv/folio"
	if got := cfg.DatabasePath(); got != filepath.Join("/srv/folio", "folio.db") {
		t.Errorf("DatabasePath = %q", got)
	}
	if got := cfg.RedirectURL(); got != "http://localhost:8080/auth/callback" {
		t.Errorf("RedirectURL = %q", got)
	}
	cfg.OAuth.RedirectURL = "https://example.com/cb"
	if got := cfg.RedirectURL(); got != "https://example.com/cb" {
		t.Errorf("RedirectURL override = %q", got)
	}

	cfg.Public.Categories = []string{"news", "bogus", "talks"}
	cats := cfg.PublicCategories()
	if len(cats) != 2 || cats[0] != "news" || cats[1] != "talks" {
		t.Errorf("PublicCategories = %v", cats)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}

func TestValidateEmails(t *testing.T) {
	if err := validateEmails("owner@example.com, second@example.com"); err != nil {
		t.Errorf("validateEmails: %v", err)
	}
	if err := validateEmails(""); err == nil {
		t.Error("expected error for empty list")
	}
	if err := validateEmails("not-an-email"); err == nil {
		t.Error("expected error for malformed email")
	}
}
