package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/folio/internal/blob"
	"github.com/ziadkadry99/folio/internal/content"
	"github.com/ziadkadry99/folio/internal/public"
	"github.com/ziadkadry99/folio/internal/render"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nested keys: FOLIO_OAUTH__CLIENT_ID sets oauth.client_id.
const EnvPrefix = "FOLIO_"

// listKeys are split on commas when set from the environment.
var listKeys = map[string]bool{
	"admins":            true,
	"webhooks":          true,
	"public.categories": true,
	"uploads.allowed":   true,
	"cors.origins":      true,
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:       8080,
		BaseURL:    "http://localhost:8080",
		DataDir:    "data",
		SiteTitle:  "Portfolio",
		SessionTTL: 24 * time.Hour,
		Sanitizer:  string(render.ModeDenylist),
		Public: PublicConfig{
			RefreshSchedule: "@every 5m",
		},
		Uploads: UploadConfig{
			MaxBytes: 10 << 20,
		},
		Audit: AuditConfig{
			Retention: 90 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (FOLIO_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func envKey(name, value string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if listKeys[key] {
		return key, splitAndTrim(value)
	}
	return key, value
}

// applyDefaults fills list settings left empty. Lists are not pre-seeded
// because decoding merges into an existing slice.
func (c *Config) applyDefaults() {
	if len(c.Public.Categories) == 0 {
		for _, cat := range []content.Category{content.Experience, content.Projects, content.Talks, content.Papers, content.News} {
			c.Public.Categories = append(c.Public.Categories, string(cat))
		}
	}
	if len(c.Uploads.Allowed) == 0 {
		c.Uploads.Allowed = append([]string(nil), blob.DefaultAllowed...)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validFormats = map[string]bool{"json": true, "console": true}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute http(s) URL", c.BaseURL)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if _, err := render.NewSanitizer(render.Mode(c.Sanitizer)); err != nil {
		return fmt.Errorf("invalid sanitizer: %w", err)
	}
	if c.Audit.Retention < 0 {
		return fmt.Errorf("audit.retention must be non-negative")
	}
	if c.Uploads.MaxBytes < 0 {
		return fmt.Errorf("uploads.max_bytes must be non-negative")
	}
	for _, name := range c.Public.Categories {
		if _, err := content.ParseCategory(name); err != nil {
			return fmt.Errorf("public.categories: %w", err)
		}
	}
	if err := public.ValidateSchedule(c.Public.RefreshSchedule); err != nil {
		return fmt.Errorf("public.refresh_schedule: %w", err)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log.format %q: must be json or console", c.Log.Format)
	}
	for _, w := range c.Webhooks {
		if wu, err := url.Parse(w); err != nil || wu.Host == "" {
			return fmt.Errorf("invalid webhook URL %q", w)
		}
	}
	return nil
}

// RedirectURL returns the OAuth callback URL.
func (c *Config) RedirectURL() string {
	if c.OAuth.RedirectURL != "" {
		return c.OAuth.RedirectURL
	}
	return c.BaseURL + "/auth/callback"
}

// DatabasePath is the SQLite file under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "folio.db")
}

// FilesDir is where uploaded blobs are written.
func (c *Config) FilesDir() string {
	return filepath.Join(c.DataDir, "files")
}

// PublicCategories returns the configured public sections.
func (c *Config) PublicCategories() []content.Category {
	var out []content.Category
	for _, name := range c.Public.Categories {
		if cat, err := content.ParseCategory(name); err == nil {
			out = append(out, cat)
		}
	}
	return out
}

// splitAndTrim splits a comma-separated string and drops blank entries.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
