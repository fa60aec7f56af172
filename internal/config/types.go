package config

import "time"

// Config is the top-level folio configuration, corresponding to folio.yml.
type Config struct {
	Port       int           `yaml:"port" koanf:"port"`
	BaseURL    string        `yaml:"base_url" koanf:"base_url"`
	DataDir    string        `yaml:"data_dir" koanf:"data_dir"`
	SiteTitle  string        `yaml:"site_title" koanf:"site_title"`
	IntroFile  string        `yaml:"intro_file,omitempty" koanf:"intro_file"`
	Admins     []string      `yaml:"admins" koanf:"admins"`
	SessionTTL time.Duration `yaml:"session_ttl" koanf:"session_ttl"`
	Sanitizer  string        `yaml:"sanitizer" koanf:"sanitizer"`
	Webhooks   []string      `yaml:"webhooks,omitempty" koanf:"webhooks"`
	OAuth      OAuthConfig   `yaml:"oauth" koanf:"oauth"`
	Public     PublicConfig  `yaml:"public" koanf:"public"`
	Uploads    UploadConfig  `yaml:"uploads" koanf:"uploads"`
	CORS       CORSConfig    `yaml:"cors" koanf:"cors"`
	Audit      AuditConfig   `yaml:"audit" koanf:"audit"`
	Log        LogConfig     `yaml:"log" koanf:"log"`
}

// OAuthConfig holds the Google OAuth2 client used for admin sign-in.
type OAuthConfig struct {
	ClientID     string `yaml:"client_id" koanf:"client_id"`
	ClientSecret string `yaml:"client_secret" koanf:"client_secret"`
	// RedirectURL defaults to BaseURL + "/auth/callback".
	RedirectURL string `yaml:"redirect_url,omitempty" koanf:"redirect_url"`
}

// PublicConfig controls the public page.
type PublicConfig struct {
	Categories      []string `yaml:"categories" koanf:"categories"`
	RefreshSchedule string   `yaml:"refresh_schedule" koanf:"refresh_schedule"`
}

// UploadConfig limits admin file uploads.
type UploadConfig struct {
	MaxBytes int64    `yaml:"max_bytes" koanf:"max_bytes"`
	Allowed  []string `yaml:"allowed" koanf:"allowed"`
}

// CORSConfig controls cross-origin access to the JSON endpoints.
type CORSConfig struct {
	AllowAll bool     `yaml:"allow_all" koanf:"allow_all"`
	Origins  []string `yaml:"origins,omitempty" koanf:"origins"`
}

// AuditConfig controls how long admin actions are kept.
type AuditConfig struct {
	// Retention is the age after which entries are pruned. Zero keeps them.
	Retention time.Duration `yaml:"retention" koanf:"retention"`
}

// LogConfig selects the log level and encoding.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
