package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/folio/internal/config"
	"github.com/ziadkadry99/folio/internal/logging"
	"github.com/ziadkadry99/folio/internal/public"
	"github.com/ziadkadry99/folio/internal/render"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `folio init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger; --verbose forces debug level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.New(level, cfg.Log.Format)
}

// newSite builds the public page renderer over lister.
func newSite(cfg *config.Config, lister render.Lister, logger *zap.Logger) (*public.Site, error) {
	sanitizer, err := render.NewSanitizer(render.Mode(cfg.Sanitizer))
	if err != nil {
		return nil, err
	}
	renderer, err := render.New(sanitizer, logger)
	if err != nil {
		return nil, err
	}
	intro, err := public.LoadIntro(cfg.IntroFile)
	if err != nil {
		return nil, err
	}
	return public.NewSite(renderer, lister, public.Options{
		Title:      cfg.SiteTitle,
		Intro:      intro,
		Categories: cfg.PublicCategories(),
		Logger:     logger,
	}), nil
}
