package config

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to folio! Let's configure your site.")
	fmt.Println()

	cfg := DefaultConfig()

	titlePrompt := promptui.Prompt{
		Label:   "Site title",
		Default: cfg.SiteTitle,
	}
	title, err := titlePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("site title: %w", err)
	}
	cfg.SiteTitle = title

	basePrompt := promptui.Prompt{
		Label:   "Public base URL",
		Default: cfg.BaseURL,
		Validate: func(s string) error {
			candidate := DefaultConfig()
			candidate.BaseURL = s
			return candidate.Validate()
		},
	}
	base, err := basePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(base, "/")

	adminPrompt := promptui.Prompt{
		Label:    "Admin emails (comma-separated)",
		Validate: validateEmails,
	}
	admins, err := adminPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("admins: %w", err)
	}
	cfg.Admins = splitAndTrim(admins)

	clientPrompt := promptui.Prompt{Label: "Google OAuth client ID"}
	clientID, err := clientPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("oauth client id: %w", err)
	}
	cfg.OAuth.ClientID = strings.TrimSpace(clientID)

	secretPrompt := promptui.Prompt{Label: "Google OAuth client secret", Mask: '*'}
	secret, err := secretPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("oauth client secret: %w", err)
	}
	cfg.OAuth.ClientSecret = strings.TrimSpace(secret)

	sanitizerPrompt := promptui.Select{
		Label: "Rich-text sanitizer",
		Items: []string{
			"denylist: strip scripts, embeds and event handlers",
			"strict: denylist plus an allowlist of formatting tags",
		},
	}
	idx, _, err := sanitizerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("sanitizer selection: %w", err)
	}
	cfg.Sanitizer = []string{"denylist", "strict"}[idx]

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	fmt.Printf("Register %s as an authorized redirect URI for the OAuth client.\n", cfg.RedirectURL())
	return cfg, nil
}

func validateEmails(s string) error {
	emails := splitAndTrim(s)
	if len(emails) == 0 {
		return errors.New("at least one admin is required")
	}
	for _, e := range emails {
		if _, err := mail.ParseAddress(e); err != nil {
			return fmt.Errorf("invalid email %q", e)
		}
	}
	return nil
}
