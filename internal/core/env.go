package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env holds values supplied by the environment or a .env file.
type Env struct {
	Home       string `env:"STORYTIME_HOME"`
	SearchURL  string `env:"STORYTIME_SEARCH_URL"`
	CoverURL   string `env:"STORYTIME_COVER_URL"`
	RemindAt   string `env:"STORYTIME_REMIND_AT" envDefault:"20:00"`
	LogLevel   string `env:"STORYTIME_LOG_LEVEL" envDefault:"info"`
	TwilioSID  string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuth string `env:"TWILIO_AUTH_TOKEN"`
	FromNumber string `env:"TWILIO_PHONE_NUMBER"`
	Recipients string `env:"RECIPIENT_PHONE_NUMBER"`
}

// LoadEnv reads .env files (working directory first, then the resolved
// storytime home) and parses the process environment. Values already set in
// the environment win. A non-empty home overrides STORYTIME_HOME.
func LoadEnv(home string) (Env, error) {
	loadDotEnv(".env")

	cfg, err := parseEnv()
	if err != nil {
		return Env{}, err
	}
	if home != "" {
		cfg.Home = home
	}
	if cfg.Home == "" {
		if cfg.Home, err = defaultHome(); err != nil {
			return Env{}, err
		}
	}

	loadDotEnv(filepath.Join(cfg.Home, ".env"))
	resolved := cfg.Home
	if cfg, err = parseEnv(); err != nil {
		return Env{}, err
	}
	cfg.Home = resolved
	cfg.SearchURL = strings.TrimRight(strings.TrimSpace(cfg.SearchURL), "?")
	cfg.CoverURL = strings.TrimRight(strings.TrimSpace(cfg.CoverURL), "/")
	return cfg, nil
}

func parseEnv() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func defaultHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".storytime"), nil
}

// RequireCatalog reports an error when the catalog endpoints are not configured.
func (e Env) RequireCatalog() error {
	var missing []string
	if e.SearchURL == "" {
		missing = append(missing, "STORYTIME_SEARCH_URL")
	}
	if e.CoverURL == "" {
		missing = append(missing, "STORYTIME_COVER_URL")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: set %s", ErrCatalogUnavailable, strings.Join(missing, ", "))
}

// RecipientList splits the comma-separated recipient numbers.
func (e Env) RecipientList() []string {
	parts := strings.Split(e.Recipients, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		number := strings.TrimSpace(part)
		if number == "" {
			continue
		}
		out = append(out, number)
	}
	return out
}

// RequireSMS reports which SMS settings are missing.
func (e Env) RequireSMS() error {
	var missing []string
	if e.TwilioSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if e.TwilioAuth == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if e.FromNumber == "" {
		missing = append(missing, "TWILIO_PHONE_NUMBER")
	}
	if len(e.RecipientList()) == 0 {
		missing = append(missing, "RECIPIENT_PHONE_NUMBER")
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.Join(ErrReminderNotConfigured, fmt.Errorf("missing %s", strings.Join(missing, ", ")))
}
