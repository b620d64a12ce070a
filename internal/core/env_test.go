package core

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadEnvDefaultsAndDotEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"STORYTIME_HOME", "STORYTIME_SEARCH_URL", "STORYTIME_COVER_URL", "STORYTIME_REMIND_AT"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}

	dir := filepath.Join(home, ".storytime")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	dotenv := "STORYTIME_SEARCH_URL= https://catalog.test/search.json \nSTORYTIME_COVER_URL=https://covers.test/b/id/\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("STORYTIME_SEARCH_URL")
		_ = os.Unsetenv("STORYTIME_COVER_URL")
	})

	cfg, err := LoadEnv("")
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if cfg.Home != dir {
		t.Fatalf("expected home %s, got %s", dir, cfg.Home)
	}
	if cfg.RemindAt != "20:00" {
		t.Fatalf("expected default remind time, got %q", cfg.RemindAt)
	}
	if cfg.SearchURL != "https://catalog.test/search.json" {
		t.Fatalf("unexpected search url %q", cfg.SearchURL)
	}
	if cfg.CoverURL != "https://covers.test/b/id" {
		t.Fatalf("unexpected cover url %q", cfg.CoverURL)
	}
	if err := cfg.RequireCatalog(); err != nil {
		t.Fatalf("expected catalog configured: %v", err)
	}
}

func TestRequireCatalog(t *testing.T) {
	err := Env{SearchURL: "https://catalog.test"}.RequireCatalog()
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestRecipientList(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"", []string{}},
		{"+15550000001", []string{"+15550000001"}},
		{" +15550000001, ,+15550000002 ", []string{"+15550000001", "+15550000002"}},
	}
	for _, tc := range cases {
		got := Env{Recipients: tc.raw}.RecipientList()
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("RecipientList(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestRequireSMS(t *testing.T) {
	full := Env{TwilioSID: "AC1", TwilioAuth: "secret", FromNumber: "+15550000000", Recipients: "+15550000001"}
	if err := full.RequireSMS(); err != nil {
		t.Fatalf("expected configured, got %v", err)
	}

	partial := full
	partial.TwilioAuth = ""
	partial.Recipients = " , "
	err := partial.RequireSMS()
	if !errors.Is(err, ErrReminderNotConfigured) {
		t.Fatalf("expected ErrReminderNotConfigured, got %v", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "TWILIO_AUTH_TOKEN") || !strings.Contains(msg, "RECIPIENT_PHONE_NUMBER") {
		t.Fatalf("expected missing keys in message, got %q", msg)
	}
}

func TestLoadEnvReadsDotEnvFromCustomHome(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"STORYTIME_HOME", "TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_PHONE_NUMBER", "RECIPIENT_PHONE_NUMBER"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
	t.Cleanup(func() {
		for _, key := range []string{"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_PHONE_NUMBER", "RECIPIENT_PHONE_NUMBER"} {
			_ = os.Unsetenv(key)
		}
	})

	custom := t.TempDir()
	dotenv := "TWILIO_ACCOUNT_SID=AC123\nTWILIO_AUTH_TOKEN=secret\nTWILIO_PHONE_NUMBER=+15550000000\nRECIPIENT_PHONE_NUMBER=+15551111111\n"
	if err := os.WriteFile(filepath.Join(custom, ".env"), []byte(dotenv), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := LoadEnv(custom)
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if cfg.Home != custom {
		t.Fatalf("expected home %s, got %s", custom, cfg.Home)
	}
	if err := cfg.RequireSMS(); err != nil {
		t.Fatalf("expected credentials from custom home .env: %v", err)
	}
}
