package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adamavenir/storytime/internal/types"
	"gopkg.in/yaml.v3"
)

// Settings stores user preferences that the app itself edits.
type Settings struct {
	Version       int                `yaml:"version"`
	Readers       []types.ReaderSeed `yaml:"readers"`
	SMSOptOut     bool               `yaml:"sms_opt_out"`
	DesktopNotify bool               `yaml:"desktop_notify"`
}

// ReadSettings reads the settings file, returning defaults when absent.
func ReadSettings(home Home) (*Settings, error) {
	data, err := os.ReadFile(home.SettingsPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{Version: 1, DesktopNotify: true}, nil
		}
		return nil, err
	}
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", home.SettingsPath(), err)
	}
	if settings.Version == 0 {
		settings.Version = 1
	}
	return &settings, nil
}

// WriteSettings writes the settings file, replacing it atomically.
func WriteSettings(home Home, settings Settings) error {
	if err := home.Ensure(); err != nil {
		return err
	}
	if settings.Version == 0 {
		settings.Version = 1
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	tmp := home.SettingsPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, home.SettingsPath())
}

// SetSMSOptOut persists the opt-out flag consulted by the reminder scheduler.
func SetSMSOptOut(home Home, optOut bool) error {
	settings, err := ReadSettings(home)
	if err != nil {
		return err
	}
	settings.SMSOptOut = optOut
	return WriteSettings(home, *settings)
}

// AddReader appends a reader to the settings. Names are unique, compared
// case-insensitively.
func AddReader(home Home, id string, avatar string) (*Settings, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("reader name is required")
	}
	settings, err := ReadSettings(home)
	if err != nil {
		return nil, err
	}
	for _, seed := range settings.Readers {
		if strings.EqualFold(seed.ID, id) {
			return nil, fmt.Errorf("reader %q already exists", seed.ID)
		}
	}
	seed := types.ReaderSeed{ID: id}
	if avatar = strings.TrimSpace(avatar); avatar != "" {
		abs, err := filepath.Abs(avatar)
		if err == nil {
			avatar = abs
		}
		seed.AvatarRef = &avatar
	}
	settings.Readers = append(settings.Readers, seed)
	if err := WriteSettings(home, *settings); err != nil {
		return nil, err
	}
	return settings, nil
}
