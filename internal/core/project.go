package core

import (
	"os"
	"path/filepath"
)

// File names inside the data directory.
const (
	BookLogFile   = "books_read.csv"
	IndexFile     = "books.db"
	RemindersFile = "reminders.jsonl"
	SettingsFile  = "settings.yaml"
	LogFile       = "storytime.log"
)

// Home is the storytime data directory.
type Home struct {
	Dir string
}

// NewHome returns a Home rooted at dir.
func NewHome(dir string) Home {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return Home{Dir: dir}
}

// Ensure creates the data directory and its .gitignore.
func (h Home) Ensure() error {
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return err
	}
	EnsureGitignore(h.Dir)
	return nil
}

func (h Home) BookLogPath() string   { return filepath.Join(h.Dir, BookLogFile) }
func (h Home) IndexPath() string     { return filepath.Join(h.Dir, IndexFile) }
func (h Home) RemindersPath() string { return filepath.Join(h.Dir, RemindersFile) }
func (h Home) SettingsPath() string  { return filepath.Join(h.Dir, SettingsFile) }
func (h Home) LogPath() string       { return filepath.Join(h.Dir, LogFile) }

// EnsureGitignore keeps the sqlite cache and secrets out of version control
// when the data directory lives inside a repository.
func EnsureGitignore(dir string) {
	path := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return
	}
	content := "*.db\n*.db-wal\n*.db-shm\n.env\n*.log\n"
	_ = os.WriteFile(path, []byte(content), 0o644)
}
