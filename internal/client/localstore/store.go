// Package localstore keeps the logged-in user and terminal preferences on disk.
package localstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// User is the account the CLI acts as.
type User struct {
	ID       int64    `yaml:"id"`
	Email    string   `yaml:"email"`
	Username string   `yaml:"username"`
	Token    string   `yaml:"token"`
	Friends  []string `yaml:"friends"`
}

// Prefs are the user's notification preferences.
type Prefs struct {
	Sound        bool `yaml:"sound"`
	Notification bool `yaml:"notification"`
}

// Store is the yaml-backed session file.
type Store struct {
	User  User  `yaml:"user"`
	Prefs Prefs `yaml:"prefs"`

	path string
}

// DefaultPrefs enables both sound and notifications.
func DefaultPrefs() Prefs {
	return Prefs{Sound: true, Notification: true}
}

// Load reads the session file. A missing file yields an empty store with default prefs.
func Load(path string) (*Store, error) {
	s := &Store{Prefs: DefaultPrefs(), path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	return s, nil
}

// Path returns the file the store persists to.
func (s *Store) Path() string {
	return s.path
}

// IsAuthenticated reports whether a token is stored.
func (s *Store) IsAuthenticated() bool {
	return s.User.Token != ""
}

// SetUser replaces the stored account.
func (s *Store) SetUser(u User) {
	s.User = u
}

// ClearUser forgets the account but keeps preferences.
func (s *Store) ClearUser() {
	s.User = User{}
}

// Save writes the store atomically with owner-only permissions.
func (s *Store) Save() error {
	if s.path == "" {
		return errors.New("session path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, s.path)
}
