// Package session manages the persistent session records backing a run.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrDatabaseNotRunning reports that the session database cannot be
// reached. The bootstrapper treats it as fatal: no scan is attempted.
var ErrDatabaseNotRunning = errors.New("session: database is not running")

// DefaultName is the session every run joins unless told otherwise.
const DefaultName = "default session"

// Session is one persisted session record.
type Session struct {
	ID     int    `yaml:"id"`
	Name   string `yaml:"name"`
	Active bool   `yaml:"active"`
}

// Store is a session database rooted at a directory.
type Store struct {
	dir  string
	path string
}

// Open returns a store backed by dir. Nothing is touched until
// EnsureDefault runs.
func Open(dir string) *Store {
	return &Store{dir: dir, path: filepath.Join(dir, "sessions.yaml")}
}

// EnsureDefault guarantees the default session record exists, creating the
// database on first use. Any failure to reach or write the backing store is
// reported as ErrDatabaseNotRunning.
func (s *Store) EnsureDefault() error {
	sessions, err := s.load()
	if err != nil {
		return err
	}
	for _, sess := range sessions {
		if sess.Name == DefaultName {
			return nil
		}
	}
	sessions = append(sessions, &Session{ID: len(sessions) + 1, Name: DefaultName, Active: true})
	return s.save(sessions)
}

func (s *Store) load() ([]*Session, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseNotRunning, err)
	}
	var sessions []*Session
	if err := yaml.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseNotRunning, err)
	}
	return sessions, nil
}

func (s *Store) save(sessions []*Session) error {
	data, err := yaml.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseNotRunning, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseNotRunning, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseNotRunning, err)
	}
	return nil
}
