// Package filestore provides a JSON-file-backed implementation of
// triage.Store. The whole history is held in memory and written through
// to a single document after every mutation, mirroring a key-value slot
// keyed by the file path.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/medai/internal/triage"
)

// Store persists the session history in a JSON file.
type Store struct {
	mu       sync.Mutex
	path     string
	limit    int
	sessions []triage.Session // newest first
}

// New loads the history from path, or starts empty when the file is
// missing or unparsable. Load failures are never fatal; a corrupt
// document is logged and treated as an empty history.
func New(ctx context.Context, path string, limit int, logger log.Logger) *Store {
	if logger == nil {
		logger = log.Nop()
	}

	s := &Store{path: path, limit: limit}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is from trusted config, not user input
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s
	case err != nil:
		logger.Warn(ctx, "session history unreadable, starting empty", "path", path, "error", err)
		return s
	}

	var sessions []triage.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		logger.Warn(ctx, "session history corrupt, starting empty", "path", path, "error", err)
		return s
	}

	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	s.sessions = sessions
	logger.Info(ctx, "loaded session history", "path", path, "sessions", len(sessions))
	return s
}

// Add prepends the session, evicts beyond the cap, and rewrites the file.
func (s *Store) Add(_ context.Context, sess *triage.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]triage.Session{*sess}, s.sessions...)
	if len(s.sessions) > s.limit {
		s.sessions = s.sessions[:s.limit]
	}
	return s.persist()
}

// Get retrieves a session by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*triage.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			cp := s.sessions[i]
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

// List returns a copy of the history, newest first.
func (s *Store) List(_ context.Context) ([]triage.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]triage.Session, len(s.sessions))
	copy(out, s.sessions)
	return out, nil
}

// Count returns the number of stored sessions.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions), nil
}

// Delete removes the session with the given ID if present and rewrites
// the file. Absent IDs leave the file untouched.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return s.persist()
		}
	}
	return nil
}

// Clear empties the history and removes the file entirely.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove history file: %w", err)
	}
	return nil
}

// persist writes the full history through a temp file and rename so a
// crash mid-write cannot leave a truncated document behind.
func (s *Store) persist() error {
	data, err := json.Marshal(s.sessions)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".medai-sessions-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}
