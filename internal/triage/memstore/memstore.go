// Package memstore provides an in-memory implementation of triage.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/medai/internal/triage"
)

// Store holds the session history in memory. Suitable for dev/testing.
type Store struct {
	mu       sync.RWMutex
	limit    int
	sessions []triage.Session // newest first
}

// New initializes a new in-memory Store holding at most limit sessions.
func New(limit int) *Store {
	return &Store{limit: limit}
}

// Add prepends a copy of the session, evicting the oldest beyond the cap.
func (s *Store) Add(_ context.Context, sess *triage.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]triage.Session{*sess}, s.sessions...)
	if len(s.sessions) > s.limit {
		s.sessions = s.sessions[:s.limit]
	}
	return nil
}

// Get retrieves a session by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*triage.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
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
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]triage.Session, len(s.sessions))
	copy(out, s.sessions)
	return out, nil
}

// Count returns the number of stored sessions.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

// Delete removes the session with the given ID if present.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return nil
		}
	}
	return nil
}

// Clear empties the history.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = nil
	return nil
}
