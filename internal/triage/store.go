package triage

import "context"

// Store is the persistence interface for the bounded session history.
// Implementations own the cap: Add prepends and evicts the oldest entries
// beyond the configured limit. Order reflects insertion recency, newest
// first; entries are never re-sorted by timestamp.
type Store interface {
	// Add inserts a session at the head of the history, evicting the
	// oldest entries beyond the cap, and persists the result.
	Add(ctx context.Context, s *Session) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*Session, bool, error)

	// List returns the current history, newest first.
	List(ctx context.Context) ([]Session, error)

	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int, error)

	// Delete removes the session with the given ID. Deleting an absent
	// ID is a no-op, not an error.
	Delete(ctx context.Context, id string) error

	// Clear empties the history and removes any persisted state.
	Clear(ctx context.Context) error
}
