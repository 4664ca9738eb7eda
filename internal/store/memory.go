package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store without persistence. It backs the
// session when the local database is unavailable, and doubles as the
// store used by engine tests.
type MemoryStore struct {
	accountID string

	mu      sync.Mutex
	cursors map[string]time.Time
	seen    map[Category]map[string]struct{}
	primed  map[Category]bool
}

// NewMemoryStore creates an empty memory-only store for an account.
func NewMemoryStore(accountID string) *MemoryStore {
	return &MemoryStore{
		accountID: accountID,
		cursors:   make(map[string]time.Time),
		seen: map[Category]map[string]struct{}{
			CategoryNotifications: {},
			CategorySyncRequests:  {},
		},
		primed: make(map[Category]bool),
	}
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

// Cursor returns the read watermark for a thread.
func (s *MemoryStore) Cursor(ctx context.Context, threadID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	watermark, ok := s.cursors[threadID]
	return watermark, ok
}

// AdvanceCursor moves a thread's watermark forward, never backward.
func (s *MemoryStore) AdvanceCursor(ctx context.Context, threadID string, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.cursors[threadID]
	if ok && !ts.After(current) {
		return
	}
	s.cursors[threadID] = ts
}

// Primed reports whether the category has been seeded this session.
func (s *MemoryStore) Primed(category Category) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.primed[category]
}

// MarkPrimed wholesale-replaces the category's seen set with ids.
func (s *MemoryStore) MarkPrimed(ctx context.Context, category Category, ids []string) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[category] = set
	s.primed[category] = true
}

// DiffAndMark adds each id not already in the set and returns the newly
// added ids, or nil when the category has not been primed.
func (s *MemoryStore) DiffAndMark(ctx context.Context, category Category, ids []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.primed[category] {
		return nil
	}

	set, ok := s.seen[category]
	if !ok {
		set = make(map[string]struct{})
		s.seen[category] = set
	}

	var fresh []string
	for _, id := range ids {
		if _, dup := set[id]; dup {
			continue
		}
		set[id] = struct{}{}
		fresh = append(fresh, id)
	}

	return fresh
}
