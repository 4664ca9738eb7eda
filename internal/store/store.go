// Package store persists the client-owned read state: per-thread read
// cursors and per-category seen sets. Both live in a local SQLite
// database namespaced by account id so that read state never bleeds
// between accounts on a shared machine. Storage failures are absorbed:
// every operation works against an in-memory mirror that is
// authoritative for the session, with SQLite as best-effort
// write-through, so callers never see an error from this layer.
package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Category names an event stream with its own seen set.
type Category string

const (
	// CategoryNotifications de-duplicates notification toasts.
	CategoryNotifications Category = "notifications"

	// CategorySyncRequests de-duplicates sync request toasts.
	CategorySyncRequests Category = "sync_requests"
)

// Store is the persistence contract for read cursors and seen sets.
type Store interface {
	// Cursor returns the read watermark for a thread; ok is false
	// when no cursor exists yet.
	Cursor(ctx context.Context, threadID string) (time.Time, bool)

	// AdvanceCursor moves a thread's watermark forward. Calls with a
	// timestamp at or before the current watermark are ignored, so
	// the cursor never regresses on a stale fetch.
	AdvanceCursor(ctx context.Context, threadID string, ts time.Time)

	// Primed reports whether the category's seen set has been seeded
	// this session. It is false only before the first successful
	// poll since session start.
	Primed(category Category) bool

	// MarkPrimed wholesale-replaces the category's seen set with ids
	// and marks the category primed. No diffing happens here; primed
	// items never produce toasts.
	MarkPrimed(ctx context.Context, category Category, ids []string)

	// DiffAndMark adds each id not already in the set and returns the
	// newly added ids. It returns nil when the category has not been
	// primed yet. Repeated calls with the same ids return nothing.
	DiffAndMark(ctx context.Context, category Category, ids []string) []string

	// Close releases any underlying resources.
	Close() error
}

// Open opens the SQLite-backed store at dbPath for the given account.
// When the database cannot be opened or migrated it degrades to a
// memory-only store for the session rather than failing.
func Open(dbPath, accountID string, log zerolog.Logger) Store {
	s, err := NewSQLiteStore(dbPath, accountID, log)
	if err != nil {
		log.Warn().Err(err).Str("path", dbPath).
			Msg("local state db unavailable, read state will not survive restart")
		return NewMemoryStore(accountID)
	}
	return s
}
