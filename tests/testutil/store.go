// Package testutil provides shared helpers for package tests.
package testutil

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/perchapp/perch/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations
// applied, scoped to the given account. It automatically closes the
// store when the test completes.
func NewTestStore(t *testing.T, accountID string) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:", accountID, zerolog.Nop())
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
