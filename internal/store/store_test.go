package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perchapp/perch/internal/store"
	"github.com/perchapp/perch/tests/testutil"
)

// runForEachStore runs the same semantics test against both Store
// implementations; the memory store is also the fallback for a broken
// database, so the two must behave identically.
func runForEachStore(t *testing.T, fn func(t *testing.T, s store.Store)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, testutil.NewTestStore(t, "acct-1"))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, store.NewMemoryStore("acct-1"))
	})
}

func TestCursorStartsAbsent(t *testing.T) {
	runForEachStore(t, func(t *testing.T, s store.Store) {
		_, ok := s.Cursor(context.Background(), "thread-1")
		assert.False(t, ok)
	})
}

func TestCursorNeverRegresses(t *testing.T) {
	runForEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

		s.AdvanceCursor(ctx, "thread-1", base)

		got, ok := s.Cursor(ctx, "thread-1")
		require.True(t, ok)
		assert.True(t, got.Equal(base))

		// A stale fetch must not move the watermark backwards.
		s.AdvanceCursor(ctx, "thread-1", base.Add(-time.Hour))
		got, _ = s.Cursor(ctx, "thread-1")
		assert.True(t, got.Equal(base))

		// Equal timestamps are a no-op too.
		s.AdvanceCursor(ctx, "thread-1", base)
		got, _ = s.Cursor(ctx, "thread-1")
		assert.True(t, got.Equal(base))

		// Forward movement applies.
		s.AdvanceCursor(ctx, "thread-1", base.Add(time.Minute))
		got, _ = s.Cursor(ctx, "thread-1")
		assert.True(t, got.Equal(base.Add(time.Minute)))
	})
}

func TestCursorsAreIndependentPerThread(t *testing.T) {
	runForEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		t1 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		t2 := t1.Add(time.Hour)

		s.AdvanceCursor(ctx, "thread-1", t1)
		s.AdvanceCursor(ctx, "thread-2", t2)

		got1, _ := s.Cursor(ctx, "thread-1")
		got2, _ := s.Cursor(ctx, "thread-2")
		assert.True(t, got1.Equal(t1))
		assert.True(t, got2.Equal(t2))
	})
}

func TestDiffAndMarkReturnsNilBeforePriming(t *testing.T) {
	runForEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()

		assert.False(t, s.Primed(store.CategoryNotifications))
		assert.Nil(t, s.DiffAndMark(ctx, store.CategoryNotifications, []string{"n1", "n2"}))

		// The rejected ids were not silently added to the set.
		s.MarkPrimed(ctx, store.CategoryNotifications, nil)
		fresh := s.DiffAndMark(ctx, store.CategoryNotifications, []string{"n1"})
		assert.Equal(t, []string{"n1"}, fresh)
	})
}

func TestMarkPrimedSuppressesExistingItems(t *testing.T) {
	runForEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()

		s.MarkPrimed(ctx, store.CategoryNotifications, []string{"n1", "n2"})
		assert.True(t, s.Primed(store.CategoryNotifications))

		// Nothing primed counts as new.
		assert.Empty(t, s.DiffAndMark(ctx, store.CategoryNotifications, []string{"n1", "n2"}))

		// Only the genuinely new id surfaces, exactly once.
		fresh := s.DiffAndMark(ctx, store.CategoryNotifications, []string{"n1", "n2", "n3"})
		assert.Equal(t, []string{"n3"}, fresh)
		assert.Empty(t, s.DiffAndMark(ctx, store.CategoryNotifications, []string{"n3"}))
	})
}

func TestCategoriesPrimeIndependently(t *testing.T) {
	runForEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()

		s.MarkPrimed(ctx, store.CategoryNotifications, []string{"n1"})

		assert.True(t, s.Primed(store.CategoryNotifications))
		assert.False(t, s.Primed(store.CategorySyncRequests))
		assert.Nil(t, s.DiffAndMark(ctx, store.CategorySyncRequests, []string{"r1"}))
	})
}

func TestSQLiteCursorSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "state.db")
	watermark := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s, err := store.NewSQLiteStore(dbPath, "acct-1", zerolog.Nop())
	require.NoError(t, err)
	s.AdvanceCursor(ctx, "thread-1", watermark)
	s.MarkPrimed(ctx, store.CategoryNotifications, []string{"n1"})
	require.NoError(t, s.Close())

	reopened, err := store.NewSQLiteStore(dbPath, "acct-1", zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.Cursor(ctx, "thread-1")
	require.True(t, ok)
	assert.True(t, got.Equal(watermark))

	// Priming is session-scoped: a fresh session must re-prime before
	// it can toast, even though the seen set was persisted.
	assert.False(t, reopened.Primed(store.CategoryNotifications))
}

func TestSQLiteStateIsNamespacedByAccount(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "state.db")
	watermark := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	first, err := store.NewSQLiteStore(dbPath, "acct-1", zerolog.Nop())
	require.NoError(t, err)
	first.AdvanceCursor(ctx, "thread-1", watermark)
	require.NoError(t, first.Close())

	second, err := store.NewSQLiteStore(dbPath, "acct-2", zerolog.Nop())
	require.NoError(t, err)
	defer second.Close()

	_, ok := second.Cursor(ctx, "thread-1")
	assert.False(t, ok, "read state must not bleed between accounts")
}

func TestOpenFallsBackToMemory(t *testing.T) {
	// A directory path cannot be opened as a database file.
	s := store.Open(t.TempDir(), "acct-1", zerolog.Nop())
	defer s.Close()

	_, isMemory := s.(*store.MemoryStore)
	assert.True(t, isMemory)

	// The fallback still honors the full contract.
	ctx := context.Background()
	s.MarkPrimed(ctx, store.CategoryNotifications, []string{"n1"})
	assert.Equal(t, []string{"n2"}, s.DiffAndMark(ctx, store.CategoryNotifications, []string{"n1", "n2"}))
}
