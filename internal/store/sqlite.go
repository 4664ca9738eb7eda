package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store with SQLite persistence behind an
// in-memory mirror. The mirror is loaded once at open and is the source
// of truth for the session; SQLite writes are best-effort so a sick
// disk degrades to memory-only behavior instead of surfacing errors.
type SQLiteStore struct {
	db        *sqlx.DB
	accountID string
	log       zerolog.Logger

	mu      sync.Mutex
	cursors map[string]time.Time
	seen    map[Category]map[string]struct{}
	primed  map[Category]bool
}

// NewSQLiteStore opens (or creates) the state database at dbPath,
// enables WAL mode, runs pending migrations, and loads the account's
// read state into memory.
func NewSQLiteStore(dbPath, accountID string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps writes serialized and makes :memory:
	// databases behave, since each sqlite connection gets its own copy.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:        db,
		accountID: accountID,
		log:       log.With().Str("component", "store").Logger(),
		cursors:   make(map[string]time.Time),
		seen: map[Category]map[string]struct{}{
			CategoryNotifications: {},
			CategorySyncRequests:  {},
		},
		primed: make(map[Category]bool),
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if err := s.loadState(); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading read state: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// loadState reads the account's cursors and seen sets into the mirror.
func (s *SQLiteStore) loadState() error {
	rows, err := s.db.Queryx(
		"SELECT thread_id, watermark FROM read_cursors WHERE account_id = ?",
		s.accountID,
	)
	if err != nil {
		return fmt.Errorf("querying read cursors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var threadID string
		var watermark time.Time
		if err := rows.Scan(&threadID, &watermark); err != nil {
			return fmt.Errorf("scanning read cursor row: %w", err)
		}
		s.cursors[threadID] = watermark
	}
	if err := rows.Err(); err != nil {
		return err
	}

	seenRows, err := s.db.Queryx(
		"SELECT category, item_id FROM seen_items WHERE account_id = ?",
		s.accountID,
	)
	if err != nil {
		return fmt.Errorf("querying seen items: %w", err)
	}
	defer seenRows.Close()

	for seenRows.Next() {
		var category, itemID string
		if err := seenRows.Scan(&category, &itemID); err != nil {
			return fmt.Errorf("scanning seen item row: %w", err)
		}
		set, ok := s.seen[Category(category)]
		if !ok {
			set = make(map[string]struct{})
			s.seen[Category(category)] = set
		}
		set[itemID] = struct{}{}
	}

	return seenRows.Err()
}

// Cursor returns the read watermark for a thread.
func (s *SQLiteStore) Cursor(ctx context.Context, threadID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	watermark, ok := s.cursors[threadID]
	return watermark, ok
}

// AdvanceCursor moves a thread's watermark forward, ignoring calls that
// would move it backward or leave it unchanged.
func (s *SQLiteStore) AdvanceCursor(ctx context.Context, threadID string, ts time.Time) {
	s.mu.Lock()
	current, ok := s.cursors[threadID]
	if ok && !ts.After(current) {
		s.mu.Unlock()
		return
	}
	s.cursors[threadID] = ts
	s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO read_cursors (account_id, thread_id, watermark, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id, thread_id) DO UPDATE SET
			watermark = excluded.watermark,
			updated_at = excluded.updated_at
		WHERE excluded.watermark > read_cursors.watermark`,
		s.accountID, threadID, ts.UTC(), time.Now().UTC(),
	)
	if err != nil {
		s.log.Debug().Err(err).Str("thread", threadID).Msg("cursor write-through failed")
	}
}

// Primed reports whether the category has been seeded this session.
func (s *SQLiteStore) Primed(category Category) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.primed[category]
}

// MarkPrimed wholesale-replaces the category's seen set with ids and
// marks the category primed for the rest of the session.
func (s *SQLiteStore) MarkPrimed(ctx context.Context, category Category, ids []string) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	s.mu.Lock()
	s.seen[category] = set
	s.primed[category] = true
	s.mu.Unlock()

	if err := s.replaceSeen(ctx, category, ids); err != nil {
		s.log.Debug().Err(err).Str("category", string(category)).Msg("seen set write-through failed")
	}
}

// DiffAndMark adds each id not already in the set and returns the newly
// added ids. Not-yet-primed categories return nil defensively; the poll
// loop always primes before diffing.
func (s *SQLiteStore) DiffAndMark(ctx context.Context, category Category, ids []string) []string {
	s.mu.Lock()
	if !s.primed[category] {
		s.mu.Unlock()
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
	s.mu.Unlock()

	if len(fresh) > 0 {
		if err := s.insertSeen(ctx, category, fresh); err != nil {
			s.log.Debug().Err(err).Str("category", string(category)).Msg("seen set write-through failed")
		}
	}

	return fresh
}

// replaceSeen rewrites the persisted seen set for a category.
func (s *SQLiteStore) replaceSeen(ctx context.Context, category Category, ids []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"DELETE FROM seen_items WHERE account_id = ? AND category = ?",
		s.accountID, string(category),
	)
	if err != nil {
		return fmt.Errorf("clearing seen set: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx,
		"INSERT OR IGNORE INTO seen_items (account_id, category, item_id) VALUES (?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("preparing seen insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, s.accountID, string(category), id); err != nil {
			return fmt.Errorf("inserting seen item %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// insertSeen appends ids to the persisted seen set for a category.
func (s *SQLiteStore) insertSeen(ctx context.Context, category Category, ids []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		"INSERT OR IGNORE INTO seen_items (account_id, category, item_id) VALUES (?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("preparing seen insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, s.accountID, string(category), id); err != nil {
			return fmt.Errorf("inserting seen item %s: %w", id, err)
		}
	}

	return tx.Commit()
}
