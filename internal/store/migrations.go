package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS read_cursors (
	account_id TEXT NOT NULL,
	thread_id  TEXT NOT NULL,
	watermark  DATETIME NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (account_id, thread_id)
);

CREATE TABLE IF NOT EXISTS seen_items (
	account_id TEXT NOT NULL,
	category   TEXT NOT NULL,
	item_id    TEXT NOT NULL,
	seen_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (account_id, category, item_id)
);

CREATE INDEX IF NOT EXISTS idx_seen_items_account_category
	ON seen_items(account_id, category);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
