package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testSchema mirrors the server's migration files so store tests run
// against the real table shapes without pulling in the migration runner.
const testSchema = `
CREATE TABLE recite_items (
    id               TEXT PRIMARY KEY,
    book_name        TEXT NOT NULL,
    chapter_title    TEXT NOT NULL,
    strategy         TEXT NOT NULL DEFAULT 'standard',
    added_at         TEXT NOT NULL,
    review_count     INTEGER NOT NULL DEFAULT 0,
    last_reviewed_at TEXT,
    next_review_at   TEXT NOT NULL
);

CREATE TABLE books (
    name       TEXT PRIMARY KEY,
    updated_at TEXT NOT NULL
);

CREATE TABLE chapters (
    book_name TEXT NOT NULL REFERENCES books (name) ON DELETE CASCADE,
    position  INTEGER NOT NULL,
    title     TEXT NOT NULL,
    content   TEXT NOT NULL,
    PRIMARY KEY (book_name, position)
);
`

// newTestDB opens a fresh database in a per-test temp directory and
// applies the schema.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "recite.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}
