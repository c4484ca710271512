package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/recite-api/internal/domain"
	"github.com/phrazzld/recite-api/internal/store"
)

// SQLiteReciteStore implements the store.ReciteStore interface using an
// embedded SQLite database as the storage backend.
type SQLiteReciteStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewReciteStore creates a new SQLite implementation of the ReciteStore
// interface. It accepts a database connection or transaction that should be
// initialized and managed by the caller. If logger is nil, the default
// logger is used.
func NewReciteStore(db store.DBTX, logger *slog.Logger) *SQLiteReciteStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteReciteStore{
		db:     db,
		logger: logger.With(slog.String("component", "recite_store")),
	}
}

// Ensure SQLiteReciteStore implements store.ReciteStore interface
var _ store.ReciteStore = (*SQLiteReciteStore)(nil)

// WithTx implements store.ReciteStore.WithTx.
func (s *SQLiteReciteStore) WithTx(tx *sql.Tx) store.ReciteStore {
	return &SQLiteReciteStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ReciteStore.Create.
// Returns store.ErrItemExists when the composite id is already tracked.
func (s *SQLiteReciteStore) Create(ctx context.Context, item *domain.ReciteItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	const query = `
INSERT INTO recite_items (id, book_name, chapter_title, strategy, added_at, review_count, last_reviewed_at, next_review_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err := s.db.ExecContext(ctx, query,
		item.ID,
		item.BookName,
		item.ChapterTitle,
		item.Strategy,
		item.AddedAt,
		item.ReviewCount,
		item.LastReviewedAt,
		item.NextReviewAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrItemExists
		}
		return store.NewStoreError("recite_item", "create", "failed to insert item", err)
	}

	s.logger.DebugContext(ctx, "recite item created", slog.String("item_id", item.ID))
	return nil
}

// GetByID implements store.ReciteStore.GetByID.
// Returns store.ErrItemNotFound if the item does not exist.
func (s *SQLiteReciteStore) GetByID(ctx context.Context, id string) (*domain.ReciteItem, error) {
	const query = `
SELECT id, book_name, chapter_title, strategy, added_at, review_count, last_reviewed_at, next_review_at
FROM recite_items
WHERE id = ?;
`
	row := s.db.QueryRowContext(ctx, query, id)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrItemNotFound
		}
		return nil, store.NewStoreError("recite_item", "get", "failed to scan item", err)
	}
	return item, nil
}

// Update implements store.ReciteStore.Update.
// Returns store.ErrItemNotFound if the item does not exist.
func (s *SQLiteReciteStore) Update(ctx context.Context, item *domain.ReciteItem) error {
	const query = `
UPDATE recite_items
SET strategy = ?, review_count = ?, last_reviewed_at = ?, next_review_at = ?
WHERE id = ?;
`
	res, err := s.db.ExecContext(ctx, query,
		item.Strategy,
		item.ReviewCount,
		item.LastReviewedAt,
		item.NextReviewAt,
		item.ID,
	)
	if err != nil {
		return store.NewStoreError("recite_item", "update", "failed to update item", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return store.NewStoreError("recite_item", "update", "failed to read affected rows", err)
	}
	if affected == 0 {
		return store.ErrItemNotFound
	}

	s.logger.DebugContext(ctx, "recite item updated",
		slog.String("item_id", item.ID),
		slog.Int("review_count", item.ReviewCount))
	return nil
}

// Delete implements store.ReciteStore.Delete.
// Deleting an absent item succeeds silently per the store contract.
func (s *SQLiteReciteStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM recite_items WHERE id = ?;`

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return store.NewStoreError("recite_item", "delete", "failed to delete item", err)
	}

	s.logger.DebugContext(ctx, "recite item deleted", slog.String("item_id", id))
	return nil
}

// ListAll implements store.ReciteStore.ListAll. Rows come back in insertion
// order via the rowid so the learner's list stays stable.
func (s *SQLiteReciteStore) ListAll(ctx context.Context) ([]*domain.ReciteItem, error) {
	const query = `
SELECT id, book_name, chapter_title, strategy, added_at, review_count, last_reviewed_at, next_review_at
FROM recite_items
ORDER BY rowid;
`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, store.NewStoreError("recite_item", "list", "failed to query items", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]*domain.ReciteItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, store.NewStoreError("recite_item", "list", "failed to scan item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("recite_item", "list", "failed to iterate items", err)
	}

	return items, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.ReciteItem, error) {
	var (
		item         domain.ReciteItem
		lastReviewed sql.NullString
	)
	err := row.Scan(
		&item.ID,
		&item.BookName,
		&item.ChapterTitle,
		&item.Strategy,
		&item.AddedAt,
		&item.ReviewCount,
		&lastReviewed,
		&item.NextReviewAt,
	)
	if err != nil {
		return nil, err
	}
	item.LastReviewedAt = lastReviewed.String
	return &item, nil
}

// isUniqueViolation checks if the given error is a SQLite unique constraint
// violation. The modernc driver exposes the extended result code in the
// error text (SQLITE_CONSTRAINT_PRIMARYKEY is 1555, plain unique is 2067).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "constraint failed") &&
		(strings.Contains(msg, "1555") || strings.Contains(msg, "2067") ||
			strings.Contains(msg, "UNIQUE") || strings.Contains(msg, "PRIMARY KEY"))
}
