package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/recite-api/internal/domain"
	"github.com/phrazzld/recite-api/internal/store"
)

// SQLiteBookStore implements the store.BookStore interface using an
// embedded SQLite database as the storage backend.
//
// Save needs a delete-and-reinsert of the chapter list, so unlike the
// recite store this type holds the *sql.DB directly and wraps the
// replacement in store.RunInTransaction itself.
type SQLiteBookStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewBookStore creates a new SQLite implementation of the BookStore
// interface. If logger is nil, the default logger is used.
func NewBookStore(db *sql.DB, logger *slog.Logger) *SQLiteBookStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteBookStore{
		db:     db,
		logger: logger.With(slog.String("component", "book_store")),
	}
}

// Ensure SQLiteBookStore implements store.BookStore interface
var _ store.BookStore = (*SQLiteBookStore)(nil)

// Save implements store.BookStore.Save. The book row is upserted and its
// chapter list replaced wholesale inside one transaction, so a concurrent
// reader sees either the old chapter list or the new one, never a mix.
func (s *SQLiteBookStore) Save(ctx context.Context, book *domain.Book) error {
	if err := book.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	updatedAt := book.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		const upsert = `
INSERT INTO books (name, updated_at)
VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at;
`
		if _, err := tx.ExecContext(ctx, upsert, book.Name, updatedAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("upsert book: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE book_name = ?;`, book.Name); err != nil {
			return fmt.Errorf("clear chapters: %w", err)
		}

		const insert = `
INSERT INTO chapters (book_name, position, title, content)
VALUES (?, ?, ?, ?);
`
		for i, ch := range book.Chapters {
			if _, err := tx.ExecContext(ctx, insert, book.Name, i, ch.Title, ch.Content); err != nil {
				return fmt.Errorf("insert chapter %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return store.NewStoreError("book", "save", "failed to save book", err)
	}

	s.logger.DebugContext(ctx, "book saved",
		slog.String("book", book.Name),
		slog.Int("chapters", len(book.Chapters)))
	return nil
}

// GetByName implements store.BookStore.GetByName.
// Returns store.ErrBookNotFound if the book does not exist.
func (s *SQLiteBookStore) GetByName(ctx context.Context, name string) (*domain.Book, error) {
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM books WHERE name = ?;`, name).
		Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrBookNotFound
		}
		return nil, store.NewStoreError("book", "get", "failed to query book", err)
	}

	chapters, err := s.chaptersFor(ctx, name)
	if err != nil {
		return nil, err
	}

	book := &domain.Book{Name: name, Chapters: chapters}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		book.UpdatedAt = t
	}
	return book, nil
}

// List implements store.BookStore.List, newest first.
func (s *SQLiteBookStore) List(ctx context.Context) ([]store.BookSummary, error) {
	const query = `
SELECT b.name, b.updated_at, COUNT(c.book_name)
FROM books b
LEFT JOIN chapters c ON c.book_name = b.name
GROUP BY b.name
ORDER BY b.updated_at DESC, b.name ASC;
`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, store.NewStoreError("book", "list", "failed to query books", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := make([]store.BookSummary, 0)
	for rows.Next() {
		var sum store.BookSummary
		if err := rows.Scan(&sum.Name, &sum.Modified, &sum.Chapters); err != nil {
			return nil, store.NewStoreError("book", "list", "failed to scan book", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("book", "list", "failed to iterate books", err)
	}
	return summaries, nil
}

// ListAll implements store.BookStore.ListAll, ordered by name.
func (s *SQLiteBookStore) ListAll(ctx context.Context) ([]*domain.Book, error) {
	const query = `
SELECT book_name, title, content
FROM chapters
ORDER BY book_name ASC, position ASC;
`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, store.NewStoreError("book", "list_all", "failed to query chapters", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		books   []*domain.Book
		current *domain.Book
	)
	for rows.Next() {
		var bookName string
		var ch domain.Chapter
		if err := rows.Scan(&bookName, &ch.Title, &ch.Content); err != nil {
			return nil, store.NewStoreError("book", "list_all", "failed to scan chapter", err)
		}
		if current == nil || current.Name != bookName {
			current = &domain.Book{Name: bookName}
			books = append(books, current)
		}
		current.Chapters = append(current.Chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("book", "list_all", "failed to iterate chapters", err)
	}
	return books, nil
}

func (s *SQLiteBookStore) chaptersFor(ctx context.Context, name string) ([]domain.Chapter, error) {
	const query = `
SELECT title, content
FROM chapters
WHERE book_name = ?
ORDER BY position ASC;
`
	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, store.NewStoreError("book", "get", "failed to query chapters", err)
	}
	defer func() { _ = rows.Close() }()

	chapters := make([]domain.Chapter, 0)
	for rows.Next() {
		var ch domain.Chapter
		if err := rows.Scan(&ch.Title, &ch.Content); err != nil {
			return nil, store.NewStoreError("book", "get", "failed to scan chapter", err)
		}
		chapters = append(chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("book", "get", "failed to iterate chapters", err)
	}
	return chapters, nil
}
