package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/recite-api/internal/domain"
)

// ReciteStore defines the interface for recite list persistence.
//
// Items are keyed by the composite id built from book name and chapter
// title (domain.ItemID). Implementations must preserve insertion order in
// ListAll so the learner's list stays stable across reads.
type ReciteStore interface {
	// Create saves a new recite item. Returns ErrItemExists if an item with
	// the same composite id is already tracked; callers implementing
	// idempotent add treat that case as success.
	Create(ctx context.Context, item *domain.ReciteItem) error

	// GetByID retrieves an item by its composite id.
	// Returns ErrItemNotFound if the item does not exist.
	GetByID(ctx context.Context, id string) (*domain.ReciteItem, error)

	// Update persists an item's mutable review state (strategy, review
	// count, last reviewed, next review). Returns ErrItemNotFound if the
	// item does not exist.
	Update(ctx context.Context, item *domain.ReciteItem) error

	// Delete removes the item with the given composite id. Deleting an
	// absent item is a silent success: remove is idempotent by contract,
	// unlike entity stores where a missing row is an error.
	Delete(ctx context.Context, id string) error

	// ListAll returns every tracked item in insertion order.
	ListAll(ctx context.Context) ([]*domain.ReciteItem, error)

	// WithTx returns a ReciteStore bound to the provided transaction, so a
	// service can run a read-modify-write sequence atomically through
	// RunInTransaction.
	WithTx(tx *sql.Tx) ReciteStore
}

// BookStore defines the interface for book content persistence.
type BookStore interface {
	// Save stores a book and its chapters, replacing any existing book with
	// the same name. The write is atomic: readers never observe a book with
	// a partial chapter list.
	Save(ctx context.Context, book *domain.Book) error

	// GetByName retrieves a book with its full chapter list.
	// Returns ErrBookNotFound if the book does not exist.
	GetByName(ctx context.Context, name string) (*domain.Book, error)

	// List returns summaries of all stored books, newest first.
	List(ctx context.Context) ([]BookSummary, error)

	// ListAll returns every book with its chapters, ordered by name.
	ListAll(ctx context.Context) ([]*domain.Book, error)
}

// BookSummary is the listing projection of a stored book.
type BookSummary struct {
	Name     string `json:"name"`
	Chapters int    `json:"chapters"`
	Modified string `json:"modified"`
}
