package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/recite-api/internal/domain"
	"github.com/phrazzld/recite-api/internal/store"
)

func newTestItem(t *testing.T, book, chapter string) *domain.ReciteItem {
	t.Helper()

	item, err := domain.NewReciteItem(book, chapter, "standard", time.Now().UTC())
	require.NoError(t, err)
	return item
}

func TestReciteStoreCreateAndGet(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewReciteStore(db, nil)
	ctx := context.Background()

	item := newTestItem(t, "Meditations", "Book One")
	require.NoError(t, s.Create(ctx, item))

	got, err := s.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, item.BookName, got.BookName)
	assert.Equal(t, item.ChapterTitle, got.ChapterTitle)
	assert.Equal(t, item.Strategy, got.Strategy)
	assert.Equal(t, item.AddedAt, got.AddedAt)
	assert.Equal(t, 0, got.ReviewCount)
	assert.Empty(t, got.LastReviewedAt)
	assert.Equal(t, item.NextReviewAt, got.NextReviewAt)
}

func TestReciteStoreCreateDuplicate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewReciteStore(db, nil)
	ctx := context.Background()

	item := newTestItem(t, "Meditations", "Book One")
	require.NoError(t, s.Create(ctx, item))

	dup := newTestItem(t, "Meditations", "Book One")
	err := s.Create(ctx, dup)
	assert.ErrorIs(t, err, store.ErrItemExists)
	assert.True(t, store.IsDuplicateError(err))
}

func TestReciteStoreCreateInvalid(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewReciteStore(db, nil)

	err := s.Create(context.Background(), &domain.ReciteItem{ID: ":"})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestReciteStoreGetMissing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewReciteStore(db, nil)

	_, err := s.GetByID(context.Background(), "Meditations:Book Nine")
	assert.ErrorIs(t, err, store.ErrItemNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestReciteStoreUpdate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewReciteStore(db, nil)
	ctx := context.Background()

	item := newTestItem(t, "Meditations", "Book One")
	require.NoError(t, s.Create(ctx, item))

	item.MarkReviewed(time.Now().UTC())
	require.NoError(t, s.Update(ctx, item))

	got, err := s.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReviewCount)
	assert.Equal(t, item.LastReviewedAt, got.LastReviewedAt)
	assert.Equal(t, item.NextReviewAt, got.NextReviewAt)
}

func TestReciteStoreUpdateMissing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewReciteStore(db, nil)

	item := newTestItem(t, "Meditations", "Book Nine")
	err := s.Update(context.Background(), item)
	assert.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestReciteStoreDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewReciteStore(db, nil)
	ctx := context.Background()

	item := newTestItem(t, "Meditations", "Book One")
	require.NoError(t, s.Create(ctx, item))

	require.NoError(t, s.Delete(ctx, item.ID))
	_, err := s.GetByID(ctx, item.ID)
	assert.ErrorIs(t, err, store.ErrItemNotFound)

	// Deleting again is a silent success.
	assert.NoError(t, s.Delete(ctx, item.ID))
}

func TestReciteStoreListAllPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewReciteStore(db, nil)
	ctx := context.Background()

	titles := []string{"Book Three", "Book One", "Book Two"}
	for _, title := range titles {
		require.NoError(t, s.Create(ctx, newTestItem(t, "Meditations", title)))
	}

	items, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, title := range titles {
		assert.Equal(t, title, items[i].ChapterTitle)
	}
}

func TestReciteStoreListAllEmpty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewReciteStore(db, nil)

	items, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestReciteStoreWithTx(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewReciteStore(db, nil)
	ctx := context.Background()

	item := newTestItem(t, "Meditations", "Book One")
	require.NoError(t, s.Create(ctx, item))

	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.WithTx(tx)
		got, err := txStore.GetByID(ctx, item.ID)
		if err != nil {
			return err
		}
		got.MarkReviewed(time.Now().UTC())
		return txStore.Update(ctx, got)
	})
	require.NoError(t, err)

	got, err := s.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReviewCount)
}
