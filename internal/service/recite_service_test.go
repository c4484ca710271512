package service

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/recite-api/internal/domain"
	"github.com/phrazzld/recite-api/internal/domain/srs"
	"github.com/phrazzld/recite-api/internal/store"
)

// fakeReciteStore is an in-memory ReciteStore preserving insertion order.
type fakeReciteStore struct {
	items map[string]*domain.ReciteItem
	order []string
}

func newFakeReciteStore() *fakeReciteStore {
	return &fakeReciteStore{items: make(map[string]*domain.ReciteItem)}
}

func (f *fakeReciteStore) Create(_ context.Context, item *domain.ReciteItem) error {
	if _, ok := f.items[item.ID]; ok {
		return store.ErrItemExists
	}
	cp := *item
	f.items[item.ID] = &cp
	f.order = append(f.order, item.ID)
	return nil
}

func (f *fakeReciteStore) GetByID(_ context.Context, id string) (*domain.ReciteItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *fakeReciteStore) Update(_ context.Context, item *domain.ReciteItem) error {
	if _, ok := f.items[item.ID]; !ok {
		return store.ErrItemNotFound
	}
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeReciteStore) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return nil
	}
	delete(f.items, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeReciteStore) ListAll(_ context.Context) ([]*domain.ReciteItem, error) {
	out := make([]*domain.ReciteItem, 0, len(f.order))
	for _, id := range f.order {
		cp := *f.items[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeReciteStore) WithTx(*sql.Tx) store.ReciteStore { return f }

// fakeBookStore is an in-memory BookStore.
type fakeBookStore struct {
	books map[string]*domain.Book
}

func newFakeBookStore() *fakeBookStore {
	return &fakeBookStore{books: make(map[string]*domain.Book)}
}

func (f *fakeBookStore) Save(_ context.Context, book *domain.Book) error {
	cp := *book
	f.books[book.Name] = &cp
	return nil
}

func (f *fakeBookStore) GetByName(_ context.Context, name string) (*domain.Book, error) {
	book, ok := f.books[name]
	if !ok {
		return nil, store.ErrBookNotFound
	}
	return book, nil
}

func (f *fakeBookStore) List(_ context.Context) ([]store.BookSummary, error) {
	out := make([]store.BookSummary, 0, len(f.books))
	for _, b := range f.books {
		out = append(out, store.BookSummary{Name: b.Name, Chapters: len(b.Chapters)})
	}
	return out, nil
}

func (f *fakeBookStore) ListAll(_ context.Context) ([]*domain.Book, error) {
	out := make([]*domain.Book, 0, len(f.books))
	for _, b := range f.books {
		out = append(out, b)
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.Default()
}

func newTestService(t *testing.T) (ReciteService, *fakeReciteStore, *fakeBookStore) {
	t.Helper()
	items := newFakeReciteStore()
	books := newFakeBookStore()
	return NewReciteService(nil, items, books, testLogger()), items, books
}

func seedBook(t *testing.T, books *fakeBookStore, name string, titles ...string) {
	t.Helper()
	chapters := make([]domain.Chapter, 0, len(titles))
	for _, title := range titles {
		chapters = append(chapters, domain.Chapter{Title: title, Content: "content of " + title})
	}
	book, err := domain.NewBook(name, chapters)
	require.NoError(t, err)
	require.NoError(t, books.Save(context.Background(), book))
}

func TestAddItem(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("new item starts immediately due with default strategy", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)

		result, err := svc.AddItem(ctx, "Meditations", "Book One", "")
		require.NoError(t, err)
		assert.False(t, result.AlreadyPresent)
		assert.Equal(t, srs.DefaultStrategyName, result.Item.Strategy)
		assert.Equal(t, 0, result.Item.ReviewCount)
		assert.True(t, result.Item.IsDue(time.Now().UTC()))
		assert.Equal(t, 30, result.Strategy.CycleDays)
	})

	t.Run("duplicate add preserves existing state", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)

		first, err := svc.AddItem(ctx, "Meditations", "Book One", "balanced")
		require.NoError(t, err)

		_, err = svc.MarkReviewed(ctx, "Meditations", "Book One")
		require.NoError(t, err)

		second, err := svc.AddItem(ctx, "Meditations", "Book One", "aggressive")
		require.NoError(t, err)
		assert.True(t, second.AlreadyPresent)
		assert.Equal(t, "balanced", second.Item.Strategy)
		assert.Equal(t, 1, second.Item.ReviewCount)
		assert.Equal(t, first.Item.AddedAt, second.Item.AddedAt)
	})

	t.Run("unknown strategy is resolved to the default for the response", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)

		result, err := svc.AddItem(ctx, "Meditations", "Book One", "heroic")
		require.NoError(t, err)
		assert.Equal(t, "heroic", result.Item.Strategy)
		assert.Equal(t, srs.DefaultStrategyName, result.Strategy.Name)
	})

	t.Run("missing fields fail validation", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)

		_, err := svc.AddItem(ctx, "", "Book One", "")
		assert.ErrorIs(t, err, ErrValidation)

		_, err = svc.AddItem(ctx, "Meditations", "   ", "")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestRemoveItem(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, items, _ := newTestService(t)

	_, err := svc.AddItem(ctx, "Meditations", "Book One", "")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, "Meditations", "Book One"))
	assert.Empty(t, items.items)

	// Removing an untracked chapter is a silent success.
	assert.NoError(t, svc.RemoveItem(ctx, "Meditations", "Book One"))

	// The removed chapter is genuinely gone.
	_, err = svc.MarkReviewed(ctx, "Meditations", "Book One")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestMarkReviewed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("advances the schedule under the item's strategy", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)

		_, err := svc.AddItem(ctx, "Meditations", "Book One", "standard")
		require.NoError(t, err)

		first, err := svc.MarkReviewed(ctx, "Meditations", "Book One")
		require.NoError(t, err)
		assert.Equal(t, 1, first.Item.ReviewCount)
		assert.NotEmpty(t, first.Item.LastReviewedAt)
		assert.Equal(t, 20.0, first.Completion.CompletionPercentage)
		assert.False(t, first.TimeUntilDue.Ready)

		// Count 1 under standard schedules 3 days out.
		next, ok := srs.ParseTime(first.Item.NextReviewAt)
		require.True(t, ok)
		expected := time.Now().UTC().Add(3 * 24 * time.Hour)
		assert.WithinDuration(t, expected, next, time.Minute)

		// Second review moves to the 7-day gap; early review is allowed.
		second, err := svc.MarkReviewed(ctx, "Meditations", "Book One")
		require.NoError(t, err)
		assert.Equal(t, 2, second.Item.ReviewCount)
		next, ok = srs.ParseTime(second.Item.NextReviewAt)
		require.True(t, ok)
		expected = time.Now().UTC().Add(7 * 24 * time.Hour)
		assert.WithinDuration(t, expected, next, time.Minute)
	})

	t.Run("untracked chapter returns not found", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)

		_, err := svc.MarkReviewed(ctx, "Meditations", "Book Nine")
		assert.ErrorIs(t, err, ErrItemNotFound)
	})
}

func TestChangeStrategy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("progress carries over to the new cadence", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)

		_, err := svc.AddItem(ctx, "Meditations", "Book One", "standard")
		require.NoError(t, err)
		_, err = svc.MarkReviewed(ctx, "Meditations", "Book One")
		require.NoError(t, err)
		_, err = svc.MarkReviewed(ctx, "Meditations", "Book One")
		require.NoError(t, err)

		result, err := svc.ChangeStrategy(ctx, "Meditations", "Book One", "aggressive")
		require.NoError(t, err)
		assert.Equal(t, "standard", result.OldStrategy)
		assert.Equal(t, "aggressive", result.Item.Strategy)
		assert.Equal(t, 2, result.Item.ReviewCount)

		// Count 2 under aggressive schedules 2 days out.
		next, ok := srs.ParseTime(result.Item.NextReviewAt)
		require.True(t, ok)
		expected := time.Now().UTC().Add(2 * 24 * time.Hour)
		assert.WithinDuration(t, expected, next, time.Minute)
	})

	t.Run("untracked chapter returns not found", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)

		_, err := svc.ChangeStrategy(ctx, "Meditations", "Book Nine", "aggressive")
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("missing strategy fails validation", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)

		_, err := svc.AddItem(ctx, "Meditations", "Book One", "")
		require.NoError(t, err)

		_, err = svc.ChangeStrategy(ctx, "Meditations", "Book One", "  ")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestDueChapters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("hydrates due items with chapter content", func(t *testing.T) {
		t.Parallel()
		svc, _, books := newTestService(t)
		seedBook(t, books, "Meditations", "Book One", "Book Two")

		_, err := svc.AddItem(ctx, "Meditations", "Book One", "")
		require.NoError(t, err)
		_, err = svc.AddItem(ctx, "Meditations", "Book Two", "")
		require.NoError(t, err)

		// Reviewing Book Two pushes it out of the due window.
		_, err = svc.MarkReviewed(ctx, "Meditations", "Book Two")
		require.NoError(t, err)

		groups, err := svc.DueChapters(ctx, time.Now().UTC())
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, "Meditations", groups[0].BookName)
		require.Len(t, groups[0].Chapters, 1)
		assert.Equal(t, "Book One", groups[0].Chapters[0].Title)
		assert.Equal(t, "content of Book One", groups[0].Chapters[0].Content)
		assert.Nil(t, groups[0].Chapters[0].LastReviewedAt)
	})

	t.Run("missing book is skipped without error", func(t *testing.T) {
		t.Parallel()
		svc, _, books := newTestService(t)
		seedBook(t, books, "Meditations", "Book One")

		_, err := svc.AddItem(ctx, "Meditations", "Book One", "")
		require.NoError(t, err)
		_, err = svc.AddItem(ctx, "Lost Book", "Chapter I", "")
		require.NoError(t, err)

		groups, err := svc.DueChapters(ctx, time.Now().UTC())
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, "Meditations", groups[0].BookName)
	})

	t.Run("missing chapter is skipped without error", func(t *testing.T) {
		t.Parallel()
		svc, _, books := newTestService(t)
		seedBook(t, books, "Meditations", "Book One")

		_, err := svc.AddItem(ctx, "Meditations", "Book One", "")
		require.NoError(t, err)
		_, err = svc.AddItem(ctx, "Meditations", "Deleted Chapter", "")
		require.NoError(t, err)

		groups, err := svc.DueChapters(ctx, time.Now().UTC())
		require.NoError(t, err)
		require.Len(t, groups, 1)
		require.Len(t, groups[0].Chapters, 1)
		assert.Equal(t, "Book One", groups[0].Chapters[0].Title)
	})

	t.Run("malformed next review time fails closed", func(t *testing.T) {
		t.Parallel()
		items := newFakeReciteStore()
		books := newFakeBookStore()
		svc := NewReciteService(nil, items, books, testLogger())
		seedBook(t, books, "Meditations", "Book One", "Book Two")

		_, err := svc.AddItem(ctx, "Meditations", "Book One", "")
		require.NoError(t, err)

		corrupt, err := domain.NewReciteItem("Meditations", "Book Two", "", time.Now().UTC())
		require.NoError(t, err)
		corrupt.NextReviewAt = "not-a-timestamp"
		require.NoError(t, items.Create(ctx, corrupt))

		groups, err := svc.DueChapters(ctx, time.Now().UTC())
		require.NoError(t, err)
		require.Len(t, groups, 1)
		require.Len(t, groups[0].Chapters, 1)
		assert.Equal(t, "Book One", groups[0].Chapters[0].Title)
	})
}

func TestTrackedChapters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, books := newTestService(t)
	seedBook(t, books, "Meditations", "Book One", "Book Two")

	_, err := svc.AddItem(ctx, "Meditations", "Book One", "")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "Meditations", "Book Two", "")
	require.NoError(t, err)
	_, err = svc.MarkReviewed(ctx, "Meditations", "Book Two")
	require.NoError(t, err)

	groups, err := svc.TrackedChapters(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Chapters, 2)

	// Book Two is not due but still listed, with its review recorded.
	assert.Nil(t, groups[0].Chapters[0].LastReviewedAt)
	require.NotNil(t, groups[0].Chapters[1].LastReviewedAt)
	assert.Equal(t, 1, groups[0].Chapters[1].ReviewCount)
}

func TestListItems(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.AddItem(ctx, "Meditations", "Book Two", "")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "Meditations", "Book One", "")
	require.NoError(t, err)

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Book Two", items[0].ChapterTitle)
	assert.Equal(t, "Book One", items[1].ChapterTitle)
}

func TestStrategies(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	strategies := svc.Strategies()
	require.Len(t, strategies, 3)
	assert.Equal(t, "aggressive", strategies[0].Name)
	assert.Equal(t, "standard", strategies[2].Name)
}
