package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/recite-api/internal/domain"
	"github.com/phrazzld/recite-api/internal/domain/srs"
	"github.com/phrazzld/recite-api/internal/store"
)

// AddResult describes the outcome of adding a chapter to the recite list.
type AddResult struct {
	// AlreadyPresent is true when the chapter was tracked before this call;
	// adding twice is a no-op, not an error.
	AlreadyPresent bool
	Item           *domain.ReciteItem
	Strategy       srs.Strategy
}

// ReviewResult is the updated schedule state returned by MarkReviewed.
type ReviewResult struct {
	Item         *domain.ReciteItem
	Completion   srs.Completion
	TimeUntilDue srs.Countdown
}

// StrategyChangeResult describes a completed strategy switch.
type StrategyChangeResult struct {
	Item        *domain.ReciteItem
	OldStrategy string
	NewStrategy srs.Strategy
}

// TrackedChapter is a recite item hydrated with its chapter content.
// LastReviewedAt serializes as null until the first review.
type TrackedChapter struct {
	Title          string  `json:"Title"`
	Content        string  `json:"Content"`
	AddedAt        string  `json:"added_at"`
	ReviewCount    int     `json:"review_count"`
	LastReviewedAt *string `json:"last_reviewed_at"`
	NextReviewAt   string  `json:"next_review_at"`
}

// BookChapters groups hydrated chapters under their book.
type BookChapters struct {
	BookName string           `json:"book_name"`
	Chapters []TrackedChapter `json:"chapters"`
}

// ReciteService exposes the recite-list use cases to the delivery layer.
type ReciteService interface {
	// AddItem starts tracking a chapter. Adding an already-tracked chapter
	// is an idempotent no-op reported through AddResult.AlreadyPresent.
	AddItem(ctx context.Context, bookName, chapterTitle, strategyName string) (*AddResult, error)

	// RemoveItem stops tracking a chapter. Removing an untracked chapter is
	// a silent success.
	RemoveItem(ctx context.Context, bookName, chapterTitle string) error

	// MarkReviewed records one completed review: the review count is
	// incremented and the next due time recomputed under the item's
	// strategy. Returns ErrItemNotFound for untracked chapters. Reviews are
	// accepted even when the item is not yet due.
	MarkReviewed(ctx context.Context, bookName, chapterTitle string) (*ReviewResult, error)

	// ChangeStrategy switches the item's review cadence, preserving its
	// review count and recomputing the next due time under the new
	// strategy. Returns ErrItemNotFound for untracked chapters.
	ChangeStrategy(ctx context.Context, bookName, chapterTitle, newStrategy string) (*StrategyChangeResult, error)

	// ListItems returns the raw tracking records in insertion order.
	ListItems(ctx context.Context) ([]*domain.ReciteItem, error)

	// DueChapters returns hydrated chapters that are due at now, grouped by
	// book. Items whose backing book or chapter no longer exists are
	// silently skipped; the tracking entries persist.
	DueChapters(ctx context.Context, now time.Time) ([]BookChapters, error)

	// TrackedChapters returns all hydrated tracked chapters, due or not.
	TrackedChapters(ctx context.Context) ([]BookChapters, error)

	// Strategies lists the available review strategies.
	Strategies() []srs.Strategy
}

// reciteService is the standard implementation of ReciteService.
type reciteService struct {
	db     *sql.DB
	items  store.ReciteStore
	books  store.BookStore
	logger *slog.Logger
}

// NewReciteService creates a ReciteService backed by the given stores. The
// db handle is used to wrap read-modify-write sequences in transactions; it
// may be nil in tests using fake stores, in which case operations run
// unwrapped.
func NewReciteService(
	db *sql.DB,
	items store.ReciteStore,
	books store.BookStore,
	logger *slog.Logger,
) ReciteService {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReciteService")
	}

	return &reciteService{
		db:     db,
		items:  items,
		books:  books,
		logger: logger.With(slog.String("component", "recite_service")),
	}
}

// validateTarget checks the fields every item-targeting operation requires.
func validateTarget(bookName, chapterTitle string) (string, string, error) {
	bookName = strings.TrimSpace(bookName)
	chapterTitle = strings.TrimSpace(chapterTitle)
	if bookName == "" {
		return "", "", fmt.Errorf("%w: book_name is required", ErrValidation)
	}
	if chapterTitle == "" {
		return "", "", fmt.Errorf("%w: chapter_title is required", ErrValidation)
	}
	return bookName, chapterTitle, nil
}

func (s *reciteService) AddItem(
	ctx context.Context,
	bookName, chapterTitle, strategyName string,
) (*AddResult, error) {
	bookName, chapterTitle, err := validateTarget(bookName, chapterTitle)
	if err != nil {
		return nil, err
	}

	item, err := domain.NewReciteItem(bookName, chapterTitle, strategyName, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	err = s.items.Create(ctx, item)
	if errors.Is(err, store.ErrItemExists) {
		s.logger.DebugContext(ctx, "chapter already tracked", slog.String("item_id", item.ID))
		existing, getErr := s.items.GetByID(ctx, item.ID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to load existing item: %w", getErr)
		}
		return &AddResult{
			AlreadyPresent: true,
			Item:           existing,
			Strategy:       srs.Resolve(existing.Strategy),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add item: %w", err)
	}

	s.logger.InfoContext(ctx, "chapter added to recite list",
		slog.String("item_id", item.ID),
		slog.String("strategy", item.Strategy))
	return &AddResult{Item: item, Strategy: srs.Resolve(item.Strategy)}, nil
}

func (s *reciteService) RemoveItem(ctx context.Context, bookName, chapterTitle string) error {
	bookName, chapterTitle, err := validateTarget(bookName, chapterTitle)
	if err != nil {
		return err
	}

	id := domain.ItemID(bookName, chapterTitle)
	if err := s.items.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	s.logger.InfoContext(ctx, "chapter removed from recite list", slog.String("item_id", id))
	return nil
}

func (s *reciteService) MarkReviewed(
	ctx context.Context,
	bookName, chapterTitle string,
) (*ReviewResult, error) {
	bookName, chapterTitle, err := validateTarget(bookName, chapterTitle)
	if err != nil {
		return nil, err
	}

	id := domain.ItemID(bookName, chapterTitle)
	now := time.Now().UTC()

	var item *domain.ReciteItem
	err = s.withItems(ctx, func(ctx context.Context, items store.ReciteStore) error {
		var err error
		item, err = items.GetByID(ctx, id)
		if err != nil {
			return err
		}
		item.MarkReviewed(now)
		return items.Update(ctx, item)
	})
	if errors.Is(err, store.ErrItemNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark item reviewed: %w", err)
	}

	s.logger.InfoContext(ctx, "chapter marked reviewed",
		slog.String("item_id", id),
		slog.Int("review_count", item.ReviewCount),
		slog.String("next_review_at", item.NextReviewAt))

	return &ReviewResult{
		Item:         item,
		Completion:   item.Completion(),
		TimeUntilDue: srs.TimeUntilDue(item.NextReviewAt, now),
	}, nil
}

func (s *reciteService) ChangeStrategy(
	ctx context.Context,
	bookName, chapterTitle, newStrategy string,
) (*StrategyChangeResult, error) {
	bookName, chapterTitle, err := validateTarget(bookName, chapterTitle)
	if err != nil {
		return nil, err
	}
	newStrategy = strings.TrimSpace(newStrategy)
	if newStrategy == "" {
		return nil, fmt.Errorf("%w: strategy is required", ErrValidation)
	}

	id := domain.ItemID(bookName, chapterTitle)
	now := time.Now().UTC()

	var (
		item        *domain.ReciteItem
		oldStrategy string
	)
	err = s.withItems(ctx, func(ctx context.Context, items store.ReciteStore) error {
		var err error
		item, err = items.GetByID(ctx, id)
		if err != nil {
			return err
		}
		oldStrategy = item.Strategy
		item.ChangeStrategy(newStrategy, now)
		return items.Update(ctx, item)
	})
	if errors.Is(err, store.ErrItemNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to change strategy: %w", err)
	}

	s.logger.InfoContext(ctx, "review strategy changed",
		slog.String("item_id", id),
		slog.String("old_strategy", oldStrategy),
		slog.String("new_strategy", newStrategy))

	return &StrategyChangeResult{
		Item:        item,
		OldStrategy: oldStrategy,
		NewStrategy: srs.Resolve(newStrategy),
	}, nil
}

func (s *reciteService) ListItems(ctx context.Context) ([]*domain.ReciteItem, error) {
	items, err := s.items.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (s *reciteService) DueChapters(ctx context.Context, now time.Time) ([]BookChapters, error) {
	return s.hydrate(ctx, func(item *domain.ReciteItem) bool {
		return item.IsDue(now)
	})
}

func (s *reciteService) TrackedChapters(ctx context.Context) ([]BookChapters, error) {
	return s.hydrate(ctx, func(*domain.ReciteItem) bool { return true })
}

func (s *reciteService) Strategies() []srs.Strategy {
	return srs.List()
}

// hydrate joins tracking entries with stored chapter content, keeping only
// items accepted by keep. Items whose book or chapter cannot be found are
// skipped without error: the entry outlives its content by design.
func (s *reciteService) hydrate(
	ctx context.Context,
	keep func(*domain.ReciteItem) bool,
) ([]BookChapters, error) {
	items, err := s.items.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	// Cache book lookups; a learner typically tracks many chapters of the
	// same book.
	bookCache := make(map[string]*domain.Book)
	groups := make(map[string]*BookChapters)
	var order []string

	for _, item := range items {
		if item.BookName == "" || item.ChapterTitle == "" || !keep(item) {
			continue
		}

		book, cached := bookCache[item.BookName]
		if !cached {
			book, err = s.books.GetByName(ctx, item.BookName)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					bookCache[item.BookName] = nil
					continue
				}
				return nil, fmt.Errorf("failed to load book %q: %w", item.BookName, err)
			}
			bookCache[item.BookName] = book
		}
		if book == nil {
			continue
		}

		chapter, found := book.FindChapter(item.ChapterTitle)
		if !found {
			continue
		}

		group, ok := groups[item.BookName]
		if !ok {
			group = &BookChapters{BookName: item.BookName}
			groups[item.BookName] = group
			order = append(order, item.BookName)
		}
		tracked := TrackedChapter{
			Title:        chapter.Title,
			Content:      chapter.Content,
			AddedAt:      item.AddedAt,
			ReviewCount:  item.ReviewCount,
			NextReviewAt: item.NextReviewAt,
		}
		if item.LastReviewedAt != "" {
			last := item.LastReviewedAt
			tracked.LastReviewedAt = &last
		}
		group.Chapters = append(group.Chapters, tracked)
	}

	result := make([]BookChapters, 0, len(order))
	for _, name := range order {
		result = append(result, *groups[name])
	}
	return result, nil
}

// withItems runs fn against the item store, inside a transaction when a db
// handle is present.
func (s *reciteService) withItems(
	ctx context.Context,
	fn func(ctx context.Context, items store.ReciteStore) error,
) error {
	if s.db == nil {
		return fn(ctx, s.items)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.items.WithTx(tx))
	})
}
