package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/phrazzld/recite-api/internal/domain/srs"
)

// ReciteItem-specific validation errors
var (
	// ErrItemBookNameEmpty is returned when an item's book name is empty.
	ErrItemBookNameEmpty = errors.New("book name cannot be empty")

	// ErrItemChapterTitleEmpty is returned when an item's chapter title is empty.
	ErrItemChapterTitleEmpty = errors.New("chapter title cannot be empty")
)

// ReciteItem is one tracked chapter in the learner's recite list. The item
// records how far the learner has progressed through its strategy's review
// cycle and when the chapter is next due.
//
// The review timestamps are RFC 3339 strings rather than time.Time values:
// they round-trip through storage exactly as written, and a malformed value
// degrades to "not due" at query time (see srs.IsDue) instead of failing
// when the row is decoded. LastReviewedAt is empty until the first review.
type ReciteItem struct {
	ID           string `json:"id"`
	BookName     string `json:"book_name"`
	ChapterTitle string `json:"chapter_title"`

	// Strategy names the srs.Strategy governing this item. It may change
	// over the item's lifetime; unknown names resolve to the default.
	Strategy string `json:"strategy"`

	AddedAt        string `json:"added_at"`
	ReviewCount    int    `json:"review_count"`
	LastReviewedAt string `json:"last_reviewed_at"`
	NextReviewAt   string `json:"next_review_at"`
}

// ItemID builds the composite key identifying a tracked chapter. The key is
// stable across the item's lifetime and drives idempotent add and remove.
func ItemID(bookName, chapterTitle string) string {
	return bookName + ":" + chapterTitle
}

// NewReciteItem creates a tracking entry for the given chapter. The item
// starts with a zero review count and is immediately due (NextReviewAt =
// now). The strategy name is stored as given; it is resolved through the
// catalog at calculation time, not validated here.
func NewReciteItem(bookName, chapterTitle, strategy string, now time.Time) (*ReciteItem, error) {
	bookName = strings.TrimSpace(bookName)
	chapterTitle = strings.TrimSpace(chapterTitle)

	if strategy == "" {
		strategy = srs.DefaultStrategyName
	}

	item := &ReciteItem{
		ID:           ItemID(bookName, chapterTitle),
		BookName:     bookName,
		ChapterTitle: chapterTitle,
		Strategy:     strategy,
		AddedAt:      srs.FormatTime(now),
		ReviewCount:  0,
		NextReviewAt: srs.FormatTime(now),
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks that the item identifies a chapter.
func (i *ReciteItem) Validate() error {
	if i.BookName == "" {
		return ErrItemBookNameEmpty
	}
	if i.ChapterTitle == "" {
		return ErrItemChapterTitleEmpty
	}
	return nil
}

// MarkReviewed advances the item's review state: the count is incremented,
// the last-reviewed timestamp set to now, and the next due time recomputed
// from the new count under the item's current strategy. Early reviews are
// permitted; the item does not have to be due.
func (i *ReciteItem) MarkReviewed(now time.Time) {
	i.ReviewCount++
	i.LastReviewedAt = srs.FormatTime(now)
	strategy := srs.Resolve(i.Strategy)
	i.NextReviewAt = srs.FormatTime(srs.NextReviewTime(i.ReviewCount, strategy, now))
}

// ChangeStrategy swaps the item's strategy and recomputes the next due time
// from the existing review count under the new cadence. Review progress is
// preserved across the switch; only the future cadence changes.
func (i *ReciteItem) ChangeStrategy(newStrategy string, now time.Time) {
	i.Strategy = newStrategy
	strategy := srs.Resolve(newStrategy)
	i.NextReviewAt = srs.FormatTime(srs.NextReviewTime(i.ReviewCount, strategy, now))
}

// IsDue reports whether the item is due for review at now.
func (i *ReciteItem) IsDue(now time.Time) bool {
	return srs.IsDue(i.NextReviewAt, now)
}

// Completion returns the item's progress through its strategy's cycle.
func (i *ReciteItem) Completion() srs.Completion {
	return srs.CompletionEstimate(i.ReviewCount, srs.Resolve(i.Strategy))
}
