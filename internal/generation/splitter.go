package generation

import (
	"context"

	"github.com/phrazzld/recite-api/internal/domain"
)

// ChapterSplitter defines the interface for turning raw study text into
// titled chapters. It is the boundary between the application core and the
// external text-segmentation service; the scheduling engine never depends
// on how chapters were produced.
type ChapterSplitter interface {
	// SplitChapters segments the provided text into an ordered list of
	// chapters, each with a title and detailed content. Returns an error if
	// segmentation fails (see errors.go for the specific conditions).
	SplitChapters(ctx context.Context, text string) ([]domain.Chapter, error)
}
