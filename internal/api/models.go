package api

import (
	"github.com/phrazzld/recite-api/internal/domain"
)

// ReciteTargetRequest identifies one tracked chapter. Every item-targeting
// operation requires both fields; their absence is a validation failure,
// never a partial lookup.
type ReciteTargetRequest struct {
	BookName     string `json:"book_name"     validate:"required"`
	ChapterTitle string `json:"chapter_title" validate:"required"`
}

// AddReciteRequest is the body for adding a chapter to the recite list.
// Strategy is optional; unknown or empty names fall back to the default.
type AddReciteRequest struct {
	BookName     string `json:"book_name"     validate:"required"`
	ChapterTitle string `json:"chapter_title" validate:"required"`
	Strategy     string `json:"strategy"`
}

// ChangeStrategyRequest is the body for switching a tracked chapter's
// review strategy.
type ChangeStrategyRequest struct {
	BookName     string `json:"book_name"     validate:"required"`
	ChapterTitle string `json:"chapter_title" validate:"required"`
	Strategy     string `json:"strategy"      validate:"required"`
}

// SaveBookRequest is the body for storing a book. The chapter field names
// (Title/Content) match what the splitter produces, so its output can be
// posted back unchanged.
type SaveBookRequest struct {
	BookName string           `json:"bookName" validate:"required"`
	Chapters []domain.Chapter `json:"chapters" validate:"required,min=1,dive"`
}

// ProcessTextRequest is the body for splitting raw text into chapters.
type ProcessTextRequest struct {
	Text string `json:"text" validate:"required"`
}

// ReciteItemResponse is the wire form of a tracking record. The field set
// and names are the persisted record contract; last_reviewed_at is null
// until the first review.
type ReciteItemResponse struct {
	ID             string  `json:"id"`
	BookName       string  `json:"book_name"`
	ChapterTitle   string  `json:"chapter_title"`
	Strategy       string  `json:"strategy"`
	AddedAt        string  `json:"added_at"`
	ReviewCount    int     `json:"review_count"`
	LastReviewedAt *string `json:"last_reviewed_at"`
	NextReviewAt   string  `json:"next_review_at"`
}

// itemToResponse transforms a domain item to its wire form.
func itemToResponse(item *domain.ReciteItem) ReciteItemResponse {
	resp := ReciteItemResponse{
		ID:           item.ID,
		BookName:     item.BookName,
		ChapterTitle: item.ChapterTitle,
		Strategy:     item.Strategy,
		AddedAt:      item.AddedAt,
		ReviewCount:  item.ReviewCount,
		NextReviewAt: item.NextReviewAt,
	}
	if item.LastReviewedAt != "" {
		last := item.LastReviewedAt
		resp.LastReviewedAt = &last
	}
	return resp
}

// itemsToResponse transforms a list of domain items to wire form.
func itemsToResponse(items []*domain.ReciteItem) []ReciteItemResponse {
	out := make([]ReciteItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, itemToResponse(item))
	}
	return out
}
