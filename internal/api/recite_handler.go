package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/recite-api/internal/api/shared"
	"github.com/phrazzld/recite-api/internal/domain/srs"
	"github.com/phrazzld/recite-api/internal/platform/logger"
	"github.com/phrazzld/recite-api/internal/service"
)

// ReciteHandler handles recite-list HTTP requests.
type ReciteHandler struct {
	reciteService service.ReciteService
	logger        *slog.Logger
}

// NewReciteHandler creates a new ReciteHandler.
func NewReciteHandler(reciteService service.ReciteService, logger *slog.Logger) *ReciteHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReciteHandler")
	}

	return &ReciteHandler{
		reciteService: reciteService,
		logger:        logger.With(slog.String("component", "recite_handler")),
	}
}

// AddItemResponse is the response body for a successful add.
type AddItemResponse struct {
	Success             bool   `json:"success"`
	Message             string `json:"message"`
	Strategy            string `json:"strategy"`
	StrategyDescription string `json:"strategy_description"`
	ReviewCycleDays     int    `json:"review_cycle_days"`
}

// MarkReviewedResponse is the updated schedule returned after a review.
type MarkReviewedResponse struct {
	Success             bool           `json:"success"`
	Message             string         `json:"message"`
	NextReviewAt        string         `json:"next_review_at"`
	ReviewCount         int            `json:"review_count"`
	Strategy            string         `json:"strategy"`
	Completion          srs.Completion `json:"completion"`
	TimeUntilNextReview srs.Countdown  `json:"time_until_next_review"`
}

// ChangeStrategyResponse is the response body for a strategy switch.
type ChangeStrategyResponse struct {
	Success             bool   `json:"success"`
	Message             string `json:"message"`
	BookName            string `json:"book_name"`
	ChapterTitle        string `json:"chapter_title"`
	OldStrategy         string `json:"old_strategy"`
	NewStrategy         string `json:"new_strategy"`
	StrategyDescription string `json:"strategy_description"`
	NextReviewAt        string `json:"next_review_at"`
	ReviewCycleDays     int    `json:"review_cycle_days"`
}

// StrategyInfo is one entry of the strategy discovery response.
type StrategyInfo struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CycleDays    int       `json:"cycle_days"`
	Intervals    []float64 `json:"intervals"`
	TotalReviews int       `json:"total_reviews"`
}

// StrategiesResponse lists the available review strategies.
type StrategiesResponse struct {
	Strategies      []StrategyInfo `json:"strategies"`
	DefaultStrategy string         `json:"default_strategy"`
}

// ListItems handles GET /api/recite requests.
// It returns the raw tracking records in insertion order.
func (h *ReciteHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.reciteService.ListItems(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			"Failed to load recite list", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, itemsToResponse(items))
}

// AddItem handles POST /api/recite requests.
// Adding an already-tracked chapter succeeds without changing it.
func (h *ReciteHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req AddReciteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		log.Debug("add request failed validation", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Book name and chapter title are required")
		return
	}

	result, err := h.reciteService.AddItem(r.Context(), req.BookName, req.ChapterTitle, req.Strategy)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to add chapter")
		return
	}

	if result.AlreadyPresent {
		shared.RespondWithJSON(w, r, http.StatusOK, AddItemResponse{
			Success:             true,
			Message:             "Chapter is already in the recite list",
			Strategy:            result.Item.Strategy,
			StrategyDescription: result.Strategy.Description,
			ReviewCycleDays:     result.Strategy.CycleDays,
		})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AddItemResponse{
		Success:             true,
		Message:             "Chapter added to the recite list",
		Strategy:            result.Item.Strategy,
		StrategyDescription: result.Strategy.Description,
		ReviewCycleDays:     result.Strategy.CycleDays,
	})
}

// RemoveItem handles DELETE /api/recite requests.
// Removing an untracked chapter is a silent success.
func (h *ReciteHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req ReciteTargetRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Book name and chapter title are required")
		return
	}

	if err := h.reciteService.RemoveItem(r.Context(), req.BookName, req.ChapterTitle); err != nil {
		h.respondServiceError(w, r, err, "Failed to remove chapter")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Chapter removed from the recite list",
	})
}

// MarkReviewed handles POST /api/recite/review requests.
// It records one completed review and returns the updated schedule.
func (h *ReciteHandler) MarkReviewed(w http.ResponseWriter, r *http.Request) {
	var req ReciteTargetRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Book name and chapter title are required")
		return
	}

	result, err := h.reciteService.MarkReviewed(r.Context(), req.BookName, req.ChapterTitle)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to mark chapter reviewed")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MarkReviewedResponse{
		Success:             true,
		Message:             "Review recorded, next review scheduled",
		NextReviewAt:        result.Item.NextReviewAt,
		ReviewCount:         result.Item.ReviewCount,
		Strategy:            result.Item.Strategy,
		Completion:          result.Completion,
		TimeUntilNextReview: result.TimeUntilDue,
	})
}

// ChangeStrategy handles POST /api/recite/strategy requests.
// Review progress carries over; only the future cadence changes.
func (h *ReciteHandler) ChangeStrategy(w http.ResponseWriter, r *http.Request) {
	var req ChangeStrategyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Book name, chapter title and strategy are required")
		return
	}

	result, err := h.reciteService.ChangeStrategy(r.Context(), req.BookName, req.ChapterTitle, req.Strategy)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to change review strategy")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ChangeStrategyResponse{
		Success:             true,
		Message:             "Review strategy changed from " + result.OldStrategy + " to " + result.Item.Strategy,
		BookName:            req.BookName,
		ChapterTitle:        req.ChapterTitle,
		OldStrategy:         result.OldStrategy,
		NewStrategy:         result.Item.Strategy,
		StrategyDescription: result.NewStrategy.Description,
		NextReviewAt:        result.Item.NextReviewAt,
		ReviewCycleDays:     result.NewStrategy.CycleDays,
	})
}

// ListDueChapters handles GET /api/recite/due requests.
// It returns hydrated chapters that are due now, grouped by book.
func (h *ReciteHandler) ListDueChapters(w http.ResponseWriter, r *http.Request) {
	groups, err := h.reciteService.DueChapters(r.Context(), time.Now().UTC())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			"Failed to load due chapters", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, groups)
}

// ListTrackedChapters handles GET /api/recite/all requests.
// It returns every hydrated tracked chapter, due or not.
func (h *ReciteHandler) ListTrackedChapters(w http.ResponseWriter, r *http.Request) {
	groups, err := h.reciteService.TrackedChapters(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			"Failed to load tracked chapters", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, groups)
}

// ListStrategies handles GET /api/strategies requests.
func (h *ReciteHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	strategies := h.reciteService.Strategies()

	infos := make([]StrategyInfo, 0, len(strategies))
	for _, s := range strategies {
		infos = append(infos, StrategyInfo{
			Name:         s.Name,
			Description:  s.Description,
			CycleDays:    s.CycleDays,
			Intervals:    s.Intervals,
			TotalReviews: s.TotalReviews(),
		})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, StrategiesResponse{
		Strategies:      infos,
		DefaultStrategy: srs.DefaultStrategyName,
	})
}

// respondServiceError maps a service error to its status code and safe
// message, logging the full detail.
func (h *ReciteHandler) respondServiceError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
	fallback string,
) {
	statusCode := MapErrorToStatusCode(err)
	safeMessage := GetSafeErrorMessage(err)
	if statusCode == http.StatusInternalServerError {
		safeMessage = fallback
	}
	if errors.Is(err, service.ErrValidation) {
		shared.RespondWithError(w, r, statusCode, safeMessage)
		return
	}
	shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
}
