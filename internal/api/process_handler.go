package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/recite-api/internal/api/shared"
	"github.com/phrazzld/recite-api/internal/generation"
	"github.com/phrazzld/recite-api/internal/platform/logger"
	"github.com/phrazzld/recite-api/internal/service"
)

// ProcessHandler handles text-segmentation HTTP requests. The splitter may
// be nil when the LLM integration is not configured; requests then receive
// a 503 instead of failing at startup.
type ProcessHandler struct {
	splitter generation.ChapterSplitter
	logger   *slog.Logger
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(splitter generation.ChapterSplitter, logger *slog.Logger) *ProcessHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ProcessHandler")
	}

	return &ProcessHandler{
		splitter: splitter,
		logger:   logger.With(slog.String("component", "process_handler")),
	}
}

// ProcessText handles POST /api/process requests.
// It splits the submitted text into chapters via the configured LLM and
// returns them in the shape accepted by POST /api/books.
func (h *ProcessHandler) ProcessText(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if h.splitter == nil {
		shared.RespondWithError(w, r, http.StatusServiceUnavailable,
			GetSafeErrorMessage(service.ErrSplitterUnavailable))
		return
	}

	var req ProcessTextRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Text content cannot be empty")
		return
	}

	log.Debug("processing text", slog.Int("text_length", len(req.Text)))

	chapters, err := h.splitter.SplitChapters(r.Context(), req.Text)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to process text"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, chapters)
}
