package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/recite-api/internal/api/shared"
	"github.com/phrazzld/recite-api/internal/platform/logger"
	"github.com/phrazzld/recite-api/internal/service"
)

// BookHandler handles book content HTTP requests.
type BookHandler struct {
	bookService service.BookService
	logger      *slog.Logger
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(bookService service.BookService, logger *slog.Logger) *BookHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for BookHandler")
	}

	return &BookHandler{
		bookService: bookService,
		logger:      logger.With(slog.String("component", "book_handler")),
	}
}

// SaveBook handles POST /api/books requests.
// Saving a book with an existing name replaces its chapters.
func (h *BookHandler) SaveBook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SaveBookRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		log.Debug("save book request failed validation", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Book name and chapter data are required")
		return
	}

	book, err := h.bookService.SaveBook(r.Context(), req.BookName, req.Chapters)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to save book"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Book saved as " + book.Name,
	})
}

// ListBooks handles GET /api/books requests.
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.bookService.ListBooks(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			"Failed to list books", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, books)
}

// GetBook handles GET /api/books/{name} requests.
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Book name is required")
		return
	}

	book, err := h.bookService.GetBook(r.Context(), name)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to load book"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"name":    book.Name,
		"content": book.Chapters,
	})
}

// ListAllChapters handles GET /api/chapters requests.
// It returns every stored book with its chapters, grouped by book.
func (h *BookHandler) ListAllChapters(w http.ResponseWriter, r *http.Request) {
	books, err := h.bookService.AllChapters(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			"Failed to list chapters", err)
		return
	}

	type bookChapters struct {
		BookName string      `json:"book_name"`
		Chapters interface{} `json:"chapters"`
	}
	out := make([]bookChapters, 0, len(books))
	for _, b := range books {
		out = append(out, bookChapters{BookName: b.Name, Chapters: b.Chapters})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, out)
}
