package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/recite-api/internal/generation"
	"github.com/phrazzld/recite-api/internal/service"
	"github.com/phrazzld/recite-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrBookNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, generation.ErrEmptyText):
		return http.StatusBadRequest

	// Feature not configured
	case errors.Is(err, service.ErrSplitterUnavailable):
		return http.StatusServiceUnavailable

	// Upstream model refused the content
	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusUnprocessableEntity

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrItemNotFound):
		return "Chapter is not in the recite list"

	case errors.Is(err, service.ErrBookNotFound):
		return "Book not found"

	case errors.Is(err, service.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, generation.ErrEmptyText):
		return "Text content cannot be empty"

	case errors.Is(err, service.ErrSplitterUnavailable):
		return "Text processing is not configured"

	case errors.Is(err, generation.ErrContentBlocked):
		return "Text was rejected by the content filter"

	default:
		return "An unexpected error occurred"
	}
}
