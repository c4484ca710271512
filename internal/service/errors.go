// Package service contains the application-specific use cases. It
// orchestrates interactions between domain objects and the store interfaces
// to fulfill the recite-list and book features, keeping the HTTP layer free
// of business rules.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrItemNotFound indicates the referenced recite item is not tracked.
	// Returned by mark-reviewed and change-strategy; add and remove are
	// idempotent by design and never report it.
	// API layer should map this to HTTP 404 Not Found.
	ErrItemNotFound = errors.New("recite item not found")

	// ErrBookNotFound indicates the referenced book does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrBookNotFound = errors.New("book not found")

	// ErrValidation indicates a required field was missing or empty.
	// API layer should map this to HTTP 400 Bad Request.
	ErrValidation = errors.New("validation failed")

	// ErrSplitterUnavailable indicates the chapter-splitting integration is
	// not configured. API layer should map this to HTTP 503.
	ErrSplitterUnavailable = errors.New("chapter splitter is not configured")
)
