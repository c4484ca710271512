package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrEmptyText is returned when the input text is empty or whitespace
	ErrEmptyText = errors.New("input text cannot be empty")

	// ErrSplitFailed is returned when chapter splitting fails for any general reason
	ErrSplitFailed = errors.New("failed to split text into chapters")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during chapter splitting")

	// ErrInvalidConfig is returned when the splitter configuration is invalid
	ErrInvalidConfig = errors.New("invalid splitter configuration")
)
