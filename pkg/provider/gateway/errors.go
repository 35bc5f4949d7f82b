package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidImageFormat is returned when an image is not one of the
	// supported MIME types or a data URI cannot be decoded.
	ErrInvalidImageFormat = errors.New("gateway: invalid base64 image data: mime type not found or not supported")

	// ErrEmptyResult is returned when the backend answered but produced
	// nothing usable (no candidates, no image).
	ErrEmptyResult = errors.New("gateway: no result generated or response format unexpected")

	// ErrNotSupported is returned by backends that cannot perform an
	// operation, e.g. image generation on a text-only model.
	ErrNotSupported = errors.New("gateway: operation not supported by this backend")
)

// Operation names used in [Error] and in metrics.
const (
	OpGenerateText          = "generate_text"
	OpGenerateTextWithImage = "generate_text_with_image"
	OpGenerateImage         = "generate_image"
	OpGenerateSuggestions   = "generate_suggestions"
)

// Error wraps a backend failure with the operation and provider that
// produced it.
type Error struct {
	// Provider is the backend name, e.g. "gemini".
	Provider string

	// Op is one of the Op* constants.
	Op string

	// Err is the underlying cause.
	Err error
}

// NewError wraps err for provider and op. Returns nil when err is nil.
func NewError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Provider: provider, Op: op, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s API error in %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
