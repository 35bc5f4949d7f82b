// Package gateway defines the Provider interface for the remote inference
// backends that answer Onyx searches.
//
// A gateway provider wraps a hosted generative model (e.g., Gemini, an OpenAI
// model, or any model reachable through any-llm) and exposes the four
// operations the search front end needs: grounded text generation, text
// generation from an image plus prompt, image generation from a prompt, and
// short suggestion strings for a partial query. Callers never see the SDK
// behind the interface.
//
// Implementors must be safe for concurrent use. Every failure that reaches the
// caller is wrapped in an [*Error] so the search layer can surface the message
// and metrics can attribute it to an operation.
package gateway

import (
	"context"
)

// Source is one web page the model consulted while grounding an answer.
type Source struct {
	// URI is the address of the page. Never empty.
	URI string `json:"uri"`

	// Title is the human readable title. Defaults to URI when the backend
	// does not report one.
	Title string `json:"title"`
}

// NewSource builds a Source, falling back to uri when title is empty.
func NewSource(uri, title string) Source {
	if title == "" {
		title = uri
	}
	return Source{URI: uri, Title: title}
}

// TextResult is the answer to a text or image query.
type TextResult struct {
	// Text is the model's answer. Markdown with optional LaTeX.
	Text string

	// Sources lists grounding pages in the order the backend returned them.
	// Empty when grounding was disabled or not supported.
	Sources []Source
}

// Image is an encoded image with its MIME type.
type Image struct {
	// Data holds the raw encoded bytes (not base64).
	Data []byte

	// MIMEType is the IANA media type, e.g. "image/png".
	MIMEType string
}

// Provider is the abstraction over any remote inference backend.
//
// Each method should propagate context cancellation promptly: when ctx is
// cancelled the method must return as quickly as possible.
type Provider interface {
	// GenerateText answers prompt. When grounding is true and the backend
	// supports it, the answer is grounded with web search and the consulted
	// pages are returned in TextResult.Sources.
	GenerateText(ctx context.Context, prompt string, grounding bool) (*TextResult, error)

	// GenerateTextWithImage answers prompt about img. The image MIME type
	// must pass [ValidateImageMIME]; otherwise [ErrInvalidImageFormat] is
	// returned without contacting the backend.
	GenerateTextWithImage(ctx context.Context, prompt string, img Image, grounding bool) (*TextResult, error)

	// GenerateImage renders a single image for prompt. Backends append their
	// house style to the prompt. Returns [ErrEmptyResult] when the backend
	// answers without an image.
	GenerateImage(ctx context.Context, prompt string) (*Image, error)

	// GenerateSuggestions returns up to [MaxSuggestions] short search
	// suggestions for a partial query. A model answer in an unexpected shape
	// yields an empty slice and a nil error.
	GenerateSuggestions(ctx context.Context, partial string) ([]string, error)
}
