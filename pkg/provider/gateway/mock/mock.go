// Package mock provides a test double for the gateway.Provider interface.
//
// Use Provider in unit tests to verify which prompts the search layer sends
// and to feed controlled responses without a live backend. Response fields may
// be set before any call; the *Func hooks, when non-nil, take precedence over
// the static fields and let tests block, fail selectively or inspect ctx.
//
// Example:
//
//	p := &mock.Provider{
//	    TextResult: &gateway.TextResult{Text: "Gravity pulls."},
//	}
//	res, err := p.GenerateText(ctx, "What is gravity?", true)
package mock

import (
	"context"
	"sync"

	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

// TextCall records a single invocation of GenerateText or GenerateTextWithImage.
type TextCall struct {
	// Ctx is the context passed to the call.
	Ctx context.Context
	// Prompt is the prompt passed to the call.
	Prompt string
	// Image is set for GenerateTextWithImage calls.
	Image *gateway.Image
	// Grounding is the grounding flag.
	Grounding bool
}

// ImageCall records a single invocation of GenerateImage.
type ImageCall struct {
	Ctx    context.Context
	Prompt string
}

// SuggestionCall records a single invocation of GenerateSuggestions.
type SuggestionCall struct {
	Ctx     context.Context
	Partial string
}

// Provider is a mock implementation of gateway.Provider.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// TextResult is returned by GenerateText and GenerateTextWithImage.
	TextResult *gateway.TextResult
	// TextErr, if non-nil, is returned by GenerateText and GenerateTextWithImage.
	TextErr error
	// TextFunc, if set, replaces TextResult/TextErr for both text operations.
	TextFunc func(ctx context.Context, call TextCall) (*gateway.TextResult, error)

	// ImageResult is returned by GenerateImage.
	ImageResult *gateway.Image
	// ImageErr, if non-nil, is returned by GenerateImage.
	ImageErr error
	// ImageFunc, if set, replaces ImageResult/ImageErr.
	ImageFunc func(ctx context.Context, prompt string) (*gateway.Image, error)

	// Suggestions is returned by GenerateSuggestions.
	Suggestions []string
	// SuggestionsErr, if non-nil, is returned by GenerateSuggestions.
	SuggestionsErr error
	// SuggestionsFunc, if set, replaces Suggestions/SuggestionsErr.
	SuggestionsFunc func(ctx context.Context, partial string) ([]string, error)

	// --- Call records (read after test) ---

	TextCalls       []TextCall
	ImageCalls      []ImageCall
	SuggestionCalls []SuggestionCall
}

// GenerateText records the call and returns TextResult, TextErr.
func (p *Provider) GenerateText(ctx context.Context, prompt string, grounding bool) (*gateway.TextResult, error) {
	return p.text(ctx, TextCall{Ctx: ctx, Prompt: prompt, Grounding: grounding})
}

// GenerateTextWithImage records the call and returns TextResult, TextErr.
func (p *Provider) GenerateTextWithImage(ctx context.Context, prompt string, img gateway.Image, grounding bool) (*gateway.TextResult, error) {
	return p.text(ctx, TextCall{Ctx: ctx, Prompt: prompt, Image: &img, Grounding: grounding})
}

func (p *Provider) text(ctx context.Context, call TextCall) (*gateway.TextResult, error) {
	p.mu.Lock()
	p.TextCalls = append(p.TextCalls, call)
	fn, res, err := p.TextFunc, p.TextResult, p.TextErr
	p.mu.Unlock()
	if fn != nil {
		return fn(ctx, call)
	}
	return res, err
}

// GenerateImage records the call and returns ImageResult, ImageErr.
func (p *Provider) GenerateImage(ctx context.Context, prompt string) (*gateway.Image, error) {
	p.mu.Lock()
	p.ImageCalls = append(p.ImageCalls, ImageCall{Ctx: ctx, Prompt: prompt})
	fn, res, err := p.ImageFunc, p.ImageResult, p.ImageErr
	p.mu.Unlock()
	if fn != nil {
		return fn(ctx, prompt)
	}
	return res, err
}

// GenerateSuggestions records the call and returns Suggestions, SuggestionsErr.
func (p *Provider) GenerateSuggestions(ctx context.Context, partial string) ([]string, error) {
	p.mu.Lock()
	p.SuggestionCalls = append(p.SuggestionCalls, SuggestionCall{Ctx: ctx, Partial: partial})
	fn, res, err := p.SuggestionsFunc, p.Suggestions, p.SuggestionsErr
	p.mu.Unlock()
	if fn != nil {
		return fn(ctx, partial)
	}
	out := make([]string, len(res))
	copy(out, res)
	return out, err
}

// TextCallCount returns the number of text calls so far. Thread-safe.
func (p *Provider) TextCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.TextCalls)
}

// ImageCallCount returns the number of image calls so far. Thread-safe.
func (p *Provider) ImageCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ImageCalls)
}

// SuggestionPartials returns the partial queries passed to
// GenerateSuggestions in order. Thread-safe.
func (p *Provider) SuggestionPartials() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.SuggestionCalls))
	for i, c := range p.SuggestionCalls {
		out[i] = c.Partial
	}
	return out
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TextCalls = nil
	p.ImageCalls = nil
	p.SuggestionCalls = nil
}

// Ensure Provider implements gateway.Provider at compile time.
var _ gateway.Provider = (*Provider)(nil)
