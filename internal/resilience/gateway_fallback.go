package resilience

import (
	"context"

	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

// GatewayFallback implements [gateway.Provider] with failover across several
// backends.
type GatewayFallback struct {
	group *FallbackGroup[gateway.Provider]
}

var _ gateway.Provider = (*GatewayFallback)(nil)

// NewGatewayFallback returns a GatewayFallback with primary as the preferred
// backend.
func NewGatewayFallback(primary gateway.Provider, primaryName string, cfg FallbackConfig) *GatewayFallback {
	return &GatewayFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers another backend.
func (f *GatewayFallback) AddFallback(name string, p gateway.Provider) {
	f.group.AddFallback(name, p)
}

// Status reports the breaker state of every backend.
func (f *GatewayFallback) Status() []EntryStatus { return f.group.Status() }

// Available reports whether any backend would accept a call.
func (f *GatewayFallback) Available() bool { return f.group.Available() }

// GenerateText implements gateway.Provider.
func (f *GatewayFallback) GenerateText(ctx context.Context, prompt string, grounding bool) (*gateway.TextResult, error) {
	return ExecuteWithResult(ctx, f.group, func(p gateway.Provider) (*gateway.TextResult, error) {
		return p.GenerateText(ctx, prompt, grounding)
	})
}

// GenerateTextWithImage implements gateway.Provider.
func (f *GatewayFallback) GenerateTextWithImage(ctx context.Context, prompt string, img gateway.Image, grounding bool) (*gateway.TextResult, error) {
	return ExecuteWithResult(ctx, f.group, func(p gateway.Provider) (*gateway.TextResult, error) {
		return p.GenerateTextWithImage(ctx, prompt, img, grounding)
	})
}

// GenerateImage implements gateway.Provider.
func (f *GatewayFallback) GenerateImage(ctx context.Context, prompt string) (*gateway.Image, error) {
	return ExecuteWithResult(ctx, f.group, func(p gateway.Provider) (*gateway.Image, error) {
		return p.GenerateImage(ctx, prompt)
	})
}

// GenerateSuggestions implements gateway.Provider.
func (f *GatewayFallback) GenerateSuggestions(ctx context.Context, partial string) ([]string, error) {
	return ExecuteWithResult(ctx, f.group, func(p gateway.Provider) ([]string, error) {
		return p.GenerateSuggestions(ctx, partial)
	})
}
