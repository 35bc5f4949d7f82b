// Package cache wraps a gateway.Provider with a short-lived in-memory cache
// for suggestion lookups.
//
// Typing the same prefix twice (backspace, retype) is common; the cache
// answers repeats without a model round trip. Only successful, non-empty
// results are stored. Every other operation passes straight through.
package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

// DefaultTTL is how long a suggestion list stays cached.
const DefaultTTL = 2 * time.Minute

// Provider is a gateway.Provider that caches GenerateSuggestions results.
type Provider struct {
	gateway.Provider
	store *gocache.Cache
}

// New wraps inner. A non-positive ttl selects [DefaultTTL].
func New(inner gateway.Provider, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Provider{
		Provider: inner,
		store:    gocache.New(ttl, 2*ttl),
	}
}

// GenerateSuggestions implements gateway.Provider.
func (p *Provider) GenerateSuggestions(ctx context.Context, partial string) ([]string, error) {
	key := cacheKey(partial)
	if v, ok := p.store.Get(key); ok {
		return clone(v.([]string)), nil
	}
	out, err := p.Provider.GenerateSuggestions(ctx, partial)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		p.store.Set(key, clone(out), gocache.DefaultExpiration)
	}
	return out, nil
}

// Len returns the number of cached entries, including expired ones not yet
// swept.
func (p *Provider) Len() int {
	return p.store.ItemCount()
}

func cacheKey(partial string) string {
	return strings.ToLower(strings.TrimSpace(partial))
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Ensure Provider implements gateway.Provider at compile time.
var _ gateway.Provider = (*Provider)(nil)
