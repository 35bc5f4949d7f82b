package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Gaurav02lk-beep/Onyx/internal/config"
	"github.com/Gaurav02lk-beep/Onyx/internal/observe"
	"github.com/Gaurav02lk-beep/Onyx/internal/resilience"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway/cache"
)

// Gateway is the assembled gateway chain shared by all sessions:
//
//	cache → fallback → instrumented backend (primary, fallbacks...)
//
// Suggestion cache hits never reach a backend. Each backend call is traced,
// measured and guarded by its own circuit breaker.
type Gateway struct {
	gateway.Provider

	// Fallback exposes breaker state for readiness checks.
	Fallback *resilience.GatewayFallback
}

// BuildGateway instantiates every configured backend through reg and chains
// them in config order.
func BuildGateway(ctx context.Context, cfg *config.Config, reg *config.Registry, m *observe.Metrics) (*Gateway, error) {
	fbCfg := resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  cfg.Resilience.MaxFailures,
			ResetTimeout: cfg.Resilience.ResetTimeout,
			HalfOpenMax:  cfg.Resilience.HalfOpenMax,
		},
	}

	var fb *resilience.GatewayFallback
	for i, entry := range cfg.Providers.Entries() {
		p, err := reg.CreateGateway(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("app: build gateway: %w", err)
		}
		label := entry.Label()
		backend := observe.InstrumentGateway(p, label, m)
		if i == 0 {
			fb = resilience.NewGatewayFallback(backend, label, fbCfg)
		} else {
			fb.AddFallback(label, backend)
		}
		slog.Info("gateway backend created", "name", label, "primary", i == 0)
	}

	return &Gateway{
		Provider: cache.New(fb, cfg.Search.SuggestionCacheTTL),
		Fallback: fb,
	}, nil
}
