package config

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

// ErrProviderNotRegistered is returned by [Registry.CreateGateway] when no
// factory has been registered under the requested name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// GatewayFactory builds a gateway backend from its config entry.
type GatewayFactory func(ctx context.Context, entry ProviderEntry) (gateway.Provider, error)

// Registry maps gateway names to their constructor functions. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]GatewayFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{gateways: make(map[string]GatewayFactory)}
}

// RegisterGateway registers a gateway factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterGateway(name string, factory GatewayFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[name] = factory
}

// CreateGateway instantiates the gateway registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for
// that name.
func (r *Registry) CreateGateway(ctx context.Context, entry ProviderEntry) (gateway.Provider, error) {
	r.mu.RLock()
	factory, ok := r.gateways[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: gateway/%q", ErrProviderNotRegistered, entry.Name)
	}
	p, err := factory(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("config: create gateway %q: %w", entry.Label(), err)
	}
	return p, nil
}

// Names returns the registered gateway names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.gateways))
	for n := range r.gateways {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
