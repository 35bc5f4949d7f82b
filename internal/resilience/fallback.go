package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry of a [FallbackGroup] failed or
// was skipped.
var ErrAllFailed = errors.New("all providers failed")

// FallbackConfig configures the breaker created for each entry of a
// [FallbackGroup]. The breaker name is set per entry.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

type fallbackEntry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// EntryStatus describes one entry of a [FallbackGroup].
type EntryStatus struct {
	Name  string
	State State
}

// FallbackGroup holds a primary and zero or more fallbacks of the same type,
// each behind its own circuit breaker. Calls go to the first entry whose
// breaker admits them and move on when it fails.
type FallbackGroup[T any] struct {
	entries []fallbackEntry[T]
	cfg     FallbackConfig
}

// NewFallbackGroup returns a group with primary as its only entry.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends an entry. Entries are tried in the order added. Not
// safe to call concurrently with [ExecuteWithResult].
func (fg *FallbackGroup[T]) AddFallback(name string, fallback T) {
	cbCfg := fg.cfg.CircuitBreaker
	cbCfg.Name = name
	fg.entries = append(fg.entries, fallbackEntry[T]{
		name:    name,
		value:   fallback,
		breaker: NewCircuitBreaker(cbCfg),
	})
}

// Primary returns the first entry's value.
func (fg *FallbackGroup[T]) Primary() T { return fg.entries[0].value }

// Status reports the breaker state of every entry in order.
func (fg *FallbackGroup[T]) Status() []EntryStatus {
	out := make([]EntryStatus, len(fg.entries))
	for i, e := range fg.entries {
		out[i] = EntryStatus{Name: e.name, State: e.breaker.State()}
	}
	return out
}

// Available reports whether at least one entry's breaker would admit a call.
func (fg *FallbackGroup[T]) Available() bool {
	for _, e := range fg.entries {
		if e.breaker.State() != StateOpen {
			return true
		}
	}
	return false
}

// ExecuteWithResult calls fn on each entry in order until one succeeds.
//
// It stops early when ctx is done, since later entries would fail the same
// way. A group with a single entry returns that entry's error unchanged;
// otherwise the last error is wrapped with [ErrAllFailed].
func ExecuteWithResult[T any, R any](ctx context.Context, fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range fg.entries {
		entry := &fg.entries[i]
		var result R
		err := entry.breaker.Execute(func() error {
			var innerErr error
			result, innerErr = fn(entry.value)
			return innerErr
		})
		if err == nil {
			return result, nil
		}
		if lastErr == nil || !errors.Is(err, ErrCircuitOpen) {
			lastErr = err
		}
		if ctx.Err() != nil {
			return zero, err
		}
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("skipping provider, circuit open", "provider", entry.name)
		} else {
			slog.Warn("provider failed, trying next", "provider", entry.name, "err", err)
		}
	}
	if len(fg.entries) == 1 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}
