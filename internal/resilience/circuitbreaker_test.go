package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

var errTest = errors.New("test error")

// manualTime is a hand-advanced clock for breaker tests.
type manualTime struct {
	mu  sync.Mutex
	now time.Time
}

func newManualTime() *manualTime {
	return &manualTime{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *manualTime) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualTime) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func newTestBreaker(clock *manualTime) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "test",
		MaxFailures:  3,
		ResetTimeout: time.Minute,
		HalfOpenMax:  2,
		Now:          clock.Now,
	})
}

func fail() error    { return errTest }
func succeed() error { return nil }

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "gemini"})
	if cb.maxFailures != 5 || cb.resetTimeout != 30*time.Second || cb.halfOpenMax != 3 {
		t.Errorf("defaults = %d/%v/%d, want 5/30s/3", cb.maxFailures, cb.resetTimeout, cb.halfOpenMax)
	}
	if cb.State() != StateClosed {
		t.Errorf("initial state = %v, want closed", cb.State())
	}
	if cb.Name() != "gemini" {
		t.Errorf("Name = %q", cb.Name())
	}
}

func TestCircuitBreaker_Lifecycle(t *testing.T) {
	clock := newManualTime()
	cb := newTestBreaker(clock)

	for range 3 {
		if err := cb.Execute(fail); !errors.Is(err, errTest) {
			t.Fatalf("Execute = %v, want the fn error", err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v after 3 failures, want open", cb.State())
	}

	called := false
	if err := cb.Execute(func() error { called = true; return nil }); !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("Execute while open = %v (called %v), want ErrCircuitOpen without calling fn", err, called)
	}

	clock.Advance(time.Minute)
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v after the reset timeout, want half-open", cb.State())
	}

	if err := cb.Execute(succeed); err != nil {
		t.Fatalf("first probe: %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v after one probe, want half-open", cb.State())
	}
	if err := cb.Execute(succeed); err != nil {
		t.Fatalf("second probe: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v after enough probes, want closed", cb.State())
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	clock := newManualTime()
	cb := newTestBreaker(clock)
	for range 3 {
		_ = cb.Execute(fail)
	}
	clock.Advance(time.Minute)

	_ = cb.Execute(fail)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v after failed probe, want open", cb.State())
	}
	clock.Advance(30 * time.Second)
	if err := cb.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute = %v, want ErrCircuitOpen: the reset timeout restarts on re-open", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker(newManualTime())

	_ = cb.Execute(fail)
	_ = cb.Execute(fail)
	_ = cb.Execute(succeed)
	_ = cb.Execute(fail)
	_ = cb.Execute(fail)

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed: failures were not consecutive", cb.State())
	}
}

func TestCircuitBreaker_NeutralErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "cancelled", err: context.Canceled},
		{name: "wrapped cancel", err: fmt.Errorf("gemini: %w", context.Canceled)},
		{name: "not supported", err: gateway.NewError("anyllm/ollama", gateway.OpGenerateImage, gateway.ErrNotSupported)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := newTestBreaker(newManualTime())
			for range 10 {
				if err := cb.Execute(func() error { return tt.err }); err != tt.err {
					t.Fatalf("Execute = %v, want %v", err, tt.err)
				}
			}
			if cb.State() != StateClosed {
				t.Errorf("state = %v, want closed", cb.State())
			}
		})
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := newTestBreaker(newManualTime())
	for range 3 {
		_ = cb.Execute(fail)
	}
	cb.Reset()
	if cb.State() != StateClosed {
		t.Fatalf("state = %v after Reset, want closed", cb.State())
	}
	if err := cb.Execute(succeed); err != nil {
		t.Errorf("Execute after Reset = %v", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
