// Package health serves the liveness and readiness probes.
//
//   - /healthz always returns 200 while the process serves HTTP.
//   - /readyz returns 200 only when every registered [Checker] passes.
//
// Responses are JSON objects with a "status" field ("ok" or "fail") and, for
// /readyz, a "checks" map keyed by checker name.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Checker is a named readiness check. Check returns nil when healthy and
// must respect ctx.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

type result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves /healthz and /readyz. The checker list is fixed at
// construction.
type Handler struct {
	checkers []Checker
}

// New returns a Handler evaluating checkers on each /readyz request.
func New(checkers ...Checker) *Handler {
	return &Handler{checkers: append([]Checker(nil), checkers...)}
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok"})
}

// Readyz runs every checker concurrently, each under [checkTimeout].
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	var (
		mu     sync.Mutex
		checks = make(map[string]string, len(h.checkers))
		failed bool
	)

	var g errgroup.Group
	for _, c := range h.checkers {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			defer cancel()
			err := c.Check(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				checks[c.Name] = "fail: " + err.Error()
				failed = true
				return nil
			}
			checks[c.Name] = "ok"
			return nil
		})
	}
	_ = g.Wait()

	res := result{Status: "ok", Checks: checks}
	status := http.StatusOK
	if failed {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// Register adds the probe routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ── Checkers ─────────────────────────────────────────────────────────────────

// Availability is implemented by gateways that can report whether any
// backend would currently accept a call.
type Availability interface {
	Available() bool
}

// ErrGatewayUnavailable is reported when every gateway backend is tripped.
var ErrGatewayUnavailable = errors.New("all gateway backends are unavailable")

// ErrDraining is reported once the server has begun shutting down.
var ErrDraining = errors.New("server is draining")

// Gateway fails while no backend of gw would accept a call.
func Gateway(gw Availability) Checker {
	return Checker{
		Name: "gateway",
		Check: func(context.Context) error {
			if !gw.Available() {
				return ErrGatewayUnavailable
			}
			return nil
		},
	}
}

// Draining fails once draining is set, so load balancers stop routing new
// sessions to a server that is shutting down.
func Draining(draining *atomic.Bool) Checker {
	return Checker{
		Name: "lifecycle",
		Check: func(context.Context) error {
			if draining.Load() {
				return ErrDraining
			}
			return nil
		},
	}
}
