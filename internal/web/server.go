// Package web hosts search sessions for browsers.
//
// The page at / connects to /ws; each WebSocket connection owns one
// [search.Session]. The page sends input events and the results of its
// speech capture and playback; the server answers with state snapshots and
// speech commands. Health probes and Prometheus metrics share the mux, and
// every route runs behind the observability middleware.
package web

import (
	"context"
	"embed"
	"net/http"

	"github.com/Gaurav02lk-beep/Onyx/internal/health"
	"github.com/Gaurav02lk-beep/Onyx/internal/observe"
	"github.com/Gaurav02lk-beep/Onyx/internal/search"
	"github.com/Gaurav02lk-beep/Onyx/internal/speech"
)

//go:embed static
var staticFS embed.FS

// SessionParams describes the connection a session is opened for.
type SessionParams struct {
	// ID identifies the session in logs and in state messages.
	ID string

	// Remote is the client address.
	Remote string

	Playback speech.Playback
	Capture  speech.Capture

	// OnState receives every published snapshot, on the session loop.
	OnState func(search.State)
}

// Sessions opens and closes search sessions on behalf of connections.
type Sessions interface {
	// Open starts a session. ctx bounds the session's gateway calls.
	Open(ctx context.Context, p SessionParams) (*search.Session, error)

	// Close tears the session down. Unknown ids are ignored.
	Close(id string)
}

// Server serves the page, the WebSocket endpoint, health probes and metrics.
type Server struct {
	sessions       Sessions
	health         *health.Handler
	metricsHandler http.Handler
	metrics        *observe.Metrics
	originPatterns []string

	handler http.Handler
}

// Option configures a [Server].
type Option func(*Server)

// WithHealth serves /healthz and /readyz from h.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetricsHandler serves /metrics from h.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithMetrics records HTTP metrics on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithOriginPatterns allows cross-origin WebSocket connections from hosts
// matching patterns.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) { s.originPatterns = patterns }
}

// New returns a Server opening sessions through sessions.
func New(sessions Sessions, opts ...Option) *Server {
	s := &Server{sessions: sessions}
	for _, o := range opts {
		o(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.serveIndex)
	mux.HandleFunc("GET /ws", s.serveWS)
	if s.health != nil {
		s.health.Register(mux)
	}
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}
	s.handler = observe.Middleware(s.metrics)(mux)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFileFS(w, r, staticFS, "static/index.html")
}
