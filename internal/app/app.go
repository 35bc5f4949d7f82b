// Package app wires the Onyx subsystems into a running server.
//
// The App struct owns the full lifecycle: New connects the gateway chain, the
// session manager and the web host; Run serves HTTP until its context ends;
// Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithListener,
// WithAvailability, etc.).
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Gaurav02lk-beep/Onyx/internal/config"
	"github.com/Gaurav02lk-beep/Onyx/internal/health"
	"github.com/Gaurav02lk-beep/Onyx/internal/observe"
	"github.com/Gaurav02lk-beep/Onyx/internal/search"
	"github.com/Gaurav02lk-beep/Onyx/internal/web"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

// readHeaderTimeout bounds reading request headers.
const readHeaderTimeout = 10 * time.Second

// App owns all subsystem lifetimes.
type App struct {
	cfg *config.Config
	gw  gateway.Provider

	availability health.Availability
	metrics      *observe.Metrics
	telemetry    *observe.Telemetry
	logLevel     *slog.LevelVar
	listener     net.Listener

	sessions *SessionManager
	web      *web.Server
	draining atomic.Bool

	addrMu sync.Mutex
	addr   net.Addr
	ready  chan struct{}

	// closers are called in order during Shutdown.
	closers []func(context.Context) error
	extra   []func(context.Context) error

	stopOnce sync.Once
}

// Option is a functional option for New.
type Option func(*App)

// WithMetrics records session and HTTP metrics on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithTelemetry serves /metrics from t and shuts t down with the app.
func WithTelemetry(t *observe.Telemetry) Option {
	return func(a *App) { a.telemetry = t }
}

// WithAvailability makes /readyz fail while av reports no usable backend.
func WithAvailability(av health.Availability) Option {
	return func(a *App) { a.availability = av }
}

// WithLogLevel lets config reloads change the level of the default logger.
func WithLogLevel(v *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = v }
}

// WithListener serves on l instead of listening on cfg.Server.ListenAddr.
func WithListener(l net.Listener) Option {
	return func(a *App) { a.listener = l }
}

// WithCloser registers fn to run during Shutdown, after the built-in
// closers.
func WithCloser(fn func(context.Context) error) Option {
	return func(a *App) { a.extra = append(a.extra, fn) }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App serving gw to every session.
func New(cfg *config.Config, gw gateway.Provider, opts ...Option) (*App, error) {
	if gw == nil {
		return nil, errors.New("app: a gateway is required")
	}
	a := &App{cfg: cfg, gw: gw, ready: make(chan struct{})}
	for _, o := range opts {
		o(a)
	}

	a.sessions = NewSessionManager(SessionManagerConfig{
		Gateway:     gw,
		Search:      SearchConfig(cfg.Search),
		MaxSessions: cfg.Server.MaxSessions,
		Metrics:     a.metrics,
	})

	checkers := []health.Checker{health.Draining(&a.draining)}
	if a.availability != nil {
		checkers = append(checkers, health.Gateway(a.availability))
	}
	webOpts := []web.Option{
		web.WithHealth(health.New(checkers...)),
		web.WithMetrics(a.metrics),
		web.WithOriginPatterns(cfg.Server.AllowedOrigins...),
	}
	if a.telemetry != nil && cfg.Observe.MetricsEnabled() {
		webOpts = append(webOpts, web.WithMetricsHandler(a.telemetry.Handler()))
	}
	a.web = web.New(a.sessions, webOpts...)

	a.closers = append(a.closers, func(context.Context) error {
		a.sessions.CloseAll()
		return nil
	})
	if a.telemetry != nil {
		a.closers = append(a.closers, a.telemetry.Shutdown)
	}
	a.closers = append(a.closers, a.extra...)
	return a, nil
}

// Sessions returns the session manager.
func (a *App) Sessions() *SessionManager { return a.sessions }

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.web.Handler() }

// Addr returns the address the server is listening on, blocking until Run
// has bound it or ctx ends.
func (a *App) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-a.ready:
		a.addrMu.Lock()
		defer a.addrMu.Unlock()
		return a.addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ApplyConfig applies the hot-reloadable parts of a new config. It is meant
// as the [config.Watcher] callback.
func (a *App) ApplyConfig(old, new *config.Config) {
	d := config.Diff(old, new)
	if d.LogLevelChanged && a.logLevel != nil {
		a.logLevel.Set(d.NewLogLevel.Slog())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.SearchChanged {
		a.sessions.SetSearchConfig(SearchConfig(new.Search))
		slog.Info("search settings reloaded; new sessions use them")
	}
	if len(d.RestartRequired) > 0 {
		slog.Warn("config changes need a restart to take effect", "sections", d.RestartRequired)
	}
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP until ctx is cancelled, then drains: readiness fails,
// sessions close and the server shuts down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	ln := a.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.cfg.Server.ListenAddr)
		if err != nil {
			return fmt.Errorf("app: listen %q: %w", a.cfg.Server.ListenAddr, err)
		}
	}
	a.addrMu.Lock()
	a.addr = ln.Addr()
	a.addrMu.Unlock()
	close(a.ready)

	srv := &http.Server{
		Handler:           a.web.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", ln.Addr().String(), "tls", a.cfg.Server.TLS != nil)
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = srv.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			err = srv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.draining.Store(true)
		a.sessions.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: http shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.draining.Store(true)
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(ctx); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// SearchConfig converts the config section into session settings. Zero
// values are filled with defaults by the search package.
func SearchConfig(c config.SearchConfig) search.Config {
	return search.Config{
		SuggestionDelay:      c.SuggestionDebounce,
		MinSuggestionChars:   c.MinSuggestionChars,
		MaxSuggestions:       c.MaxSuggestions,
		ImagePromptPrefix:    c.ImagePromptPrefix,
		MaxImagePromptLength: c.MaxImagePromptLength,
		SpeechErrorTimeout:   c.SpeechErrorTimeout,
		SpeechNoticeTimeout:  c.SpeechNoticeTimeout,
	}
}
