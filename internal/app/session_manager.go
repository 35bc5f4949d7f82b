package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gaurav02lk-beep/Onyx/internal/observe"
	"github.com/Gaurav02lk-beep/Onyx/internal/search"
	"github.com/Gaurav02lk-beep/Onyx/internal/web"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

// closeTimeout bounds how long Close waits for a session loop to finish its
// teardown.
const closeTimeout = 2 * time.Second

var (
	// ErrTooManySessions is returned by Open when the session cap is reached.
	ErrTooManySessions = errors.New("session: too many active sessions")

	// ErrDuplicateSession is returned by Open when the id is already in use.
	ErrDuplicateSession = errors.New("session: duplicate session id")

	// ErrDraining is returned by Open once CloseAll has begun.
	ErrDraining = errors.New("session: manager is shutting down")
)

// SessionInfo holds metadata about an active session.
type SessionInfo struct {
	// ID is the unique identifier for this session.
	ID string

	// Remote is the client address the session serves.
	Remote string

	// StartedAt is when the session was opened.
	StartedAt time.Time
}

// activeSession is one running search session and its loop.
type activeSession struct {
	info   SessionInfo
	sess   *search.Session
	loop   *search.Loop
	cancel context.CancelFunc
	done   chan struct{}
}

// SessionManager runs one search session per connected page, each on its
// own event loop goroutine. All exported methods are safe for concurrent use.
type SessionManager struct {
	gw          gateway.Provider
	metrics     *observe.Metrics
	maxSessions int
	searchCfg   atomic.Pointer[search.Config]

	mu       sync.Mutex
	active   map[string]*activeSession
	draining bool
}

var _ web.Sessions = (*SessionManager)(nil)

// SessionManagerConfig holds all dependencies for a [SessionManager].
type SessionManagerConfig struct {
	// Gateway serves every session. Required.
	Gateway gateway.Provider

	// Search holds the settings of newly opened sessions.
	Search search.Config

	// MaxSessions caps concurrent sessions. 0 means unlimited.
	MaxSessions int

	// Metrics may be nil.
	Metrics *observe.Metrics
}

// NewSessionManager creates a SessionManager with the given dependencies.
func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	sm := &SessionManager{
		gw:          cfg.Gateway,
		metrics:     cfg.Metrics,
		maxSessions: cfg.MaxSessions,
		active:      make(map[string]*activeSession),
	}
	sm.SetSearchConfig(cfg.Search)
	return sm
}

// SetSearchConfig replaces the settings used by sessions opened from now on.
// Open sessions keep the settings they started with.
func (sm *SessionManager) SetSearchConfig(c search.Config) {
	sm.searchCfg.Store(&c)
}

// Open implements web.Sessions. The session's loop runs until Close, even
// after ctx ends, so the teardown Close queues always runs; ctx bounds the
// session's gateway calls.
func (sm *SessionManager) Open(ctx context.Context, p web.SessionParams) (*search.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	switch {
	case sm.draining:
		return nil, ErrDraining
	case sm.maxSessions > 0 && len(sm.active) >= sm.maxSessions:
		return nil, fmt.Errorf("%w (max %d)", ErrTooManySessions, sm.maxSessions)
	}
	if _, ok := sm.active[p.ID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSession, p.ID)
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	loop := search.NewLoop()

	opts := []search.Option{
		search.WithContext(sessionCtx),
		search.WithMetrics(sm.metrics),
	}
	if p.Capture != nil {
		opts = append(opts, search.WithCapture(p.Capture))
	}
	if p.OnState != nil {
		opts = append(opts, search.WithStateListener(p.OnState))
	}
	sess := search.NewSession(sm.gw, p.Playback, loop, *sm.searchCfg.Load(), opts...)

	as := &activeSession{
		info:   SessionInfo{ID: p.ID, Remote: p.Remote, StartedAt: time.Now().UTC()},
		sess:   sess,
		loop:   loop,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(as.done)
		loop.Run(context.WithoutCancel(sessionCtx))
	}()

	sm.active[p.ID] = as
	sm.metrics.SessionOpened(ctx)
	slog.Info("session started", "session_id", p.ID, "remote", p.Remote, "active", len(sm.active))
	return sess, nil
}

// Close implements web.Sessions. It runs the session teardown on its loop,
// waits for the loop to stop and cancels anything still in flight.
func (sm *SessionManager) Close(id string) {
	sm.mu.Lock()
	as, ok := sm.active[id]
	delete(sm.active, id)
	sm.mu.Unlock()
	if !ok {
		return
	}
	sm.stop(as)
}

// CloseAll closes every session and rejects new ones.
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	sm.draining = true
	all := make([]*activeSession, 0, len(sm.active))
	for id, as := range sm.active {
		all = append(all, as)
		delete(sm.active, id)
	}
	sm.mu.Unlock()

	var wg sync.WaitGroup
	for _, as := range all {
		wg.Go(func() { sm.stop(as) })
	}
	wg.Wait()
}

func (sm *SessionManager) stop(as *activeSession) {
	as.sess.Close()
	as.loop.Dispatch(as.loop.Close)

	select {
	case <-as.done:
	case <-time.After(closeTimeout):
		slog.Warn("session: loop did not stop in time", "session_id", as.info.ID)
	}
	as.cancel()

	sm.metrics.SessionClosed(context.Background())
	slog.Info("session stopped",
		"session_id", as.info.ID,
		"duration", time.Since(as.info.StartedAt).Round(time.Millisecond),
	)
}

// Count returns the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.active)
}

// List returns metadata about the active sessions, oldest first.
func (sm *SessionManager) List() []SessionInfo {
	sm.mu.Lock()
	out := make([]SessionInfo, 0, len(sm.active))
	for _, as := range sm.active {
		out = append(out, as.info)
	}
	sm.mu.Unlock()

	slices.SortFunc(out, func(a, b SessionInfo) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Lookup returns the session with the given id.
func (sm *SessionManager) Lookup(id string) (*search.Session, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	as, ok := sm.active[id]
	if !ok {
		return nil, false
	}
	return as.sess, true
}
