package search

import (
	"context"
	"sync"
)

// Dispatcher schedules fn to run on the owner's event loop. Dispatch never
// blocks and may be called from any goroutine. Functions run in the order
// they were dispatched.
type Dispatcher interface {
	Dispatch(fn func())
}

// Loop is a Dispatcher that runs queued functions serially on the goroutine
// that calls [Loop.Run].
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
}

// NewLoop returns an idle Loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Dispatch implements Dispatcher. Functions dispatched after [Loop.Close]
// are dropped.
func (l *Loop) Dispatch(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run executes dispatched functions until ctx is cancelled or the loop is
// closed. Functions still queued at that point are discarded.
func (l *Loop) Run(ctx context.Context) {
	for {
		for fn := l.next(); fn != nil; fn = l.next() {
			fn()
		}
		if l.isClosed() {
			return
		}
		select {
		case <-ctx.Done():
			l.Close()
			return
		case <-l.wake:
		}
	}
}

// Close stops the loop. Safe to call more than once and from any goroutine,
// including from a function running on the loop.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}

func (l *Loop) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

var _ Dispatcher = (*Loop)(nil)
