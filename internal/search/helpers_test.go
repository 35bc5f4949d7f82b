package search

import (
	"sync"
	"testing"
	"time"
)

// queue is a Dispatcher whose functions run only when the test says so.
type queue struct {
	ch chan func()
}

func newQueue() *queue {
	return &queue{ch: make(chan func(), 1024)}
}

func (q *queue) Dispatch(fn func()) { q.ch <- fn }

// drain runs every function queued right now, including ones queued by the
// functions it runs.
func (q *queue) drain() {
	for {
		select {
		case fn := <-q.ch:
			fn()
		default:
			return
		}
	}
}

// runNext blocks until a function is queued and runs it. Used to wait for
// gateway goroutines.
func (q *queue) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-q.ch:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a dispatched function")
	}
}

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward by d and fires every timer that came due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// counter counts invocations of a callback.
type counter struct{ n int }

func (c *counter) inc() { c.n++ }
