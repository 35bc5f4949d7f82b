package search

import "time"

// Clock abstracts time.AfterFunc so tests can drive timers by hand.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

// Stopper cancels a scheduled function. Stop reports whether the call
// prevented the function from running.
type Stopper interface {
	Stop() bool
}

// SystemClock is the wall clock.
type SystemClock struct{}

// AfterFunc implements Clock.
func (SystemClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Timer runs one pending action on the event loop after a delay. Scheduling
// again replaces the pending action. A fire that races with Schedule or
// Cancel is dropped on the loop by a generation check, so a replaced action
// never runs.
//
// Timer must only be used from the loop goroutine.
type Timer struct {
	clock   Clock
	disp    Dispatcher
	pending Stopper
	gen     uint64
}

// NewTimer returns a Timer that fires through disp.
func NewTimer(clock Clock, disp Dispatcher) *Timer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Timer{clock: clock, disp: disp}
}

// Schedule cancels any pending action and runs action after d.
func (t *Timer) Schedule(d time.Duration, action func()) {
	t.Cancel()
	gen := t.gen
	t.pending = t.clock.AfterFunc(d, func() {
		t.disp.Dispatch(func() {
			if t.gen != gen {
				return
			}
			t.pending = nil
			action()
		})
	})
}

// Cancel stops the pending action, if any.
func (t *Timer) Cancel() {
	t.gen++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

// Pending reports whether an action is scheduled.
func (t *Timer) Pending() bool {
	return t.pending != nil
}
