// Package mock provides test doubles for the speech.Capture and
// speech.Playback interfaces.
//
// The doubles never complete on their own. Tests drive them explicitly with
// Finish, Fail, EmitResult and friends, which invoke the callbacks registered
// by the code under test on the calling goroutine.
package mock

import (
	"sync"

	"github.com/Gaurav02lk-beep/Onyx/internal/speech"
)

// ── Playback ─────────────────────────────────────────────────────────────────

// Utterance records one Speak call.
type Utterance struct {
	Text string
	CB   speech.PlaybackCallbacks
}

// Playback is a mock implementation of speech.Playback.
type Playback struct {
	mu sync.Mutex

	// InterruptOnCancel makes Cancel report PlaybackInterrupted to the
	// utterance being cancelled, as browsers do.
	InterruptOnCancel bool

	// Spoken records every Speak call in order.
	Spoken []Utterance

	// CancelCount is the number of Cancel calls.
	CancelCount int

	current *Utterance
}

// Speak records the utterance and makes it current.
func (p *Playback) Speak(text string, cb speech.PlaybackCallbacks) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Spoken = append(p.Spoken, Utterance{Text: text, CB: cb})
	p.current = &Utterance{Text: text, CB: cb}
}

// Cancel records the call and drops the current utterance.
func (p *Playback) Cancel() {
	p.mu.Lock()
	p.CancelCount++
	cur := p.current
	p.current = nil
	interrupt := p.InterruptOnCancel
	p.mu.Unlock()

	if interrupt && cur != nil && cur.CB.OnError != nil {
		cur.CB.OnError(speech.PlaybackInterrupted)
	}
}

// Speaking reports whether an utterance is current.
func (p *Playback) Speaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Finish completes the current utterance successfully. Returns false when
// nothing is being spoken.
func (p *Playback) Finish() bool {
	cur := p.take()
	if cur == nil {
		return false
	}
	if cur.CB.OnEnd != nil {
		cur.CB.OnEnd()
	}
	return true
}

// Fail reports code for the current utterance. Returns false when nothing is
// being spoken.
func (p *Playback) Fail(code speech.PlaybackErrorCode) bool {
	cur := p.take()
	if cur == nil {
		return false
	}
	if cur.CB.OnError != nil {
		cur.CB.OnError(code)
	}
	return true
}

// Texts returns the text of every Speak call in order.
func (p *Playback) Texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Spoken))
	for i, u := range p.Spoken {
		out[i] = u.Text
	}
	return out
}

func (p *Playback) take() *Utterance {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.current
	p.current = nil
	return cur
}

// ── Capture ──────────────────────────────────────────────────────────────────

// Capture is a mock implementation of speech.Capture.
type Capture struct {
	mu sync.Mutex

	// StartErr, if non-nil, is returned by Start.
	StartErr error

	// StartCount, StopCount and AbortCount count the respective calls.
	StartCount int
	StopCount  int
	AbortCount int

	cb     speech.CaptureCallbacks
	active bool
}

// Start records the callbacks. It does not fire OnStart; call Begin.
func (c *Capture) Start(cb speech.CaptureCallbacks) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StartCount++
	if c.StartErr != nil {
		return c.StartErr
	}
	c.cb = cb
	c.active = true
	return nil
}

// Stop records the call.
func (c *Capture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StopCount++
}

// Abort records the call.
func (c *Capture) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.AbortCount++
}

// Active reports whether a run was started and has not ended.
func (c *Capture) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Begin fires OnStart.
func (c *Capture) Begin() {
	if cb := c.callbacks(); cb.OnStart != nil {
		cb.OnStart()
	}
}

// EmitResult fires OnResult.
func (c *Capture) EmitResult(transcript string, final bool) {
	if cb := c.callbacks(); cb.OnResult != nil {
		cb.OnResult(transcript, final)
	}
}

// EmitError fires OnError.
func (c *Capture) EmitError(code speech.CaptureErrorCode, detail string) {
	if cb := c.callbacks(); cb.OnError != nil {
		cb.OnError(code, detail)
	}
}

// End fires OnEnd and marks the run finished.
func (c *Capture) End() {
	cb := c.callbacks()
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
	if cb.OnEnd != nil {
		cb.OnEnd()
	}
}

func (c *Capture) callbacks() speech.CaptureCallbacks {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cb
}

// Compile-time interface assertions.
var (
	_ speech.Playback = (*Playback)(nil)
	_ speech.Capture  = (*Capture)(nil)
)
