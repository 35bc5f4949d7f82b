package web

import (
	"errors"
	"sync"

	"github.com/Gaurav02lk-beep/Onyx/internal/speech"
)

// errDisconnected is returned by remoteCapture.Start once the page is gone.
var errDisconnected = errors.New("web: client disconnected")

// sender queues a message for the page. It reports false when the
// connection is closed.
type sender func(serverMessage) bool

// ── Playback ─────────────────────────────────────────────────────────────────

// remotePlayback speaks through the page's speech synthesis. Each utterance
// gets an id; the page echoes it in playback_end / playback_error. Events for
// any id other than the current one are dropped, which includes utterances
// that were cancelled.
type remotePlayback struct {
	send sender

	mu      sync.Mutex
	nextID  uint64
	current uint64
	cb      speech.PlaybackCallbacks
}

var _ speech.Playback = (*remotePlayback)(nil)

func newRemotePlayback(send sender) *remotePlayback {
	return &remotePlayback{send: send}
}

// Speak implements speech.Playback. An utterance still in progress is
// cancelled first.
func (p *remotePlayback) Speak(text string, cb speech.PlaybackCallbacks) {
	p.mu.Lock()
	prev := p.current
	p.nextID++
	id := p.nextID
	p.current, p.cb = id, cb
	p.mu.Unlock()

	if prev != 0 {
		p.send(serverMessage{Type: MsgCancelSpeech, ID: prev})
	}
	if !p.send(serverMessage{Type: MsgSpeak, ID: id, Text: text}) {
		p.complete(id, speech.PlaybackCanceled)
	}
}

// Cancel implements speech.Playback. The cancelled utterance's callbacks are
// dropped.
func (p *remotePlayback) Cancel() {
	p.mu.Lock()
	id := p.current
	p.current, p.cb = 0, speech.PlaybackCallbacks{}
	p.mu.Unlock()

	if id != 0 {
		p.send(serverMessage{Type: MsgCancelSpeech, ID: id})
	}
}

// Speaking implements speech.Playback.
func (p *remotePlayback) Speaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != 0
}

// complete routes a page report for utterance id. An empty code means the
// utterance ended normally.
func (p *remotePlayback) complete(id uint64, code speech.PlaybackErrorCode) {
	p.mu.Lock()
	if id == 0 || id != p.current {
		p.mu.Unlock()
		return
	}
	cb := p.cb
	p.current, p.cb = 0, speech.PlaybackCallbacks{}
	p.mu.Unlock()

	switch {
	case code == "":
		if cb.OnEnd != nil {
			cb.OnEnd()
		}
	case cb.OnError != nil:
		cb.OnError(code)
	}
}

// ── Capture ──────────────────────────────────────────────────────────────────

// remoteCapture recognises speech through the page. The page announces on
// connect whether it has a recogniser; until it does, capture is assumed to
// be supported. A page that cannot start its recogniser answers a capture
// request with capture_error "unavailable" or "start-failed" followed by
// capture_end.
type remoteCapture struct {
	send sender

	mu          sync.Mutex
	unsupported bool
	nextID      uint64
	current     uint64
	cb          speech.CaptureCallbacks
}

var _ speech.Capture = (*remoteCapture)(nil)

func newRemoteCapture(send sender) *remoteCapture {
	return &remoteCapture{send: send}
}

// Start implements speech.Capture. A run still in progress is superseded and
// its later events are dropped.
func (c *remoteCapture) Start(cb speech.CaptureCallbacks) error {
	c.mu.Lock()
	if c.unsupported {
		c.mu.Unlock()
		return speech.ErrCaptureUnavailable
	}
	c.nextID++
	id := c.nextID
	c.current, c.cb = id, cb
	c.mu.Unlock()

	if !c.send(serverMessage{Type: MsgCapture, ID: id}) {
		c.mu.Lock()
		if c.current == id {
			c.current, c.cb = 0, speech.CaptureCallbacks{}
		}
		c.mu.Unlock()
		return errDisconnected
	}
	return nil
}

// setSupported records whether the page has a recogniser.
func (c *remoteCapture) setSupported(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsupported = !ok
}

// Stop implements speech.Capture.
func (c *remoteCapture) Stop() {
	if id := c.active(); id != 0 {
		c.send(serverMessage{Type: MsgCaptureStop, ID: id})
	}
}

// Abort implements speech.Capture.
func (c *remoteCapture) Abort() {
	if id := c.active(); id != 0 {
		c.send(serverMessage{Type: MsgCaptureAbort, ID: id})
	}
}

func (c *remoteCapture) active() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// callbacks returns the callbacks of run id, or false when id is not the
// current run. end clears the current run.
func (c *remoteCapture) callbacks(id uint64, end bool) (speech.CaptureCallbacks, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == 0 || id != c.current {
		return speech.CaptureCallbacks{}, false
	}
	cb := c.cb
	if end {
		c.current, c.cb = 0, speech.CaptureCallbacks{}
	}
	return cb, true
}

func (c *remoteCapture) started(id uint64) {
	if cb, ok := c.callbacks(id, false); ok && cb.OnStart != nil {
		cb.OnStart()
	}
}

func (c *remoteCapture) result(id uint64, transcript string, final bool) {
	if cb, ok := c.callbacks(id, false); ok && cb.OnResult != nil {
		cb.OnResult(transcript, final)
	}
}

func (c *remoteCapture) failed(id uint64, code speech.CaptureErrorCode, detail string) {
	if cb, ok := c.callbacks(id, false); ok && cb.OnError != nil {
		cb.OnError(code, detail)
	}
}

func (c *remoteCapture) ended(id uint64) {
	if cb, ok := c.callbacks(id, true); ok && cb.OnEnd != nil {
		cb.OnEnd()
	}
}
