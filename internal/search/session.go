package search

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Gaurav02lk-beep/Onyx/internal/speech"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

// Speech notices.
const (
	MsgSpeechUnavailable = "Speech recognition is not available in this browser."
	MsgSpeechStartFailed = "Could not start voice input. Try again or check browser permissions."
)

// State is a snapshot of everything a search page renders.
type State struct {
	Query       string          `json:"query"`
	Mode        Mode            `json:"mode"`
	Image       string          `json:"image,omitempty"`
	Focused     bool            `json:"focused"`
	Listening   bool            `json:"listening"`
	Loading     bool            `json:"loading"`
	Error       string          `json:"error,omitempty"`
	SpeechError string          `json:"speechError,omitempty"`
	Answer      *AnswerResult   `json:"answer,omitempty"`
	Sentences   []string        `json:"sentences"`
	Narration   NarrationState  `json:"narration"`
	Suggestions SuggestionState `json:"suggestions"`
	Forge       ForgeState      `json:"forge"`
}

// HasImage reports whether an image is attached.
func (s State) HasImage() bool { return s.Image != "" }

// Session is one search page. It owns the input state and the voice input
// flow, and composes the orchestrator, narrator, suggester and forge on a
// single event loop.
//
// The exported input methods may be called from any goroutine; they are
// queued on the loop. The listener registered with [WithStateListener] runs
// on the loop after every batch of mutations.
type Session struct {
	disp Dispatcher
	cfg  Config
	opts options

	orch      *Orchestrator
	narrator  *Narrator
	suggester *Suggester
	forge     *Forge

	capture     speech.Capture
	captureRun  uint64
	speechTimer *Timer

	query     string
	mode      Mode
	image     *gateway.Image
	imageURI  string
	focused   bool
	listening bool
	speechErr string

	dirty  bool
	closed bool

	mu   sync.Mutex
	snap State
}

var _ Dispatcher = (*Session)(nil)

// NewSession returns a Session whose state lives on disp. The caller runs
// the loop behind disp.
func NewSession(gw gateway.Provider, playback speech.Playback, disp Dispatcher, cfg Config, opts ...Option) *Session {
	s := &Session{
		disp: disp,
		cfg:  cfg.withDefaults(),
		opts: buildOptions(opts),
		mode: ModeText,
	}
	s.capture = s.opts.capture

	shared := []Option{
		WithContext(s.opts.ctx),
		WithClock(s.opts.clock),
		WithMetrics(s.opts.metrics),
		WithOnChange(s.markDirty),
	}
	s.narrator = NewNarrator(playback, s, append(shared, WithNarrationCompleted(s.opts.onNarrated))...)
	s.forge = NewForge(gw, s, s.cfg, shared...)
	s.suggester = NewSuggester(gw, s, s.cfg, shared...)
	s.orch = NewOrchestrator(gw, s, s.narrator, s.forge, shared...)
	s.speechTimer = NewTimer(s.opts.clock, s)
	s.snap = s.state()
	return s
}

// Dispatch implements Dispatcher. fn runs on the loop and is followed by a
// state publication when anything changed.
func (s *Session) Dispatch(fn func()) {
	s.disp.Dispatch(func() {
		if s.closed {
			return
		}
		fn()
		s.flush()
	})
}

// Snapshot returns the most recently published state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// ── Input events ────────────────────────────────────────────────────────────

// SetQuery replaces the query text.
func (s *Session) SetQuery(text string) {
	s.Dispatch(func() {
		s.query = text
		s.clearSpeechError()
		if s.mode != ModeText && s.image == nil {
			s.mode = ModeText
		}
		s.suggester.Update(text, s.focused)
		s.dirty = true
	})
}

// SetFocus records whether the search input has focus.
func (s *Session) SetFocus(focused bool) {
	s.Dispatch(func() {
		s.focused = focused
		if focused {
			s.suggester.Focus()
		}
		s.suggester.Update(s.query, focused)
		s.dirty = true
	})
}

// ClickOutside hides the suggestion list.
func (s *Session) ClickOutside() {
	s.Dispatch(s.suggester.Dismiss)
}

// ChooseSuggestion puts suggestion into the input and searches for it. A
// search still running is superseded.
func (s *Session) ChooseSuggestion(suggestion string) {
	s.Dispatch(func() {
		s.query = suggestion
		s.suggester.Choose(suggestion)
		s.dirty = true
		if s.mode == ModeImage && s.image != nil {
			s.orch.Submit(Query{Text: suggestion, Image: s.image, Mode: ModeImage})
			return
		}
		s.mode = ModeText
		s.orch.Submit(Query{Text: suggestion, Mode: ModeText})
	})
}

// Submit searches for the current input. Ignored while a search is running.
func (s *Session) Submit() {
	s.Dispatch(func() {
		if s.orch.Loading() {
			return
		}
		s.suggester.Cancel()
		if s.mode == ModeImage && s.image != nil {
			s.orch.Submit(Query{Text: s.query, Image: s.image, Mode: ModeImage})
			return
		}
		s.orch.Submit(Query{Text: s.query, Mode: ModeText})
	})
}

// AttachImage attaches the image encoded in dataURI and switches to image
// mode. The query text is cleared.
func (s *Session) AttachImage(dataURI string) error {
	img, err := gateway.ParseDataURI(dataURI)
	if err != nil {
		return err
	}
	s.Dispatch(func() {
		s.image = &img
		s.imageURI = dataURI
		s.mode = ModeImage
		s.query = ""
		s.clearSpeechError()
		s.suggester.Update("", s.focused)
		s.dirty = true
	})
	return nil
}

// ClearImage detaches the image.
func (s *Session) ClearImage() {
	s.Dispatch(func() {
		s.image = nil
		s.imageURI = ""
		if s.mode == ModeImage && strings.TrimSpace(s.query) == "" {
			s.mode = ModeText
		}
		s.dirty = true
	})
}

// StartVoice starts speech capture. Ignored while searching or listening.
func (s *Session) StartVoice() {
	s.Dispatch(s.startVoice)
}

// ToggleNarration starts or stops reading the answer aloud.
func (s *Session) ToggleNarration() {
	s.Dispatch(s.narrator.Toggle)
}

// GenerateImage renders an illustration of the current answer.
func (s *Session) GenerateImage() {
	s.Dispatch(func() {
		var text string
		if a := s.orch.Answer(); a != nil {
			text = a.Text
		}
		s.forge.Generate(text)
	})
}

// DismissError clears the search error.
func (s *Session) DismissError() {
	s.Dispatch(s.orch.DismissError)
}

// DismissImageError clears the forge error.
func (s *Session) DismissImageError() {
	s.Dispatch(s.forge.DismissError)
}

// Close tears the session down on the loop: narration stops, capture is
// aborted, and timers and in-flight calls are cancelled. Later events are
// dropped.
func (s *Session) Close() {
	s.Dispatch(func() {
		s.narrator.Close()
		s.suggester.Close()
		s.forge.Close()
		s.orch.Close()
		s.speechTimer.Cancel()
		s.captureRun++
		if s.listening && s.capture != nil {
			s.capture.Abort()
		}
		s.listening = false
		s.closed = true
	})
}

// ── Voice input ─────────────────────────────────────────────────────────────

func (s *Session) startVoice() {
	if s.orch.Loading() || s.listening {
		return
	}
	s.clearSpeechError()
	s.suggester.Dismiss()
	s.dirty = true

	if s.capture == nil {
		s.showSpeechError(MsgSpeechUnavailable, s.cfg.SpeechNoticeTimeout)
		return
	}

	s.captureRun++
	run := s.captureRun
	err := s.capture.Start(speech.CaptureCallbacks{
		OnStart: func() {
			s.Dispatch(func() { s.captureStarted(run) })
		},
		OnResult: func(transcript string, final bool) {
			s.Dispatch(func() { s.captureResult(run, transcript, final) })
		},
		OnError: func(code speech.CaptureErrorCode, detail string) {
			s.Dispatch(func() { s.captureFailed(run, code, detail) })
		},
		OnEnd: func() {
			s.Dispatch(func() { s.captureEnded(run) })
		},
	})
	switch {
	case errors.Is(err, speech.ErrCaptureUnavailable):
		s.showSpeechError(MsgSpeechUnavailable, s.cfg.SpeechNoticeTimeout)
	case err != nil:
		slog.Warn("voice: capture start failed", "err", err)
		s.showSpeechError(MsgSpeechStartFailed, s.cfg.SpeechNoticeTimeout)
	}
}

func (s *Session) captureStarted(run uint64) {
	if run != s.captureRun {
		return
	}
	s.clearSpeechError()
	s.suggester.Dismiss()
	s.listening = true
	s.mode = ModeVoice
	s.dirty = true
}

func (s *Session) captureResult(run uint64, transcript string, final bool) {
	if run != s.captureRun || !final {
		return
	}
	s.query = transcript
	s.mode = ModeVoice
	s.clearSpeechError()
	s.suggester.Choose(transcript)
	s.dirty = true
	s.orch.Submit(Query{Text: transcript, Mode: ModeVoice})
}

func (s *Session) captureFailed(run uint64, code speech.CaptureErrorCode, detail string) {
	if run != s.captureRun {
		return
	}
	s.listening = false
	s.dirty = true
	switch code {
	case speech.CaptureUnavailable:
		s.showSpeechError(MsgSpeechUnavailable, s.cfg.SpeechNoticeTimeout)
		return
	case speech.CaptureStartFailed:
		slog.Warn("voice: capture start failed", "detail", detail)
		s.showSpeechError(MsgSpeechStartFailed, s.cfg.SpeechNoticeTimeout)
		return
	}
	msg, show := speech.CaptureMessage(code, detail)
	if !show {
		return
	}
	slog.Info("voice: capture error", "code", code, "detail", detail)
	s.showSpeechError(msg, s.cfg.SpeechErrorTimeout)
}

func (s *Session) captureEnded(run uint64) {
	if run != s.captureRun {
		return
	}
	s.listening = false
	s.dirty = true
}

func (s *Session) showSpeechError(msg string, d time.Duration) {
	s.speechErr = msg
	s.dirty = true
	s.speechTimer.Schedule(d, func() {
		s.speechErr = ""
		s.dirty = true
	})
}

func (s *Session) clearSpeechError() {
	s.speechTimer.Cancel()
	if s.speechErr != "" {
		s.speechErr = ""
		s.dirty = true
	}
}

// ── Publication ─────────────────────────────────────────────────────────────

func (s *Session) markDirty() { s.dirty = true }

func (s *Session) flush() {
	if !s.dirty {
		return
	}
	s.dirty = false
	st := s.state()

	s.mu.Lock()
	s.snap = st
	s.mu.Unlock()

	if s.opts.onStateFunc != nil {
		s.opts.onStateFunc(st)
	}
}

func (s *Session) state() State {
	return State{
		Query:       s.query,
		Mode:        s.mode,
		Image:       s.imageURI,
		Focused:     s.focused,
		Listening:   s.listening,
		Loading:     s.orch.Loading(),
		Error:       s.orch.Error(),
		SpeechError: s.speechErr,
		Answer:      s.orch.Answer(),
		Sentences:   s.orch.Sentences(),
		Narration:   s.narrator.State(),
		Suggestions: s.suggester.State(),
		Forge:       s.forge.State(),
	}
}
