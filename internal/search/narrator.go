package search

import (
	"log/slog"

	"github.com/Gaurav02lk-beep/Onyx/internal/speech"
)

// Narration outcomes.
const (
	narrationCompleted = "completed"
	narrationStopped   = "stopped"
	narrationFailed    = "error"
)

// NarrationState is the externally visible narrator state. Index is -1 when
// idle.
type NarrationState struct {
	Narrating bool `json:"narrating"`
	Index     int  `json:"index"`
}

// Narrator speaks a sentence sequence one utterance at a time.
//
// It is a two-state machine, Idle and Speaking(i). Every entry into
// Speaking(i) bumps a generation counter and the playback callbacks carry the
// generation they were issued under, so a callback from a cancelled or
// superseded utterance can never advance or revive narration.
type Narrator struct {
	playback speech.Playback
	disp     Dispatcher
	opts     options

	sentences []string
	index     int
	gen       uint64
}

// NewNarrator returns an idle Narrator speaking through playback.
func NewNarrator(playback speech.Playback, disp Dispatcher, opts ...Option) *Narrator {
	return &Narrator{
		playback: playback,
		disp:     disp,
		opts:     buildOptions(opts),
		index:    -1,
	}
}

// SetSentences stops any narration and replaces the sequence.
func (n *Narrator) SetSentences(s []string) {
	n.Stop()
	n.sentences = s
}

// Start begins narration at the first sentence. No-op when the sequence is
// empty or narration is already running.
func (n *Narrator) Start() {
	if len(n.sentences) == 0 || n.index >= 0 {
		return
	}
	n.enter(0)
}

// Stop ends narration and cancels the current utterance. The completion
// callback does not fire.
func (n *Narrator) Stop() {
	if n.index < 0 {
		return
	}
	n.gen++
	n.index = -1
	n.playback.Cancel()
	n.opts.metrics.RecordNarration(n.opts.ctx, narrationStopped)
	n.opts.changed()
}

// Toggle starts narration when idle and stops it otherwise.
func (n *Narrator) Toggle() {
	if n.index >= 0 {
		n.Stop()
		return
	}
	n.Start()
}

// Close stops narration. Callbacks still in flight are ignored.
func (n *Narrator) Close() {
	n.Stop()
	n.gen++
}

// State returns the current narrator state.
func (n *Narrator) State() NarrationState {
	return NarrationState{Narrating: n.index >= 0, Index: n.index}
}

// enter moves to Speaking(i), skipping bare code fence markers.
func (n *Narrator) enter(i int) {
	for i < len(n.sentences) && IsCodeFence(n.sentences[i]) {
		i++
	}
	if i >= len(n.sentences) {
		n.finish(narrationCompleted)
		return
	}

	n.gen++
	gen := n.gen
	n.index = i

	if n.playback.Speaking() {
		n.playback.Cancel()
	}
	n.playback.Speak(n.sentences[i], speech.PlaybackCallbacks{
		OnEnd: func() {
			n.disp.Dispatch(func() { n.advance(gen) })
		},
		OnError: func(code speech.PlaybackErrorCode) {
			n.disp.Dispatch(func() { n.fail(gen, code) })
		},
	})
	n.opts.metrics.RecordUtterance(n.opts.ctx)
	n.opts.changed()
}

func (n *Narrator) advance(gen uint64) {
	if gen != n.gen || n.index < 0 {
		return
	}
	if n.index >= len(n.sentences)-1 {
		n.finish(narrationCompleted)
		return
	}
	n.enter(n.index + 1)
}

func (n *Narrator) fail(gen uint64, code speech.PlaybackErrorCode) {
	if gen != n.gen || n.index < 0 {
		return
	}
	if code.Benign() {
		n.advance(gen)
		return
	}
	slog.Warn("narration: playback failed", "code", code, "index", n.index)
	n.finish(narrationFailed)
}

// finish returns to Idle on the narrator's own accord and fires the
// completion callback exactly once per run.
func (n *Narrator) finish(outcome string) {
	n.gen++
	n.index = -1
	n.opts.metrics.RecordNarration(n.opts.ctx, outcome)
	n.opts.changed()
	if n.opts.onNarrated != nil {
		n.opts.onNarrated()
	}
}
