// Package search implements the state logic of one Onyx search page: the
// query orchestrator, the narration sequencer, the suggestion debouncer, the
// image forge, and the session that composes them.
//
// Every component is confined to a single event loop. Components never lock;
// gateway calls, timers and speech callbacks run elsewhere and hand their
// results back through a [Dispatcher]. Generation counters discard callbacks
// that belong to superseded work.
package search

import (
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

// Mode is the input modality of a query.
type Mode string

const (
	ModeText  Mode = "text"
	ModeVoice Mode = "voice"
	ModeImage Mode = "image"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeText, ModeVoice, ModeImage:
		return true
	}
	return false
}

// Query is one submission. It is built fresh per submission and never
// mutated afterwards.
type Query struct {
	Text  string
	Image *gateway.Image
	Mode  Mode
}

// AnswerResult is the answer to the most recent successful query.
type AnswerResult struct {
	Text    string           `json:"text"`
	Sources []gateway.Source `json:"sources"`
}

// User-facing messages.
const (
	// MsgEmptyQuery is shown when a submission has neither text nor image.
	MsgEmptyQuery = "Please enter a query or upload an image to interface with the Celestial Onyx."

	// MsgSearchFailed is shown when a gateway error carries no message.
	MsgSearchFailed = "A cosmic anomaly occurred during search."

	// DefaultImagePrompt replaces empty text on image queries.
	DefaultImagePrompt = "Describe this artifact in detail and find related information from the web."
)

// errorMessage returns err's text, or fallback when it has none.
func errorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
