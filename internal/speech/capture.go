// Package speech defines the adapters between a search session and the
// platform speech facilities: speech capture (recognition) and speech
// playback (synthesis).
//
// Both facilities live outside the process (in the browser for the web host)
// and report back asynchronously through callbacks. Callbacks may fire on any
// goroutine; consumers hand them to their own event loop.
package speech

import (
	"errors"
	"fmt"
)

// ErrCaptureUnavailable is returned by Capture.Start when the platform has no
// speech recognition facility.
var ErrCaptureUnavailable = errors.New("speech: recognition not available")

// CaptureErrorCode classifies a speech capture failure.
type CaptureErrorCode string

// Capture error codes reported by the platform recogniser.
const (
	CaptureNoSpeech            CaptureErrorCode = "no-speech"
	CaptureAborted             CaptureErrorCode = "aborted"
	CaptureNotAllowed          CaptureErrorCode = "not-allowed"
	CaptureServiceNotAllowed   CaptureErrorCode = "service-not-allowed"
	CaptureAudioCapture        CaptureErrorCode = "audio-capture"
	CaptureNetwork             CaptureErrorCode = "network"
	CaptureBadGrammar          CaptureErrorCode = "bad-grammar"
	CaptureLanguageUnsupported CaptureErrorCode = "language-not-supported"

	// CaptureUnavailable reports that the platform has no recogniser at all.
	CaptureUnavailable CaptureErrorCode = "unavailable"

	// CaptureStartFailed reports that the recogniser refused to start.
	CaptureStartFailed CaptureErrorCode = "start-failed"
)

// IsValid reports whether c is a known capture error code.
func (c CaptureErrorCode) IsValid() bool {
	switch c {
	case CaptureNoSpeech, CaptureAborted, CaptureNotAllowed, CaptureServiceNotAllowed,
		CaptureAudioCapture, CaptureNetwork, CaptureBadGrammar, CaptureLanguageUnsupported,
		CaptureUnavailable, CaptureStartFailed:
		return true
	}
	return false
}

// CaptureMessage returns the user-facing text for a capture error. show is
// false for codes that must not be surfaced (aborted). detail is the
// platform's own message, used for codes without a dedicated text.
func CaptureMessage(code CaptureErrorCode, detail string) (msg string, show bool) {
	switch code {
	case CaptureAborted:
		return "", false
	case CaptureNoSpeech:
		return "No speech detected. Is your audio input active?", true
	case CaptureNotAllowed, CaptureServiceNotAllowed:
		return "Audio input access denied. Please enable permissions.", true
	case CaptureAudioCapture:
		return "Audio input not found or not working. Please check setup.", true
	}
	if detail == "" {
		detail = string(code)
	}
	return fmt.Sprintf("Voice recognition error: %s", detail), true
}

// CaptureCallbacks receives the events of one recognition run. Any field may
// be nil.
type CaptureCallbacks struct {
	// OnStart fires once the platform is listening.
	OnStart func()

	// OnResult delivers a transcript. final is true for the last result of
	// the run; interim results have final == false.
	OnResult func(transcript string, final bool)

	// OnError reports a failure. OnEnd still follows.
	OnError func(code CaptureErrorCode, detail string)

	// OnEnd fires when the run is over, whatever the outcome.
	OnEnd func()
}

// Capture is a single-utterance speech recogniser.
//
// Implementations must be safe for concurrent use.
type Capture interface {
	// Start begins a recognition run and reports its events to cb. Returns
	// ErrCaptureUnavailable when the platform has no recogniser, or another
	// error when the run could not be started.
	Start(cb CaptureCallbacks) error

	// Stop ends the run and delivers any final result.
	Stop()

	// Abort ends the run without a result. The platform reports
	// CaptureAborted, which consumers ignore.
	Abort()
}
