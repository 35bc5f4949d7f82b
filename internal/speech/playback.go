package speech

// PlaybackErrorCode classifies a speech playback failure.
type PlaybackErrorCode string

// Playback error codes reported by the platform synthesiser.
const (
	// PlaybackInterrupted is reported when an utterance is cancelled,
	// usually by the caller itself to make room for the next one. Benign.
	PlaybackInterrupted PlaybackErrorCode = "interrupted"

	PlaybackCanceled            PlaybackErrorCode = "canceled"
	PlaybackAudioBusy           PlaybackErrorCode = "audio-busy"
	PlaybackAudioHardware       PlaybackErrorCode = "audio-hardware"
	PlaybackNetwork             PlaybackErrorCode = "network"
	PlaybackSynthesisFailed     PlaybackErrorCode = "synthesis-failed"
	PlaybackLanguageUnavailable PlaybackErrorCode = "language-unavailable"
	PlaybackNotAllowed          PlaybackErrorCode = "not-allowed"
)

// Benign reports whether code signals a deliberate interruption rather than
// a failure.
func (c PlaybackErrorCode) Benign() bool {
	return c == PlaybackInterrupted
}

// PlaybackCallbacks receives the outcome of one utterance. Exactly one of
// OnEnd or OnError fires, unless the adapter drops the utterance's callbacks
// via Cancel.
type PlaybackCallbacks struct {
	OnEnd   func()
	OnError func(code PlaybackErrorCode)
}

// Playback speaks one utterance at a time.
//
// Implementations must be safe for concurrent use.
type Playback interface {
	// Speak starts speaking text and reports the outcome to cb.
	Speak(text string, cb PlaybackCallbacks)

	// Cancel stops the current utterance, if any. The cancelled utterance
	// reports PlaybackInterrupted.
	Cancel()

	// Speaking reports whether an utterance is in progress.
	Speaking() bool
}
