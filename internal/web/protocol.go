package web

import "github.com/Gaurav02lk-beep/Onyx/internal/search"

// Client → server message types.
const (
	MsgQuery             = "query"
	MsgFocus             = "focus"
	MsgClickOutside      = "click_outside"
	MsgChoose            = "choose"
	MsgSubmit            = "submit"
	MsgAttachImage       = "attach_image"
	MsgClearImage        = "clear_image"
	MsgVoice             = "voice"
	MsgNarrate           = "narrate"
	MsgForge             = "forge"
	MsgDismissError      = "dismiss_error"
	MsgDismissImageError = "dismiss_image_error"
	MsgCaptureStart      = "capture_start"
	MsgCaptureResult     = "capture_result"
	MsgCaptureError      = "capture_error"
	MsgCaptureEnd        = "capture_end"
	MsgPlaybackEnd       = "playback_end"
	MsgPlaybackError     = "playback_error"
	MsgCapabilities      = "capabilities"
)

// Server → client message types.
const (
	MsgState        = "state"
	MsgSpeak        = "speak"
	MsgCancelSpeech = "cancel_speech"
	MsgCapture      = "capture"
	MsgCaptureStop  = "capture_stop"
	MsgCaptureAbort = "capture_abort"
	MsgError        = "error"
)

// clientMessage is the single envelope for everything the page sends. Only
// the fields relevant to Type are set.
type clientMessage struct {
	Type string `json:"type"`

	// Text is the query for "query" and the suggestion for "choose".
	Text string `json:"text,omitempty"`

	// Focused is the input focus for "focus".
	Focused bool `json:"focused,omitempty"`

	// Image is a data URI for "attach_image".
	Image string `json:"image,omitempty"`

	// ID is the utterance id for playback events and the run id for capture
	// events.
	ID uint64 `json:"id,omitempty"`

	Transcript string `json:"transcript,omitempty"`
	Final      bool   `json:"final,omitempty"`
	Code       string `json:"code,omitempty"`
	Detail     string `json:"detail,omitempty"`

	// Capture reports on "capabilities" whether the page can recognise speech.
	Capture bool `json:"capture,omitempty"`
}

// serverMessage is the single envelope for everything the server sends.
type serverMessage struct {
	Type string `json:"type"`

	// Session is the session id, set on "state".
	Session string        `json:"session,omitempty"`
	State   *search.State `json:"state,omitempty"`

	// ID is the utterance id for "speak"/"cancel_speech" and the run id for
	// the capture messages.
	ID   uint64 `json:"id,omitempty"`
	Text string `json:"text,omitempty"`

	// Error is a protocol-level problem for "error".
	Error string `json:"error,omitempty"`
}
