package speech

import "testing"

func TestCaptureMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code     CaptureErrorCode
		detail   string
		wantMsg  string
		wantShow bool
	}{
		{CaptureAborted, "", "", false},
		{CaptureNoSpeech, "", "No speech detected. Is your audio input active?", true},
		{CaptureNotAllowed, "", "Audio input access denied. Please enable permissions.", true},
		{CaptureServiceNotAllowed, "", "Audio input access denied. Please enable permissions.", true},
		{CaptureAudioCapture, "", "Audio input not found or not working. Please check setup.", true},
		{CaptureNetwork, "connection reset", "Voice recognition error: connection reset", true},
		{CaptureNetwork, "", "Voice recognition error: network", true},
		{CaptureErrorCode("weird"), "", "Voice recognition error: weird", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code)+"/"+tt.detail, func(t *testing.T) {
			t.Parallel()
			msg, show := CaptureMessage(tt.code, tt.detail)
			if msg != tt.wantMsg || show != tt.wantShow {
				t.Errorf("CaptureMessage(%q, %q) = (%q, %v), want (%q, %v)", tt.code, tt.detail, msg, show, tt.wantMsg, tt.wantShow)
			}
		})
	}
}

func TestCaptureErrorCode_IsValid(t *testing.T) {
	t.Parallel()

	for _, c := range []CaptureErrorCode{
		CaptureNoSpeech, CaptureAborted, CaptureNotAllowed, CaptureServiceNotAllowed,
		CaptureAudioCapture, CaptureNetwork, CaptureBadGrammar, CaptureLanguageUnsupported,
		CaptureUnavailable, CaptureStartFailed,
	} {
		if !c.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", c)
		}
	}
	if CaptureErrorCode("bogus").IsValid() {
		t.Error(`"bogus".IsValid() = true, want false`)
	}
}

func TestPlaybackErrorCode_Benign(t *testing.T) {
	t.Parallel()

	if !PlaybackInterrupted.Benign() {
		t.Error("interrupted should be benign")
	}
	for _, c := range []PlaybackErrorCode{PlaybackCanceled, PlaybackSynthesisFailed, PlaybackNetwork} {
		if c.Benign() {
			t.Errorf("%q.Benign() = true, want false", c)
		}
	}
}
