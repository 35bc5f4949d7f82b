package search

import (
	"context"
	"errors"
	"slices"
	"testing"

	speechmock "github.com/Gaurav02lk-beep/Onyx/internal/speech/mock"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway/mock"
)

func TestOrchestrator_TextSubmission(t *testing.T) {
	t.Parallel()

	gw := &mock.Provider{TextResult: &gateway.TextResult{
		Text:    "Gravity pulls. Mass bends space!",
		Sources: []gateway.Source{{URI: "https://example.com/gravity", Title: "Gravity"}},
	}}
	q := newQueue()
	o := NewOrchestrator(gw, q, nil, nil)

	if !o.Submit(Query{Text: "what is gravity", Mode: ModeText}) {
		t.Fatal("Submit rejected a valid query")
	}
	if !o.Loading() {
		t.Fatal("Loading = false right after Submit")
	}
	q.runNext(t)

	if o.Loading() {
		t.Error("Loading = true after the call settled")
	}
	if o.Error() != "" {
		t.Errorf("Error = %q, want empty", o.Error())
	}
	want := []string{"Gravity pulls.", "Mass bends space!"}
	if got := o.Sentences(); !slices.Equal(got, want) {
		t.Errorf("Sentences = %q, want %q", got, want)
	}
	if a := o.Answer(); a == nil || len(a.Sources) != 1 || a.Sources[0].Title != "Gravity" {
		t.Errorf("Answer = %+v", a)
	}

	call := gw.TextCalls[0]
	if call.Prompt != "what is gravity" || !call.Grounding || call.Image != nil {
		t.Errorf("gateway call = %+v, want grounded text call", call)
	}
}

func TestOrchestrator_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query Query
	}{
		{name: "empty text", query: Query{Mode: ModeText}},
		{name: "whitespace text", query: Query{Text: "   \t", Mode: ModeText}},
		{name: "voice blank", query: Query{Text: " ", Mode: ModeVoice}},
		{name: "image mode without image", query: Query{Mode: ModeImage}},
		{name: "image attached but text mode", query: Query{Mode: ModeText, Image: &gateway.Image{Data: []byte{1}, MIMEType: "image/png"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gw := &mock.Provider{}
			var changes counter
			o := NewOrchestrator(gw, newQueue(), nil, nil, WithOnChange(changes.inc))

			if o.Submit(tt.query) {
				t.Fatal("Submit accepted an invalid query")
			}
			if o.Error() != MsgEmptyQuery {
				t.Errorf("Error = %q, want %q", o.Error(), MsgEmptyQuery)
			}
			if o.Loading() {
				t.Error("Loading set on a rejected query")
			}
			if gw.TextCallCount() != 0 {
				t.Errorf("gateway called %d times", gw.TextCallCount())
			}
			if changes.n == 0 {
				t.Error("no change notification for the validation error")
			}
		})
	}
}

func TestOrchestrator_ImageQuery(t *testing.T) {
	t.Parallel()

	gw := &mock.Provider{TextResult: &gateway.TextResult{Text: "A spiral galaxy."}}
	q := newQueue()
	o := NewOrchestrator(gw, q, nil, nil)

	img := &gateway.Image{Data: []byte("png"), MIMEType: "image/png"}
	o.Submit(Query{Image: img, Mode: ModeImage})
	q.runNext(t)

	call := gw.TextCalls[0]
	if call.Image == nil || call.Image.MIMEType != "image/png" {
		t.Fatalf("gateway call image = %+v, want the attached image", call.Image)
	}
	if call.Prompt != DefaultImagePrompt {
		t.Errorf("prompt = %q, want the default image prompt", call.Prompt)
	}

	gw.Reset()
	o.Submit(Query{Text: "what galaxy", Image: img, Mode: ModeImage})
	q.runNext(t)
	if got := gw.TextCalls[0].Prompt; got != "what galaxy" {
		t.Errorf("prompt = %q, want the user text", got)
	}
}

func TestOrchestrator_FailureClearsAnswer(t *testing.T) {
	t.Parallel()

	gw := &mock.Provider{TextResult: &gateway.TextResult{Text: "First answer."}}
	q := newQueue()
	o := NewOrchestrator(gw, q, nil, nil)

	o.Submit(Query{Text: "first", Mode: ModeText})
	q.runNext(t)
	if o.Answer() == nil {
		t.Fatal("no answer after success")
	}

	gw.TextErr = errors.New("quota exceeded")
	o.Submit(Query{Text: "second", Mode: ModeText})
	q.runNext(t)

	if o.Answer() != nil || len(o.Sentences()) != 0 {
		t.Errorf("Answer = %+v, Sentences = %q; want both cleared", o.Answer(), o.Sentences())
	}
	if o.Error() != "quota exceeded" {
		t.Errorf("Error = %q, want the gateway message", o.Error())
	}
	if o.Loading() {
		t.Error("Loading = true after failure")
	}

	o.DismissError()
	if o.Error() != "" {
		t.Errorf("Error = %q after DismissError", o.Error())
	}
}

func TestOrchestrator_FailureWithoutMessage(t *testing.T) {
	t.Parallel()

	gw := &mock.Provider{TextErr: errors.New("")}
	q := newQueue()
	o := NewOrchestrator(gw, q, nil, nil)

	o.Submit(Query{Text: "x", Mode: ModeText})
	q.runNext(t)
	if o.Error() != MsgSearchFailed {
		t.Errorf("Error = %q, want %q", o.Error(), MsgSearchFailed)
	}
}

func TestOrchestrator_NilResultIsFailure(t *testing.T) {
	t.Parallel()

	q := newQueue()
	o := NewOrchestrator(&mock.Provider{}, q, nil, nil)

	o.Submit(Query{Text: "x", Mode: ModeText})
	q.runNext(t)
	if o.Error() == "" || o.Answer() != nil {
		t.Errorf("Error = %q, Answer = %+v; want an error and no answer", o.Error(), o.Answer())
	}
}

func TestOrchestrator_LatestSubmissionWins(t *testing.T) {
	t.Parallel()

	slowCancelled := make(chan struct{})
	gw := &mock.Provider{
		TextFunc: func(ctx context.Context, call mock.TextCall) (*gateway.TextResult, error) {
			if call.Prompt == "slow" {
				<-ctx.Done()
				close(slowCancelled)
				return &gateway.TextResult{Text: "Slow answer."}, nil
			}
			return &gateway.TextResult{Text: "Fast answer."}, nil
		},
	}
	q := newQueue()
	o := NewOrchestrator(gw, q, nil, nil)

	o.Submit(Query{Text: "slow", Mode: ModeText})
	o.Submit(Query{Text: "fast", Mode: ModeText})
	q.runNext(t)
	q.runNext(t)

	<-slowCancelled
	if a := o.Answer(); a == nil || a.Text != "Fast answer." {
		t.Errorf("Answer = %+v, want the latest submission's answer", a)
	}
	if o.Loading() {
		t.Error("Loading = true after the latest call settled")
	}
}

func TestOrchestrator_ResetsNarratorAndForge(t *testing.T) {
	t.Parallel()

	gw := &mock.Provider{
		TextResult:  &gateway.TextResult{Text: "One. Two."},
		ImageResult: &gateway.Image{Data: []byte("img"), MIMEType: "image/png"},
	}
	pb := &speechmock.Playback{}
	q := newQueue()
	n := NewNarrator(pb, q)
	f := NewForge(gw, q, DefaultConfig())
	o := NewOrchestrator(gw, q, n, f)

	o.Submit(Query{Text: "first", Mode: ModeText})
	q.runNext(t)
	n.Start()
	f.Generate(o.Answer().Text)
	q.runNext(t)
	if !n.State().Narrating || f.State().ImageURL == "" {
		t.Fatalf("setup: narration = %+v, forge = %+v", n.State(), f.State())
	}

	o.Submit(Query{Text: "second", Mode: ModeText})
	if n.State().Narrating {
		t.Error("narration still running after a new submission")
	}
	if f.State().ImageURL != "" {
		t.Error("forge image kept after a new submission")
	}
	q.runNext(t)

	n.Start()
	if got := pb.Texts(); got[len(got)-1] != "One." {
		t.Errorf("narrator did not receive the new sentences: %q", got)
	}
}
