package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Gaurav02lk-beep/Onyx/internal/observe"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

// Orchestrator turns queries into answers. It owns the loading flag, the
// primary error message, the current answer and its sentence sequence.
//
// A new submission supersedes the previous one: the older gateway call is
// cancelled through its context and its result, should it still arrive, is
// discarded. Loading therefore brackets exactly one call, the latest.
type Orchestrator struct {
	gw       gateway.Provider
	disp     Dispatcher
	narrator *Narrator
	forge    *Forge
	opts     options

	gen    uint64
	cancel context.CancelFunc

	loading   bool
	errMsg    string
	answer    *AnswerResult
	sentences []string
}

// NewOrchestrator returns an idle Orchestrator. narrator and forge may be
// nil; when set they are reset at the start of every submission and the
// narrator receives the sentences of every answer.
func NewOrchestrator(gw gateway.Provider, disp Dispatcher, narrator *Narrator, forge *Forge, opts ...Option) *Orchestrator {
	return &Orchestrator{
		gw:       gw,
		disp:     disp,
		narrator: narrator,
		forge:    forge,
		opts:     buildOptions(opts),
	}
}

// Submit starts answering q. Returns false when q fails validation, in which
// case only the error message changes and no gateway call is made.
func (o *Orchestrator) Submit(q Query) bool {
	useImage := q.Mode == ModeImage && q.Image != nil
	blank := strings.TrimSpace(q.Text) == ""
	if blank && !useImage {
		o.errMsg = MsgEmptyQuery
		o.opts.changed()
		return false
	}

	if o.cancel != nil {
		o.cancel()
	}
	o.gen++
	gen := o.gen
	ctx, cancel := context.WithCancel(o.opts.ctx)
	o.cancel = cancel

	o.loading = true
	o.errMsg = ""
	o.answer = nil
	o.sentences = nil
	if o.narrator != nil {
		o.narrator.SetSentences(nil)
	}
	if o.forge != nil {
		o.forge.Reset()
	}
	o.opts.changed()

	go func() {
		var (
			res *gateway.TextResult
			err error
		)
		if useImage {
			prompt := q.Text
			if blank {
				prompt = DefaultImagePrompt
			}
			res, err = o.gw.GenerateTextWithImage(ctx, prompt, *q.Image, true)
		} else {
			res, err = o.gw.GenerateText(ctx, q.Text, true)
		}
		o.disp.Dispatch(func() { o.settle(gen, q.Mode, res, err) })
	}()
	return true
}

func (o *Orchestrator) settle(gen uint64, mode Mode, res *gateway.TextResult, err error) {
	if gen != o.gen {
		return
	}
	o.cancel()
	o.cancel = nil
	o.loading = false

	if err == nil && res == nil {
		err = gateway.ErrEmptyResult
	}
	if err != nil {
		slog.Warn("search: query failed", "mode", mode, "err", err)
		o.errMsg = errorMessage(err, MsgSearchFailed)
		o.answer = nil
		o.sentences = nil
		o.opts.metrics.RecordSubmission(o.opts.ctx, string(mode), observe.StatusError)
		o.opts.changed()
		return
	}

	o.answer = &AnswerResult{Text: res.Text, Sources: res.Sources}
	o.sentences = SplitSentences(res.Text)
	if o.narrator != nil {
		o.narrator.SetSentences(o.sentences)
	}
	if o.forge != nil {
		o.forge.Reset()
	}
	o.opts.metrics.RecordSubmission(o.opts.ctx, string(mode), observe.StatusOK)
	o.opts.changed()
}

// DismissError clears the primary error message.
func (o *Orchestrator) DismissError() {
	if o.errMsg == "" {
		return
	}
	o.errMsg = ""
	o.opts.changed()
}

// Close cancels the in-flight call and ignores its result.
func (o *Orchestrator) Close() {
	o.gen++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.loading = false
}

// Loading reports whether a submission is in flight.
func (o *Orchestrator) Loading() bool { return o.loading }

// Error returns the primary error message, or "".
func (o *Orchestrator) Error() string { return o.errMsg }

// Answer returns the current answer, or nil.
func (o *Orchestrator) Answer() *AnswerResult { return o.answer }

// Sentences returns the sentence sequence of the current answer.
func (o *Orchestrator) Sentences() []string { return o.sentences }
