package search

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

// nearDuplicate is the Jaro-Winkler similarity at which two suggestions are
// considered the same.
const nearDuplicate = 0.97

// Suggestion fetch outcomes.
const (
	suggestShown = "shown"
	suggestEmpty = "empty"
	suggestStale = "stale"
	suggestError = "error"
)

// SuggestionState is the externally visible suggestion list.
type SuggestionState struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
	Loading     bool     `json:"loading"`
	Visible     bool     `json:"visible"`
}

// Suggester fetches completions for the live query with a trailing debounce.
//
// Fetches are only scheduled while the input is focused and the trimmed query
// is long enough. Each fetch carries a generation; every input change bumps
// it, so a response for an outdated query is dropped. Failures are logged
// and never reach the user.
type Suggester struct {
	gw    gateway.Provider
	disp  Dispatcher
	timer *Timer
	cfg   Config
	opts  options

	gen    uint64
	cancel context.CancelFunc

	query       string
	focused     bool
	suggestions []string
	loading     bool
	visible     bool
}

// NewSuggester returns a Suggester fetching from gw.
func NewSuggester(gw gateway.Provider, disp Dispatcher, cfg Config, opts ...Option) *Suggester {
	o := buildOptions(opts)
	return &Suggester{
		gw:    gw,
		disp:  disp,
		timer: NewTimer(o.clock, disp),
		cfg:   cfg.withDefaults(),
		opts:  o,
	}
}

// Update reacts to a change of the query text or focus.
func (s *Suggester) Update(query string, focused bool) {
	s.query, s.focused = query, focused
	s.invalidate()

	if s.qualifies() {
		q := strings.TrimSpace(query)
		s.timer.Schedule(s.cfg.SuggestionDelay, func() { s.fetch(q) })
		return
	}

	s.timer.Cancel()
	s.suggestions = nil
	s.visible = false
	s.loading = false
	s.opts.changed()
}

// Focus re-shows the existing list when the query still qualifies.
func (s *Suggester) Focus() {
	s.focused = true
	if s.qualifies() && len(s.suggestions) > 0 && !s.visible {
		s.visible = true
		s.opts.changed()
	}
}

// Dismiss hides the list without clearing it.
func (s *Suggester) Dismiss() {
	if !s.visible {
		return
	}
	s.visible = false
	s.opts.changed()
}

// Choose records that suggestion was picked: the list is hidden, pending and
// in-flight fetches are dropped, and the query becomes suggestion.
func (s *Suggester) Choose(suggestion string) {
	s.query = suggestion
	s.Cancel()
}

// Cancel hides the list and drops the pending and in-flight fetches.
func (s *Suggester) Cancel() {
	s.timer.Cancel()
	s.invalidate()
	s.visible = false
	s.loading = false
	s.opts.changed()
}

// Close cancels the pending timer and in-flight fetch.
func (s *Suggester) Close() {
	s.timer.Cancel()
	s.invalidate()
}

// State returns the current suggestion state.
func (s *Suggester) State() SuggestionState {
	return SuggestionState{
		Query:       s.query,
		Suggestions: s.suggestions,
		Loading:     s.loading,
		Visible:     s.visible,
	}
}

func (s *Suggester) qualifies() bool {
	return s.focused && utf8.RuneCountInString(strings.TrimSpace(s.query)) >= s.cfg.MinSuggestionChars
}

func (s *Suggester) invalidate() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Suggester) fetch(q string) {
	s.invalidate()
	gen := s.gen
	ctx, cancel := context.WithCancel(s.opts.ctx)
	s.cancel = cancel
	s.loading = true
	s.opts.changed()

	go func() {
		out, err := s.gw.GenerateSuggestions(ctx, q)
		s.disp.Dispatch(func() { s.resolve(gen, q, out, err) })
	}()
}

func (s *Suggester) resolve(gen uint64, q string, out []string, err error) {
	if gen != s.gen {
		s.opts.metrics.RecordSuggestionFetch(s.opts.ctx, suggestStale)
		return
	}
	s.cancel()
	s.cancel = nil
	s.loading = false

	if err != nil {
		slog.Warn("suggestions: fetch failed", "query", q, "err", err)
		s.suggestions = nil
		s.visible = false
		s.opts.metrics.RecordSuggestionFetch(s.opts.ctx, suggestError)
		s.opts.changed()
		return
	}

	s.suggestions = normalizeSuggestions(q, out, s.cfg.MaxSuggestions)
	s.visible = len(s.suggestions) > 0 && s.focused
	if len(s.suggestions) > 0 {
		s.opts.metrics.RecordSuggestionFetch(s.opts.ctx, suggestShown)
	} else {
		s.opts.metrics.RecordSuggestionFetch(s.opts.ctx, suggestEmpty)
	}
	s.opts.changed()
}

// normalizeSuggestions trims entries, drops blanks, echoes of the query and
// near duplicates, and caps the list at limit.
func normalizeSuggestions(query string, in []string, limit int) []string {
	out := make([]string, 0, min(len(in), limit))
	for _, raw := range in {
		if len(out) == limit {
			break
		}
		s := strings.TrimSpace(raw)
		if s == "" || strings.EqualFold(s, query) {
			continue
		}
		if hasNearDuplicate(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func hasNearDuplicate(list []string, s string) bool {
	ls := strings.ToLower(s)
	for _, kept := range list {
		if matchr.JaroWinkler(strings.ToLower(kept), ls, false) >= nearDuplicate {
			return true
		}
	}
	return false
}
