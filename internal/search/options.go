package search

import (
	"context"
	"time"

	"github.com/Gaurav02lk-beep/Onyx/internal/observe"
	"github.com/Gaurav02lk-beep/Onyx/internal/speech"
)

// Config holds the tunables of a search session.
type Config struct {
	// SuggestionDelay is the trailing debounce window for suggestion fetches.
	SuggestionDelay time.Duration

	// MinSuggestionChars is the trimmed query length that enables suggestions.
	MinSuggestionChars int

	// MaxSuggestions caps the suggestion list.
	MaxSuggestions int

	// ImagePromptPrefix is prepended to the answer excerpt sent to the forge.
	ImagePromptPrefix string

	// MaxImagePromptLength caps the answer excerpt, in characters.
	MaxImagePromptLength int

	// SpeechErrorTimeout is how long a capture error stays visible.
	SpeechErrorTimeout time.Duration

	// SpeechNoticeTimeout is how long "not available" and "could not start"
	// notices stay visible.
	SpeechNoticeTimeout time.Duration
}

// DefaultConfig returns the stock session settings.
func DefaultConfig() Config {
	return Config{
		SuggestionDelay:      300 * time.Millisecond,
		MinSuggestionChars:   2,
		MaxSuggestions:       4,
		ImagePromptPrefix:    "A detailed artistic visualization of: ",
		MaxImagePromptLength: 800,
		SpeechErrorTimeout:   7 * time.Second,
		SpeechNoticeTimeout:  5 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SuggestionDelay <= 0 {
		c.SuggestionDelay = d.SuggestionDelay
	}
	if c.MinSuggestionChars <= 0 {
		c.MinSuggestionChars = d.MinSuggestionChars
	}
	if c.MaxSuggestions <= 0 {
		c.MaxSuggestions = d.MaxSuggestions
	}
	if c.ImagePromptPrefix == "" {
		c.ImagePromptPrefix = d.ImagePromptPrefix
	}
	if c.MaxImagePromptLength <= 0 {
		c.MaxImagePromptLength = d.MaxImagePromptLength
	}
	if c.SpeechErrorTimeout <= 0 {
		c.SpeechErrorTimeout = d.SpeechErrorTimeout
	}
	if c.SpeechNoticeTimeout <= 0 {
		c.SpeechNoticeTimeout = d.SpeechNoticeTimeout
	}
	return c
}

// options carries the optional collaborators shared by all components.
type options struct {
	ctx         context.Context
	clock       Clock
	metrics     *observe.Metrics
	capture     speech.Capture
	onChange    func()
	onNarrated  func()
	onStateFunc func(State)
}

// Option configures a component or a Session.
type Option func(*options)

// WithContext sets the parent context of every gateway call. Cancelling it
// cancels in-flight calls.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// WithClock replaces the wall clock used by debounce and auto-clear timers.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithMetrics records component activity on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithCapture enables voice input through c. Without it voice input reports
// that speech recognition is unavailable.
func WithCapture(c speech.Capture) Option {
	return func(o *options) { o.capture = c }
}

// WithOnChange registers fn to run on the loop after every state mutation of
// a single component.
func WithOnChange(fn func()) Option {
	return func(o *options) { o.onChange = fn }
}

// WithNarrationCompleted registers fn to run when a narration run ends on its
// own (last sentence finished or playback failed).
func WithNarrationCompleted(fn func()) Option {
	return func(o *options) { o.onNarrated = fn }
}

// WithStateListener registers fn to receive a Session snapshot after each
// batch of mutations.
func WithStateListener(fn func(State)) Option {
	return func(o *options) { o.onStateFunc = fn }
}

func buildOptions(opts []Option) options {
	o := options{ctx: context.Background(), clock: SystemClock{}}
	for _, fn := range opts {
		fn(&o)
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}
	if o.clock == nil {
		o.clock = SystemClock{}
	}
	return o
}

func (o options) changed() {
	if o.onChange != nil {
		o.onChange()
	}
}
