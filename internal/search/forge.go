package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Gaurav02lk-beep/Onyx/internal/observe"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

// Forge messages.
const (
	MsgForgeNoText = "Cannot render a visual construct without textual echoes from the stream."
	MsgForgeFailed = "Failed to materialize vision. The cosmic forge may be unstable or the request uninterpretable."
)

// ForgeState is the externally visible forge state.
type ForgeState struct {
	Generating bool   `json:"generating"`
	ImageURL   string `json:"imageUrl,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Forge renders an illustration of the current answer. At most one
// generation runs at a time; requests made while one is running are ignored.
// A failure keeps the previously rendered image.
type Forge struct {
	gw   gateway.Provider
	disp Dispatcher
	cfg  Config
	opts options

	gen    uint64
	cancel context.CancelFunc

	generating bool
	imageURL   string
	errMsg     string
}

// NewForge returns an idle Forge rendering through gw.
func NewForge(gw gateway.Provider, disp Dispatcher, cfg Config, opts ...Option) *Forge {
	return &Forge{gw: gw, disp: disp, cfg: cfg.withDefaults(), opts: buildOptions(opts)}
}

// BuildImagePrompt returns prefix followed by at most maxLen characters of
// text.
func BuildImagePrompt(prefix, text string, maxLen int) string {
	if r := []rune(text); len(r) > maxLen {
		text = string(r[:maxLen])
	}
	return prefix + text
}

// Generate starts rendering an image for answerText.
func (f *Forge) Generate(answerText string) {
	if strings.TrimSpace(answerText) == "" {
		f.errMsg = MsgForgeNoText
		f.opts.changed()
		return
	}
	if f.generating {
		return
	}

	f.gen++
	gen := f.gen
	ctx, cancel := context.WithCancel(f.opts.ctx)
	f.cancel = cancel
	f.generating = true
	f.errMsg = ""
	f.opts.changed()

	prompt := BuildImagePrompt(f.cfg.ImagePromptPrefix, answerText, f.cfg.MaxImagePromptLength)
	go func() {
		img, err := f.gw.GenerateImage(ctx, prompt)
		f.disp.Dispatch(func() { f.settle(gen, img, err) })
	}()
}

func (f *Forge) settle(gen uint64, img *gateway.Image, err error) {
	if gen != f.gen {
		return
	}
	f.cancel()
	f.cancel = nil
	f.generating = false

	if err == nil && (img == nil || len(img.Data) == 0) {
		err = gateway.ErrEmptyResult
	}
	if err != nil {
		slog.Warn("forge: image generation failed", "err", err)
		f.errMsg = errorMessage(err, MsgForgeFailed)
		f.opts.metrics.RecordImageGeneration(f.opts.ctx, observe.StatusError)
		f.opts.changed()
		return
	}

	f.imageURL = gateway.DataURI(*img)
	f.errMsg = ""
	f.opts.metrics.RecordImageGeneration(f.opts.ctx, observe.StatusOK)
	f.opts.changed()
}

// Reset clears the image and error and abandons any running generation.
func (f *Forge) Reset() {
	f.gen++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	if !f.generating && f.imageURL == "" && f.errMsg == "" {
		return
	}
	f.generating = false
	f.imageURL = ""
	f.errMsg = ""
	f.opts.changed()
}

// DismissError clears the forge error.
func (f *Forge) DismissError() {
	if f.errMsg == "" {
		return
	}
	f.errMsg = ""
	f.opts.changed()
}

// Close abandons any running generation.
func (f *Forge) Close() {
	f.gen++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// State returns the current forge state.
func (f *Forge) State() ForgeState {
	return ForgeState{Generating: f.generating, ImageURL: f.imageURL, Error: f.errMsg}
}
