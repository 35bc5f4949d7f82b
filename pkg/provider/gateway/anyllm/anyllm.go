// Package anyllm provides a text-only gateway provider backed by
// github.com/mozilla-ai/any-llm-go, a unified multi-provider interface that
// supports OpenAI, Anthropic, Gemini, Ollama, DeepSeek, Mistral, Groq, and more.
//
// It answers text queries and suggestions. Image queries and image generation
// return gateway.ErrNotSupported, which lets a fallback chain move on to a
// vision-capable backend.
//
// Usage:
//
//	p, err := anyllm.New("anthropic", "claude-3-5-haiku-latest", anyllmlib.WithAPIKey("sk-ant-..."))
//	p, err := anyllm.NewOllama("llama3")
package anyllm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/llamafile"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

// Provider implements gateway.Provider by wrapping github.com/mozilla-ai/any-llm-go.
type Provider struct {
	backend anyllmlib.Provider
	name    string
	model   string
}

// New creates a new Provider backed by the given LLM provider name.
//
// providerName is one of: "openai", "anthropic", "gemini", "ollama", "deepseek",
// "mistral", "groq", "llamacpp", "llamafile".
//
// opts are any-llm-go configuration options (e.g., anyllmlib.WithAPIKey, anyllmlib.WithBaseURL).
// If no API key option is provided, the provider falls back to the relevant
// environment variable (e.g., OPENAI_API_KEY, ANTHROPIC_API_KEY, etc.).
func New(providerName string, model string, opts ...anyllmlib.Option) (*Provider, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}

	return &Provider{backend: backend, name: "anyllm/" + strings.ToLower(providerName), model: model}, nil
}

// NewAnthropic creates a Provider backed by Anthropic.
// Without options, it reads the ANTHROPIC_API_KEY environment variable.
func NewAnthropic(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("anthropic", model, opts...)
}

// NewOllama creates a Provider backed by Ollama (local inference).
// Without options, it connects to http://localhost:11434.
func NewOllama(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("ollama", model, opts...)
}

// createBackend creates the underlying any-llm-go provider for the given provider name.
func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	case "llamacpp":
		return llamacpp.New(opts...)
	case "llamafile":
		return llamafile.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: openai, anthropic, gemini, ollama, deepseek, mistral, groq, llamacpp, llamafile", providerName)
	}
}

// GenerateText implements gateway.Provider. grounding is ignored.
func (p *Provider) GenerateText(ctx context.Context, prompt string, _ bool) (*gateway.TextResult, error) {
	text, err := p.complete(ctx, p.buildParams(gateway.SystemInstruction, prompt))
	if err != nil {
		return nil, gateway.NewError(p.name, gateway.OpGenerateText, err)
	}
	return &gateway.TextResult{Text: text}, nil
}

// GenerateTextWithImage implements gateway.Provider. Always ErrNotSupported.
func (p *Provider) GenerateTextWithImage(context.Context, string, gateway.Image, bool) (*gateway.TextResult, error) {
	return nil, gateway.NewError(p.name, gateway.OpGenerateTextWithImage, gateway.ErrNotSupported)
}

// GenerateImage implements gateway.Provider. Always ErrNotSupported.
func (p *Provider) GenerateImage(context.Context, string) (*gateway.Image, error) {
	return nil, gateway.NewError(p.name, gateway.OpGenerateImage, gateway.ErrNotSupported)
}

// GenerateSuggestions implements gateway.Provider.
func (p *Provider) GenerateSuggestions(ctx context.Context, partial string) ([]string, error) {
	text, err := p.complete(ctx, p.buildParams("", gateway.SuggestionPrompt(partial)))
	if err != nil {
		return nil, gateway.NewError(p.name, gateway.OpGenerateSuggestions, err)
	}
	out, ok := gateway.ParseSuggestions(text)
	if !ok {
		slog.Warn("anyllm: suggestions not in expected format", "provider", p.name, "query", partial)
	}
	return out, nil
}

func (p *Provider) complete(ctx context.Context, params anyllmlib.CompletionParams) (string, error) {
	resp, err := p.backend.Completion(ctx, params)
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	return resp.Choices[0].Message.ContentString(), nil
}

// buildParams assembles a single-turn request with an optional system prompt.
func (p *Provider) buildParams(system, prompt string) anyllmlib.CompletionParams {
	var messages []anyllmlib.Message
	if system != "" {
		messages = append(messages, anyllmlib.Message{
			Role:    anyllmlib.RoleSystem,
			Content: system,
		})
	}
	messages = append(messages, anyllmlib.Message{
		Role:    "user",
		Content: prompt,
	})
	return anyllmlib.CompletionParams{
		Model:    p.model,
		Messages: messages,
	}
}

// Ensure Provider implements gateway.Provider at compile time.
var _ gateway.Provider = (*Provider)(nil)
