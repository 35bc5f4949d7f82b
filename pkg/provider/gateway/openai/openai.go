// Package openai provides a gateway provider backed by the OpenAI API.
//
// Text and image queries use chat completions (images travel inline as data
// URIs). Image generation uses the Images API with base64 output. The chat
// completions API has no web grounding, so TextResult.Sources is always empty.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

const (
	providerName = "openai"

	// DefaultImageModel is used by GenerateImage unless overridden.
	DefaultImageModel = oai.ImageModelDallE3

	// suggestionFormat steers json_object mode towards the wrapped shape.
	suggestionFormat = `Reply with a JSON object of the form {"suggestions": ["..."]}.`
)

// Provider implements gateway.Provider using the OpenAI API.
type Provider struct {
	client     oai.Client
	model      string
	imageModel string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL      string
	organization string
	imageModel   string
	timeout      time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithOrganization sets the OpenAI organization ID on all requests.
func WithOrganization(org string) Option {
	return func(c *config) {
		c.organization = org
	}
}

// WithImageModel sets the model used by GenerateImage.
func WithImageModel(model string) Option {
	return func(c *config) {
		c.imageModel = model
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI gateway Provider.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{imageModel: DefaultImageModel}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.organization))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model, imageModel: cfg.imageModel}, nil
}

// GenerateText implements gateway.Provider. grounding is ignored.
func (p *Provider) GenerateText(ctx context.Context, prompt string, _ bool) (*gateway.TextResult, error) {
	text, err := p.complete(ctx, p.textParams(prompt))
	if err != nil {
		return nil, gateway.NewError(providerName, gateway.OpGenerateText, err)
	}
	return &gateway.TextResult{Text: text}, nil
}

// GenerateTextWithImage implements gateway.Provider. grounding is ignored.
func (p *Provider) GenerateTextWithImage(ctx context.Context, prompt string, img gateway.Image, _ bool) (*gateway.TextResult, error) {
	if err := gateway.ValidateImageMIME(img.MIMEType); err != nil {
		return nil, gateway.NewError(providerName, gateway.OpGenerateTextWithImage, err)
	}
	text, err := p.complete(ctx, p.imageParams(prompt, img))
	if err != nil {
		return nil, gateway.NewError(providerName, gateway.OpGenerateTextWithImage, err)
	}
	return &gateway.TextResult{Text: text}, nil
}

// GenerateImage implements gateway.Provider.
func (p *Provider) GenerateImage(ctx context.Context, prompt string) (*gateway.Image, error) {
	resp, err := p.client.Images.Generate(ctx, oai.ImageGenerateParams{
		Prompt:         gateway.StyledImagePrompt(prompt),
		Model:          p.imageModel,
		N:              oai.Int(1),
		ResponseFormat: oai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, gateway.NewError(providerName, gateway.OpGenerateImage, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, gateway.NewError(providerName, gateway.OpGenerateImage, gateway.ErrEmptyResult)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, gateway.NewError(providerName, gateway.OpGenerateImage, fmt.Errorf("decode image: %w", err))
	}
	return &gateway.Image{Data: data, MIMEType: "image/png"}, nil
}

// GenerateSuggestions implements gateway.Provider.
func (p *Provider) GenerateSuggestions(ctx context.Context, partial string) ([]string, error) {
	text, err := p.complete(ctx, p.suggestionParams(partial))
	if err != nil {
		return nil, gateway.NewError(providerName, gateway.OpGenerateSuggestions, err)
	}
	out, ok := gateway.ParseSuggestions(text)
	if !ok {
		slog.Warn("openai: suggestions not in expected format", "query", partial)
	}
	return out, nil
}

func (p *Provider) complete(ctx context.Context, params oai.ChatCompletionNewParams) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) textParams(prompt string) oai.ChatCompletionNewParams {
	return oai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(gateway.SystemInstruction),
			oai.UserMessage(prompt),
		},
	}
}

func (p *Provider) imageParams(prompt string, img gateway.Image) oai.ChatCompletionNewParams {
	return oai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(gateway.SystemInstruction),
			oai.UserMessage([]oai.ChatCompletionContentPartUnionParam{
				oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{
					URL: gateway.DataURI(img),
				}),
				oai.TextContentPart(prompt),
			}),
		},
	}
}

func (p *Provider) suggestionParams(partial string) oai.ChatCompletionNewParams {
	return oai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(suggestionFormat),
			oai.UserMessage(gateway.SuggestionPrompt(partial)),
		},
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
}

// Ensure Provider implements gateway.Provider at compile time.
var _ gateway.Provider = (*Provider)(nil)
