// Package gemini provides a gateway provider backed by the Google Gemini API
// through google.golang.org/genai.
//
// Text queries may be grounded with the Google Search tool; the consulted
// pages are extracted from the candidate's grounding metadata. Images are
// rendered with an Imagen model.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

const (
	// DefaultTextModel is used when no model is configured.
	DefaultTextModel = "gemini-2.5-flash"

	// DefaultImageModel is the Imagen model used for GenerateImage.
	DefaultImageModel = "imagen-3.0-generate-002"

	providerName    = "gemini"
	imageOutputMIME = "image/jpeg"
)

// Provider implements gateway.Provider using the Gemini API.
type Provider struct {
	models     *genai.Models
	model      string
	imageModel string
}

type config struct {
	baseURL    string
	imageModel string
	timeout    time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the Gemini API endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithImageModel sets the model used by GenerateImage.
func WithImageModel(model string) Option {
	return func(c *config) { c.imageModel = model }
}

// WithTimeout sets a per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a Gemini gateway provider. An empty model selects
// [DefaultTextModel].
func New(ctx context.Context, apiKey, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultTextModel
	}

	cfg := &config{imageModel: DefaultImageModel}
	for _, o := range opts {
		o(cfg)
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.baseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.baseURL
	}
	if cfg.timeout > 0 {
		cc.HTTPOptions.Timeout = &cfg.timeout
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Provider{models: client.Models, model: model, imageModel: cfg.imageModel}, nil
}

// GenerateText implements gateway.Provider.
func (p *Provider) GenerateText(ctx context.Context, prompt string, grounding bool) (*gateway.TextResult, error) {
	resp, err := p.models.GenerateContent(ctx, p.model, genai.Text(prompt), p.answerConfig(grounding))
	if err != nil {
		return nil, gateway.NewError(providerName, gateway.OpGenerateText, err)
	}
	return toTextResult(resp), nil
}

// GenerateTextWithImage implements gateway.Provider.
func (p *Provider) GenerateTextWithImage(ctx context.Context, prompt string, img gateway.Image, grounding bool) (*gateway.TextResult, error) {
	if err := gateway.ValidateImageMIME(img.MIMEType); err != nil {
		return nil, gateway.NewError(providerName, gateway.OpGenerateTextWithImage, err)
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, img.MIMEType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	resp, err := p.models.GenerateContent(ctx, p.model, contents, p.answerConfig(grounding))
	if err != nil {
		return nil, gateway.NewError(providerName, gateway.OpGenerateTextWithImage, err)
	}
	return toTextResult(resp), nil
}

// GenerateImage implements gateway.Provider.
func (p *Provider) GenerateImage(ctx context.Context, prompt string) (*gateway.Image, error) {
	resp, err := p.models.GenerateImages(ctx, p.imageModel, gateway.StyledImagePrompt(prompt), &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: imageOutputMIME,
	})
	if err != nil {
		return nil, gateway.NewError(providerName, gateway.OpGenerateImage, err)
	}
	img, err := firstImage(resp)
	if err != nil {
		return nil, gateway.NewError(providerName, gateway.OpGenerateImage, err)
	}
	return img, nil
}

// GenerateSuggestions implements gateway.Provider.
func (p *Provider) GenerateSuggestions(ctx context.Context, partial string) ([]string, error) {
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	p.applyThinking(cfg)

	resp, err := p.models.GenerateContent(ctx, p.model, genai.Text(gateway.SuggestionPrompt(partial)), cfg)
	if err != nil {
		return nil, gateway.NewError(providerName, gateway.OpGenerateSuggestions, err)
	}
	out, ok := gateway.ParseSuggestions(resp.Text())
	if !ok {
		slog.Warn("gemini: suggestions not in expected format", "query", partial)
	}
	return out, nil
}

// answerConfig builds the request config shared by both text operations.
func (p *Provider) answerConfig(grounding bool) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(gateway.SystemInstruction, genai.RoleUser),
	}
	if grounding {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	p.applyThinking(cfg)
	return cfg
}

// applyThinking disables thinking on the flash model for lower latency.
func (p *Provider) applyThinking(cfg *genai.GenerateContentConfig) {
	if p.model == DefaultTextModel {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)}
	}
}

func toTextResult(resp *genai.GenerateContentResponse) *gateway.TextResult {
	return &gateway.TextResult{Text: resp.Text(), Sources: extractSources(resp)}
}

// extractSources returns the web grounding chunks of the first candidate.
// Chunks without a URI are skipped.
func extractSources(resp *genai.GenerateContentResponse) []gateway.Source {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var sources []gateway.Source
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		sources = append(sources, gateway.NewSource(chunk.Web.URI, chunk.Web.Title))
	}
	return sources
}

func firstImage(resp *genai.GenerateImagesResponse) (*gateway.Image, error) {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, gateway.ErrEmptyResult
	}
	gen := resp.GeneratedImages[0]
	if gen == nil || gen.Image == nil || len(gen.Image.ImageBytes) == 0 {
		if gen != nil && gen.RAIFilteredReason != "" {
			return nil, errors.Join(gateway.ErrEmptyResult, errors.New(gen.RAIFilteredReason))
		}
		return nil, gateway.ErrEmptyResult
	}
	mime := gen.Image.MIMEType
	if mime == "" {
		mime = imageOutputMIME
	}
	return &gateway.Image{Data: gen.Image.ImageBytes, MIMEType: mime}, nil
}

// Ensure Provider implements gateway.Provider at compile time.
var _ gateway.Provider = (*Provider)(nil)
