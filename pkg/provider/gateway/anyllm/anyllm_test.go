package anyllm

import (
	"context"
	"errors"
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
)

// ── buildParams ───────────────────────────────────────────────────────────────

// TestBuildParams_WithSystem checks that the system prompt leads the messages.
func TestBuildParams_WithSystem(t *testing.T) {
	p := &Provider{model: "claude-3-5-haiku-latest"}
	params := p.buildParams("be brief", "What is gravity?")

	if params.Model != "claude-3-5-haiku-latest" {
		t.Errorf("expected model claude-3-5-haiku-latest, got %q", params.Model)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(params.Messages))
	}
	if params.Messages[0].Role != anyllmlib.RoleSystem || params.Messages[0].ContentString() != "be brief" {
		t.Errorf("unexpected system message: %+v", params.Messages[0])
	}
	if params.Messages[1].Role != "user" || params.Messages[1].ContentString() != "What is gravity?" {
		t.Errorf("unexpected user message: %+v", params.Messages[1])
	}
}

// TestBuildParams_NoSystem checks that an empty system prompt is omitted.
func TestBuildParams_NoSystem(t *testing.T) {
	p := &Provider{model: "llama3"}
	params := p.buildParams("", "black ho")
	if len(params.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(params.Messages))
	}
}

// ── Constructor ───────────────────────────────────────────────────────────────

// TestNew_Errors checks argument validation.
func TestNew_Errors(t *testing.T) {
	if _, err := New("", "gpt-4o"); err == nil {
		t.Error("expected error for empty providerName")
	}
	if _, err := New("openai", ""); err == nil {
		t.Error("expected error for empty model")
	}
	if _, err := New("fakecloud", "some-model", anyllmlib.WithAPIKey("dummy")); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

// TestNew_Ollama_NoAPIKey checks that Ollama works without an API key.
func TestNew_Ollama_NoAPIKey(t *testing.T) {
	p, err := NewOllama("llama3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.name != "anyllm/ollama" {
		t.Errorf("expected name anyllm/ollama, got %q", p.name)
	}
}

// TestNew_Anthropic_WithAPIKey checks that Anthropic provider constructs successfully.
func TestNew_Anthropic_WithAPIKey(t *testing.T) {
	p, err := NewAnthropic("claude-3-5-haiku-latest", anyllmlib.WithAPIKey("sk-ant-test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected non-nil provider")
	}
}

// ── Unsupported operations ────────────────────────────────────────────────────

// TestImageOperations_NotSupported checks the image operations fail fast.
func TestImageOperations_NotSupported(t *testing.T) {
	p, err := NewOllama("llama3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = p.GenerateImage(context.Background(), "stars")
	if !errors.Is(err, gateway.ErrNotSupported) {
		t.Errorf("GenerateImage err = %v, want ErrNotSupported", err)
	}
	_, err = p.GenerateTextWithImage(context.Background(), "describe", gateway.Image{MIMEType: "image/png"}, true)
	if !errors.Is(err, gateway.ErrNotSupported) {
		t.Errorf("GenerateTextWithImage err = %v, want ErrNotSupported", err)
	}
}
