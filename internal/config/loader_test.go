package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Gaurav02lk-beep/Onyx/internal/config"
)

const fullYAML = `
server:
  listen_addr: ":9090"
  log_level: debug
providers:
  gateway:
    name: gemini
    api_key: ${ONYX_TEST_GEMINI_KEY}
    model: gemini-2.5-flash
    options:
      image_model: imagen-3.0-generate-002
      timeout: 30s
  fallbacks:
    - name: openai
      api_key: sk-test
      model: gpt-4o-mini
search:
  suggestion_debounce: 250ms
  min_suggestion_chars: 3
  max_suggestions: 5
  suggestion_cache_ttl: 1m
  image_prompt_prefix: "Paint: "
  max_image_prompt_length: 400
  speech_error_timeout: 6s
resilience:
  max_failures: 4
  reset_timeout: 20s
observe:
  service_name: onyx-test
  metrics: false
`

func TestLoadFromReader_Full(t *testing.T) {
	t.Setenv("ONYX_TEST_GEMINI_KEY", "from-env")

	cfg, err := config.LoadFromReader(strings.NewReader(fullYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" || cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.ShutdownTimeout != config.DefaultShutdownTimeout {
		t.Errorf("shutdown_timeout = %v, want default", cfg.Server.ShutdownTimeout)
	}
	gw := cfg.Providers.Gateway
	if gw.APIKey != "from-env" {
		t.Errorf("api_key = %q, want the expanded env value", gw.APIKey)
	}
	if gw.StringOption("image_model") != "imagen-3.0-generate-002" {
		t.Errorf("image_model = %q", gw.StringOption("image_model"))
	}
	if d, err := gw.DurationOption("timeout"); err != nil || d != 30*time.Second {
		t.Errorf("timeout = %v, %v", d, err)
	}
	if got := cfg.Providers.Entries(); len(got) != 2 || got[1].Label() != "openai/gpt-4o-mini" {
		t.Errorf("Entries = %+v", got)
	}

	want := config.SearchConfig{
		SuggestionDebounce:   250 * time.Millisecond,
		MinSuggestionChars:   3,
		MaxSuggestions:       5,
		SuggestionCacheTTL:   time.Minute,
		ImagePromptPrefix:    "Paint: ",
		MaxImagePromptLength: 400,
		SpeechErrorTimeout:   6 * time.Second,
	}
	if cfg.Search != want {
		t.Errorf("search = %+v, want %+v", cfg.Search, want)
	}
	if cfg.Resilience.MaxFailures != 4 || cfg.Resilience.ResetTimeout != 20*time.Second {
		t.Errorf("resilience = %+v", cfg.Resilience)
	}
	if cfg.Observe.ServiceName != "onyx-test" || cfg.Observe.MetricsEnabled() {
		t.Errorf("observe = %+v", cfg.Observe)
	}
}

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader("providers:\n  gateway:\n    name: openai\n"))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != config.DefaultListenAddr {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log_level = %q", cfg.Server.LogLevel)
	}
	if cfg.Observe.ServiceName != config.DefaultServiceName || !cfg.Observe.MetricsEnabled() {
		t.Errorf("observe = %+v", cfg.Observe)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr []string
	}{
		{
			name:    "missing gateway",
			yaml:    "server:\n  log_level: info\n",
			wantErr: []string{"providers.gateway.name is required"},
		},
		{
			name:    "bad log level",
			yaml:    "server:\n  log_level: loud\nproviders:\n  gateway:\n    name: gemini\n",
			wantErr: []string{"server.log_level"},
		},
		{
			name: "fallback without name",
			yaml: "providers:\n  gateway:\n    name: gemini\n  fallbacks:\n    - model: x\n",
			wantErr: []string{"providers.fallbacks[0].name is required"},
		},
		{
			name: "duplicate backend",
			yaml: "providers:\n  gateway:\n    name: openai\n    model: m\n  fallbacks:\n    - name: openai\n      model: m\n",
			wantErr: []string{"duplicates providers.gateway"},
		},
		{
			name:    "bad timeout option",
			yaml:    "providers:\n  gateway:\n    name: gemini\n    options:\n      timeout: soon\n",
			wantErr: []string{`option "timeout"`},
		},
		{
			name:    "negative search values",
			yaml:    "providers:\n  gateway:\n    name: gemini\nsearch:\n  max_suggestions: -1\n  suggestion_debounce: -1s\n",
			wantErr: []string{"search.max_suggestions", "search.suggestion_debounce"},
		},
		{
			name:    "half tls",
			yaml:    "server:\n  tls:\n    cert_file: c.pem\nproviders:\n  gateway:\n    name: gemini\n",
			wantErr: []string{"server.tls"},
		},
		{
			name:    "negative resilience",
			yaml:    "providers:\n  gateway:\n    name: gemini\nresilience:\n  max_failures: -2\n",
			wantErr: []string{"resilience.max_failures"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.LoadFromReader(strings.NewReader(tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFromReader(strings.NewReader("providers:\n  gateway:\n    name: gemini\n    temperature: 2\n"))
	if err == nil || !strings.Contains(err.Error(), "temperature") {
		t.Errorf("err = %v, want an unknown field error", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	for _, l := range []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError} {
		if !l.IsValid() {
			t.Errorf("%q.IsValid() = false", l)
		}
	}
	if config.LogLevel("trace").IsValid() {
		t.Error(`"trace".IsValid() = true`)
	}
	if got := config.LogDebug.Slog(); got.String() != "DEBUG" {
		t.Errorf("LogDebug.Slog() = %v", got)
	}
	if got := config.LogLevel("").Slog(); got.String() != "INFO" {
		t.Errorf(`"".Slog() = %v`, got)
	}
}

func TestProviderEntry_DurationOption(t *testing.T) {
	t.Parallel()

	e := config.ProviderEntry{Options: map[string]any{"timeout": "2s", "retries": 3}}
	if d, err := e.DurationOption("timeout"); err != nil || d != 2*time.Second {
		t.Errorf("timeout = %v, %v", d, err)
	}
	if d, err := e.DurationOption("missing"); err != nil || d != 0 {
		t.Errorf("missing = %v, %v", d, err)
	}
	if _, err := e.DurationOption("retries"); err == nil {
		t.Error("expected an error for a non-string duration")
	}
	if e.StringOption("retries") != "" {
		t.Error("StringOption returned a non-string value")
	}
}
