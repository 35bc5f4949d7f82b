// Package config provides the configuration schema, loader, and gateway
// registry for the Onyx search server.
package config

import (
	"fmt"
	"log/slog"
	"time"
)

// LogLevel controls log verbosity for the Onyx server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Slog maps l to the matching slog level. Unknown and empty levels map to
// [slog.LevelInfo].
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure for Onyx.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Search     SearchConfig     `yaml:"search"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Observe    ObserveConfig    `yaml:"observe"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`

	// ShutdownTimeout bounds graceful shutdown. Defaults to 15s.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxSessions caps concurrently connected pages. 0 means unlimited.
	MaxSessions int `yaml:"max_sessions"`

	// AllowedOrigins lists extra host patterns allowed to open the
	// WebSocket from another origin (e.g., "*.example.com").
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ProvidersConfig selects the primary AI gateway and an ordered list of
// fallbacks tried when it fails.
type ProvidersConfig struct {
	Gateway   ProviderEntry   `yaml:"gateway"`
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// Entries returns the primary gateway followed by the fallbacks.
func (p ProvidersConfig) Entries() []ProviderEntry {
	out := make([]ProviderEntry, 0, 1+len(p.Fallbacks))
	out = append(out, p.Gateway)
	return append(out, p.Fallbacks...)
}

// ProviderEntry configures one gateway backend. The Name field is used to
// look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered gateway implementation (e.g., "gemini", "openai").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects the text model (e.g., "gemini-2.5-flash", "gpt-4o-mini").
	Model string `yaml:"model"`

	// Options holds provider-specific values such as "image_model",
	// "timeout" or "organization".
	Options map[string]any `yaml:"options"`
}

// Label returns a display name for logs and breaker names.
func (e ProviderEntry) Label() string {
	if e.Model == "" {
		return e.Name
	}
	return e.Name + "/" + e.Model
}

// StringOption returns Options[key] when it is a string, or "".
func (e ProviderEntry) StringOption(key string) string {
	s, _ := e.Options[key].(string)
	return s
}

// DurationOption parses Options[key] as a Go duration string. A missing key
// yields zero and no error.
func (e ProviderEntry) DurationOption(key string) (time.Duration, error) {
	v, ok := e.Options[key]
	if !ok || v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("option %q must be a duration string, got %T", key, v)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("option %q: %w", key, err)
	}
	return d, nil
}

// SearchConfig holds the per-session tunables. Zero values fall back to the
// search package defaults.
type SearchConfig struct {
	SuggestionDebounce   time.Duration `yaml:"suggestion_debounce"`
	MinSuggestionChars   int           `yaml:"min_suggestion_chars"`
	MaxSuggestions       int           `yaml:"max_suggestions"`
	SuggestionCacheTTL   time.Duration `yaml:"suggestion_cache_ttl"`
	ImagePromptPrefix    string        `yaml:"image_prompt_prefix"`
	MaxImagePromptLength int           `yaml:"max_image_prompt_length"`
	SpeechErrorTimeout   time.Duration `yaml:"speech_error_timeout"`
	SpeechNoticeTimeout  time.Duration `yaml:"speech_notice_timeout"`
}

// ResilienceConfig tunes the per-backend circuit breakers.
type ResilienceConfig struct {
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
	HalfOpenMax  int           `yaml:"half_open_max"`
}

// ObserveConfig controls telemetry.
type ObserveConfig struct {
	// ServiceName is reported as the OpenTelemetry service.name.
	ServiceName string `yaml:"service_name"`

	// Metrics enables the /metrics endpoint. Defaults to true.
	Metrics *bool `yaml:"metrics"`
}

// MetricsEnabled reports whether /metrics should be served.
func (o ObserveConfig) MetricsEnabled() bool {
	return o.Metrics == nil || *o.Metrics
}
