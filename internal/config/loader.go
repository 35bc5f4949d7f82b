package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidGatewayNames lists the gateway names the server registers out of the
// box. Used by [Validate] to warn about unrecognised names.
var ValidGatewayNames = []string{
	"gemini", "openai",
	"anthropic", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// Defaults applied by [ApplyDefaults].
const (
	DefaultListenAddr      = ":8080"
	DefaultServiceName     = "onyx"
	DefaultShutdownTimeout = 15 * time.Second
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. ${VAR} references are expanded from the
// environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. Useful in tests where configs are string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	expanded := os.ExpandEnv(string(raw))

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields. Search tunables left at zero are filled
// later by the search package itself.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Observe.ServiceName == "" {
		cfg.Observe.ServiceName = DefaultServiceName
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}
	if cfg.Server.MaxSessions < 0 {
		errs = append(errs, fmt.Errorf("server.max_sessions %d must not be negative", cfg.Server.MaxSessions))
	}

	// Providers
	if cfg.Providers.Gateway.Name == "" {
		errs = append(errs, errors.New("providers.gateway.name is required"))
	}
	seen := make(map[string]string)
	for i, entry := range cfg.Providers.Entries() {
		prefix := "providers.gateway"
		if i > 0 {
			prefix = fmt.Sprintf("providers.fallbacks[%d]", i-1)
		}
		if entry.Name == "" {
			if i > 0 {
				errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			}
			continue
		}
		validateGatewayName(prefix, entry.Name)
		if prev, ok := seen[entry.Label()]; ok {
			errs = append(errs, fmt.Errorf("%s %q duplicates %s", prefix, entry.Label(), prev))
		}
		seen[entry.Label()] = prefix
		if _, err := entry.DurationOption("timeout"); err != nil {
			errs = append(errs, fmt.Errorf("%s.options: %w", prefix, err))
		}
	}

	// Search
	s := cfg.Search
	if s.SuggestionDebounce < 0 {
		errs = append(errs, fmt.Errorf("search.suggestion_debounce %v must not be negative", s.SuggestionDebounce))
	}
	if s.MinSuggestionChars < 0 {
		errs = append(errs, fmt.Errorf("search.min_suggestion_chars %d must not be negative", s.MinSuggestionChars))
	}
	if s.MaxSuggestions < 0 {
		errs = append(errs, fmt.Errorf("search.max_suggestions %d must not be negative", s.MaxSuggestions))
	}
	if s.SuggestionCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("search.suggestion_cache_ttl %v must not be negative", s.SuggestionCacheTTL))
	}
	if s.MaxImagePromptLength < 0 {
		errs = append(errs, fmt.Errorf("search.max_image_prompt_length %d must not be negative", s.MaxImagePromptLength))
	}
	if s.SpeechErrorTimeout < 0 || s.SpeechNoticeTimeout < 0 {
		errs = append(errs, errors.New("search speech timeouts must not be negative"))
	}

	// Resilience
	r := cfg.Resilience
	if r.MaxFailures < 0 || r.HalfOpenMax < 0 {
		errs = append(errs, errors.New("resilience.max_failures and resilience.half_open_max must not be negative"))
	}
	if r.ResetTimeout < 0 {
		errs = append(errs, fmt.Errorf("resilience.reset_timeout %v must not be negative", r.ResetTimeout))
	}

	return errors.Join(errs...)
}

// validateGatewayName logs a warning if name is not a built-in gateway.
func validateGatewayName(field, name string) {
	if slices.Contains(ValidGatewayNames, name) {
		return
	}
	slog.Warn("unknown gateway name, may be a typo or a custom registration",
		"field", field,
		"name", name,
		"known", ValidGatewayNames,
	)
}
