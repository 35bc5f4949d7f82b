package config_test

import (
	"slices"
	"testing"
	"time"

	"github.com/Gaurav02lk-beep/Onyx/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{ListenAddr: ":8080", LogLevel: config.LogInfo},
		Providers: config.ProvidersConfig{
			Gateway: config.ProviderEntry{Name: "gemini", Options: map[string]any{"timeout": "30s"}},
		},
		Search: config.SearchConfig{MaxSuggestions: 4},
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(c *config.Config)
		wantLog     bool
		wantSearch  bool
		wantRestart []string
	}{
		{name: "identical", mutate: func(*config.Config) {}},
		{
			name:    "log level",
			mutate:  func(c *config.Config) { c.Server.LogLevel = config.LogDebug },
			wantLog: true,
		},
		{
			name:       "search tunable",
			mutate:     func(c *config.Config) { c.Search.SuggestionDebounce = time.Second },
			wantSearch: true,
		},
		{
			name:        "provider option",
			mutate:      func(c *config.Config) { c.Providers.Gateway.Options = map[string]any{"timeout": "10s"} },
			wantRestart: []string{"providers"},
		},
		{
			name: "fallback added",
			mutate: func(c *config.Config) {
				c.Providers.Fallbacks = []config.ProviderEntry{{Name: "openai"}}
			},
			wantRestart: []string{"providers"},
		},
		{
			name: "listen addr and breaker",
			mutate: func(c *config.Config) {
				c.Server.ListenAddr = ":9090"
				c.Resilience.MaxFailures = 2
			},
			wantRestart: []string{"server", "resilience"},
		},
		{
			name: "metrics toggle",
			mutate: func(c *config.Config) {
				off := false
				c.Observe.Metrics = &off
			},
			wantRestart: []string{"observe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next := baseConfig()
			tt.mutate(next)

			d := config.Diff(baseConfig(), next)
			if d.LogLevelChanged != tt.wantLog {
				t.Errorf("LogLevelChanged = %v, want %v", d.LogLevelChanged, tt.wantLog)
			}
			if tt.wantLog && d.NewLogLevel != next.Server.LogLevel {
				t.Errorf("NewLogLevel = %q", d.NewLogLevel)
			}
			if d.SearchChanged != tt.wantSearch {
				t.Errorf("SearchChanged = %v, want %v", d.SearchChanged, tt.wantSearch)
			}
			if !slices.Equal(d.RestartRequired, tt.wantRestart) {
				t.Errorf("RestartRequired = %q, want %q", d.RestartRequired, tt.wantRestart)
			}
		})
	}
}
