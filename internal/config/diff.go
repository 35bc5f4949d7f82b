package config

import (
	"reflect"
	"slices"
)

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// SearchChanged is true when any session tunable changed. New sessions
	// pick up the new values; open sessions keep theirs.
	SearchChanged bool

	// RestartRequired lists top-level sections that changed but are only read
	// at startup (server address, providers, resilience, observe).
	RestartRequired []string
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Search != new.Search {
		d.SearchChanged = true
	}

	if old.Server.ListenAddr != new.Server.ListenAddr || !tlsEqual(old.Server.TLS, new.Server.TLS) ||
		old.Server.MaxSessions != new.Server.MaxSessions || !slices.Equal(old.Server.AllowedOrigins, new.Server.AllowedOrigins) {
		d.RestartRequired = append(d.RestartRequired, "server")
	}
	if !providersEqual(old.Providers, new.Providers) {
		d.RestartRequired = append(d.RestartRequired, "providers")
	}
	if old.Resilience != new.Resilience {
		d.RestartRequired = append(d.RestartRequired, "resilience")
	}
	if old.Observe.ServiceName != new.Observe.ServiceName || old.Observe.MetricsEnabled() != new.Observe.MetricsEnabled() {
		d.RestartRequired = append(d.RestartRequired, "observe")
	}
	return d
}

func tlsEqual(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func providersEqual(a, b ProvidersConfig) bool {
	return slices.EqualFunc(a.Entries(), b.Entries(), entryEqual)
}

func entryEqual(a, b ProviderEntry) bool {
	return a.Name == b.Name && a.APIKey == b.APIKey && a.BaseURL == b.BaseURL &&
		a.Model == b.Model && reflect.DeepEqual(a.Options, b.Options)
}
