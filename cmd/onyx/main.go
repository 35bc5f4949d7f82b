// Command onyx is the main entry point for the Onyx AI search server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"go.opentelemetry.io/otel"

	"github.com/Gaurav02lk-beep/Onyx/internal/app"
	"github.com/Gaurav02lk-beep/Onyx/internal/config"
	"github.com/Gaurav02lk-beep/Onyx/internal/observe"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway/anyllm"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway/gemini"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway/openai"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	envPath := flag.String("env", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	// ── Environment ───────────────────────────────────────────────────────────
	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "onyx: load %s: %v\n", *envPath, err)
		return 1
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "onyx: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "onyx: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	var level slog.LevelVar
	level.Set(cfg.Server.LogLevel.Slog())
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	slog.Info("onyx starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	telemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Observe.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Gateway chain ─────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinGateways(reg)

	gw, err := app.BuildGateway(ctx, cfg, reg, metrics)
	if err != nil {
		slog.Error("failed to build gateway", "err", err)
		return 1
	}

	printStartupSummary(cfg)

	application, err := app.New(cfg, gw,
		app.WithMetrics(metrics),
		app.WithTelemetry(telemetry),
		app.WithAvailability(gw.Fallback),
		app.WithLogLevel(&level),
	)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, application.ApplyConfig)
	if err != nil {
		slog.Warn("config hot reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	slog.Info("server ready; press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Gateway wiring ────────────────────────────────────────────────────────────

// anyllmGateways are served through any-llm. gemini and openai have native
// clients with image support instead.
var anyllmGateways = []string{"anthropic", "deepseek", "mistral", "groq", "llamacpp", "llamafile", "ollama"}

// registerBuiltinGateways wires all built-in gateway factories into reg.
func registerBuiltinGateways(reg *config.Registry) {
	reg.RegisterGateway("gemini", func(ctx context.Context, entry config.ProviderEntry) (gateway.Provider, error) {
		var opts []gemini.Option
		if entry.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(entry.BaseURL))
		}
		if m := entry.StringOption("image_model"); m != "" {
			opts = append(opts, gemini.WithImageModel(m))
		}
		if d, _ := entry.DurationOption("timeout"); d > 0 {
			opts = append(opts, gemini.WithTimeout(d))
		}
		return gemini.New(ctx, entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterGateway("openai", func(_ context.Context, entry config.ProviderEntry) (gateway.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		if org := entry.StringOption("organization"); org != "" {
			opts = append(opts, openai.WithOrganization(org))
		}
		if m := entry.StringOption("image_model"); m != "" {
			opts = append(opts, openai.WithImageModel(m))
		}
		if d, _ := entry.DurationOption("timeout"); d > 0 {
			opts = append(opts, openai.WithTimeout(d))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	// The any-llm backends share the same pattern: optional APIKey + optional
	// BaseURL. ollama is a local server and ignores the key.
	for _, name := range anyllmGateways {
		reg.RegisterGateway(name, func(_ context.Context, entry config.ProviderEntry) (gateway.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" && name != "ollama" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(name, entry.Model, opts...)
		})
	}

	slog.Debug("registered gateways", "names", reg.Names())
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║          Onyx startup summary         ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Gateway", cfg.Providers.Gateway.Label())
	for i, fb := range cfg.Providers.Fallbacks {
		printRow(fmt.Sprintf("Fallback %d", i+1), fb.Label())
	}
	printRow("Listen addr", cfg.Server.ListenAddr)
	if cfg.Server.TLS != nil {
		printRow("TLS", "enabled")
	}
	if cfg.Server.MaxSessions > 0 {
		printRow("Max sessions", fmt.Sprint(cfg.Server.MaxSessions))
	} else {
		printRow("Max sessions", "(unlimited)")
	}
	if cfg.Observe.MetricsEnabled() {
		printRow("Metrics", "/metrics")
	} else {
		printRow("Metrics", "(disabled)")
	}
	printRow("Debounce", durationOr(cfg.Search.SuggestionDebounce, "300ms"))
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(kind, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

func durationOr(d time.Duration, def string) string {
	if d <= 0 {
		return def
	}
	return d.String()
}
