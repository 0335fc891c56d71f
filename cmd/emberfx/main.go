// Command emberfx is an MCP server that exposes the Eternal AI visual-effects
// service as tools over stdio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emberfx/emberfx/internal/config"
	"github.com/emberfx/emberfx/internal/health"
	"github.com/emberfx/emberfx/internal/observe"
	"github.com/emberfx/emberfx/internal/poller"
	"github.com/emberfx/emberfx/internal/resilience"
	"github.com/emberfx/emberfx/internal/server"
	"github.com/emberfx/emberfx/internal/tools"
	"github.com/emberfx/emberfx/pkg/eternal"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to an optional YAML configuration file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Fprintf(os.Stderr, "emberfx %s\n", version)
		return 0
	}

	// ── Load configuration ────────────────────────────────────────────────────
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "emberfx: %v\n", err)
		return 1
	}
	if cfg.API.APIKey == "" {
		fmt.Fprintf(os.Stderr, "emberfx: no API key configured; set %s or api.api_key in the config file\n", config.EnvAPIKey)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// Stdout carries the MCP protocol stream; all logs go to stderr.
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("emberfx starting",
		"version", version,
		"log_level", cfg.Server.LogLevel,
		"metrics_addr", cfg.Server.MetricsAddr,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "emberfx",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Upstream client and poller ────────────────────────────────────────────
	var clientOpts []eternal.Option
	if cfg.API.BaseURL != "" {
		clientOpts = append(clientOpts, eternal.WithBaseURL(cfg.API.BaseURL))
	}
	if cfg.API.Timeout > 0 {
		clientOpts = append(clientOpts, eternal.WithTimeout(cfg.API.Timeout))
	}
	client, err := eternal.New(cfg.API.APIKey, clientOpts...)
	if err != nil {
		slog.Error("failed to create API client", "err", err)
		return 1
	}

	p, err := poller.New(client, poller.Policy{
		InitialDelay: cfg.Poll.InitialDelay,
		Interval:     cfg.Poll.Interval,
		MaxDuration:  cfg.Poll.MaxDuration,
	})
	if err != nil {
		slog.Error("failed to create poller", "err", err)
		return 1
	}

	// ── MCP server ────────────────────────────────────────────────────────────
	// Tool calls go through a shared circuit breaker; the readiness probe
	// bypasses it so /readyz reflects the upstream itself.
	guarded := resilience.Guard(client, resilience.NewBreaker(resilience.BreakerConfig{Name: "eternal"}))
	registry := tools.NewRegistry(guarded, p, observe.DefaultMetrics())
	srv := server.New(registry, server.Options{
		Version:      version,
		Instructions: cfg.Server.Instructions,
		MetricsAddr:  cfg.Server.MetricsAddr,
		Health:       health.New(client),
	})

	slog.Info("serving MCP over stdio")
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// newLogger builds the stderr text logger at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
