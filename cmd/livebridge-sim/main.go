// Command livebridge-sim runs the bridge against the simulated host.
//
// It stands in for the DAW during development: the full TCP surface is up,
// backed by an in-memory song, so automation clients can be exercised
// without a DAW license on the machine.
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

	"github.com/soundctl/livebridge/internal/app"
	"github.com/soundctl/livebridge/internal/config"
	"github.com/soundctl/livebridge/pkg/live/sim"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to the YAML configuration file (optional)")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(os.Stderr, "livebridge-sim: config file %q not found\n", *configPath)
			} else {
				fmt.Fprintf(os.Stderr, "livebridge-sim: %v\n", err)
			}
			return 1
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	cfg = config.FromEnv(cfg)

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("livebridge-sim starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Simulated host + main-thread pump ─────────────────────────────────────
	host := sim.New()
	pumpDone := make(chan struct{})
	pumpExited := make(chan struct{})
	go func() {
		defer close(pumpExited)
		host.Run(pumpDone)
	}()

	// ── Bridge ────────────────────────────────────────────────────────────────
	application := app.New(*cfg, host, logger)
	application.Init()

	slog.Info("bridge ready, press Ctrl+C to shut down")
	<-ctx.Done()

	slog.Info("shutting down")
	application.Disconnect()
	close(pumpDone)
	<-pumpExited
	host.Close()
	return 0
}

// newLogger builds the process logger at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var l slog.Level
	switch level {
	case config.LogDebug:
		l = slog.LevelDebug
	case config.LogWarn:
		l = slog.LevelWarn
	case config.LogError:
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
