package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/Stunned1/Skribbl-Clone/internal/config"
	"github.com/Stunned1/Skribbl-Clone/internal/core"
	"github.com/Stunned1/Skribbl-Clone/internal/httpapi"
)

// Version is injected at build time with -ldflags.
var Version = "0.1.0-dev"

func main() {
	if RunCLI(os.Args[1:]) {
		return
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	// Auto-enable debug logging for dev builds; override with -debug.
	level := slog.LevelInfo
	if cfg.Debug || strings.Contains(Version, "dev") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("starting server", "version", Version, "addr", cfg.Addr)

	stats := core.NewStats()
	reg := core.NewRegistry(stats)
	game := core.NewGame(reg)
	server := httpapi.New(reg, game)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		slog.Info("received interrupt, shutting down")
		cancel()
	}()

	go stats.Run(ctx, cfg.StatsInterval)

	slog.Info("listening", "addr", cfg.Addr)
	if err := server.Run(ctx, cfg.Addr); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
