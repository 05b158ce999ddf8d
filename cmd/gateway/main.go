package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tradegate/internal/domain"
	"tradegate/internal/event"
	"tradegate/internal/gateway/hsc"
	"tradegate/internal/infra"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// 1. Configuration & Logging
	cfg, err := infra.LoadConfig(*configPath)
	if err != nil {
		slog.Error("❌ Config load failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 2. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Event Bus & Log Sink
	bus := event.NewBus()
	defer bus.Close()

	bus.Subscribe(event.TypeLog, func(ev event.Event) {
		entry, ok := ev.Data.(domain.LogEntry)
		if !ok {
			return
		}
		slog.Info(entry.Message, slog.String("gateway", entry.Gateway))
	})

	// 5. Venue Gateway
	hscGateway := hsc.New(cfg.Gateways.Hsc, bus)
	if err := hscGateway.Connect(); err != nil {
		slog.Error("Failed to connect HSC gateway", slog.Any("error", err))
	} else {
		slog.InfoContext(ctx, "✅ HSC gateway connected")
	}
	defer hscGateway.Close()

	slog.InfoContext(ctx, "✨ Trade gateway fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}
