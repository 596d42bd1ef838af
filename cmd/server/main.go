// Package main is the entry point for the dashboard API server. It proxies
// canned analytical SQL to Athena and serves the results to the frontend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sensor-dash/internal/app"
	"sensor-dash/internal/athena"
	"sensor-dash/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file (if present); real env vars take precedence.
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	backend, err := athena.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("athena client: %w", err)
	}

	// Surface a bad output location now instead of on the first query.
	probeCtx, probeCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := backend.CheckOutputLocation(probeCtx); err != nil {
		logger.Warn("output location probe failed", "location", cfg.OutputLocation, "error", err)
	} else {
		logger.Info("output location reachable", "location", cfg.OutputLocation)
	}
	probeCancel()

	application, err := app.New(app.Deps{Cfg: cfg, Backend: backend, Logger: logger})
	if err != nil {
		return fmt.Errorf("wire app: %w", err)
	}

	srv := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     application.Handler,
		ReadTimeout: 15 * time.Second,
		// Writes can ride out a full query wait budget plus marshaling.
		WriteTimeout: cfg.QueryMaxWait + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("dashboard API listening",
		"addr", cfg.ListenAddr,
		"database", cfg.AthenaDatabase,
		"region", cfg.AthenaRegion,
		"demo_mode", cfg.DemoMode,
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
