// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/roomcast/internal/config"
	"github.com/tomtom215/roomcast/internal/ingress"
	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("environment", cfg.Server.Environment).
		Bool("ingress", cfg.Ingress.Enabled).
		Str("ingress_backend", cfg.Ingress.Backend).
		Bool("nats_available", ingress.NATSAvailable).
		Msg("Starting Roomcast")

	if cfg.IsProduction() && cfg.HasWildcardCORS() {
		logging.Warn().Msg("CORS_ORIGINS=* accepts websocket upgrades from any site. Set explicit origins in production.")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize server")
	}

	// zerolog behind slog for sutureslog.
	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	server := a.httpServer()
	a.supervise(tree, server)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)
	waitForShutdown(ctx, errCh, cfg.Supervisor.ShutdownTimeout+cfg.Server.ShutdownTimeout)

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Roomcast stopped")
}

// waitForShutdown blocks until the tree stops. ServeBackground sends exactly
// one value and never closes errCh, so it is received once; after ctx is
// canceled the wait is bounded by timeout.
func waitForShutdown(ctx context.Context, errCh <-chan error, timeout time.Duration) {
	select {
	case err := <-errCh:
		logSupervisorError(err, "Supervisor tree error")
		return
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	}

	select {
	case err := <-errCh:
		logSupervisorError(err, "Supervisor shutdown error")
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("Supervisor did not stop in time")
	}
}

func logSupervisorError(err error, msg string) {
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg(msg)
	}
}
