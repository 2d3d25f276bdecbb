package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"keypad-calc/internal/config"
	"keypad-calc/internal/keypad"
	"keypad-calc/internal/observability"
	"keypad-calc/internal/server"
	"keypad-calc/internal/session"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Logger
	if err := observability.InitLogger(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	// Tracing, metrics, OTLP logs
	telemetryShutdown, err := initTelemetry(ctx, cfg)
	if err != nil {
		observability.Logger.Fatal("telemetry init failed", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryShutdown(shutdownCtx); err != nil {
			observability.Logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	keymap, err := keypad.Load(cfg.KeymapFile)
	if err != nil {
		observability.Logger.Fatal("keymap load failed", zap.Error(err))
	}

	// Sessions
	store := session.NewStore(
		session.WithEngineOptions(cfg.EngineOptions()...),
		session.WithIdleTTL(cfg.SessionIdleTTL),
	)
	go store.Run(ctx, cfg.SessionSweepInterval)

	// Router
	router := server.NewRouter(session.NewHandler(store, keymap))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", cfg.Addr),
			zap.Int("max_digits", cfg.MaxDigits),
			zap.Int("precision", cfg.Precision),
			zap.Bool("otel", cfg.OTelEnabled),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	waitForShutdown(srv)
}

func waitForShutdown(srv *http.Server) {

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		observability.Logger.Warn("server shutdown", zap.Error(err))
	}
	observability.Logger.Info("server stopped")
}
