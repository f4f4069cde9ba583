package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/splitsmart/splitsmart/internal/cache"
	"github.com/splitsmart/splitsmart/internal/config"
	"github.com/splitsmart/splitsmart/internal/genai"
	"github.com/splitsmart/splitsmart/internal/payments"
	"github.com/splitsmart/splitsmart/internal/realtime"
	"github.com/splitsmart/splitsmart/internal/server"
	"github.com/splitsmart/splitsmart/internal/service"
	"github.com/splitsmart/splitsmart/internal/storage/sqlite"
	"github.com/splitsmart/splitsmart/internal/suggest"
	"github.com/splitsmart/splitsmart/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logging.Setup()
	cfg := config.Load()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()
	slog.Info("storage initialized", "database", cfg.DBPath)

	gemini := genai.NewClient(genai.Config{
		APIKey:        cfg.GeminiAPIKey,
		Model:         cfg.GeminiModel,
		FallbackModel: cfg.GeminiFallbackModel,
	})
	if !gemini.Configured() {
		slog.Warn("no model credential; receipt parsing serves the demo receipt")
	}

	provider := payments.NewClient(payments.Config{
		APIKey:  cfg.PaymentAPIKey,
		BaseURL: cfg.PaymentBaseURL,
		PriceID: cfg.PaymentPriceID,
	})
	if provider.DemoMode() {
		slog.Warn("payment provider unconfigured; checkout runs in demo mode")
	}

	hub := realtime.NewHub()
	memory := cache.NewMemory()
	state := payments.NewStateManager(cfg.StateSecret, time.Hour)

	sessions := service.NewSessionService(store, hub)
	claims := service.NewClaimService(store, hub, memory)
	suggestions := service.NewSuggestionService(store, suggest.New(store, gemini), memory)
	checkout := service.NewCheckoutService(store, provider, state, hub, cfg.BaseURL, cfg.PaymentPriceID)

	handlers := server.NewHandlers(sessions, claims, suggestions, checkout, gemini, hub)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.NewRouter(handlers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown did not finish cleanly", "error", err)
	}
}
