// chartsbridge - self-hosted gateway to the ClassCharts student portal
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chartsbridge/internal/api"
	"github.com/chartsbridge/internal/classcharts"
	"github.com/chartsbridge/internal/config"
	"github.com/chartsbridge/internal/credstore"
	"github.com/chartsbridge/internal/events"
	"github.com/chartsbridge/internal/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting bridge", "port", cfg.Port, "api", cfg.APIBaseURL, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	creds, err := credstore.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize credential store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := creds.Close(); closeErr != nil {
			slog.Error("Failed to close credential store", "error", closeErr)
		}
	}()

	if err := creds.Ping(context.Background()); err != nil {
		slog.Error("Credential store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Credential store ready", "path", cfg.DBPath)

	hub := events.NewHub()
	client := classcharts.New(classcharts.Config{
		BaseURL:         cfg.APIBaseURL,
		RefreshInterval: cfg.SessionRefreshInterval,
		HTTPClient:      &http.Client{Timeout: cfg.RequestTimeout},
		Logger:          logger,
		Events:          hub,
	})

	// Initialize handlers.
	portalHandler := api.NewPortalHandler(api.NewHandler(client, creds))
	wsHandler := events.NewWebSocketHandler(hub, cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pick up where the pupil left off, then keep the session warm.
	portalHandler.RestoreSession(ctx)
	client.StartKeepAlive(ctx, cfg.KeepAliveInterval)

	// Setup router.
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.FrontendURL))

	r.Handle("/metrics", promhttp.Handler())
	portalHandler.RegisterRoutes(r)
	r.Get("/api/events", wsHandler.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket event streams stay open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	slog.Info("Shutdown complete")
}
