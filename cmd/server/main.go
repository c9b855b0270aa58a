package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/overlaylabs/arshare/internal/api"
	"github.com/overlaylabs/arshare/internal/assets"
	"github.com/overlaylabs/arshare/internal/config"
	"github.com/overlaylabs/arshare/internal/ratelimit"
	"github.com/overlaylabs/arshare/internal/scene"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using system environment variables")
	}

	cfg := config.Load()

	store, err := scene.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open scene store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("scene store ready", "path", cfg.DBPath)

	uploader := assets.New(assets.Config{
		CloudName:          cfg.Cloudinary.CloudName,
		UploadPreset:       cfg.Cloudinary.UploadPreset,
		AllowLocalFallback: cfg.AllowLocalFallback,
	})
	if cfg.AllowLocalFallback {
		slog.Warn("local upload fallback is enabled; do not run this in production")
	}

	limiter := ratelimit.NewLimiter(cfg.ShareRequestsPerHour, cfg.ShareBurst)

	handler := api.NewHandler(store, uploader, cfg.FrontendURL)
	router := handler.SetupRoutes(limiter, cfg.ShareRequestsPerHour, cfg.FrontendURL)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		slog.Info("AR share API listening", "port", cfg.Port, "frontend", cfg.FrontendURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped cleanly")
}
