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

	"github.com/greedhall/rules-engine/internal/api"
	"github.com/greedhall/rules-engine/internal/cache"
	"github.com/greedhall/rules-engine/internal/config"
	"github.com/greedhall/rules-engine/internal/ingest"
	"github.com/greedhall/rules-engine/internal/source"
	"github.com/greedhall/rules-engine/internal/storage"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting rules-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations")
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Bootstrap API client so a fresh deployment can authenticate
	if key := os.Getenv("RULES_BOOTSTRAP_API_KEY"); key != "" {
		if err := repo.UpsertBootstrapClient(initCtx, "bootstrap", key, []string{"*"}); err != nil {
			slog.Error("failed to bootstrap api client", "error", err)
			os.Exit(1)
		}
		slog.Info("bootstrap api client ready")
	}

	// Initialize catalog cache
	redisCache, err := cache.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.Info("redis connected successfully")

	// Initialize document fetcher
	fetcher := source.NewGoogleDocs(
		cfg.Source.DocumentID,
		cfg.Source.APIKey,
		source.WithBaseURLs(cfg.Source.DocsBaseURL, cfg.Source.DriveBaseURL),
	)

	// Initialize catalog manager and restore the last known catalog
	manager := ingest.NewManager(fetcher, repo, redisCache)
	if err := manager.Restore(initCtx); err != nil {
		slog.Warn("failed to restore persisted catalog", "error", err)
	}

	// Initialize refresh worker
	refresher := ingest.NewRefresher(manager, cfg.Ingest.RefreshInterval)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start refresh worker
	refresher.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, manager, repo, repo, redisCache)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Close backends
	if err := redisCache.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}
	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("rules-engine stopped")
}
