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

	"github.com/innovacall/review-portal/internal/api"
	"github.com/innovacall/review-portal/internal/cleanup"
	"github.com/innovacall/review-portal/internal/config"
	"github.com/innovacall/review-portal/internal/events"
	"github.com/innovacall/review-portal/internal/health"
	"github.com/innovacall/review-portal/internal/locking"
	"github.com/innovacall/review-portal/internal/models"
	"github.com/innovacall/review-portal/internal/review"
	"github.com/innovacall/review-portal/internal/rubric"
	"github.com/innovacall/review-portal/internal/storage"
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

	slog.Info("starting review-portal",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, os.DirFS(cfg.Database.MigrationsDir)); err != nil {
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

	// Initialize the per-project lock manager
	locker, err := locking.NewRedisLocker(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.LockTTL)
	if err != nil {
		slog.Error("failed to create redis locker", "error", err)
		os.Exit(1)
	}

	// Initialize the status event bus
	bus, err := events.NewRedisBus(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("failed to create redis event bus", "error", err)
		os.Exit(1)
	}
	slog.Info("redis connected successfully", "address", cfg.Redis.Address)

	// Register readiness checks
	healthRegistry := health.NewRegistry()
	healthRegistry.Register("postgres", health.CheckerFunc(repo.Ping))
	healthRegistry.Register("redis", health.CheckerFunc(bus.Ping))

	// Load the rubric catalog
	rubricLoader := rubric.NewLoader()
	if err := rubricLoader.LoadFromDir(cfg.Rubrics.Dir); err != nil {
		slog.Warn("failed to load rubrics from dir", "dir", cfg.Rubrics.Dir, "error", err)
	}
	if err := rubricLoader.ApplyToCategories(initCtx, repo); err != nil {
		slog.Warn("failed to apply rubrics to categories", "error", err)
	}

	// Initialize the review workflow service
	reviews := review.NewService(repo, locker, bus, models.ReviewPolicy{
		AllowStaffReview: cfg.Review.AllowStaffReview,
	})

	// Initialize the call deadline worker
	cleaner := cleanup.NewCleaner(repo, cfg.Cleanup.Interval)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start deadline worker
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, reviews, rubricLoader, healthRegistry, bus, repo)
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

	if err := bus.Close(); err != nil {
		slog.Error("event bus close error", "error", err)
	}
	if err := locker.Close(); err != nil {
		slog.Error("locker close error", "error", err)
	}
	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("review-portal stopped")
}
