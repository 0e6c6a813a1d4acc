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

	"github.com/spf13/cobra"

	"github.com/ktane-tracker/tracker/internal/api"
	"github.com/ktane-tracker/tracker/internal/catalog"
	"github.com/ktane-tracker/tracker/internal/config"
	"github.com/ktane-tracker/tracker/internal/practice"
	"github.com/ktane-tracker/tracker/internal/services"
	"github.com/ktane-tracker/tracker/internal/storage"
	"github.com/ktane-tracker/tracker/internal/tracker"
)

func serveCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cfg, skipMigrations)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on startup")
	return cmd
}

func serve(cfg *config.Config, skipMigrations bool) error {
	slog.Info("starting ktane-tracker",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	if !skipMigrations {
		slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
		if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, storage.MigrationsFS(cfg.Database.MigrationsDir)); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:         cfg.Database.DSN,
		MaxConns:    int32(cfg.Database.MaxConns),
		MinConns:    int32(cfg.Database.MinConns),
		MaxLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to create database repository: %w", err)
	}
	defer repo.Close()
	slog.Info("database connected successfully")

	registry := services.NewRegistry()
	registry.Register("postgres", services.CheckerFunc(repo.Ping))

	// Redis is optional; without it every catalog read goes to Postgres
	var cache catalog.Cache
	redisCache, err := catalog.NewRedisCache(initCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Catalog.CacheTTL)
	if err != nil {
		slog.Warn("redis unavailable, serving catalog without cache", "address", cfg.Redis.Address, "error", err)
	} else {
		defer redisCache.Close()
		cache = redisCache
		registry.Register("redis", services.CheckerFunc(redisCache.Ping))
	}

	cat := catalog.New(repo, cache)

	generator := practice.NewGenerator(practice.WithAgeWeighting(cfg.Tuning.AgeWeighting()))
	service := tracker.NewTracker(repo, cat, generator, cfg.Tuning.Scoring, registry)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cache != nil {
		catalog.NewWarmer(cat, cfg.Catalog.RefreshInterval).Start(ctx)

		listener, err := catalog.NewListener(cfg.Database.DSN, cfg.Catalog.ListenChannel, cat)
		if err != nil {
			slog.Warn("catalog change listener disabled", "error", err)
		} else {
			listener.Start(ctx)
		}
	}

	server := api.NewServer(cfg.Server, service)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	}

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("ktane-tracker stopped")
	return nil
}
