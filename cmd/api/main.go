// Package main is the entry point for the Expense Ledger API server.
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

	"github.com/joho/godotenv"

	"github.com/expense-ledger/backend/config"
	"github.com/expense-ledger/backend/internal/infra/cache"
	"github.com/expense-ledger/backend/internal/infra/db"
	"github.com/expense-ledger/backend/internal/infra/dependency"
	"github.com/expense-ledger/backend/internal/infra/server/router"
	"github.com/expense-ledger/backend/internal/integration/entrypoint/controller"
)

func main() {
	// Load .env file if it exists (development only)
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg := config.Load()

	slog.Info("Starting Expense Ledger API",
		"environment", cfg.Server.Environment,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"pagination_mode", cfg.Ledger.PaginationMode,
	)

	// Redis is optional: without it the view cache is off and sessions are local.
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		slog.Warn("Redis connection failed, continuing without view cache", "error", err)
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				slog.Error("Failed to close redis connection", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	var handler http.Handler
	database, err := db.NewConnection(&cfg.Database)
	if err != nil {
		slog.Warn("Database connection failed, serving health only", "error", err)
		healthController := controller.NewHealthController(
			func() bool { return false },
			func() bool { return true },
		)
		handler = router.NewRouter(healthController, nil, nil, nil, cfg.Server.AllowedOrigins).Setup(cfg.Server.Environment)
	} else {
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("Failed to close database connection", "error", err)
			}
		}()

		injector := dependency.NewInjector(cfg, database.DB(), redisClient, database.HealthCheck)
		defer func() {
			if err := injector.Events.Close(); err != nil {
				slog.Error("Failed to close event publisher", "error", err)
			}
		}()

		startLedger(ctx, injector)
		handler = injector.Router.Setup(cfg.Server.Environment)
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited properly")
}

// startLedger serves the cached view, if any, and starts reconciling
// snapshots until ctx is cancelled.
func startLedger(ctx context.Context, injector *dependency.Injector) {
	if injector.Config.Ledger.WarmStart {
		if err := injector.Reconciler.Restore(ctx); err != nil {
			slog.Info("No cached ledger view to restore", "reason", err)
		}
	}

	if injector.RateCounter != nil {
		go injector.RateCounter.RunCleanup(ctx, time.Minute)
	}

	go func() {
		if err := injector.Reconciler.Run(ctx, injector.Source); err != nil {
			slog.Error("Ledger subscription unavailable, serving last known view", "error", err)
		}
	}()
}
