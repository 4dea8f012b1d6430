package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"portfolio_aggregator/internal/app/bootstrap"
	"portfolio_aggregator/internal/infrastructure/configloader"
	"portfolio_aggregator/internal/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// .env необязателен, переменные окружения имеют приоритет
	_ = godotenv.Load()

	cfgPath := configloader.PathFromEnv()
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", cfgPath, err)
		os.Exit(1)
	}

	zapLogger, err := logger.NewZap(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync() //nolint:errcheck
	logger.SetDefault(zapLogger)
	logger.Info("Portfolio aggregator starting", "config", cfgPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, zapLogger, bootstrap.Options{})
	if err != nil {
		logger.Fatal("Failed to build application", "error", err)
	}

	if cfg.Jobs.Enabled {
		app.Jobs.Start(ctx)
	} else {
		logger.Warn("Job scheduler disabled, cache is populated only by an external writer")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      app.Router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start HTTP server", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server forced to shutdown", "error", err)
	}
	app.Jobs.Wait()
	if err := app.Close(shutdownCtx); err != nil {
		logger.Error("Failed to release resources", "error", err)
	}
	logger.Info("Portfolio aggregator stopped")
}
