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

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/app"
	"github.com/kailas-cloud/askdex/internal/config"
	logpkg "github.com/kailas-cloud/askdex/internal/logger"
	"github.com/kailas-cloud/askdex/internal/metrics"
	chiTransport "github.com/kailas-cloud/askdex/internal/transport/chi"
	"github.com/kailas-cloud/askdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting askdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("primary_model", cfg.LLM.PrimaryModel),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Connected to database")

	// Register collectors explicitly (no init())
	metrics.Register()

	svc := app.New(cfg, store, logger)
	server := chiTransport.NewServer(svc.Pipeline, svc.Health, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr: addr,
		Handler: server.Router(ctx, chiTransport.RouterConfig{
			APIKeys:   cfg.Auth.APIKeys,
			RateRPS:   cfg.RateLimit.RPS,
			RateBurst: cfg.RateLimit.Burst,
		}),
		ReadTimeout:  config.Duration(cfg.HTTP.ReadTimeoutSec),
		WriteTimeout: config.Duration(cfg.HTTP.WriteTimeoutSec),
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
