// Package main runs the scoring HTTP API server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/R3E-Network/scoring_service/internal/api"
	"github.com/R3E-Network/scoring_service/internal/config"
	"github.com/R3E-Network/scoring_service/internal/httpserver"
	"github.com/R3E-Network/scoring_service/internal/store"
	"github.com/R3E-Network/scoring_service/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	envFile := flag.String("env-file", "", "Path to .env file with environment overrides")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			logger.NewDefault("scoring-server").WithError(err).Error("failed to load env file")
			os.Exit(1)
		}
	} else {
		// Best effort: a .env in the working directory is optional.
		_ = godotenv.Load()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.NewDefault("scoring-server").WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	log := logger.New(cfg.Logging).WithField("component", "scoring-server")

	backend := store.NewRedisBackend(store.RedisConfig{
		Addr:          cfg.Store.Addr,
		DB:            cfg.Store.DB,
		Password:      cfg.Store.Password,
		SocketTimeout: cfg.Store.SocketTimeout.Std(),
	})
	defer backend.Close()

	st := store.New(backend,
		store.WithRetry(cfg.Store.RetryAttempts, cfg.Store.RetryDelay.Std()),
		store.WithLogger(log),
	)

	handler := api.NewHandler(st, api.NewAuthenticator(nil), log)
	router := api.NewRouter(handler, backend, log)

	server := httpserver.New(cfg.Server, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("received signal %s, shutting down", sig)
	case err := <-errCh:
		log.WithError(err).Error("server stopped unexpectedly")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
		os.Exit(1)
	}
	log.Info("server stopped")
}
