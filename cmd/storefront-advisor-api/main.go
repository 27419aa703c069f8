// Package main provides the Storefront Advisor API server entrypoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/advisor"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/config"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/observability"
)

func main() {
	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(cfg.Observability.MetricsNamespace)
	}

	rt, err := advisor.NewFromConfig(cfg, logger, metrics)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize advisor")
	}
	defer rt.Close()

	logger.Info().
		Str("addr", cfg.ListenAddr()).
		Bool("catalog", rt.CatalogConfigured).
		Bool("recommender", rt.RecommenderConfigured).
		Str("locale", cfg.Recommendation.Locale).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting Storefront Advisor API")

	router := NewRouter(logger, metrics, rt.Advisor, AppConfig{
		RequestTimeout: cfg.Server.WriteTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MetricsEnabled: cfg.Observability.MetricsEnabled,
		Endpoint:       rt.Endpoint,
		Domain:         cfg.Storefront.Domain,
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt or error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server error")
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
