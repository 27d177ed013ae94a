package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pragyanetra/console/internal/cache"
	"github.com/pragyanetra/console/internal/config"
	"github.com/pragyanetra/console/internal/database"
	"github.com/pragyanetra/console/internal/enrich"
	"github.com/pragyanetra/console/internal/logging"
	"github.com/pragyanetra/console/internal/monitoring"
	"github.com/pragyanetra/console/internal/publish"
	"github.com/pragyanetra/console/internal/server"
	"github.com/pragyanetra/console/internal/wallet"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logging
	logging.Setup(&cfg.Logging, cfg.Server.Env)

	log.Info().
		Str("env", cfg.Server.Env).
		Str("name", cfg.Server.Name).
		Str("chain", cfg.Chain.Name).
		Msg("Starting publication console")

	// Initialize database connection
	db, err := database.New(context.Background(), &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	// Redis backs the metadata cache. The console degrades without it.
	redisCache, err := cache.New(cfg.Redis.URL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, metadata caching disabled")
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	// Initialize Prometheus metrics
	monitoring.Init()
	log.Info().Msg("Prometheus metrics initialized")

	// Start metrics server if enabled
	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(cfg.Monitoring.PrometheusPort)
	}

	// The wallet bridge speaks EIP-1193 over JSON-RPC. Absent bridge means
	// no wallet installed; paid operations will say so.
	var walletProvider wallet.Provider
	if cfg.Chain.WalletBridgeURL != "" {
		walletProvider = wallet.NewRPCClient(cfg.Chain.WalletBridgeURL)
	} else {
		log.Warn().Msg("No wallet bridge configured, paid operations unavailable")
	}

	var enricher publish.Resolver
	e, err := enrich.NewEnricher(&cfg.YouTube, redisCache)
	if err != nil {
		log.Warn().Err(err).Msg("Video metadata enrichment disabled")
		enricher = enrich.Passthrough{}
	} else {
		enricher = e
	}

	// Create and start server
	srv := server.NewAPIServer(cfg, db.Pool, redisCache, walletProvider, enricher)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Msg("Console API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().
		Str("signal", sig.String()).
		Msg("Shutdown signal received, gracefully shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())

	metricsServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info().
		Int("port", port).
		Msg("Prometheus metrics server listening")

	if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Metrics server error")
	}
}
