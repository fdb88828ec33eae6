package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"credit-dashboard/internal/artifact"
	"credit-dashboard/internal/cfg"
	"credit-dashboard/internal/dataset"
	"credit-dashboard/internal/metrics"
	"credit-dashboard/internal/server"
	"credit-dashboard/internal/storage"
)

func main() {
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	// Setup logging
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// A missing .env file is fine; environment variables still apply.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	table, err := dataset.Load(c.DatasetPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", c.DatasetPath).Msg("dataset load failed")
	}

	// Model artifacts load lazily on the first analysis; a broken bundle
	// leaves remote scoring as the only prediction source.
	artifacts := artifact.NewCache(c.PipelinePath, c.ExplainerPath, c.PersistRebuilt)

	startMetricsServer(ctx, c)

	srv := server.New(c, table, artifacts, store, m)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("dashboard server failed to start")
	}

	waitForShutdown(ctx, cancel)

	if err := srv.Stop(); err != nil {
		log.Error().Err(err).Msg("dashboard server shutdown failed")
	}
}

// initializeStorage initializes analysis history storage if DATA_PATH is
// configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath != "" {
		store, err := storage.New(c.DataPath)
		if err != nil {
			log.Warn().Err(err).Msg("storage initialization failed, continuing without history persistence")
			return nil
		}
		return store
	}
	return nil
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()

		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := srv.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// waitForShutdown blocks until an interrupt or termination signal arrives.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-ctx.Done():
	}
	cancel()
}
