package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Flags override env vars
	port := flag.String("port", cfg.Server.Port, "Server port")
	upstreamURL := flag.String("upstream", cfg.Upstream.BaseURL, "Content API base URL")
	catalogPath := flag.String("catalog", cfg.Catalog.Path, "Service catalog file (yaml, toml or json)")
	concurrency := flag.Int("concurrency", cfg.Pricing.MaxConcurrency, "Maximum concurrent source fetches (0 = unlimited)")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (colored logs, debug level)")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Upstream.BaseURL = *upstreamURL
	cfg.Catalog.Path = *catalogPath
	cfg.Pricing.MaxConcurrency = *concurrency
	cfg.Logging.Development = *dev
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.ConfigFor(cfg.Logging.Level, cfg.Logging.Development))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	decimal.MarshalJSONWithoutQuotes = true

	logger.Info("AgencySite pricing service",
		zap.String("addr", cfg.Server.Addr()),
		zap.Bool("dev", cfg.Logging.Development),
	)

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}
	defer func() { _ = srv.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
			_ = srv.Close()
			os.Exit(1)
		}
	}
}
