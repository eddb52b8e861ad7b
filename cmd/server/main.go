// Package main is the entry point for the QuantDesk analytics server.
// The service exposes REST endpoints for strategy backtesting, portfolio
// composition, correlation analysis, option pricing and delta-hedging
// simulation. All computation happens per request; nothing persists.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/quantdesk/internal/config"
	"github.com/aristath/quantdesk/internal/marketdata"
	"github.com/aristath/quantdesk/internal/modules/correlation"
	"github.com/aristath/quantdesk/internal/modules/options"
	"github.com/aristath/quantdesk/internal/modules/portfolio"
	"github.com/aristath/quantdesk/internal/modules/strategies"
	"github.com/aristath/quantdesk/internal/server"
	"github.com/aristath/quantdesk/pkg/logger"
)

func main() {
	// Load configuration from environment variables (.env file).
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting QuantDesk")

	// Market data: Yahoo Finance behind a TTL cache.
	cache := marketdata.NewCache(cfg.PriceCacheTTL)
	yahooClient := marketdata.NewYahooClient(log)
	provider := marketdata.NewProvider(yahooClient, cache, cfg.FallbackPeriod, log)

	// Analysis engines.
	evaluator := strategies.NewEvaluator(cfg.RiskFreeRate, log)
	compositor := portfolio.NewCompositor(cfg.RiskFreeRate, log)
	correlationEngine := correlation.NewEngine(log)
	simulator := options.NewSimulator(cfg.SimulationWorkers, log)

	srv := server.New(server.Deps{
		Log:         log,
		Config:      cfg,
		Provider:    provider,
		Cache:       cache,
		Evaluator:   evaluator,
		Compositor:  compositor,
		Correlation: correlationEngine,
		Simulator:   simulator,
	})

	// Start server in goroutine so shutdown signals can be handled below.
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// In-flight hedging simulations get a grace period to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
