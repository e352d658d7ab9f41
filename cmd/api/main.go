// Command api is the Rankboard API server. It serves the live scoreboard and,
// when RIOT_API_KEY is set, drives the poller for the active session.
//
// Usage:
//
//	rankboard-api
//	API_PORT=8080 rankboard-api

// @title Rankboard API
// @version 1.0.0
// @description Live 5v5 ranked-match session tracker: session state, rosters, team standings and the latest match announcement.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Rankboard
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/rankboard/internal/api"
	"github.com/albapepper/rankboard/internal/api/handler"
	"github.com/albapepper/rankboard/internal/app"
	"github.com/albapepper/rankboard/internal/config"
	"github.com/albapepper/rankboard/internal/listener"
	"github.com/albapepper/rankboard/internal/maintenance"

	_ "github.com/albapepper/rankboard/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger.Info("Connecting to database...")
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Announcements recorded by any process reach this process's slot
	go listener.Start(ctx, cfg.DatabaseURL, a.Store, a.Slot, logger)

	mcfg := maintenance.DefaultConfig()
	mcfg.TickInterval = cfg.TickInterval
	var ticker maintenance.Ticker
	if cfg.RiotAPIKey != "" {
		ticker = a.Poller
	} else {
		logger.Info("Poller disabled (no RIOT_API_KEY)")
	}
	go maintenance.Start(ctx, ticker, a.Store, mcfg, logger)

	router := api.NewRouter(handler.Deps{
		Sessions:      a.Sessions,
		Boards:        a.Standings,
		Notifications: a.Slot,
		DB:            a.Store,
		Cache:         a.Cache,
	}, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting Rankboard API",
			"addr", addr,
			"environment", cfg.Environment,
			"queue", config.QueueName(cfg.QualifyingQueueID),
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
