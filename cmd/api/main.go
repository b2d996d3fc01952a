package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finla/internal/api"
	"github.com/dvloznov/finla/internal/app"
	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/config"
	"github.com/dvloznov/finla/internal/jobs"
	"github.com/dvloznov/finla/internal/jobs/inmemory"
	"github.com/dvloznov/finla/internal/logger"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", os.Getenv("FINLA_CONFIG"), "Path to the finla config file (or set FINLA_CONFIG env)")
		addr       = flag.String("addr", "", "HTTP listen address, overrides [server] addr")
		dbPath     = flag.String("db", "", "SQLite database path, overrides [storage] path")
	)
	flag.Parse()

	bootLog := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}

	// Initialize logger
	log, err := logger.NewWithOptions(logger.Options{Format: cfg.Log.Format, Level: cfg.Log.Level}, os.Stdout)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Invalid log settings")
	}

	if *configPath == "" {
		log.Info().Msg("No config file given, using defaults and environment")
	}

	ctx := logger.WithContext(context.Background(), log)
	clk := clock.NewReal()

	components, err := app.New(ctx, cfg, clk, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer components.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Export.Queue_Size, cfg.Export.Workers, jobStore, clk, log)

	// Start workers in background to process export jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, jobs.RunnerHandler(components.Exports)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	handler := api.NewRouter(api.Deps{
		Engine:     components.Engine,
		Analytics:  components.Analytics,
		Tracker:    components.Tracker,
		Accounts:   components.Store,
		Goals:      components.Store,
		Clock:      clk,
		Publisher:  jobQueue,
		Jobs:       jobStore,
		Targets:    components.Exports.Targets(),
		CORSOrigin: cfg.Server.Cors_Origin,
	}, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight exports
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
