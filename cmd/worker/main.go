package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finla/internal/app"
	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/config"
	"github.com/dvloznov/finla/internal/jobs"
	"github.com/dvloznov/finla/internal/jobs/inmemory"
	"github.com/dvloznov/finla/internal/logger"
	"github.com/rs/zerolog"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("FINLA_CONFIG"), "Path to the finla config file (or set FINLA_CONFIG env)")
		interval   = flag.Duration("interval", 24*time.Hour, "Time between export rounds")
	)
	flag.Parse()

	bootLog := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log, err := logger.NewWithOptions(logger.Options{Format: cfg.Log.Format, Level: cfg.Log.Level}, os.Stdout)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Invalid log settings")
	}

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	clk := clock.NewReal()
	components, err := app.New(ctx, cfg, clk, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer components.Close()

	targets := components.Exports.Targets()
	if len(targets) == 0 {
		log.Fatal().Msg("No export target configured; set bigquery-project, gcs-bucket or notion-token and notion-database")
	}

	// Initialize job store and queue
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Export.Queue_Size, cfg.Export.Workers, jobStore, clk, log)

	if err := jobQueue.Start(ctx, jobs.RunnerHandler(components.Exports)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Interface("targets", targets).Dur("interval", *interval).Msg("Export worker started")

	enqueueRound(ctx, jobQueue, components, log)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

loop:
	for {
		select {
		case <-ticker.C:
			enqueueRound(ctx, jobQueue, components, log)
		case <-quit:
			break loop
		}
	}

	log.Info().Msg("Shutting down export worker...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer shutdownCancel()

	// Stop the queue and wait for in-flight exports
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	cancel()

	log.Info().Msg("Export worker exited")
}

// enqueueRound publishes one export job per configured target.
func enqueueRound(ctx context.Context, publisher jobs.Publisher, components *app.App, log zerolog.Logger) {
	for _, target := range components.Exports.Targets() {
		job := &jobs.ExportJob{Target: target}
		if err := publisher.PublishExport(ctx, job); err != nil {
			log.Error().Err(err).Str("target", string(target)).Msg("Failed to enqueue export job")
			continue
		}
		log.Debug().Str("job_id", job.JobID).Str("target", string(target)).Msg("Export job enqueued")
	}
}
