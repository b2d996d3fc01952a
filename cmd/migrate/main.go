package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/dvloznov/finla/internal/config"
	bqexport "github.com/dvloznov/finla/internal/export/bigquery"
	"github.com/dvloznov/finla/internal/logger"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("FINLA_CONFIG"), "Path to the finla config file (or set FINLA_CONFIG env)")
		projectID  = flag.String("project", "", "GCP project ID, overrides [export] bigquery-project")
		datasetID  = flag.String("dataset", "", "BigQuery dataset ID, overrides [export] bigquery-dataset")
		tableID    = flag.String("table", "", "Export table name, overrides [export] bigquery-table")
		appliedBy  = flag.String("applied-by", "finla-migrate", "Name of the tool applying migrations")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *projectID != "" {
		cfg.Export.BigQuery_Project = *projectID
	}
	if *datasetID != "" {
		cfg.Export.BigQuery_Dataset = *datasetID
	}
	if *tableID != "" {
		cfg.Export.BigQuery_Table = *tableID
	}
	if cfg.Export.BigQuery_Project == "" {
		log.Fatal().Msg("Error: -project flag or [export] bigquery-project is required")
	}

	log = log.With().
		Str("project", cfg.Export.BigQuery_Project).
		Str("dataset", cfg.Export.BigQuery_Dataset).
		Logger()

	migrations, err := bqexport.ReadMigrations(bqexport.Migrations, "migrations", bqexport.Placeholders{
		ProjectID: cfg.Export.BigQuery_Project,
		DatasetID: cfg.Export.BigQuery_Dataset,
		TableID:   cfg.Export.BigQuery_Table,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Msg("Found migrations")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	migrator, err := bqexport.NewMigrator(ctx, cfg.Export.BigQuery_Project, cfg.Export.BigQuery_Dataset, *appliedBy, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer migrator.Close()

	applied, err := migrator.Run(ctx, migrations)
	if err != nil {
		log.Fatal().Err(err).Int("applied", applied).Msg("Migration failed")
	}

	if applied == 0 {
		log.Info().Msg("No new migrations to apply. Dataset is up to date.")
	} else {
		log.Info().Int("applied", applied).Msg("Migrations applied")
	}
}
