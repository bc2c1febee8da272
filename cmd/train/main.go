// Command train fits the delay classifier from the cleaned flight table,
// persists the artifact and its metadata, forecasts daily revenue and writes
// the training report.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	bqadapter "github.com/couchcryptid/flight-delay-etl/internal/adapter/bigquery"
	"github.com/couchcryptid/flight-delay-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/flight-delay-etl/internal/adapter/gcs"
	"github.com/couchcryptid/flight-delay-etl/internal/config"
	"github.com/couchcryptid/flight-delay-etl/internal/forecast"
	"github.com/couchcryptid/flight-delay-etl/internal/model"
	"github.com/couchcryptid/flight-delay-etl/internal/observability"
	"github.com/couchcryptid/flight-delay-etl/internal/pipeline"
	"github.com/couchcryptid/flight-delay-etl/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	var (
		reader pipeline.TableReader
		opts   = pipeline.TrainOptions{
			CleanedTable:    cfg.CleanedCSV,
			SalesTable:      cfg.SalesCSV,
			ModelPath:       cfg.ModelPath,
			MetadataPath:    cfg.MetadataPath,
			ForecastPath:    cfg.ForecastPath,
			ForecastHorizon: cfg.ForecastHorizonDays,
		}
		trainingData = cfg.CleanedCSV
	)
	switch cfg.TrainingSource {
	case config.SourceBigQuery:
		client, err := bqadapter.NewClient(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		reader = client
		opts.CleanedTable = bqadapter.FlightTable
		opts.SalesTable = bqadapter.SalesTable
		trainingData = fmt.Sprintf("bigquery:%s.%s.%s", cfg.BigQueryProject, cfg.BigQueryDataset, bqadapter.FlightTable)
	default:
		reader = csvfile.NewStore(logger)
	}

	tcfg := model.DefaultTrainerConfig()
	tcfg.SampleFraction = cfg.SampleFraction
	tcfg.Seed = cfg.RandomSeed
	tcfg.DelayThreshold = cfg.DelayThresholdMinutes
	tcfg.Forest.NEstimators = cfg.NEstimators
	tcfg.Forest.MaxDepth = cfg.MaxDepth
	tcfg.TrainingData = trainingData

	var forecaster forecast.Forecaster
	if cfg.ForecastEnabled {
		forecaster = forecast.NewARIMAForecaster()
	} else {
		logger.Warn("revenue forecasting disabled")
	}

	var uploader pipeline.ArtifactUploader
	if cfg.GCSEnabled {
		u, err := gcs.NewUploader(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer u.Close()
		uploader = u
		logger.Info("artifact upload enabled", "bucket", cfg.GCSBucket, "prefix", cfg.GCSPrefix)
	}

	job := pipeline.NewTrainJob(
		reader,
		model.NewTrainer(tcfg, logger),
		forecaster,
		report.NewWriter(cfg.ReportDir, nil, logger),
		uploader,
		opts,
		logger,
		metrics,
	)
	out, err := job.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(out.Result.Evaluation.String())
	logger.Info("training complete",
		"accuracy", out.Result.Evaluation.Accuracy,
		"files", out.Files,
		"duration", out.Result.Duration,
	)
	return nil
}
