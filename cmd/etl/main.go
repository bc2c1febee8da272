package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	bqadapter "github.com/couchcryptid/flight-delay-etl/internal/adapter/bigquery"
	"github.com/couchcryptid/flight-delay-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/flight-delay-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/flight-delay-etl/internal/adapter/kafka"
	"github.com/couchcryptid/flight-delay-etl/internal/config"
	"github.com/couchcryptid/flight-delay-etl/internal/domain"
	"github.com/couchcryptid/flight-delay-etl/internal/observability"
	"github.com/couchcryptid/flight-delay-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := csvfile.NewStore(logger)
	policy := domain.CleanPolicy{
		MinDistance:      cfg.MinDistanceMiles,
		MissingDelayFill: cfg.MissingDelayFill,
	}
	p := pipeline.New(store, pipeline.NewTransformer(policy, logger), store, pipeline.Options{
		Paths: pipeline.Paths{
			Flights:  cfg.FlightCSV,
			Airlines: cfg.AirlineCSV,
			Airports: cfg.AirportCSV,
			Cleaned:  cfg.CleanedCSV,
			Sales:    cfg.SalesCSV,
		},
		ChunkSize:   cfg.UploadChunkSize,
		MaxAttempts: cfg.UploadMaxAttempts,
	}, logger, metrics)

	// Optional sinks (enabled via BIGQUERY_PROJECT / KAFKA_BROKERS).
	var closers []func() error
	if cfg.BigQueryEnabled {
		client, err := bqadapter.NewClient(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to create bigquery client", "error", err)
			os.Exit(1)
		}
		closers = append(closers, client.Close)
		p.AddSink("bigquery", bqadapter.NewFlightLoader(client))
		p.AddSalesLoader(bqadapter.NewSalesLoader(client, cfg.UploadChunkSize))
		logger.Info("bigquery sink enabled", "project", cfg.BigQueryProject, "dataset", cfg.BigQueryDataset)
	}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		closers = append(closers, writer.Close)
		p.AddSink("kafka", writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, nil, metrics, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	res, runErr := p.Run(ctx)
	if runErr != nil {
		logger.Error("pipeline error", "error", runErr)
	} else {
		logger.Info("etl run complete",
			"report", res.Report,
			"sales_rows", res.Sales,
			"loaded", res.Loaded,
			"duration", res.Duration,
		)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}

	if runErr != nil {
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
