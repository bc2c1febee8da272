package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/raw/flight.csv", cfg.FlightCSV)
	assert.Equal(t, "data/raw/airline.csv", cfg.AirlineCSV)
	assert.Equal(t, "data/raw/airport.csv", cfg.AirportCSV)
	assert.Equal(t, "data/raw/flight_delay.csv", cfg.CleanedCSV)
	assert.Equal(t, "models/flight_delay_model.gob", cfg.ModelPath)
	assert.Equal(t, "models/model_info.json", cfg.MetadataPath)
	assert.InDelta(t, 10.0, cfg.MinDistanceMiles, 0)
	assert.InDelta(t, 0.0, cfg.MissingDelayFill, 0)
	assert.Equal(t, SourceCSV, cfg.TrainingSource)
	assert.InDelta(t, 0.10, cfg.SampleFraction, 0)
	assert.Equal(t, uint64(42), cfg.RandomSeed)
	assert.InDelta(t, 15.0, cfg.DelayThresholdMinutes, 0)
	assert.Equal(t, 250, cfg.NEstimators)
	assert.Equal(t, 18, cfg.MaxDepth)
	assert.True(t, cfg.ForecastEnabled)
	assert.Equal(t, 30, cfg.ForecastHorizonDays)
	assert.Equal(t, 50000, cfg.UploadChunkSize)
	assert.Equal(t, 1, cfg.UploadMaxAttempts)
	assert.False(t, cfg.BigQueryEnabled)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.GCSEnabled)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 1000, cfg.PredictCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("FLIGHT_CSV", "/in/flights.csv")
	t.Setenv("CLEANED_CSV", "/out/clean.csv")
	t.Setenv("MODEL_PATH", "/m/model.gob")
	t.Setenv("MIN_DISTANCE_MILES", "25")
	t.Setenv("MISSING_DELAY_FILL", "-1")
	t.Setenv("SAMPLE_FRACTION", "1")
	t.Setenv("RANDOM_SEED", "7")
	t.Setenv("DELAY_THRESHOLD_MINUTES", "30")
	t.Setenv("N_ESTIMATORS", "50")
	t.Setenv("MAX_DEPTH", "8")
	t.Setenv("FORECAST_ENABLED", "false")
	t.Setenv("UPLOAD_CHUNK_SIZE", "1000")
	t.Setenv("BIGQUERY_PROJECT", "proj")
	t.Setenv("BIGQUERY_DATASET", "ds")
	t.Setenv("TRAINING_SOURCE", "bigquery")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("GCS_BUCKET", "artifacts")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("PREDICTION_CACHE_SIZE", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/in/flights.csv", cfg.FlightCSV)
	assert.Equal(t, "/out/clean.csv", cfg.CleanedCSV)
	assert.Equal(t, "/m/model.gob", cfg.ModelPath)
	assert.InDelta(t, 25.0, cfg.MinDistanceMiles, 0)
	assert.InDelta(t, -1.0, cfg.MissingDelayFill, 0)
	assert.InDelta(t, 1.0, cfg.SampleFraction, 0)
	assert.Equal(t, uint64(7), cfg.RandomSeed)
	assert.InDelta(t, 30.0, cfg.DelayThresholdMinutes, 0)
	assert.Equal(t, 50, cfg.NEstimators)
	assert.Equal(t, 8, cfg.MaxDepth)
	assert.False(t, cfg.ForecastEnabled)
	assert.Equal(t, 1000, cfg.UploadChunkSize)
	assert.True(t, cfg.BigQueryEnabled)
	assert.Equal(t, "ds", cfg.BigQueryDataset)
	assert.Equal(t, SourceBigQuery, cfg.TrainingSource)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.True(t, cfg.GCSEnabled)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 10, cfg.PredictCacheSize)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"SAMPLE_FRACTION", "abc"},
		{"SAMPLE_FRACTION", "0"},
		{"SAMPLE_FRACTION", "1.5"},
		{"SAMPLE_FRACTION", "NaN"},
		{"SAMPLE_FRACTION", "+Inf"},
		{"DELAY_THRESHOLD_MINUTES", "NaN"},
		{"MISSING_DELAY_FILL", "-Inf"},
		{"MIN_DISTANCE_MILES", "nan"},
		{"RANDOM_SEED", "-3"},
		{"MIN_DISTANCE_MILES", "-1"},
		{"N_ESTIMATORS", "0"},
		{"MAX_DEPTH", "deep"},
		{"FORECAST_ENABLED", "maybe"},
		{"UPLOAD_CHUNK_SIZE", "-5"},
		{"PREDICTION_CACHE_SIZE", "0"},
		{"TRAINING_SOURCE", "parquet"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_BigQuerySourceRequiresProject(t *testing.T) {
	t.Setenv("TRAINING_SOURCE", "bigquery")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BIGQUERY_PROJECT")
}

func TestLoad_KafkaBrokersEnableSink(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, "flight-delay-cleaned", cfg.KafkaSinkTopic)
}
