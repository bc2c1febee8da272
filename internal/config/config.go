package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Training input sources.
const (
	SourceCSV      = "csv"
	SourceBigQuery = "bigquery"
)

// Config holds all job and service settings, populated from environment variables.
type Config struct {
	// Input and output files.
	FlightCSV    string
	AirlineCSV   string
	AirportCSV   string
	CleanedCSV   string
	SalesCSV     string
	ModelPath    string
	MetadataPath string
	ForecastPath string
	ReportDir    string

	// Cleaning policy.
	MinDistanceMiles float64
	MissingDelayFill float64

	// Training.
	TrainingSource        string
	SampleFraction        float64
	RandomSeed            uint64
	DelayThresholdMinutes float64
	NEstimators           int
	MaxDepth              int

	ForecastEnabled     bool
	ForecastHorizonDays int

	// Sinks. A sink is enabled when its target is configured.
	UploadChunkSize int

	// UploadMaxAttempts above 1 opts into retrying a failed sink chunk.
	UploadMaxAttempts int

	BigQueryProject  string
	BigQueryDataset  string
	BigQueryEnabled  bool
	KafkaBrokers     []string
	KafkaSinkTopic   string
	KafkaEnabled     bool
	GCSBucket        string
	GCSPrefix        string
	GCSEnabled       bool
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration
	PredictCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	p := &parser{}
	cfg := &Config{
		FlightCSV:    sharedcfg.EnvOrDefault("FLIGHT_CSV", "data/raw/flight.csv"),
		AirlineCSV:   sharedcfg.EnvOrDefault("AIRLINE_CSV", "data/raw/airline.csv"),
		AirportCSV:   sharedcfg.EnvOrDefault("AIRPORT_CSV", "data/raw/airport.csv"),
		CleanedCSV:   sharedcfg.EnvOrDefault("CLEANED_CSV", "data/raw/flight_delay.csv"),
		SalesCSV:     sharedcfg.EnvOrDefault("SALES_CSV", "data/raw/sales_data.csv"),
		ModelPath:    sharedcfg.EnvOrDefault("MODEL_PATH", "models/flight_delay_model.gob"),
		MetadataPath: sharedcfg.EnvOrDefault("METADATA_PATH", "models/model_info.json"),
		ForecastPath: sharedcfg.EnvOrDefault("FORECAST_PATH", "models/revenue_forecast.json"),
		ReportDir:    sharedcfg.EnvOrDefault("REPORT_DIR", "reports"),

		MinDistanceMiles: p.float("MIN_DISTANCE_MILES", 10),
		MissingDelayFill: p.float("MISSING_DELAY_FILL", 0),

		TrainingSource:        sharedcfg.EnvOrDefault("TRAINING_SOURCE", SourceCSV),
		SampleFraction:        p.float("SAMPLE_FRACTION", 0.10),
		RandomSeed:            p.uint("RANDOM_SEED", 42),
		DelayThresholdMinutes: p.float("DELAY_THRESHOLD_MINUTES", 15),
		NEstimators:           p.positiveInt("N_ESTIMATORS", 250),
		MaxDepth:              p.positiveInt("MAX_DEPTH", 18),

		ForecastEnabled:     p.bool("FORECAST_ENABLED", true),
		ForecastHorizonDays: p.positiveInt("FORECAST_HORIZON_DAYS", 30),

		UploadChunkSize:   p.positiveInt("UPLOAD_CHUNK_SIZE", 50000),
		UploadMaxAttempts: p.positiveInt("UPLOAD_MAX_ATTEMPTS", 1),

		BigQueryProject:  os.Getenv("BIGQUERY_PROJECT"),
		BigQueryDataset:  sharedcfg.EnvOrDefault("BIGQUERY_DATASET", "flights"),
		KafkaSinkTopic:   sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "flight-delay-cleaned"),
		GCSBucket:        os.Getenv("GCS_BUCKET"),
		GCSPrefix:        sharedcfg.EnvOrDefault("GCS_PREFIX", "models/"),
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		PredictCacheSize: p.positiveInt("PREDICTION_CACHE_SIZE", 1000),
	}
	if p.err != nil {
		return nil, p.err
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}
	cfg.KafkaEnabled = len(cfg.KafkaBrokers) > 0
	cfg.BigQueryEnabled = cfg.BigQueryProject != ""
	cfg.GCSEnabled = cfg.GCSBucket != ""

	if cfg.SampleFraction <= 0 || cfg.SampleFraction > 1 {
		return nil, errors.New("SAMPLE_FRACTION must be in (0, 1]")
	}
	if cfg.MinDistanceMiles < 0 {
		return nil, errors.New("MIN_DISTANCE_MILES must not be negative")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.BigQueryEnabled && cfg.BigQueryDataset == "" {
		return nil, errors.New("BIGQUERY_DATASET is required when BIGQUERY_PROJECT is set")
	}
	switch cfg.TrainingSource {
	case SourceCSV:
	case SourceBigQuery:
		if !cfg.BigQueryEnabled {
			return nil, errors.New("TRAINING_SOURCE=bigquery requires BIGQUERY_PROJECT")
		}
	default:
		return nil, fmt.Errorf("invalid TRAINING_SOURCE %q", cfg.TrainingSource)
	}

	return cfg, nil
}

// parser keeps the first parse error so Load can read every variable in one
// struct literal.
type parser struct {
	err error
}

func (p *parser) fail(key string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s", key)
	}
}

func (p *parser) float(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.fail(key)
		return def
	}
	return v
}

func (p *parser) uint(key string, def uint64) uint64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		p.fail(key)
		return def
	}
	return v
}

func (p *parser) positiveInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		p.fail(key)
		return def
	}
	return v
}

func (p *parser) bool(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(key)
		return def
	}
	return v
}
