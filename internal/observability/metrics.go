package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flight_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// batch jobs and the prediction service.
type Metrics struct {
	RowsRead        *prometheus.CounterVec // labels: source={flight,airline,airport}
	RowsCleaned     prometheus.Counter
	RowsDropped     *prometheus.CounterVec // labels: reason={flight_date,identifiers,distance}
	RowsMissing     *prometheus.CounterVec // labels: field={dep_delay,arr_delay,flight_date}
	RowsLoaded      *prometheus.CounterVec // labels: sink={csv,bigquery,kafka}
	LoadErrors      *prometheus.CounterVec // labels: sink
	PipelineRunning prometheus.Gauge

	// Batch job metrics.
	StageDuration *prometheus.HistogramVec // labels: stage={extract,transform,load,train,forecast}

	// Model metrics.
	ModelAccuracy prometheus.Gauge
	ModelLoaded   prometheus.Gauge
	Predictions   *prometheus.CounterVec // labels: outcome={delayed,on_time,error}
	PredictCache  *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.RowsRead,
		m.RowsCleaned,
		m.RowsDropped,
		m.RowsMissing,
		m.RowsLoaded,
		m.LoadErrors,
		m.PipelineRunning,
		m.StageDuration,
		m.ModelAccuracy,
		m.ModelLoaded,
		m.Predictions,
		m.PredictCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		RowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      help("Rows read from each raw input table."),
		}, []string{"source"}),
		RowsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_cleaned_total",
			Help:      help("Rows that passed cleaning."),
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      help("Rows removed by the cleaner, by reason."),
		}, []string{"reason"}),
		RowsMissing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_missing_total",
			Help:      help("Rows entering the cleaner without a value, by field."),
		}, []string{"field"}),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      help("Cleaned rows written to each sink."),
		}, []string{"sink"}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      help("Chunk writes that failed, by sink."),
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 while a batch job is running, 0 otherwise."),
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      help("Duration of each batch stage."),
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		}, []string{"stage"}),
		ModelAccuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_accuracy",
			Help:      help("Held-out accuracy of the last trained model."),
		}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      help("1 when the prediction service has a model loaded."),
		}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      help("Prediction requests by outcome."),
		}, []string{"outcome"}),
		PredictCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_cache_total",
			Help:      help("Prediction cache lookups by result."),
		}, []string{"result"}),
	}
}
