// Package forecast fits a univariate model to daily revenue and projects it
// forward. The forecaster is injected into the training job; a nil forecaster
// disables the step.
package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sartorproj/goarima/autoarima"
	"github.com/sartorproj/goarima/timeseries"
)

// MinHistory is the shortest daily series a model is fitted on.
const MinHistory = 10

var (
	// ErrInsufficientHistory is returned by Fit when the series is shorter
	// than MinHistory.
	ErrInsufficientHistory = errors.New("insufficient history to forecast")
	// ErrNotFitted is returned by Forecast before a successful Fit.
	ErrNotFitted = errors.New("forecaster not fitted")
)

// Point is one observation of a daily series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Forecaster fits a daily series and projects it horizon days past its last
// observation.
type Forecaster interface {
	Name() string
	Fit(ctx context.Context, history []Point) error
	Forecast(horizon int) ([]Point, error)
}

// ARIMAForecaster selects a non-seasonal ARIMA order automatically.
type ARIMAForecaster struct {
	cfg    *autoarima.Config
	result *autoarima.Result
	last   time.Time
}

// NewARIMAForecaster creates a forecaster with small search bounds; daily
// revenue series are short.
func NewARIMAForecaster() *ARIMAForecaster {
	cfg := autoarima.DefaultConfig()
	cfg.MaxP = 3
	cfg.MaxQ = 3
	return &ARIMAForecaster{cfg: cfg}
}

func (f *ARIMAForecaster) Name() string { return "auto-arima" }

// Order reports the selected (p,d,q), or "" before Fit.
func (f *ARIMAForecaster) Order() string {
	if f.result == nil {
		return ""
	}
	return fmt.Sprintf("(%d,%d,%d)", f.result.P, f.result.D, f.result.Q)
}

// Fit runs the order search on the series. Points must be in date order.
func (f *ARIMAForecaster) Fit(ctx context.Context, history []Point) error {
	if len(history) < MinHistory {
		return errors.Wrapf(ErrInsufficientHistory, "%d days, need %d", len(history), MinHistory)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ts := make([]time.Time, len(history))
	vs := make([]float64, len(history))
	for i, p := range history {
		ts[i], vs[i] = p.Date, p.Value
	}
	series, err := timeseries.NewWithTimestamps(ts, vs)
	if err != nil {
		return errors.Wrap(err, "build series")
	}
	series.Name = "revenue"

	res, err := autoarima.AutoARIMA(series, f.cfg)
	if err != nil {
		return errors.Wrap(err, "select arima order")
	}
	if res == nil || (res.Model == nil && res.SeasonalModel == nil) {
		return errors.New("no arima model could be fitted")
	}
	f.result = res
	f.last = history[len(history)-1].Date
	return nil
}

// Forecast returns one point per day after the last fitted observation.
func (f *ARIMAForecaster) Forecast(horizon int) ([]Point, error) {
	if f.result == nil {
		return nil, ErrNotFitted
	}
	if horizon <= 0 {
		return nil, errors.Newf("horizon %d must be positive", horizon)
	}
	values, err := f.result.Predict(horizon)
	if err != nil {
		return nil, errors.Wrap(err, "predict")
	}
	out := make([]Point, len(values))
	for i, v := range values {
		out[i] = Point{Date: f.last.AddDate(0, 0, i+1), Value: v}
	}
	return out, nil
}

// Result is the persisted forecast.
type Result struct {
	Model       string    `json:"model"`
	Order       string    `json:"order,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	History     []Point   `json:"history"`
	Forecast    []Point   `json:"forecast"`
}

// SaveResult writes r as indented JSON, replacing any previous file.
func SaveResult(path string, r Result) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode forecast")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create forecast directory")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec // forecast is not secret
		return errors.Wrap(err, "write forecast")
	}
	return nil
}
