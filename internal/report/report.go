// Package report renders the training run as a PDF plus PNG charts.
package report

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/flight-delay-etl/internal/forecast"
	"github.com/couchcryptid/flight-delay-etl/internal/model"
)

const stampLayout = "20060102_150405"

// Writer writes timestamped reports into a directory. It implements
// pipeline.Reporter.
type Writer struct {
	dir    string
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a report writer. A nil clock uses real time.
func NewWriter(dir string, clock clockwork.Clock, logger *slog.Logger) *Writer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Writer{dir: dir, clock: clock, logger: logger}
}

// Report writes the charts and the PDF that embeds them, returning every
// file written with the PDF last. A chart that cannot be drawn is skipped;
// only a PDF failure is an error.
func (w *Writer) Report(res *model.TrainResult, fc *forecast.Result) ([]string, error) {
	if res == nil {
		return nil, errors.New("no training result")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create report dir")
	}
	stamp := w.clock.Now().UTC().Format(stampLayout)
	name := func(kind, ext string) string {
		return filepath.Join(w.dir, kind+"_"+stamp+ext)
	}

	var charts []string
	draw := func(path string, fn func(string) error) {
		if err := fn(path); err != nil {
			w.logger.Warn("chart skipped", "path", path, "error", err)
			return
		}
		charts = append(charts, path)
	}

	draw(name("class_f1", ".png"), func(p string) error { return classF1Chart(p, res.Evaluation) })
	if res.Metadata != nil && len(res.Metadata.FeatureImportances) > 0 {
		draw(name("feature_importance", ".png"), func(p string) error {
			return importanceChart(p, res.Metadata.FeatureImportances)
		})
	}
	if fc != nil {
		draw(name("revenue_forecast", ".png"), func(p string) error { return forecastChart(p, fc) })
	}

	pdfPath := name("training_report", ".pdf")
	doc := document{
		title:    "Flight delay model training report",
		result:   res,
		forecast: fc,
		charts:   charts,
	}
	if err := writePDF(pdfPath, doc); err != nil {
		return charts, err
	}
	w.logger.Info("training report written", "path", pdfPath, "charts", len(charts))
	return append(charts, pdfPath), nil
}
