package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jung-kurt/gofpdf"

	"github.com/couchcryptid/flight-delay-etl/internal/forecast"
	"github.com/couchcryptid/flight-delay-etl/internal/model"
)

const (
	pageMargin = 15.0
	lineHeight = 4.5
	chartWidth = 150.0
)

// document holds everything rendered into one training report.
type document struct {
	title    string
	result   *model.TrainResult
	forecast *forecast.Result
	charts   []string
}

func writePDF(path string, d document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetTitle(d.title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, d.title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	heading(pdf, "Model")
	summary := d.result.Metadata.Summary()
	rows := [][2]string{
		{"Model", summary.ModelName},
		{"Algorithm", summary.Algorithm},
		{"Target", summary.Target},
		{"Accuracy", summary.Accuracy},
		{"Training data", summary.TrainingData},
		{"Last trained", summary.LastTrained},
		{"Run ID", summary.RunID},
	}
	if m := d.result.Metadata; m != nil {
		rows = append(rows,
			[2]string{"Rows trained / tested", fmt.Sprintf("%d / %d", m.RowsTrained, m.RowsTested)},
			[2]string{"Delay threshold", fmt.Sprintf("> %g min", m.DelayThreshold)},
		)
	}
	rows = append(rows,
		[2]string{"Delayed share", fmt.Sprintf("%.3f (test %.3f)", d.result.Prevalence, d.result.TestPrevalence)},
		[2]string{"Training time", d.result.Duration.Round(time.Millisecond).String()},
	)
	keyValues(pdf, rows)
	if len(summary.Features) > 0 {
		keyValues(pdf, [][2]string{{"Features", strings.Join(summary.Features, ", ")}})
	}

	heading(pdf, "Classification report")
	pdf.SetFont("Courier", "", 9)
	pdf.MultiCell(0, lineHeight, d.result.Evaluation.String(), "", "L", false)

	if d.forecast != nil {
		heading(pdf, "Revenue forecast")
		keyValues(pdf, forecastRows(d.forecast))
	}

	for _, chart := range d.charts {
		pdf.AddPage()
		pdf.ImageOptions(chart, pageMargin, pageMargin, chartWidth, 0, false,
			gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}, 0, "")
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return errors.Wrapf(err, "write report %s", path)
	}
	return nil
}

func heading(pdf *gofpdf.Fpdf, text string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, text, "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func keyValues(pdf *gofpdf.Fpdf, rows [][2]string) {
	for _, kv := range rows {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(45, lineHeight, kv[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, lineHeight, kv[1], "", "L", false)
	}
}

func forecastRows(r *forecast.Result) [][2]string {
	rows := [][2]string{{"Model", r.Model}}
	if r.Order != "" {
		rows = append(rows, [2]string{"Order", r.Order})
	}
	rows = append(rows, [2]string{"History", fmt.Sprintf("%d days", len(r.History))})
	if n := len(r.Forecast); n > 0 {
		total := 0.0
		for _, p := range r.Forecast {
			total += p.Value
		}
		first, last := r.Forecast[0].Date, r.Forecast[n-1].Date
		rows = append(rows,
			[2]string{"Horizon", fmt.Sprintf("%s to %s", first.Format(time.DateOnly), last.Format(time.DateOnly))},
			[2]string{"Forecast revenue", fmt.Sprintf("%.2f", total)},
		)
	}
	return rows
}
