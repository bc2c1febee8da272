package report

import (
	"fmt"
	"image/color"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/couchcryptid/flight-delay-etl/internal/forecast"
	"github.com/couchcryptid/flight-delay-etl/internal/model"
)

const maxImportanceBars = 15

var (
	barColor      = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	forecastColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

// classF1Chart draws one bar per class with its F1 score.
func classF1Chart(path string, e model.Evaluation) error {
	p := plot.New()
	p.Title.Text = "Class-wise F1 score"
	p.Y.Label.Text = "F1"
	p.Y.Min, p.Y.Max = 0, 1

	values := plotter.Values{e.Classes[0].F1, e.Classes[1].F1}
	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return errors.Wrap(err, "f1 bars")
	}
	bars.Color = barColor
	p.Add(bars)
	p.NominalX("on time (0)", "delayed (1)")

	return save(p, path, 4*vg.Inch, 3*vg.Inch)
}

type importance struct {
	name  string
	value float64
}

// topImportances returns the n largest importances, ties broken by name.
func topImportances(m map[string]float64, n int) []importance {
	out := make([]importance, 0, len(m))
	for k, v := range m {
		out = append(out, importance{name: k, value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].value != out[j].value {
			return out[i].value > out[j].value
		}
		return out[i].name < out[j].name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func importanceChart(path string, importances map[string]float64) error {
	top := topImportances(importances, maxImportanceBars)
	if len(top) == 0 {
		return errors.New("no feature importances")
	}

	p := plot.New()
	p.Title.Text = "Feature importance"
	p.X.Label.Text = "mean impurity decrease"

	values := make(plotter.Values, len(top))
	names := make([]string, len(top))
	// Horizontal bars are drawn bottom-up; reverse so the largest is on top.
	for i, imp := range top {
		values[len(top)-1-i] = imp.value
		names[len(top)-1-i] = imp.name
	}
	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return errors.Wrap(err, "importance bars")
	}
	bars.Horizontal = true
	bars.Color = barColor
	p.Add(bars)
	p.NominalY(names...)

	return save(p, path, 6*vg.Inch, 5*vg.Inch)
}

// forecastChart plots daily revenue history followed by the forecast.
func forecastChart(path string, r *forecast.Result) error {
	if len(r.History) == 0 && len(r.Forecast) == 0 {
		return errors.New("empty forecast")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Daily revenue forecast (%s)", r.Model)
	p.Y.Label.Text = "revenue"
	p.X.Tick.Marker = plot.TimeTicks{Format: time.DateOnly}

	if len(r.History) > 0 {
		history, err := plotter.NewLine(points(r.History))
		if err != nil {
			return errors.Wrap(err, "history line")
		}
		history.Color = barColor
		p.Add(history)
		p.Legend.Add("history", history)
	}

	if len(r.Forecast) > 0 {
		fc, err := plotter.NewLine(points(r.Forecast))
		if err != nil {
			return errors.Wrap(err, "forecast line")
		}
		fc.Color = forecastColor
		fc.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(fc)
		p.Legend.Add("forecast", fc)
	}
	p.Legend.Top = true

	return save(p, path, 7*vg.Inch, 3.5*vg.Inch)
}

func points(ps []forecast.Point) plotter.XYs {
	xys := make(plotter.XYs, len(ps))
	for i, pt := range ps {
		xys[i].X = float64(pt.Date.Unix())
		xys[i].Y = pt.Value
	}
	return xys
}

func save(p *plot.Plot, path string, w, h vg.Length) error {
	if err := p.Save(w, h, path); err != nil {
		return errors.Wrapf(err, "save chart %s", path)
	}
	return nil
}
