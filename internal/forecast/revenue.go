package forecast

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/couchcryptid/flight-delay-etl/internal/domain"
)

var (
	dateColumns    = []string{"flight_date", "FlightDate", "date"}
	revenueColumns = []string{"revenue", "Revenue"}
)

// DailyRevenue sums revenue per flight date. Days between the first and
// last date with no sales are filled with zero so the series is regular.
// Rows without a date are ignored.
func DailyRevenue(rows []domain.SalesRow) []Point {
	totals := map[time.Time]float64{}
	for _, r := range rows {
		d, ok := r.FlightDate.Get()
		if !ok {
			continue
		}
		totals[domain.DateOnly(d)] += r.Revenue
	}
	return fill(totals)
}

// DailyRevenueFromTable is DailyRevenue over a sales table read back from a
// file or warehouse. Column names are matched loosely.
func DailyRevenueFromTable(t domain.Table) ([]Point, error) {
	t = t.StripColumnNames()
	dateCol, ok := t.FindColumn(dateColumns...)
	if !ok {
		return nil, errors.Newf("no date column among %v", dateColumns)
	}
	revCol, ok := t.FindColumn(revenueColumns...)
	if !ok {
		return nil, errors.Newf("no revenue column among %v", revenueColumns)
	}
	date, revenue := t.Column(dateCol), t.Column(revCol)

	totals := map[time.Time]float64{}
	for _, rec := range t.Rows {
		d, ok := domain.CoerceDate(date(rec)).Get()
		if !ok {
			continue
		}
		v, ok := domain.CoerceFloat(revenue(rec)).Get()
		if !ok {
			continue
		}
		totals[d] += v
	}
	return fill(totals), nil
}

func fill(totals map[time.Time]float64) []Point {
	if len(totals) == 0 {
		return nil
	}
	var first, last time.Time
	for d := range totals {
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	var out []Point
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, Point{Date: d, Value: totals[d]})
	}
	return out
}
