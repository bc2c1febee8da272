package features

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/couchcryptid/flight-delay-etl/internal/domain"
)

// DefaultDelayThreshold is the arrival delay, in minutes, above which a flight
// counts as delayed.
const DefaultDelayThreshold = 15.0

// ErrLabelUnavailable is returned when the training input carries no usable
// arrival delay, so no label can be derived.
var ErrLabelUnavailable = errors.New("label unavailable: no arrival delay data")

// Alternate column names accepted by the builder, for tables not produced by
// the cleaner.
var (
	hourColumns      = []string{CRSDepHour}
	depTimeColumns   = []string{domain.FieldCRSDepTime, "CRSDepTime"}
	arrDelayColumns  = []string{domain.FieldArrDelay}
	flightDateColumn = []string{domain.FieldFlightDate, "FlightDate"}
)

// Dataset is a labeled feature matrix.
type Dataset struct {
	Schema Schema
	Rows   []Vector
	Labels []int

	// Skipped counts input rows dropped because arr_delay was not numeric.
	Skipped int
}

// Len returns the number of labeled rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Positives returns the number of rows labeled 1.
func (d *Dataset) Positives() int {
	n := 0
	for _, y := range d.Labels {
		n += y
	}
	return n
}

// Subset returns the rows at the given indices, in that order.
func (d *Dataset) Subset(idx []int) *Dataset {
	out := &Dataset{
		Schema: d.Schema,
		Rows:   make([]Vector, len(idx)),
		Labels: make([]int, len(idx)),
	}
	for i, j := range idx {
		out.Rows[i] = d.Rows[j]
		out.Labels[i] = d.Labels[j]
	}
	return out
}

// Label derives the binary target: 1 when the arrival delay is strictly
// greater than threshold.
func Label(arrDelay, threshold float64) int {
	if arrDelay > threshold {
		return 1
	}
	return 0
}

// BuildDataset derives features and labels from a cleaned flight table. Rows
// whose arr_delay is missing or unparseable are skipped. A table with no
// arr_delay column, or with no row left after skipping, fails with
// ErrLabelUnavailable rather than training on defaults.
func BuildDataset(t domain.Table, s Schema, threshold float64) (*Dataset, error) {
	t = t.StripColumnNames()

	arrCol, ok := t.FindColumn(arrDelayColumns...)
	if !ok {
		return nil, errors.Wrapf(ErrLabelUnavailable, "column %q not found in %v", domain.FieldArrDelay, t.Columns)
	}
	arrDelay := t.Column(arrCol)
	ex := newExtractor(t)

	ds := &Dataset{Schema: s}
	for _, rec := range t.Rows {
		delay, ok := domain.CoerceFloat(arrDelay(rec)).Get()
		if !ok {
			ds.Skipped++
			continue
		}
		v, err := s.Vectorize(ex.row(rec))
		if err != nil {
			return nil, errors.Wrap(err, "vectorize training row")
		}
		ds.Rows = append(ds.Rows, v)
		ds.Labels = append(ds.Labels, Label(delay, threshold))
	}

	if ds.Len() == 0 {
		return nil, errors.Wrapf(ErrLabelUnavailable, "all %d rows lack a numeric arr_delay", len(t.Rows))
	}
	return ds, nil
}

// extractor resolves column accessors once per table.
type extractor struct {
	airline, origin, destination func([]string) string
	hour, depTime                func([]string) string
	hasHour, hasDepTime          bool
	distance, depDelay, taxiOut  func([]string) string
	flightDate                   func([]string) string
}

func newExtractor(t domain.Table) *extractor {
	col := func(candidates ...string) (func([]string) string, bool) {
		name, ok := t.FindColumn(candidates...)
		return t.Column(name), ok
	}
	ex := &extractor{}
	ex.airline, _ = col(domain.FieldAirline)
	ex.origin, _ = col(domain.FieldOrigin)
	ex.destination, _ = col(domain.FieldDestination)
	ex.hour, ex.hasHour = col(hourColumns...)
	ex.depTime, ex.hasDepTime = col(depTimeColumns...)
	ex.distance, _ = col(domain.FieldDistance)
	ex.depDelay, _ = col(domain.FieldDepDelay)
	ex.taxiOut, _ = col(domain.FieldTaxiOut)
	ex.flightDate, _ = col(flightDateColumn...)
	return ex
}

func (ex *extractor) row(rec []string) Row {
	r := NewRow()

	setCat := func(name, raw string) {
		if v, ok := domain.CoerceString(raw).Get(); ok {
			r.Categorical[name] = v
		}
	}
	setNum := func(name string, o domain.Optional[float64]) {
		if v, ok := o.Get(); ok {
			r.Numeric[name] = v
		}
	}

	setCat(Airline, ex.airline(rec))
	setCat(Origin, ex.origin(rec))
	setCat(Destination, ex.destination(rec))
	if hour, ok := ex.hourOf(rec); ok {
		r.Categorical[CRSDepHour] = hour
	}

	setNum(Distance, domain.CoerceFloat(ex.distance(rec)))
	setNum(DepDelay, domain.CoerceFloat(ex.depDelay(rec)))
	setNum(TaxiOut, domain.CoerceFloat(ex.taxiOut(rec)))
	if d, ok := domain.CoerceDate(ex.flightDate(rec)).Get(); ok {
		r.Numeric[Month] = float64(d.Month())
		r.Numeric[DayOfWeek] = float64(weekdayMondayFirst(d))
	}
	return r
}

// hourOf prefers an explicit hour column and falls back to the HHMM departure
// time.
func (ex *extractor) hourOf(rec []string) (string, bool) {
	if ex.hasHour {
		return CanonicalHour(ex.hour(rec))
	}
	if ex.hasDepTime {
		if v, ok := domain.CoerceFloat(ex.depTime(rec)).Get(); ok {
			return HourBucket(v), true
		}
	}
	return "", false
}

// weekdayMondayFirst numbers days Monday=0 through Sunday=6.
func weekdayMondayFirst(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
