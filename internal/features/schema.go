// Package features owns the fixed feature contract shared by training and
// inference: the ordered categorical and numeric columns, their sentinel fill
// values, and the derivation of features and labels from the cleaned table.
package features

import (
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/couchcryptid/flight-delay-etl/internal/domain"
)

// Feature names.
const (
	Airline     = "airline"
	Origin      = "origin"
	Destination = "destination"
	CRSDepHour  = "crs_dep_hour"
	Distance    = "distance"
	DepDelay    = "dep_delay"
	TaxiOut     = "taxi_out"
	Month       = "month"
	DayOfWeek   = "dayofweek"
)

// Sentinels substituted for missing inputs. Training and inference must use
// the same values.
const (
	UnknownCategory = "UNK"
	MissingNumeric  = -1.0
)

// ErrUnknownFeature is returned when an input names a feature outside the schema.
var ErrUnknownFeature = errors.New("unknown feature")

// Schema is an ordered feature contract.
type Schema struct {
	Categorical     []string `json:"categorical"`
	Numeric         []string `json:"numeric"`
	CategoricalFill string   `json:"categorical_fill"`
	NumericFill     float64  `json:"numeric_fill"`
}

// DelaySchema returns the contract of the flight-delay classifier. A fresh
// copy is returned on each call so callers cannot mutate the shared contract.
func DelaySchema() Schema {
	return Schema{
		Categorical:     []string{Airline, Origin, Destination, CRSDepHour},
		Numeric:         []string{Distance, DepDelay, TaxiOut, Month, DayOfWeek},
		CategoricalFill: UnknownCategory,
		NumericFill:     MissingNumeric,
	}
}

// Columns returns the categorical names followed by the numeric names.
func (s Schema) Columns() []string {
	return slices.Concat(s.Categorical, s.Numeric)
}

// Equal reports whether two schemas describe the same contract, including
// column order and sentinels.
func (s Schema) Equal(o Schema) bool {
	return slices.Equal(s.Categorical, o.Categorical) &&
		slices.Equal(s.Numeric, o.Numeric) &&
		s.CategoricalFill == o.CategoricalFill &&
		s.NumericFill == o.NumericFill
}

// Row is a set of named feature values before sentinel filling. Absent keys
// are missing values.
type Row struct {
	Categorical map[string]string
	Numeric     map[string]float64
}

// NewRow returns an empty Row.
func NewRow() Row {
	return Row{Categorical: map[string]string{}, Numeric: map[string]float64{}}
}

// Vector is one model input in schema order with sentinels applied.
type Vector struct {
	Categorical []string  `json:"categorical"`
	Numeric     []float64 `json:"numeric"`
}

// Vectorize orders r by the schema and fills missing values. Keys outside the
// schema are rejected so a renamed column cannot silently become a sentinel.
func (s Schema) Vectorize(r Row) (Vector, error) {
	for name := range r.Categorical {
		if !slices.Contains(s.Categorical, name) {
			return Vector{}, errors.Wrapf(ErrUnknownFeature, "categorical %q", name)
		}
	}
	for name := range r.Numeric {
		if !slices.Contains(s.Numeric, name) {
			return Vector{}, errors.Wrapf(ErrUnknownFeature, "numeric %q", name)
		}
	}

	v := Vector{
		Categorical: make([]string, len(s.Categorical)),
		Numeric:     make([]float64, len(s.Numeric)),
	}
	for i, name := range s.Categorical {
		val, ok := r.Categorical[name]
		if !ok || val == "" {
			val = s.CategoricalFill
		}
		v.Categorical[i] = val
	}
	for i, name := range s.Numeric {
		val, ok := r.Numeric[name]
		if !ok {
			val = s.NumericFill
		}
		v.Numeric[i] = val
	}
	return v, nil
}

// HourBucket renders a scheduled departure time in HHMM form as its hour
// category: 1305 becomes "13", 45 becomes "0".
func HourBucket(hhmm float64) string {
	return strconv.Itoa(int(hhmm) / 100)
}

// CanonicalHour renders an hour category the same way for training rows and
// prediction requests. Integral values lose leading zeros and decimals, so
// "07", "7" and "7.0" all become "7"; other text is kept trimmed. Missing
// cells report false.
func CanonicalHour(raw string) (string, bool) {
	s, ok := domain.CoerceString(raw).Get()
	if !ok {
		return "", false
	}
	if n, ok := domain.CoerceInt(s).Get(); ok {
		return strconv.Itoa(n), true
	}
	return s, true
}
