package features

import "strings"

// Input is a single prediction request as submitted by a client. Nil fields
// are missing and receive the schema sentinels.
type Input struct {
	Airline     *string  `json:"airline,omitempty"`
	Origin      *string  `json:"origin,omitempty"`
	Destination *string  `json:"destination,omitempty"`
	CRSDepHour  *string  `json:"crs_dep_hour,omitempty"`
	Distance    *float64 `json:"distance,omitempty"`
	DepDelay    *float64 `json:"dep_delay,omitempty"`
	TaxiOut     *float64 `json:"taxi_out,omitempty"`
	Month       *float64 `json:"month,omitempty"`
	DayOfWeek   *float64 `json:"dayofweek,omitempty"`
}

// Row converts the request into named feature values. Identifier codes are
// upper-cased and trimmed the same way the normalizer treats source data.
func (in Input) Row() Row {
	r := NewRow()
	code := func(name string, v *string) {
		if v == nil {
			return
		}
		if s := strings.ToUpper(strings.TrimSpace(*v)); s != "" {
			r.Categorical[name] = s
		}
	}
	num := func(name string, v *float64) {
		if v != nil {
			r.Numeric[name] = *v
		}
	}

	code(Origin, in.Origin)
	code(Destination, in.Destination)
	if in.Airline != nil {
		if s := strings.TrimSpace(*in.Airline); s != "" {
			r.Categorical[Airline] = s
		}
	}
	if in.CRSDepHour != nil {
		if s, ok := CanonicalHour(*in.CRSDepHour); ok {
			r.Categorical[CRSDepHour] = s
		}
	}

	num(Distance, in.Distance)
	num(DepDelay, in.DepDelay)
	num(TaxiOut, in.TaxiOut)
	num(Month, in.Month)
	num(DayOfWeek, in.DayOfWeek)
	return r
}
