package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"
)

// Default cleaning thresholds.
const (
	DefaultMinDistanceMiles = 10.0
	DefaultMissingDelayFill = 0.0
)

// CleanPolicy holds the cleaning thresholds. Changing them changes what the
// model learns, so the defaults mirror the historical pipeline.
type CleanPolicy struct {
	// MinDistance is the shortest leg, in miles, kept in the output.
	MinDistance float64
	// MissingDelayFill replaces absent delay durations ("missing means on-time").
	MissingDelayFill float64
}

// DefaultCleanPolicy returns the historical thresholds.
func DefaultCleanPolicy() CleanPolicy {
	return CleanPolicy{
		MinDistance:      DefaultMinDistanceMiles,
		MissingDelayFill: DefaultMissingDelayFill,
	}
}

// CleanReport counts what happened to the rows during cleaning. The Missing*
// counts are taken before any row is dropped.
type CleanReport struct {
	Input int `json:"input"`

	MissingDepDelay   int `json:"missing_dep_delay"`
	MissingArrDelay   int `json:"missing_arr_delay"`
	MissingFlightDate int `json:"missing_flight_date"`

	DroppedFlightDate  int `json:"dropped_flight_date"`
	DroppedIdentifiers int `json:"dropped_identifiers"`
	DroppedDistance    int `json:"dropped_distance"`

	Output int `json:"output"`
}

// Dropped returns the total number of rows removed.
func (r CleanReport) Dropped() int {
	return r.DroppedFlightDate + r.DroppedIdentifiers + r.DroppedDistance
}

// LogValue renders the report as a single structured log group.
func (r CleanReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("input", r.Input),
		slog.Int("missing_dep_delay", r.MissingDepDelay),
		slog.Int("missing_arr_delay", r.MissingArrDelay),
		slog.Int("missing_flight_date", r.MissingFlightDate),
		slog.Int("dropped_flight_date", r.DroppedFlightDate),
		slog.Int("dropped_identifiers", r.DroppedIdentifiers),
		slog.Int("dropped_distance", r.DroppedDistance),
		slog.Int("output", r.Output),
	)
}

// Clean turns enriched rows into persisted rows. Rows without a flight date,
// airline, origin or destination are dropped, as are rows whose distance is
// missing or below the policy minimum. Every other row survives with delay
// fields filled and flags forced to 0 or 1.
func Clean(rows []EnrichedFlightRow, p CleanPolicy) ([]CleanedFlightRow, CleanReport) {
	report := CleanReport{Input: len(rows)}
	out := make([]CleanedFlightRow, 0, len(rows))

	for i := range rows {
		r := &rows[i]
		if !r.DepartureDelay.Valid {
			report.MissingDepDelay++
		}
		if !r.ArrivalDelay.Valid {
			report.MissingArrDelay++
		}
		if !r.FlightDate.Valid {
			report.MissingFlightDate++
		}

		date, ok := r.FlightDate.Get()
		if !ok {
			report.DroppedFlightDate++
			continue
		}
		airline, okA := r.Airline().Get()
		origin, okO := r.Origin.Get()
		dest, okD := r.Destination.Get()
		if !okA || !okO || !okD {
			report.DroppedIdentifiers++
			continue
		}
		distance, ok := r.Distance.Get()
		if !ok || distance < p.MinDistance {
			report.DroppedDistance++
			continue
		}

		fill := func(o Optional[float64]) float64 { return o.OrElse(p.MissingDelayFill) }
		out = append(out, CleanedFlightRow{
			FlightDate:        DateOnly(date),
			Airline:           airline,
			FlightNumber:      r.FlightNumber.OrElse(""),
			Origin:            origin,
			Destination:       dest,
			DepDelay:          fill(r.DepartureDelay),
			ArrDelay:          fill(r.ArrivalDelay),
			Distance:          distance,
			TaxiOut:           r.TaxiOut,
			CRSDepTime:        r.ScheduledDeparture,
			Cancelled:         flag(r.Cancelled),
			Diverted:          flag(r.Diverted),
			AirSystemDelay:    fill(r.AirSystemDelay),
			SecurityDelay:     fill(r.SecurityDelay),
			AirlineDelay:      fill(r.AirlineDelay),
			LateAircraftDelay: fill(r.LateAircraftDelay),
			WeatherDelay:      fill(r.WeatherDelay),
		})
	}

	report.Output = len(out)
	return out, report
}

func flag(v int) int {
	if v != 0 {
		return 1
	}
	return 0
}

// EncodeCleaned renders cleaned rows as a text table with the CleanedColumns
// header. The encoding is deterministic: identical rows give identical cells.
func EncodeCleaned(rows []CleanedFlightRow) Table {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Record()
	}
	header := make([]string, len(CleanedColumns))
	copy(header, CleanedColumns)
	return NewTable(header, out)
}

// Record returns the row's cells in CleanedColumns order.
func (r CleanedFlightRow) Record() []string {
	return []string{
		FormatDate(r.FlightDate),
		r.Airline,
		r.FlightNumber,
		r.Origin,
		r.Destination,
		FormatFloat(r.DepDelay),
		FormatFloat(r.ArrDelay),
		FormatFloat(r.Distance),
		FormatOptionalFloat(r.TaxiOut),
		FormatOptionalFloat(r.CRSDepTime),
		strconv.Itoa(r.Cancelled),
		strconv.Itoa(r.Diverted),
		FormatFloat(r.AirSystemDelay),
		FormatFloat(r.SecurityDelay),
		FormatFloat(r.AirlineDelay),
		FormatFloat(r.LateAircraftDelay),
		FormatFloat(r.WeatherDelay),
	}
}

// Values returns the row keyed by column name, used by the warehouse and
// stream sinks.
func (r CleanedFlightRow) Values() map[string]any {
	opt := func(o Optional[float64]) any {
		if v, ok := o.Get(); ok {
			return v
		}
		return nil
	}
	return map[string]any{
		FieldFlightDate:        FormatDate(r.FlightDate),
		FieldAirline:           r.Airline,
		FieldFlightNumber:      r.FlightNumber,
		FieldOrigin:            r.Origin,
		FieldDestination:       r.Destination,
		FieldDepDelay:          r.DepDelay,
		FieldArrDelay:          r.ArrDelay,
		FieldDistance:          r.Distance,
		FieldTaxiOut:           opt(r.TaxiOut),
		FieldCRSDepTime:        opt(r.CRSDepTime),
		FieldCancelled:         r.Cancelled,
		FieldDiverted:          r.Diverted,
		FieldAirSystemDelay:    r.AirSystemDelay,
		FieldSecurityDelay:     r.SecurityDelay,
		FieldAirlineDelay:      r.AirlineDelay,
		FieldLateAircraftDelay: r.LateAircraftDelay,
		FieldWeatherDelay:      r.WeatherDelay,
	}
}

// ID is a deterministic identifier derived from every cell of the row, so
// re-running the pipeline over the same sources reproduces the same keys.
func (r CleanedFlightRow) ID() string {
	hash := sha256.Sum256([]byte(strings.Join(r.Record(), "|")))
	return r.Origin + "-" + r.Destination + "-" + hex.EncodeToString(hash[:8])
}
