package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/flight-delay-etl/internal/domain"
)

// Inputs are the raw tables of one ETL run.
type Inputs struct {
	Flights  domain.Table
	Airlines domain.Table
	Airports domain.Table
}

// Output is what the transform stage hands to the loaders.
type Output struct {
	Cleaned []domain.CleanedFlightRow
	Sales   []domain.SalesRow
	Report  domain.CleanReport
}

// Transformer converts raw tables into the cleaned and sales tables.
type Transformer interface {
	Transform(ctx context.Context, in Inputs) (Output, error)
}

// FlightTransformer implements Transformer with the domain normalize, join
// and clean steps.
type FlightTransformer struct {
	policy domain.CleanPolicy
	logger *slog.Logger
}

// NewTransformer creates a FlightTransformer.
func NewTransformer(policy domain.CleanPolicy, logger *slog.Logger) *FlightTransformer {
	return &FlightTransformer{policy: policy, logger: logger}
}

func (t *FlightTransformer) Transform(ctx context.Context, in Inputs) (Output, error) {
	flights := domain.NormalizeFlights(in.Flights)
	lookups := domain.NewLookups(
		domain.ParseAirlines(in.Airlines, t.logger),
		domain.ParseAirports(in.Airports, t.logger),
	)
	if dupAirlines, dupAirports := lookups.Duplicates(); dupAirlines > 0 || dupAirports > 0 {
		t.logger.Warn("duplicate reference codes, joined rows will fan out",
			"airline_codes", dupAirlines,
			"airport_codes", dupAirports,
		)
	}
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	joined := domain.Join(flights, lookups)
	cleaned, report := domain.Clean(joined, t.policy)
	t.logger.Info("flights cleaned", "report", report)

	return Output{
		Cleaned: cleaned,
		Sales:   domain.DeriveSales(flights, lookups),
		Report:  report,
	}, nil
}
