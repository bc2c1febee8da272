package model

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flight-delay-etl/internal/domain"
	"github.com/couchcryptid/flight-delay-etl/internal/features"
)

var rawHeader = []string{
	"YEAR", "MONTH", "DAY", "AIRLINE", "FLIGHT_NUMBER", "ORIGIN_AIRPORT", "DESTINATION_AIRPORT",
	"SCHEDULED_DEPARTURE", "DEPARTURE_DELAY", "TAXI_OUT", "DISTANCE", "ARRIVAL_DELAY",
	"CANCELLED", "DIVERTED",
}

func cleanedTable(t *testing.T, rows [][]string) domain.Table {
	t.Helper()
	airlines := domain.ParseAirlines(domain.NewTable(
		[]string{"IATA_CODE", "AIRLINE"},
		[][]string{{"AA", "American Airlines Inc."}},
	), discardLogger())
	airports := domain.ParseAirports(domain.NewTable(
		[]string{"IATA_CODE", "AIRPORT", "CITY", "STATE", "COUNTRY", "LATITUDE", "LONGITUDE"},
		[][]string{
			{"JFK", "John F. Kennedy Intl", "New York", "NY", "USA", "40.63975", "-73.77893"},
			{"LAX", "Los Angeles Intl", "Los Angeles", "CA", "USA", "33.94254", "-118.40807"},
		},
	), discardLogger())

	flights := domain.NormalizeFlights(domain.NewTable(rawHeader, rows))
	cleaned, _ := domain.Clean(domain.Join(flights, domain.NewLookups(airlines, airports)), domain.DefaultCleanPolicy())
	return domain.EncodeCleaned(cleaned)
}

func TestTrainer_EndToEndSmallBatch(t *testing.T) {
	fixed := time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	table := cleanedTable(t, [][]string{
		{"2015", "1", "5", "AA", "1", "JFK", "LAX", "0800", "0", "12", "2475", "3", "0", "0"},
		{"2015", "1", "5", "AA", "2", "JFK", "LAX", "1330", "45", "20", "2475", "52", "0", "0"},
		{"2015", "1", "6", "AA", "3", "LAX", "JFK", "0615", "-2", "9", "2475", "-10", "0", "0"},
		{"2015", "1", "6", "AA", "4", "LAX", "JFK", "2105", "5", "", "2475", "", "0", "0"},
		{"2015", "1", "7", "AA", "5", "JFK", "LAX", "0900", "0", "10", "5", "0", "0", "0"},
	})
	require.Equal(t, 4, table.Len(), "the 5-mile row is dropped")

	ds, err := features.BuildDataset(table, features.DelaySchema(), features.DefaultDelayThreshold)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, 1, ds.Positives())

	cfg := DefaultTrainerConfig()
	cfg.SampleFraction = 1
	cfg.Forest.NEstimators = 5
	cfg.TrainingData = "test batch"
	res, err := NewTrainer(cfg, discardLogger()).Train(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Metadata.RowsTrained)
	assert.Equal(t, 1, res.Metadata.RowsTested)
	assert.InDelta(t, 0.25, res.Prevalence, 1e-9)
	require.NotNil(t, res.Metadata.LastTrained)
	assert.Equal(t, fixed, *res.Metadata.LastTrained)
	assert.Equal(t, time.Duration(0), res.Duration)
	assert.NotEmpty(t, res.Metadata.RunID)
	assert.Equal(t, features.DelaySchema().Columns(), res.Metadata.Features)
	assert.Equal(t, "test batch", res.Metadata.Summary().TrainingData)
}

func TestTrainer_LabelUnavailable(t *testing.T) {
	table := domain.NewTable(
		[]string{"airline", "origin", "destination", "distance"},
		[][]string{{"American Airlines Inc.", "JFK", "LAX", "2475"}},
	)
	_, err := NewTrainer(DefaultTrainerConfig(), discardLogger()).Train(context.Background(), table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, features.ErrLabelUnavailable))
}

func TestTrainer_Cancelled(t *testing.T) {
	table := cleanedTable(t, [][]string{
		{"2015", "1", "5", "AA", "1", "JFK", "LAX", "0800", "0", "12", "2475", "3", "0", "0"},
		{"2015", "1", "5", "AA", "2", "JFK", "LAX", "1330", "45", "20", "2475", "52", "0", "0"},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultTrainerConfig()
	cfg.SampleFraction = 1
	_, err := NewTrainer(cfg, discardLogger()).Train(ctx, table)
	require.ErrorIs(t, err, context.Canceled)
}
