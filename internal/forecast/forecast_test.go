package forecast

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flight-delay-etl/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2015, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestDailyRevenue_SumsAndFillsGaps(t *testing.T) {
	rows := []domain.SalesRow{
		{FlightDate: domain.Some(day(1)), Revenue: 20000},
		{FlightDate: domain.Some(day(1)), Revenue: 20000},
		{FlightDate: domain.Some(day(3)), Revenue: 20000},
		{FlightDate: domain.None[time.Time](), Revenue: 99999},
	}
	got := DailyRevenue(rows)
	want := []Point{
		{Date: day(1), Value: 40000},
		{Date: day(2), Value: 0},
		{Date: day(3), Value: 20000},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DailyRevenue mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, DailyRevenue(nil))
}

func TestDailyRevenueFromTable(t *testing.T) {
	table := domain.NewTable(
		[]string{" FlightDate", "Revenue "},
		[][]string{
			{"2015-01-02", "100"},
			{"2015-01-01", "50"},
			{"2015-01-02", "n/a"},
			{"", "10"},
		},
	)
	got, err := DailyRevenueFromTable(table)
	require.NoError(t, err)
	assert.Equal(t, []Point{{Date: day(1), Value: 50}, {Date: day(2), Value: 100}}, got)

	_, err = DailyRevenueFromTable(domain.NewTable([]string{"origin"}, nil))
	require.Error(t, err)
}

func trendingSeries(n int) []Point {
	out := make([]Point, n)
	for i := range out {
		out[i] = Point{
			Date:  day(1).AddDate(0, 0, i),
			Value: 20000 + float64(i)*150 + float64(i%7-3)*400,
		}
	}
	return out
}

func TestARIMAForecaster_Forecast(t *testing.T) {
	f := NewARIMAForecaster()
	history := trendingSeries(60)
	require.NoError(t, f.Fit(context.Background(), history))
	assert.NotEmpty(t, f.Order())

	got, err := f.Forecast(7)
	require.NoError(t, err)
	require.Len(t, got, 7)
	for i, p := range got {
		assert.Equal(t, history[len(history)-1].Date.AddDate(0, 0, i+1), p.Date)
		assert.False(t, math.IsNaN(p.Value) || math.IsInf(p.Value, 0), "forecast %d is not finite", i)
	}
}

func TestARIMAForecaster_InsufficientHistory(t *testing.T) {
	f := NewARIMAForecaster()
	err := f.Fit(context.Background(), trendingSeries(MinHistory-1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))

	_, err = f.Forecast(3)
	assert.True(t, errors.Is(err, ErrNotFitted))
}

func TestARIMAForecaster_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewARIMAForecaster().Fit(ctx, trendingSeries(30))
	require.ErrorIs(t, err, context.Canceled)
}

func TestSaveResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "revenue_forecast.json")
	in := Result{
		Model:       "auto-arima",
		Order:       "(1,1,0)",
		GeneratedAt: day(10),
		History:     []Point{{Date: day(1), Value: 1}},
		Forecast:    []Point{{Date: day(2), Value: 2}},
	}
	require.NoError(t, SaveResult(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out Result
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
