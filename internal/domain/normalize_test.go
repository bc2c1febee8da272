package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFlights(t *testing.T) {
	raw := NewTable(flightHeader, [][]string{
		{"2015", "2", "14", " dl", "0042 ", "atl", "SEA", "2355", "abc", "", "2182", "-7", "0", "1", "12"},
	})
	got := NormalizeFlights(raw)
	require.Len(t, got, 1)

	f := got[0]
	assert.Equal(t, Some("DL"), f.AirlineCode)
	assert.Equal(t, Some("0042"), f.FlightNumber)
	assert.Equal(t, Some("ATL"), f.Origin)
	assert.Equal(t, Some(time.Date(2015, 2, 14, 0, 0, 0, 0, time.UTC)), f.FlightDate)
	assert.Equal(t, Some(2355.0), f.ScheduledDeparture)
	assert.False(t, f.DepartureDelay.Valid, "unparseable delay must be empty, not an error")
	assert.False(t, f.TaxiOut.Valid)
	assert.Equal(t, Some(-7.0), f.ArrivalDelay)
	assert.Equal(t, 1, f.Diverted)
	assert.Equal(t, Some(12.0), f.WeatherDelay)
	assert.False(t, f.AirTime.Valid, "absent column reads as empty")
}

func TestNormalizeFlights_DateFallback(t *testing.T) {
	raw := NewTable(
		[]string{"FLIGHT_DATE", "AIRLINE", "ORIGIN_AIRPORT", "DESTINATION_AIRPORT", "DISTANCE"},
		[][]string{
			{"2016-07-04", "AA", "JFK", "LAX", "2475"},
			{"garbage", "AA", "JFK", "LAX", "2475"},
		},
	)
	got := NormalizeFlights(raw)
	require.Len(t, got, 2)
	assert.Equal(t, Some(time.Date(2016, 7, 4, 0, 0, 0, 0, time.UTC)), got[0].FlightDate)
	assert.False(t, got[1].FlightDate.Valid)
}

func TestNormalizeFlights_NoDateColumns(t *testing.T) {
	raw := NewTable([]string{"AIRLINE", "DAY"}, [][]string{{"AA", "3"}})
	got := NormalizeFlights(raw)
	require.Len(t, got, 1)
	assert.False(t, got[0].FlightDate.Valid)
}

func TestParseAirlines_NameColumnCandidates(t *testing.T) {
	t.Run("candidate name", func(t *testing.T) {
		got := ParseAirlines(NewTable(
			[]string{"IATA_CODE", "Name"},
			[][]string{{"ua", "United Air Lines Inc."}},
		), discardLogger())
		require.Len(t, got, 1)
		assert.Equal(t, "UA", got[0].Code)
		assert.Equal(t, Some("United Air Lines Inc."), got[0].Name)
	})

	t.Run("second column fallback", func(t *testing.T) {
		got := ParseAirlines(NewTable(
			[]string{"IATA_CODE", "CARRIER_LONG"},
			[][]string{{"B6", "JetBlue Airways"}},
		), discardLogger())
		require.Len(t, got, 1)
		assert.Equal(t, Some("JetBlue Airways"), got[0].Name)
	})

	t.Run("no code column", func(t *testing.T) {
		got := ParseAirlines(NewTable(
			[]string{"CODE", "AIRLINE"},
			[][]string{{"B6", "JetBlue Airways"}},
		), discardLogger())
		assert.Empty(t, got)
	})
}

func TestParseAirports_MissingMetadata(t *testing.T) {
	got := ParseAirports(NewTable(
		[]string{"IATA_CODE", "CITY"},
		[][]string{{"ord", "Chicago"}, {"", "Nowhere"}},
	), discardLogger())
	require.Len(t, got, 1)
	assert.Equal(t, "ORD", got[0].Code)
	assert.Equal(t, Some("Chicago"), got[0].City)
	assert.False(t, got[0].Lat.Valid)
	assert.False(t, got[0].Name.Valid)
}
