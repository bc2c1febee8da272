package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin_Unmatched(t *testing.T) {
	flights := []FlightRecord{
		{AirlineCode: Some("ZZ"), Origin: Some("XXX"), Destination: Some("YYY")},
		{},
	}
	got := Join(flights, testLookups())

	require.Len(t, got, 2, "unmatched rows survive the join")
	assert.False(t, got[0].AirlineName.Valid)
	assert.Nil(t, got[0].OriginInfo)
	assert.Nil(t, got[0].DestInfo)
	assert.Equal(t, Some("ZZ"), got[0].Airline())
	assert.False(t, got[0].RouteDistanceMiles.Valid)
	assert.False(t, got[1].Airline().Valid)
}

func TestJoin_Matched(t *testing.T) {
	flights := []FlightRecord{{AirlineCode: Some("DL"), Origin: Some("JFK"), Destination: Some("LAX")}}
	got := Join(flights, testLookups())

	require.Len(t, got, 1)
	assert.Equal(t, Some("Delta Air Lines Inc."), got[0].Airline())
	require.NotNil(t, got[0].OriginInfo)
	assert.Equal(t, Some("New York"), got[0].OriginInfo.City)
	require.NotNil(t, got[0].DestInfo)
	assert.Equal(t, Some("CA"), got[0].DestInfo.State)

	miles, ok := got[0].RouteDistanceMiles.Get()
	require.True(t, ok)
	assert.InDelta(t, 2475, miles, 25, "JFK-LAX great-circle distance")
}

func TestJoin_DuplicateCodesFanOut(t *testing.T) {
	airlines := []Airline{
		{Code: "AA", Name: Some("American Airlines Inc.")},
		{Code: "AA", Name: Some("American Eagle")},
	}
	airports := []Airport{
		{Code: "JFK", City: Some("New York")},
		{Code: "JFK", City: Some("Jamaica")},
		{Code: "LAX", City: Some("Los Angeles")},
	}
	l := NewLookups(airlines, airports)

	flights := []FlightRecord{
		{FlightNumber: Some("1"), AirlineCode: Some("AA"), Origin: Some("JFK"), Destination: Some("LAX")},
		{FlightNumber: Some("2"), AirlineCode: Some("AA"), Origin: Some("LAX"), Destination: Some("LAX")},
	}
	got := Join(flights, l)

	require.Len(t, got, 6, "2 airlines x 2 origins for the first flight, 2 airlines for the second")
	assert.Equal(t, Some("American Airlines Inc."), got[0].AirlineName)
	assert.Equal(t, Some("New York"), got[0].OriginInfo.City)
	assert.Equal(t, Some("Jamaica"), got[1].OriginInfo.City)
	assert.Equal(t, Some("American Eagle"), got[2].AirlineName)
	assert.Equal(t, Some("2"), got[4].FlightNumber)

	name, ok := l.AirlineName("AA")
	require.True(t, ok)
	assert.Equal(t, "American Airlines Inc.", name, "first name wins for lookups")

	dupAirlines, dupAirports := l.Duplicates()
	assert.Equal(t, 1, dupAirlines)
	assert.Equal(t, 1, dupAirports)
}

func TestDeriveSales(t *testing.T) {
	flights := NormalizeFlights(NewTable(flightHeader, [][]string{
		{"2015", "1", "1", "AA", "1", "JFK", "LAX", "0800", "0", "10", "2475", "5", "0", "0", ""},
		{"2015", "1", "1", "ZZ", "2", "JFK", "", "0800", "0", "10", "2475", "5", "0", "0", ""},
	}))
	got := DeriveSales(flights, testLookups())

	require.Len(t, got, 2)
	assert.Equal(t, "JFK-LAX", got[0].Route)
	assert.Equal(t, Some("American Airlines Inc."), got[0].Airline)
	assert.Equal(t, 20000.0, got[0].Revenue)
	assert.Equal(t, "Economy", got[0].Class)
	assert.Equal(t, "JFK-", got[1].Route)
	assert.False(t, got[1].Airline.Valid)

	table := EncodeSales(got)
	assert.Equal(t, SalesColumns, table.Columns)
	assert.Equal(t, []string{"2015-01-01", "American Airlines Inc.", "1", "JFK", "LAX", "JFK-LAX", "100", "200", "20000", "Economy"}, table.Rows[0])
}
