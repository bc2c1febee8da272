package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flight-delay-etl/internal/domain"
)

func testRow() domain.CleanedFlightRow {
	return domain.CleanedFlightRow{
		FlightDate:   time.Date(2015, 1, 5, 0, 0, 0, 0, time.UTC),
		Airline:      "American Airlines Inc.",
		FlightNumber: "98",
		Origin:       "JFK",
		Destination:  "LAX",
		DepDelay:     -3,
		ArrDelay:     22,
		Distance:     2475,
		TaxiOut:      domain.Some(14.0),
		Cancelled:    0,
		Diverted:     1,
	}
}

func TestSerializeToMessage(t *testing.T) {
	row := testRow()

	msg, err := serializeToMessage(row)
	require.NoError(t, err)

	assert.Equal(t, []byte(row.ID()), msg.Key)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "2015-01-05", body["flight_date"])
	assert.Equal(t, "JFK", body["origin"])
	assert.InDelta(t, 22.0, body["arr_delay"], 0)
	assert.InDelta(t, 14.0, body["taxi_out"], 0)
	assert.Nil(t, body["crs_dep_time"], "absent optionals serialize as null")

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "flight_date", msg.Headers[0].Key)
	assert.Equal(t, []byte("2015-01-05"), msg.Headers[0].Value)
	assert.Equal(t, "route", msg.Headers[1].Key)
	assert.Equal(t, []byte("JFK-LAX"), msg.Headers[1].Value)
	assert.Equal(t, []byte("0"), msg.Headers[2].Value)
}

func TestSerializeToMessage_KeyIsStable(t *testing.T) {
	a, err := serializeToMessage(testRow())
	require.NoError(t, err)
	b, err := serializeToMessage(testRow())
	require.NoError(t, err)
	assert.Equal(t, a.Key, b.Key)

	other := testRow()
	other.FlightNumber = "99"
	c, err := serializeToMessage(other)
	require.NoError(t, err)
	assert.NotEqual(t, a.Key, c.Key)
}
