package domain

import (
	"strconv"
	"time"
)

// Sales defaults applied when the source carries no booking data.
const (
	DefaultSeatsSold   = 100
	DefaultTicketPrice = 200.0
	DefaultFareClass   = "Economy"
)

// SalesRow is one flight leg priced with the default booking assumptions.
type SalesRow struct {
	FlightDate   Optional[time.Time]
	Airline      Optional[string]
	FlightNumber Optional[string]
	Origin       string
	Destination  string
	Route        string
	SeatsSold    int
	TicketPrice  float64
	Revenue      float64
	Class        string
}

// SalesColumns is the header of the persisted sales table.
var SalesColumns = []string{
	"flight_date", "airline", "flight_number", "origin", "destination",
	"route", "seats_sold", "ticket_price", "revenue", "class",
}

// DeriveSales prices every normalized flight. Airline names come from the
// lookup only; unlike the cleaned table there is no fallback to the code.
// No row is dropped: rows without a date are excluded later, when revenue is
// aggregated per day.
func DeriveSales(flights []FlightRecord, l *Lookups) []SalesRow {
	out := make([]SalesRow, 0, len(flights))
	for _, f := range flights {
		origin := f.Origin.OrElse("")
		dest := f.Destination.OrElse("")

		var airline Optional[string]
		if code, ok := f.AirlineCode.Get(); ok {
			if name, ok := l.AirlineName(code); ok {
				airline = Some(name)
			}
		}

		out = append(out, SalesRow{
			FlightDate:   f.FlightDate,
			Airline:      airline,
			FlightNumber: f.FlightNumber,
			Origin:       origin,
			Destination:  dest,
			Route:        origin + "-" + dest,
			SeatsSold:    DefaultSeatsSold,
			TicketPrice:  DefaultTicketPrice,
			Revenue:      float64(DefaultSeatsSold) * DefaultTicketPrice,
			Class:        DefaultFareClass,
		})
	}
	return out
}

// EncodeSales renders sales rows with the SalesColumns header.
func EncodeSales(rows []SalesRow) Table {
	out := make([][]string, len(rows))
	for i, r := range rows {
		date := ""
		if d, ok := r.FlightDate.Get(); ok {
			date = FormatDate(d)
		}
		out[i] = []string{
			date,
			r.Airline.OrElse(""),
			r.FlightNumber.OrElse(""),
			r.Origin,
			r.Destination,
			r.Route,
			strconv.Itoa(r.SeatsSold),
			FormatFloat(r.TicketPrice),
			FormatFloat(r.Revenue),
			r.Class,
		}
	}
	header := make([]string, len(SalesColumns))
	copy(header, SalesColumns)
	return NewTable(header, out)
}
