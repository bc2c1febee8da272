package domain

import "github.com/skypies/geo"

const milesPerKM = 0.621371

// Lookups indexes the airline and airport tables by IATA code. Duplicate codes
// are kept; a join against a duplicated code fans out.
type Lookups struct {
	airlines map[string][]Airline
	airports map[string][]Airport
}

// NewLookups indexes the parsed lookup rows, preserving file order per code.
func NewLookups(airlines []Airline, airports []Airport) *Lookups {
	l := &Lookups{
		airlines: make(map[string][]Airline, len(airlines)),
		airports: make(map[string][]Airport, len(airports)),
	}
	for _, a := range airlines {
		l.airlines[a.Code] = append(l.airlines[a.Code], a)
	}
	for _, a := range airports {
		l.airports[a.Code] = append(l.airports[a.Code], a)
	}
	return l
}

// AirlineName returns the first airline name registered for code.
func (l *Lookups) AirlineName(code string) (string, bool) {
	for _, a := range l.airlines[code] {
		if name, ok := a.Name.Get(); ok {
			return name, true
		}
	}
	return "", false
}

// Duplicates returns how many airline and airport codes appear more than once.
func (l *Lookups) Duplicates() (airlines, airports int) {
	for _, v := range l.airlines {
		if len(v) > 1 {
			airlines++
		}
	}
	for _, v := range l.airports {
		if len(v) > 1 {
			airports++
		}
	}
	return airlines, airports
}

// Join left-joins airline and origin/destination airport metadata onto every
// flight. Unmatched keys leave the enrichment fields empty; matched keys with
// several lookup rows emit one output row per combination. Output order
// follows input order, then airline, origin and destination match order.
func Join(flights []FlightRecord, l *Lookups) []EnrichedFlightRow {
	out := make([]EnrichedFlightRow, 0, len(flights))
	for _, f := range flights {
		airlines := matchAirlines(l, f.AirlineCode)
		origins := matchAirports(l, f.Origin)
		dests := matchAirports(l, f.Destination)

		for _, a := range airlines {
			for _, o := range origins {
				for _, d := range dests {
					row := EnrichedFlightRow{FlightRecord: f, OriginInfo: o, DestInfo: d}
					if a != nil {
						row.AirlineName = a.Name
					}
					row.RouteDistanceMiles = routeDistance(o, d)
					out = append(out, row)
				}
			}
		}
	}
	return out
}

// matchAirlines returns the lookup rows for code, or a single nil for a miss.
func matchAirlines(l *Lookups, code Optional[string]) []*Airline {
	c, ok := code.Get()
	if !ok || len(l.airlines[c]) == 0 {
		return []*Airline{nil}
	}
	rows := l.airlines[c]
	out := make([]*Airline, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}

func matchAirports(l *Lookups, code Optional[string]) []*Airport {
	c, ok := code.Get()
	if !ok || len(l.airports[c]) == 0 {
		return []*Airport{nil}
	}
	rows := l.airports[c]
	out := make([]*Airport, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}

// routeDistance is the great-circle distance in miles between two airports
// with known coordinates.
func routeDistance(origin, dest *Airport) Optional[float64] {
	if origin == nil || dest == nil {
		return None[float64]()
	}
	olat, ok1 := origin.Lat.Get()
	olon, ok2 := origin.Lon.Get()
	dlat, ok3 := dest.Lat.Get()
	dlon, ok4 := dest.Lon.Get()
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return None[float64]()
	}
	from := geo.Latlong{Lat: olat, Long: olon}
	to := geo.Latlong{Lat: dlat, Long: dlon}
	return Some(from.DistKM(to) * milesPerKM)
}
