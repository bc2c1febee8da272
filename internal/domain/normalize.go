package domain

import (
	"log/slog"
	"time"
)

// airlineNameCandidates lists the column names airline.csv has been seen with.
var airlineNameCandidates = []string{"AIRLINE", "Airline", "NAME", "Name", "airline"}

// NormalizeFlights types every row of a raw flight table. Column names are
// stripped first; absent columns and unparseable cells become empty optionals.
func NormalizeFlights(raw Table) []FlightRecord {
	t := raw.StripColumnNames()

	str := func(name string) func([]string) Optional[string] {
		col := t.Column(name)
		return func(row []string) Optional[string] { return CoerceString(col(row)) }
	}
	code := func(name string) func([]string) Optional[string] {
		col := t.Column(name)
		return func(row []string) Optional[string] { return CoerceCode(col(row)) }
	}
	num := func(name string) func([]string) Optional[float64] {
		col := t.Column(name)
		return func(row []string) Optional[float64] { return CoerceFloat(col(row)) }
	}
	integer := func(name string) func([]string) Optional[int] {
		col := t.Column(name)
		return func(row []string) Optional[int] { return CoerceInt(col(row)) }
	}

	var (
		flightNumber = str(ColFlightNumber)
		airline      = code(ColAirline)
		origin       = code(ColOriginAirport)
		destination  = code(ColDestinationAirport)
		year         = integer(ColYear)
		month        = integer(ColMonth)
		day          = integer(ColDay)
		schedDep     = num(ColScheduledDeparture)
		depTime      = num(ColDepartureTime)
		wheelsOff    = num(ColWheelsOff)
		schedArr     = num(ColScheduledArrival)
		arrTime      = num(ColArrivalTime)
		depDelay     = num(ColDepartureDelay)
		arrDelay     = num(ColArrivalDelay)
		taxiOut      = num(ColTaxiOut)
		taxiIn       = num(ColTaxiIn)
		elapsed      = num(ColElapsedTime)
		airTime      = num(ColAirTime)
		distance     = num(ColDistance)
		cancelled    = t.Column(ColCancelled)
		diverted     = t.Column(ColDiverted)
		airSystem    = num(ColAirSystemDelay)
		security     = num(ColSecurityDelay)
		airlineDelay = num(ColAirlineDelay)
		lateAircraft = num(ColLateAircraftDelay)
		weather      = num(ColWeatherDelay)
	)

	flightDate := flightDateFunc(t)

	out := make([]FlightRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, FlightRecord{
			FlightNumber:       flightNumber(row),
			AirlineCode:        airline(row),
			Origin:             origin(row),
			Destination:        destination(row),
			Year:               year(row),
			Month:              month(row),
			Day:                day(row),
			FlightDate:         flightDate(row),
			ScheduledDeparture: schedDep(row),
			DepartureTime:      depTime(row),
			WheelsOff:          wheelsOff(row),
			ScheduledArrival:   schedArr(row),
			ArrivalTime:        arrTime(row),
			DepartureDelay:     depDelay(row),
			ArrivalDelay:       arrDelay(row),
			TaxiOut:            taxiOut(row),
			TaxiIn:             taxiIn(row),
			ElapsedTime:        elapsed(row),
			AirTime:            airTime(row),
			Distance:           distance(row),
			Cancelled:          CoerceFlag(cancelled(row)),
			Diverted:           CoerceFlag(diverted(row)),
			AirSystemDelay:     airSystem(row),
			SecurityDelay:      security(row),
			AirlineDelay:       airlineDelay(row),
			LateAircraftDelay:  lateAircraft(row),
			WeatherDelay:       weather(row),
		})
	}
	return out
}

// flightDateFunc picks the date derivation the table supports: YEAR/MONTH/DAY
// when all three exist, else the first date-like column, else always None.
func flightDateFunc(t Table) func([]string) Optional[time.Time] {
	if t.Has(ColYear, ColMonth, ColDay) {
		year, month, day := t.Column(ColYear), t.Column(ColMonth), t.Column(ColDay)
		return func(row []string) Optional[time.Time] {
			return CoerceDateParts(CoerceInt(year(row)), CoerceInt(month(row)), CoerceInt(day(row)))
		}
	}
	for _, name := range dateFallbackColumns {
		if t.Has(name) {
			col := t.Column(name)
			return func(row []string) Optional[time.Time] { return CoerceDate(col(row)) }
		}
	}
	return func([]string) Optional[time.Time] { return None[time.Time]() }
}

// ParseAirlines reads airline.csv. The name column is located by candidate
// names, falling back to the second column. A file without IATA_CODE yields no
// airlines: every join then misses and flights keep their raw code.
func ParseAirlines(raw Table, logger *slog.Logger) []Airline {
	t := raw.StripColumnNames()
	if !t.Has("IATA_CODE") {
		logger.Warn("airline lookup has no IATA_CODE column, airline names will not be resolved",
			"columns", t.Columns)
		return nil
	}

	nameCol, ok := t.FindColumn(airlineNameCandidates...)
	if !ok && len(t.Columns) >= 2 {
		nameCol, ok = t.Columns[1], true
	}
	if !ok {
		logger.Warn("airline lookup has no name column", "columns", t.Columns)
	}

	codeOf := t.Column("IATA_CODE")
	nameOf := t.Column(nameCol)

	out := make([]Airline, 0, len(t.Rows))
	for _, row := range t.Rows {
		c, valid := CoerceCode(codeOf(row)).Get()
		if !valid {
			continue
		}
		a := Airline{Code: c}
		if ok {
			a.Name = CoerceString(nameOf(row))
		}
		out = append(out, a)
	}
	return out
}

// ParseAirports reads airport.csv. Missing metadata columns leave the matching
// fields empty.
func ParseAirports(raw Table, logger *slog.Logger) []Airport {
	t := raw.StripColumnNames()
	if !t.Has("IATA_CODE") {
		logger.Warn("airport lookup has no IATA_CODE column, airports will not be resolved",
			"columns", t.Columns)
		return nil
	}

	codeOf := t.Column("IATA_CODE")
	name, city, state, country := t.Column("AIRPORT"), t.Column("CITY"), t.Column("STATE"), t.Column("COUNTRY")
	lat, lon := t.Column("LATITUDE"), t.Column("LONGITUDE")

	out := make([]Airport, 0, len(t.Rows))
	for _, row := range t.Rows {
		c, valid := CoerceCode(codeOf(row)).Get()
		if !valid {
			continue
		}
		out = append(out, Airport{
			Code:    c,
			Name:    CoerceString(name(row)),
			City:    CoerceString(city(row)),
			State:   CoerceString(state(row)),
			Country: CoerceString(country(row)),
			Lat:     CoerceFloat(lat(row)),
			Lon:     CoerceFloat(lon(row)),
		})
	}
	return out
}
