package domain

import "time"

// Raw flight.csv column names.
const (
	ColYear               = "YEAR"
	ColMonth              = "MONTH"
	ColDay                = "DAY"
	ColAirline            = "AIRLINE"
	ColFlightNumber       = "FLIGHT_NUMBER"
	ColOriginAirport      = "ORIGIN_AIRPORT"
	ColDestinationAirport = "DESTINATION_AIRPORT"
	ColScheduledDeparture = "SCHEDULED_DEPARTURE"
	ColDepartureTime      = "DEPARTURE_TIME"
	ColDepartureDelay     = "DEPARTURE_DELAY"
	ColTaxiOut            = "TAXI_OUT"
	ColWheelsOff          = "WHEELS_OFF"
	ColElapsedTime        = "ELAPSED_TIME"
	ColAirTime            = "AIR_TIME"
	ColDistance           = "DISTANCE"
	ColTaxiIn             = "TAXI_IN"
	ColScheduledArrival   = "SCHEDULED_ARRIVAL"
	ColArrivalTime        = "ARRIVAL_TIME"
	ColArrivalDelay       = "ARRIVAL_DELAY"
	ColCancelled          = "CANCELLED"
	ColDiverted           = "DIVERTED"
	ColAirSystemDelay     = "AIR_SYSTEM_DELAY"
	ColSecurityDelay      = "SECURITY_DELAY"
	ColAirlineDelay       = "AIRLINE_DELAY"
	ColLateAircraftDelay  = "LATE_AIRCRAFT_DELAY"
	ColWeatherDelay       = "WEATHER_DELAY"
)

// dateFallbackColumns are consulted when YEAR/MONTH/DAY are not all present.
var dateFallbackColumns = []string{"FLIGHT_DATE", "DATE", "SCHEDULED_DEPARTURE_DATE"}

// FlightRecord is one normalized row of flight.csv. Every field is optional.
type FlightRecord struct {
	FlightNumber Optional[string]
	AirlineCode  Optional[string]
	Origin       Optional[string]
	Destination  Optional[string]

	Year       Optional[int]
	Month      Optional[int]
	Day        Optional[int]
	FlightDate Optional[time.Time]

	ScheduledDeparture Optional[float64] // HHMM
	DepartureTime      Optional[float64] // HHMM
	WheelsOff          Optional[float64] // HHMM
	ScheduledArrival   Optional[float64] // HHMM
	ArrivalTime        Optional[float64] // HHMM

	DepartureDelay Optional[float64]
	ArrivalDelay   Optional[float64]
	TaxiOut        Optional[float64]
	TaxiIn         Optional[float64]
	ElapsedTime    Optional[float64]
	AirTime        Optional[float64]
	Distance       Optional[float64]

	Cancelled int
	Diverted  int

	AirSystemDelay    Optional[float64]
	SecurityDelay     Optional[float64]
	AirlineDelay      Optional[float64]
	LateAircraftDelay Optional[float64]
	WeatherDelay      Optional[float64]
}

// Airline is one row of airline.csv.
type Airline struct {
	Code string
	Name Optional[string]
}

// Airport is one row of airport.csv.
type Airport struct {
	Code    string
	Name    Optional[string]
	City    Optional[string]
	State   Optional[string]
	Country Optional[string]
	Lat     Optional[float64]
	Lon     Optional[float64]
}

// EnrichedFlightRow is a FlightRecord after the lookup joins. A nil airport or
// an absent airline name means the lookup missed; the row is kept either way.
type EnrichedFlightRow struct {
	FlightRecord

	AirlineName Optional[string]
	OriginInfo  *Airport
	DestInfo    *Airport

	// RouteDistanceMiles is the great-circle distance between the two airports
	// when both have coordinates.
	RouteDistanceMiles Optional[float64]
}

// Airline returns the resolved airline name, falling back to the raw code.
func (r EnrichedFlightRow) Airline() Optional[string] {
	if r.AirlineName.Valid {
		return r.AirlineName
	}
	return r.AirlineCode
}

// CleanedFlightRow is one flight leg in the persisted intermediate table.
// Required fields are plain values; TaxiOut and CRSDepTime stay optional
// because they are model inputs with their own sentinel policy.
type CleanedFlightRow struct {
	FlightDate   time.Time
	Airline      string
	FlightNumber string
	Origin       string
	Destination  string

	DepDelay   float64
	ArrDelay   float64
	Distance   float64
	TaxiOut    Optional[float64]
	CRSDepTime Optional[float64]

	Cancelled int
	Diverted  int

	AirSystemDelay    float64
	SecurityDelay     float64
	AirlineDelay      float64
	LateAircraftDelay float64
	WeatherDelay      float64
}

// Cleaned table column names, in write order.
const (
	FieldFlightDate        = "flight_date"
	FieldAirline           = "airline"
	FieldFlightNumber      = "flight_number"
	FieldOrigin            = "origin"
	FieldDestination       = "destination"
	FieldDepDelay          = "dep_delay"
	FieldArrDelay          = "arr_delay"
	FieldDistance          = "distance"
	FieldTaxiOut           = "taxi_out"
	FieldCRSDepTime        = "crs_dep_time"
	FieldCancelled         = "cancelled"
	FieldDiverted          = "diverted"
	FieldAirSystemDelay    = "air_system_delay"
	FieldSecurityDelay     = "security_delay"
	FieldAirlineDelay      = "airline_delay"
	FieldLateAircraftDelay = "late_aircraft_delay"
	FieldWeatherDelay      = "weather_delay"
)

// CleanedColumns is the header of the persisted cleaned table.
var CleanedColumns = []string{
	FieldFlightDate,
	FieldAirline,
	FieldFlightNumber,
	FieldOrigin,
	FieldDestination,
	FieldDepDelay,
	FieldArrDelay,
	FieldDistance,
	FieldTaxiOut,
	FieldCRSDepTime,
	FieldCancelled,
	FieldDiverted,
	FieldAirSystemDelay,
	FieldSecurityDelay,
	FieldAirlineDelay,
	FieldLateAircraftDelay,
	FieldWeatherDelay,
}
