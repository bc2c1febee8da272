// Command genmock writes a deterministic synthetic copy of the raw inputs
// (flight.csv, airline.csv, airport.csv) for local runs and demos. Delays
// depend on airline, hour of day and month so the classifier has something
// to learn, and a share of rows carry the defects the cleaner handles:
// lower-case codes, missing delays, impossible dates and short legs.
//
// Usage:
//
//	go run ./cmd/genmock -out data/raw -flights 20000 -seed 42
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/skypies/geo"

	"github.com/couchcryptid/flight-delay-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/flight-delay-etl/internal/config"
	"github.com/couchcryptid/flight-delay-etl/internal/domain"
	"github.com/couchcryptid/flight-delay-etl/internal/observability"
)

const milesPerKM = 0.621371

type airline struct {
	code, name string
	// lateness shifts the carrier's delay distribution, in minutes.
	lateness float64
}

type airport struct {
	code, name, city, state string
	lat, lon                float64
}

var airlines = []airline{
	{"AA", "American Airlines Inc.", 4},
	{"DL", "Delta Air Lines Inc.", -2},
	{"UA", "United Air Lines Inc.", 3},
	{"WN", "Southwest Airlines Co.", 1},
	{"B6", "JetBlue Airways", 7},
	{"AS", "Alaska Airlines Inc.", -4},
	{"NK", "Spirit Air Lines", 10},
	{"HA", "Hawaiian Airlines Inc.", -5},
}

var airports = []airport{
	{"ATL", "Hartsfield-Jackson Atlanta International Airport", "Atlanta", "GA", 33.64044, -84.42694},
	{"LAX", "Los Angeles International Airport", "Los Angeles", "CA", 33.94254, -118.40807},
	{"ORD", "Chicago O'Hare International Airport", "Chicago", "IL", 41.9796, -87.90446},
	{"DFW", "Dallas/Fort Worth International Airport", "Dallas-Fort Worth", "TX", 32.89595, -97.0372},
	{"DEN", "Denver International Airport", "Denver", "CO", 39.85841, -104.667},
	{"JFK", "John F. Kennedy International Airport", "New York", "NY", 40.63975, -73.77893},
	{"SFO", "San Francisco International Airport", "San Francisco", "CA", 37.619, -122.37484},
	{"SEA", "Seattle-Tacoma International Airport", "Seattle", "WA", 47.44898, -122.30931},
	{"LAS", "McCarran International Airport", "Las Vegas", "NV", 36.08036, -115.15233},
	{"BOS", "Gen. Edward Lawrence Logan International Airport", "Boston", "MA", 42.36435, -71.00518},
	{"OAK", "Oakland International Airport", "Oakland", "CA", 37.72129, -122.22072},
}

var flightColumns = []string{
	domain.ColYear, domain.ColMonth, domain.ColDay, "DAY_OF_WEEK",
	domain.ColAirline, domain.ColFlightNumber, "TAIL_NUMBER",
	domain.ColOriginAirport, domain.ColDestinationAirport,
	domain.ColScheduledDeparture, domain.ColDepartureTime, domain.ColDepartureDelay,
	domain.ColTaxiOut, domain.ColWheelsOff, domain.ColDistance,
	domain.ColScheduledArrival, domain.ColArrivalTime, domain.ColArrivalDelay,
	domain.ColDiverted, domain.ColCancelled,
	domain.ColAirSystemDelay, domain.ColSecurityDelay, domain.ColAirlineDelay,
	domain.ColLateAircraftDelay, domain.ColWeatherDelay,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "data/raw", "output directory for the raw CSV files")
	n := flag.Int("flights", 20000, "number of flight rows to generate")
	seed := flag.Uint64("seed", 42, "random seed")
	year := flag.Int("year", 2015, "calendar year of the generated flights")
	dirty := flag.Float64("dirty", 0.02, "share of rows carrying a data defect")
	flag.Parse()

	if *n <= 0 || *dirty < 0 || *dirty > 1 {
		flag.Usage()
		return fmt.Errorf("invalid flags")
	}

	logger := observability.NewLogger(&config.Config{LogLevel: "info", LogFormat: "text"})
	store := csvfile.NewStore(logger)
	ctx := context.Background()

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	tables := map[string]domain.Table{
		"airline.csv": airlineTable(),
		"airport.csv": airportTable(),
		"flight.csv":  flightTable(rng, *n, *year, *dirty),
	}
	for name, t := range tables {
		path := filepath.Join(*outDir, name)
		if err := store.WriteTable(ctx, path, t); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d rows)\n", path, t.Len())
	}
	return nil
}

func airlineTable() domain.Table {
	rows := make([][]string, len(airlines))
	for i, a := range airlines {
		rows[i] = []string{a.code, a.name}
	}
	return domain.NewTable([]string{"IATA_CODE", "AIRLINE"}, rows)
}

func airportTable() domain.Table {
	rows := make([][]string, len(airports))
	for i, a := range airports {
		rows[i] = []string{
			a.code, a.name, a.city, a.state, "USA",
			strconv.FormatFloat(a.lat, 'f', 5, 64),
			strconv.FormatFloat(a.lon, 'f', 5, 64),
		}
	}
	return domain.NewTable(
		[]string{"IATA_CODE", "AIRPORT", "CITY", "STATE", "COUNTRY", "LATITUDE", "LONGITUDE"},
		rows,
	)
}

func flightTable(rng *rand.Rand, n, year int, dirty float64) domain.Table {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := start.AddDate(1, 0, 0).Sub(start).Hours() / 24

	rows := make([][]string, 0, n)
	for i := range n {
		al := airlines[rng.IntN(len(airlines))]
		o := airports[rng.IntN(len(airports))]
		d := airports[rng.IntN(len(airports))]
		for d.code == o.code {
			d = airports[rng.IntN(len(airports))]
		}
		date := start.AddDate(0, 0, rng.IntN(int(days)))
		hour := 5 + rng.IntN(19)
		minute := 5 * rng.IntN(12)

		dist := math.Round(distanceMiles(o, d))
		taxiOut := 8 + math.Round(rng.ExpFloat64()*8)
		depDelay := sampleDelay(rng, al, hour, date.Month())
		arrDelay := math.Round(depDelay + rng.NormFloat64()*8 + (taxiOut-15)/2)
		cancelled := rng.Float64() < 0.015
		diverted := !cancelled && rng.Float64() < 0.003

		sched := hour*100 + minute
		rec := map[string]string{
			domain.ColYear:               strconv.Itoa(date.Year()),
			domain.ColMonth:              strconv.Itoa(int(date.Month())),
			domain.ColDay:                strconv.Itoa(date.Day()),
			"DAY_OF_WEEK":                strconv.Itoa(isoWeekday(date)),
			domain.ColAirline:            al.code,
			domain.ColFlightNumber:       strconv.Itoa(100 + rng.IntN(5900)),
			"TAIL_NUMBER":                fmt.Sprintf("N%03d%s", rng.IntN(1000), al.code),
			domain.ColOriginAirport:      o.code,
			domain.ColDestinationAirport: d.code,
			domain.ColScheduledDeparture: fmt.Sprintf("%04d", sched),
			domain.ColDepartureTime:      fmt.Sprintf("%04d", addMinutes(sched, int(depDelay))),
			domain.ColDepartureDelay:     domain.FormatFloat(depDelay),
			domain.ColTaxiOut:            domain.FormatFloat(taxiOut),
			domain.ColWheelsOff:          fmt.Sprintf("%04d", addMinutes(sched, int(depDelay+taxiOut))),
			domain.ColDistance:           domain.FormatFloat(dist),
			domain.ColArrivalDelay:       domain.FormatFloat(arrDelay),
			domain.ColCancelled:          boolFlag(cancelled),
			domain.ColDiverted:           boolFlag(diverted),
		}
		block := int(dist/500*60) + 30
		rec[domain.ColScheduledArrival] = fmt.Sprintf("%04d", addMinutes(sched, block))
		rec[domain.ColArrivalTime] = fmt.Sprintf("%04d", addMinutes(sched, block+int(arrDelay)))
		if arrDelay > 15 {
			splitCauses(rng, rec, arrDelay)
		}
		if cancelled {
			for _, c := range []string{domain.ColDepartureTime, domain.ColDepartureDelay, domain.ColTaxiOut,
				domain.ColWheelsOff, domain.ColArrivalTime, domain.ColArrivalDelay} {
				rec[c] = ""
			}
		}
		if rng.Float64() < dirty {
			corrupt(rng, rec, i)
		}

		row := make([]string, len(flightColumns))
		for j, c := range flightColumns {
			row[j] = rec[c]
		}
		rows = append(rows, row)
	}
	return domain.NewTable(flightColumns, rows)
}

// sampleDelay draws a departure delay: mostly early or on time, with a long
// right tail that grows in the evening, in summer and December, and for
// late-running carriers.
func sampleDelay(rng *rand.Rand, al airline, hour int, month time.Month) float64 {
	base := rng.NormFloat64()*4 - 3
	pLate := 0.12 + float64(hour-5)*0.012 + al.lateness/100
	switch month {
	case time.June, time.July, time.December:
		pLate += 0.06
	}
	if rng.Float64() < pLate {
		base += 15 + rng.ExpFloat64()*35
	}
	return math.Round(base)
}

func splitCauses(rng *rand.Rand, rec map[string]string, delay float64) {
	causes := []string{
		domain.ColAirSystemDelay, domain.ColSecurityDelay, domain.ColAirlineDelay,
		domain.ColLateAircraftDelay, domain.ColWeatherDelay,
	}
	remaining := delay
	for i, c := range causes {
		v := 0.0
		if i == len(causes)-1 {
			v = remaining
		} else if c != domain.ColSecurityDelay {
			v = math.Floor(remaining * rng.Float64())
		}
		remaining -= v
		rec[c] = domain.FormatFloat(v)
	}
}

// corrupt applies one defect, chosen by row index so every kind appears.
func corrupt(rng *rand.Rand, rec map[string]string, i int) {
	switch i % 6 {
	case 0:
		rec[domain.ColOriginAirport] = strings.ToLower(rec[domain.ColOriginAirport]) + " "
	case 1:
		rec[domain.ColArrivalDelay] = "NaN"
	case 2:
		rec[domain.ColMonth] = "13"
	case 3:
		rec[domain.ColDistance] = strconv.Itoa(rng.IntN(10))
	case 4:
		rec[domain.ColAirline] = ""
	case 5:
		rec[domain.ColTaxiOut] = "NA"
	}
}

func distanceMiles(a, b airport) float64 {
	from := geo.Latlong{Lat: a.lat, Long: a.lon}
	to := geo.Latlong{Lat: b.lat, Long: b.lon}
	return from.DistKM(to) * milesPerKM
}

// addMinutes adds m minutes to an HHMM clock time, wrapping at midnight.
func addMinutes(hhmm, m int) int {
	total := ((hhmm/100*60+hhmm%100+m)%1440 + 1440) % 1440
	return total/60*100 + total%60
}

// isoWeekday numbers Monday as 1 and Sunday as 7.
func isoWeekday(t time.Time) int {
	if t.Weekday() == time.Sunday {
		return 7
	}
	return int(t.Weekday())
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
