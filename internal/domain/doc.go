// Package domain models US domestic flight-leg records and the lookup tables
// used to enrich them.
//
// # Data Source
//
// Raw inputs are the DOT on-time performance extract (flight.csv) plus two
// lookup files: airline.csv (IATA_CODE, AIRLINE) and airport.csv (IATA_CODE,
// AIRPORT, CITY, STATE, COUNTRY, LATITUDE, LONGITUDE). Every column is read as
// text; typing happens here, never in the reader.
//
// # Missing Values
//
// Cells that are empty or hold one of the tokens in [missingTokens] ("NaN",
// "NA", "null", ...) are missing. Coercion never fails loudly: an unparseable
// value becomes an empty [Optional] and the row moves on. Later stages turn
// empty optionals into zero (delay fields), drop the row (flight date,
// identifiers, distance), or leave them empty (enrichment fields).
//
// # Flight Date
//
// The flight date is built from YEAR/MONTH/DAY when all three columns exist.
// A combination that does not round-trip through the calendar (month 13,
// February 30) is missing, not clamped. Without those columns the first of
// FLIGHT_DATE, DATE or SCHEDULED_DEPARTURE_DATE that exists is parsed instead.
//
// # Identifiers
//
// Airline and airport IATA codes are trimmed and upper-cased before joining so
// "jfk " and "JFK" resolve to the same airport. Flight numbers are trimmed
// only.
//
// # Join Multiplicity
//
// Lookup codes are not unique in the source files. A flight whose airline or
// airport code matches several lookup rows is repeated once per match, the
// same way a relational left join behaves. No de-duplication is applied.
//
// # Cleaning Policy
//
//	flight_date, airline, origin, destination  required, else the row is dropped
//	distance                                   required and >= 10 miles
//	dep/arr and component delay fields         missing means on-time (filled with 0)
//	cancelled, diverted                        0 or 1, missing means 0
package domain
