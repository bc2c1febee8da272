package bigquery

import (
	"context"
	"sync"

	bq "cloud.google.com/go/bigquery"

	"github.com/couchcryptid/flight-delay-etl/internal/domain"
)

// FlightLoader writes cleaned rows to the flight_delay table. The first chunk
// of a run replaces the table; later chunks append.
type FlightLoader struct {
	client *Client
	table  string

	mu      sync.Mutex
	replace bool
}

// NewFlightLoader creates a loader for FlightTable.
func NewFlightLoader(c *Client) *FlightLoader {
	return &FlightLoader{client: c, table: FlightTable, replace: true}
}

// BeginRun makes the next chunk replace the table.
func (l *FlightLoader) BeginRun() {
	l.mu.Lock()
	l.replace = true
	l.mu.Unlock()
}

func (l *FlightLoader) LoadBatch(ctx context.Context, rows []domain.CleanedFlightRow) error {
	if len(rows) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.client.loadCSV(ctx, l.table, domain.EncodeCleaned(rows), cleanedSchema(), disposition(l.replace)); err != nil {
		return err
	}
	// A failed first chunk is retried as a replace.
	l.replace = false
	return nil
}

const defaultSalesChunk = 50000

// SalesLoader replaces the sales_data table, splitting it into load jobs of
// at most chunkSize rows.
type SalesLoader struct {
	client    *Client
	table     string
	chunkSize int
}

func NewSalesLoader(c *Client, chunkSize int) *SalesLoader {
	if chunkSize <= 0 {
		chunkSize = defaultSalesChunk
	}
	return &SalesLoader{client: c, table: SalesTable, chunkSize: chunkSize}
}

func (l *SalesLoader) LoadSales(ctx context.Context, rows []domain.SalesRow) error {
	for start := 0; start < len(rows); start += l.chunkSize {
		chunk := rows[start:min(start+l.chunkSize, len(rows))]
		if err := l.client.loadCSV(ctx, l.table, domain.EncodeSales(chunk), salesSchema(), disposition(start == 0)); err != nil {
			return err
		}
	}
	return nil
}

func disposition(replace bool) bq.TableWriteDisposition {
	if replace {
		return bq.WriteTruncate
	}
	return bq.WriteAppend
}

func cleanedSchema() bq.Schema {
	types := map[string]bq.FieldType{
		domain.FieldFlightDate:   bq.DateFieldType,
		domain.FieldAirline:      bq.StringFieldType,
		domain.FieldFlightNumber: bq.StringFieldType,
		domain.FieldOrigin:       bq.StringFieldType,
		domain.FieldDestination:  bq.StringFieldType,
		domain.FieldCRSDepTime:   bq.StringFieldType,
		domain.FieldCancelled:    bq.IntegerFieldType,
		domain.FieldDiverted:     bq.IntegerFieldType,
	}
	return schemaFor(domain.CleanedColumns, types, bq.FloatFieldType)
}

func salesSchema() bq.Schema {
	types := map[string]bq.FieldType{
		"flight_date":  bq.DateFieldType,
		"seats_sold":   bq.IntegerFieldType,
		"ticket_price": bq.FloatFieldType,
		"revenue":      bq.FloatFieldType,
	}
	return schemaFor(domain.SalesColumns, types, bq.StringFieldType)
}

// schemaFor builds a nullable schema in column order; columns missing from
// types get fallback.
func schemaFor(columns []string, types map[string]bq.FieldType, fallback bq.FieldType) bq.Schema {
	schema := make(bq.Schema, len(columns))
	for i, name := range columns {
		t, ok := types[name]
		if !ok {
			t = fallback
		}
		schema[i] = &bq.FieldSchema{Name: name, Type: t}
	}
	return schema
}
