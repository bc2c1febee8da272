package bigquery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	bq "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/couchcryptid/flight-delay-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/flight-delay-etl/internal/config"
	"github.com/couchcryptid/flight-delay-etl/internal/domain"
)

// Warehouse table names.
const (
	FlightTable = "flight_delay"
	SalesTable  = "sales_data"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Client runs queries and load jobs against one dataset.
type Client struct {
	client  *bq.Client
	dataset string
	logger  *slog.Logger
}

// NewClient connects to the configured project using application default
// credentials.
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	client, err := bq.NewClient(ctx, cfg.BigQueryProject)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	return &Client{client: client, dataset: cfg.BigQueryDataset, logger: logger}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Query runs sql and returns the result as text cells, column names taken
// from the result schema. NULL cells become empty strings.
func (c *Client) Query(ctx context.Context, sql string) (domain.Table, error) {
	it, err := c.client.Query(sql).Read(ctx)
	if err != nil {
		return domain.Table{}, fmt.Errorf("run query: %w", err)
	}

	var rows [][]string
	for {
		var values []bq.Value
		err := it.Next(&values)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("read query results: %w", err)
		}
		rows = append(rows, toRecord(values))
	}

	columns := make([]string, len(it.Schema))
	for i, f := range it.Schema {
		columns[i] = f.Name
	}
	c.logger.Debug("bigquery query finished", "rows", len(rows), "columns", len(columns))
	return domain.NewTable(columns, rows), nil
}

// ReadTable returns every row of a table in the client's dataset. It lets
// the training job read the warehouse copy instead of the cleaned CSV.
func (c *Client) ReadTable(ctx context.Context, name string) (domain.Table, error) {
	sql, err := selectAll(c.dataset, name)
	if err != nil {
		return domain.Table{}, err
	}
	return c.Query(ctx, sql)
}

// loadCSV runs a load job for t and waits for it to finish.
func (c *Client) loadCSV(ctx context.Context, table string, t domain.Table, schema bq.Schema, disposition bq.TableWriteDisposition) error {
	data, err := csvfile.EncodeBytes(t)
	if err != nil {
		return err
	}

	src := bq.NewReaderSource(bytes.NewReader(data))
	src.SourceFormat = bq.CSV
	src.SkipLeadingRows = 1
	src.Schema = schema

	loader := c.client.Dataset(c.dataset).Table(table).LoaderFrom(src)
	loader.CreateDisposition = bq.CreateIfNeeded
	loader.WriteDisposition = disposition

	start := time.Now()
	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("submit load job for %s: %w", table, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for load job %s: %w", job.ID(), err)
	}
	if err := status.Err(); err != nil {
		for i, inner := range status.Errors {
			c.logger.Error("bigquery load error", "job", job.ID(), "index", i, "error", inner)
		}
		return fmt.Errorf("load job %s: %w", job.ID(), err)
	}
	c.logger.Info("bigquery load finished",
		"table", table,
		"rows", t.Len(),
		"disposition", disposition,
		"duration", time.Since(start),
	)
	return nil
}

func selectAll(dataset, table string) (string, error) {
	for _, id := range []string{dataset, table} {
		if !identPattern.MatchString(id) {
			return "", fmt.Errorf("invalid bigquery identifier %q", id)
		}
	}
	return fmt.Sprintf("SELECT * FROM `%s.%s`", dataset, table), nil
}

func toRecord(values []bq.Value) []string {
	rec := make([]string, len(values))
	for i, v := range values {
		rec[i] = formatValue(v)
	}
	return rec
}

// formatValue renders a cell the way the CSV reader would have seen it.
// DATE columns arrive as civil.Date, whose String form is already ISO.
func formatValue(v bq.Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
