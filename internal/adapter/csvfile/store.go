// Package csvfile reads and writes whole tables as CSV files. Every cell is
// kept as text; type coercion belongs to the domain normalizer.
package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/flight-delay-etl/internal/domain"
)

// Store implements pipeline.TableReader and pipeline.TableWriter over the
// local filesystem. Table names are file paths.
type Store struct {
	logger *slog.Logger
}

// NewStore creates a CSV store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{logger: logger}
}

// ReadTable loads the file at path with every column typed as string.
func (s *Store) ReadTable(ctx context.Context, path string) (domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return domain.Table{}, err
	}
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return domain.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only

	t, err := Decode(f)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	s.logger.Debug("csv table read", "path", path, "rows", t.Len(), "columns", len(t.Columns))
	return t, nil
}

// WriteTable replaces the file at path with t. The new content is written to
// a sibling temp file first and renamed into place.
func (s *Store) WriteTable(ctx context.Context, path string, t domain.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	if err := Encode(tmp, t); err != nil {
		tmp.Close() //nolint:errcheck,gosec // already failing
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	s.logger.Debug("csv table written", "path", path, "rows", t.Len())
	return nil
}

// Decode parses CSV with a header row. A file holding only the header, as
// Encode writes for an empty table, decodes to a table with no rows.
func Decode(r io.Reader) (domain.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Table{}, err
	}
	if header, ok, err := headerOnly(data); err != nil {
		return domain.Table{}, err
	} else if ok {
		return domain.NewTable(header, nil), nil
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return domain.Table{}, df.Err
	}
	records := df.Records()
	return domain.NewTable(records[0], records[1:]), nil
}

// headerOnly reports whether data holds a header and no records. gota
// rejects such input as an empty frame.
func headerOnly(data []byte) ([]string, bool, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, errors.New("empty csv: no header row")
	}
	if err != nil {
		return nil, false, fmt.Errorf("read header: %w", err)
	}
	if _, err := cr.Read(); errors.Is(err, io.EOF) {
		return header, true, nil
	}
	return nil, false, nil
}

// Encode writes t as CSV with a header row.
func Encode(w io.Writer, t domain.Table) error {
	if t.Len() == 0 {
		// gota cannot build a frame without rows.
		cw := csv.NewWriter(w)
		if err := cw.Write(t.Columns); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	}
	records := make([][]string, 0, t.Len()+1)
	records = append(records, t.Columns)
	records = append(records, t.Rows...)
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return df.Err
	}
	return df.WriteCSV(w)
}

// EncodeBytes is Encode into memory.
func EncodeBytes(t domain.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
