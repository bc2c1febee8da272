// Command validate performs integrity checks on the outputs of the ETL and
// training jobs: the cleaned table's header and per-row invariants, parity
// with a fresh transform of the raw inputs, and the consistency of the model
// artifact with its metadata and the inference schema.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -cleaned data/raw/flight_delay.csv \
//	  -raw-dir data/raw \
//	  -model models/flight_delay_model.gob \
//	  -metadata models/model_info.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/google/go-cmp/cmp"

	"github.com/couchcryptid/flight-delay-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/flight-delay-etl/internal/domain"
	"github.com/couchcryptid/flight-delay-etl/internal/features"
	"github.com/couchcryptid/flight-delay-etl/internal/model"
	"github.com/couchcryptid/flight-delay-etl/internal/pipeline"
)

// maxRowErrors caps the per-row messages kept for one phase.
const maxRowErrors = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	skipped int
}

func (p *phase) errorf(format string, args ...any) {
	if len(p.errors) >= maxRowErrors {
		p.skipped++
		return
	}
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type options struct {
	cleaned     string
	rawDir      string
	modelPath   string
	metaPath    string
	minDistance float64
}

func main() {
	var o options
	flag.StringVar(&o.cleaned, "cleaned", "data/raw/flight_delay.csv", "path to the cleaned flight table")
	flag.StringVar(&o.rawDir, "raw-dir", "", "directory with flight.csv, airline.csv and airport.csv; enables the parity check")
	flag.StringVar(&o.modelPath, "model", "", "path to the model artifact; enables the model checks")
	flag.StringVar(&o.metaPath, "metadata", "", "path to the model metadata sidecar")
	flag.Float64Var(&o.minDistance, "min-distance", domain.DefaultMinDistanceMiles, "shortest leg the cleaner keeps, in miles")
	flag.Parse()

	if o.cleaned == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(o); code != 0 {
		os.Exit(code)
	}
}

func run(o options) int {
	ctx := context.Background()
	store := csvfile.NewStore(slog.New(slog.NewTextHandler(io.Discard, nil)))

	fmt.Println("=== Flight Delay Data Validation ===")
	fmt.Println()

	cleaned, err := store.ReadTable(ctx, o.cleaned)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load cleaned table: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateHeader(cleaned),
		validateRows(cleaned, o.minDistance),
	}
	if o.rawDir != "" {
		phases = append(phases, validateParity(ctx, store, cleaned, o))
	}
	if o.modelPath != "" {
		phases = append(phases, validateModel(o.modelPath, o.metaPath))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors)+p.skipped)
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d cleaned rows\n", cleaned.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		if p.skipped > 0 {
			fmt.Printf("  ... and %d more\n", p.skipped)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Cleaned table ──

func validateHeader(t domain.Table) *phase {
	p := &phase{name: "Cleaned table header"}
	if !slices.Equal(t.Columns, domain.CleanedColumns) {
		p.errorf("columns %v, want %v", t.Columns, domain.CleanedColumns)
	}
	return p
}

var (
	requiredText = []string{domain.FieldAirline, domain.FieldOrigin, domain.FieldDestination}
	zeroFilled   = []string{
		domain.FieldDepDelay, domain.FieldArrDelay,
		domain.FieldAirSystemDelay, domain.FieldSecurityDelay, domain.FieldAirlineDelay,
		domain.FieldLateAircraftDelay, domain.FieldWeatherDelay,
	}
	flags = []string{domain.FieldCancelled, domain.FieldDiverted}
)

func validateRows(t domain.Table, minDistance float64) *phase {
	p := &phase{name: "Cleaned row invariants"}
	if !t.Has(domain.CleanedColumns...) {
		p.errorf("table lacks cleaned columns; row checks skipped")
		return p
	}
	for i, row := range t.Rows {
		checkRow(p.errorf, i+2, t, row, minDistance)
	}
	return p
}

// checkRow reports every invariant a cleaned row violates. line is the CSV
// line number, header included.
func checkRow(pf func(string, ...any), line int, t domain.Table, row []string, minDistance float64) {
	cell := func(name string) string { return row[t.Index(name)] }

	if _, ok := domain.CoerceDate(cell(domain.FieldFlightDate)).Get(); !ok {
		pf("line %d: flight_date %q is not a date", line, cell(domain.FieldFlightDate))
	}
	for _, f := range requiredText {
		if domain.IsMissing(cell(f)) {
			pf("line %d: %s is empty", line, f)
		}
	}
	if d, err := strconv.ParseFloat(cell(domain.FieldDistance), 64); err != nil {
		pf("line %d: distance %q is not numeric", line, cell(domain.FieldDistance))
	} else if d < minDistance {
		pf("line %d: distance %g below %g", line, d, minDistance)
	}
	for _, f := range zeroFilled {
		if _, err := strconv.ParseFloat(cell(f), 64); err != nil {
			pf("line %d: %s %q is not numeric", line, f, cell(f))
		}
	}
	if v := cell(domain.FieldTaxiOut); v != "" {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			pf("line %d: taxi_out %q is not numeric", line, v)
		}
	}
	for _, f := range flags {
		if v := cell(f); v != "0" && v != "1" {
			pf("line %d: %s %q is not 0 or 1", line, f, v)
		}
	}
}

// ── Parity with raw inputs ──

// validateParity reruns the transform over the raw files and compares the
// result to the cleaned table cell by cell.
func validateParity(ctx context.Context, store *csvfile.Store, cleaned domain.Table, o options) *phase {
	p := &phase{name: "Parity with raw inputs"}

	var in pipeline.Inputs
	for _, f := range []struct {
		name string
		dst  *domain.Table
	}{
		{"flight.csv", &in.Flights},
		{"airline.csv", &in.Airlines},
		{"airport.csv", &in.Airports},
	} {
		t, err := store.ReadTable(ctx, filepath.Join(o.rawDir, f.name))
		if err != nil {
			p.errorf("read %s: %v", f.name, err)
			return p
		}
		*f.dst = t
	}

	policy := domain.DefaultCleanPolicy()
	policy.MinDistance = o.minDistance
	tfm := pipeline.NewTransformer(policy, slog.New(slog.NewTextHandler(io.Discard, nil)))
	out, err := tfm.Transform(ctx, in)
	if err != nil {
		p.errorf("transform raw inputs: %v", err)
		return p
	}

	want := domain.EncodeCleaned(out.Cleaned)
	if want.Len() != cleaned.Len() {
		p.errorf("row count %d, raw inputs produce %d", cleaned.Len(), want.Len())
		return p
	}
	if diff := cmp.Diff(want.Rows, cleaned.Rows); diff != "" {
		p.errorf("cleaned rows differ from a fresh transform (-want +got):\n%s", diff)
	}
	return p
}

// ── Model artifact ──

func validateModel(modelPath, metaPath string) *phase {
	p := &phase{name: "Model artifact"}

	pl, err := model.LoadArtifact(modelPath)
	if err != nil {
		p.errorf("load artifact: %v", err)
		return p
	}
	schema := features.DelaySchema()
	if !pl.Schema.Equal(schema) {
		p.errorf("artifact schema %v differs from inference schema %v", pl.Schema.Columns(), schema.Columns())
	}
	if len(pl.Forest.Trees) == 0 {
		p.errorf("artifact holds no trees")
	}

	if metaPath == "" {
		return p
	}
	meta, err := model.LoadMetadata(metaPath)
	switch {
	case err != nil:
		p.errorf("load metadata: %v", err)
	case meta == nil:
		p.errorf("metadata %s not found", metaPath)
	default:
		if !slices.Equal(meta.Features, schema.Columns()) {
			p.errorf("metadata features %v, want %v", meta.Features, schema.Columns())
		}
		if meta.Accuracy == nil {
			p.errorf("metadata has no accuracy")
		}
	}
	return p
}
