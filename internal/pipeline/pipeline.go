package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/flight-delay-etl/internal/domain"
	"github.com/couchcryptid/flight-delay-etl/internal/observability"
)

// TableReader loads a whole named table: a file path or a warehouse table.
type TableReader interface {
	ReadTable(ctx context.Context, name string) (domain.Table, error)
}

// TableWriter replaces a whole named table.
type TableWriter interface {
	WriteTable(ctx context.Context, name string, t domain.Table) error
}

// BatchLoader writes one chunk of cleaned rows to an additional sink.
type BatchLoader interface {
	LoadBatch(ctx context.Context, rows []domain.CleanedFlightRow) error
}

// Replacer is implemented by sinks that overwrite their target on the first
// chunk of a run and append afterwards.
type Replacer interface {
	BeginRun()
}

// SalesLoader publishes the derived sales table to an additional sink.
type SalesLoader interface {
	LoadSales(ctx context.Context, rows []domain.SalesRow) error
}

// Defaults for Options.
const (
	DefaultChunkSize   = 50000
	DefaultMaxAttempts = 1
)

// Paths names the tables the ETL job reads and writes.
type Paths struct {
	Flights  string
	Airlines string
	Airports string
	Cleaned  string
	Sales    string
}

// Options control a Pipeline.
type Options struct {
	Paths Paths
	// ChunkSize bounds the rows handed to a BatchLoader per call.
	ChunkSize int
	// MaxAttempts is how often a failing chunk is tried before the run fails.
	// The default of 1 fails the run on the first error.
	MaxAttempts int
}

type sink struct {
	name   string
	loader BatchLoader
}

// Result summarizes one ETL run.
type Result struct {
	Report   domain.CleanReport
	Sales    int
	Loaded   map[string]int
	Duration time.Duration
}

// Pipeline runs the batch extract-transform-load job: read the raw tables,
// clean and join them, then write the cleaned table and fan it out to the
// configured sinks in chunks.
type Pipeline struct {
	reader      TableReader
	transformer Transformer
	writer      TableWriter
	sinks       []sink
	sales       []SalesLoader
	opts        Options
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(r TableReader, t Transformer, w TableWriter, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Pipeline{
		reader:      r,
		transformer: t,
		writer:      w,
		opts:        opts,
		logger:      logger,
		metrics:     metrics,
	}
}

// AddSink registers an additional destination for the cleaned rows.
func (p *Pipeline) AddSink(name string, l BatchLoader) {
	p.sinks = append(p.sinks, sink{name: name, loader: l})
}

// AddSalesLoader registers an additional destination for the sales table.
func (p *Pipeline) AddSalesLoader(l SalesLoader) {
	p.sales = append(p.sales, l)
}

// CheckReadiness returns nil once a run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes one complete ETL pass. The cleaned CSV is always written
// before any sink is tried.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	p.logger.Info("pipeline started", "chunk_size", p.opts.ChunkSize, "sinks", len(p.sinks))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	in, err := p.extract(ctx)
	if err != nil {
		return Result{}, err
	}

	stageStart := time.Now()
	out, err := p.transformer.Transform(ctx, in)
	if err != nil {
		return Result{}, fmt.Errorf("transform: %w", err)
	}
	p.observe("transform", stageStart)
	p.recordClean(out.Report)

	res := Result{Report: out.Report, Sales: len(out.Sales), Loaded: map[string]int{}}
	stageStart = time.Now()
	if err := p.load(ctx, out, res.Loaded); err != nil {
		return res, err
	}
	p.observe("load", stageStart)

	res.Duration = time.Since(start)
	p.ready.Store(true)
	p.logger.Info("pipeline finished",
		"cleaned", out.Report.Output,
		"dropped", out.Report.Dropped(),
		"sales", res.Sales,
		"duration", res.Duration,
	)
	return res, nil
}

func (p *Pipeline) extract(ctx context.Context) (Inputs, error) {
	start := time.Now()
	var in Inputs
	for _, src := range []struct {
		label, name string
		dst         *domain.Table
	}{
		{"flight", p.opts.Paths.Flights, &in.Flights},
		{"airline", p.opts.Paths.Airlines, &in.Airlines},
		{"airport", p.opts.Paths.Airports, &in.Airports},
	} {
		t, err := p.reader.ReadTable(ctx, src.name)
		if err != nil {
			return Inputs{}, fmt.Errorf("extract %s table: %w", src.label, err)
		}
		*src.dst = t
		p.metrics.RowsRead.WithLabelValues(src.label).Add(float64(t.Len()))
		p.logger.Info("table read", "table", src.label, "name", src.name, "rows", t.Len())
	}
	p.observe("extract", start)
	return in, nil
}

func (p *Pipeline) recordClean(r domain.CleanReport) {
	p.metrics.RowsCleaned.Add(float64(r.Output))
	p.metrics.RowsDropped.WithLabelValues("flight_date").Add(float64(r.DroppedFlightDate))
	p.metrics.RowsDropped.WithLabelValues("identifiers").Add(float64(r.DroppedIdentifiers))
	p.metrics.RowsDropped.WithLabelValues("distance").Add(float64(r.DroppedDistance))
	p.metrics.RowsMissing.WithLabelValues("dep_delay").Add(float64(r.MissingDepDelay))
	p.metrics.RowsMissing.WithLabelValues("arr_delay").Add(float64(r.MissingArrDelay))
	p.metrics.RowsMissing.WithLabelValues("flight_date").Add(float64(r.MissingFlightDate))
}

func (p *Pipeline) load(ctx context.Context, out Output, loaded map[string]int) error {
	if err := p.writer.WriteTable(ctx, p.opts.Paths.Cleaned, domain.EncodeCleaned(out.Cleaned)); err != nil {
		p.metrics.LoadErrors.WithLabelValues("csv").Inc()
		return fmt.Errorf("write cleaned table: %w", err)
	}
	p.metrics.RowsLoaded.WithLabelValues("csv").Add(float64(len(out.Cleaned)))
	loaded["csv"] = len(out.Cleaned)
	p.logger.Info("cleaned table written", "name", p.opts.Paths.Cleaned, "rows", len(out.Cleaned))

	if p.opts.Paths.Sales != "" {
		if err := p.writer.WriteTable(ctx, p.opts.Paths.Sales, domain.EncodeSales(out.Sales)); err != nil {
			return fmt.Errorf("write sales table: %w", err)
		}
		p.logger.Info("sales table written", "name", p.opts.Paths.Sales, "rows", len(out.Sales))
	}

	for _, s := range p.sinks {
		n, err := p.loadChunks(ctx, s, out.Cleaned)
		loaded[s.name] = n
		if err != nil {
			return err
		}
	}
	for _, l := range p.sales {
		if err := p.withRetry(ctx, func() error { return l.LoadSales(ctx, out.Sales) }); err != nil {
			return fmt.Errorf("load sales table: %w", err)
		}
	}
	return nil
}

// loadChunks hands rows to the sink in ChunkSize slices and returns how many
// rows were accepted before the first failure.
func (p *Pipeline) loadChunks(ctx context.Context, s sink, rows []domain.CleanedFlightRow) (int, error) {
	if r, ok := s.loader.(Replacer); ok {
		r.BeginRun()
	}
	loaded := 0
	for start := 0; start < len(rows); start += p.opts.ChunkSize {
		chunk := rows[start:min(start+p.opts.ChunkSize, len(rows))]
		if err := p.withRetry(ctx, func() error { return s.loader.LoadBatch(ctx, chunk) }); err != nil {
			p.metrics.LoadErrors.WithLabelValues(s.name).Inc()
			p.logger.Error("load chunk failed", "sink", s.name, "offset", start, "rows", len(chunk), "error", err)
			return loaded, fmt.Errorf("load %s chunk at row %d: %w", s.name, start, err)
		}
		loaded += len(chunk)
		p.metrics.RowsLoaded.WithLabelValues(s.name).Add(float64(len(chunk)))
		p.logger.Info("chunk loaded", "sink", s.name, "loaded", loaded, "total", len(rows))
	}
	return loaded, nil
}

// withRetry calls fn until it succeeds, MaxAttempts is reached or ctx ends.
// Waits start at 200ms and double up to 5s.
func (p *Pipeline) withRetry(ctx context.Context, fn func() error) error {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	var err error
	for attempt := 1; attempt <= p.opts.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt == p.opts.MaxAttempts {
			break
		}
		p.logger.Warn("load attempt failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if !sleepWithContext(ctx, backoff) {
			break
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return err
}

func (p *Pipeline) observe(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
