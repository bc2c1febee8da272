package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flight-delay-etl/internal/forecast"
	"github.com/couchcryptid/flight-delay-etl/internal/model"
	"github.com/couchcryptid/flight-delay-etl/internal/observability"
)

// Reporter renders a finished training run and returns the files it wrote.
type Reporter interface {
	Report(res *model.TrainResult, fc *forecast.Result) ([]string, error)
}

// ArtifactUploader copies a local file to remote storage.
type ArtifactUploader interface {
	Upload(ctx context.Context, localPath string) error
}

// TrainOptions name the tables and files of a training run.
type TrainOptions struct {
	CleanedTable    string
	SalesTable      string
	ModelPath       string
	MetadataPath    string
	ForecastPath    string
	ForecastHorizon int
}

// TrainOutcome summarizes a training run.
type TrainOutcome struct {
	Result   *model.TrainResult
	Forecast *forecast.Result
	Files    []string
}

// TrainJob reads the cleaned table, fits and persists the classifier, then
// runs the optional forecast, report and upload steps. Only reading,
// training and persisting the classifier can fail the job; the forecast and
// report degrade to warnings.
type TrainJob struct {
	reader     TableReader
	trainer    *model.Trainer
	forecaster forecast.Forecaster
	reporter   Reporter
	uploader   ArtifactUploader
	opts       TrainOptions
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewTrainJob creates a TrainJob. forecaster, reporter and uploader may be nil.
func NewTrainJob(
	r TableReader,
	trainer *model.Trainer,
	forecaster forecast.Forecaster,
	reporter Reporter,
	uploader ArtifactUploader,
	opts TrainOptions,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *TrainJob {
	return &TrainJob{
		reader:     r,
		trainer:    trainer,
		forecaster: forecaster,
		reporter:   reporter,
		uploader:   uploader,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run executes the job.
func (j *TrainJob) Run(ctx context.Context) (*TrainOutcome, error) {
	j.metrics.PipelineRunning.Set(1)
	defer j.metrics.PipelineRunning.Set(0)

	start := time.Now()
	table, err := j.reader.ReadTable(ctx, j.opts.CleanedTable)
	if err != nil {
		return nil, fmt.Errorf("read training table %s: %w", j.opts.CleanedTable, err)
	}
	j.metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())

	start = time.Now()
	res, err := j.trainer.Train(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	j.metrics.StageDuration.WithLabelValues("train").Observe(time.Since(start).Seconds())
	j.metrics.ModelAccuracy.Set(res.Evaluation.Accuracy)

	if err := model.SaveArtifact(j.opts.ModelPath, res.Pipeline); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	if err := model.SaveMetadata(j.opts.MetadataPath, res.Metadata); err != nil {
		return nil, fmt.Errorf("save metadata: %w", err)
	}
	j.logger.Info("model saved", "model_path", j.opts.ModelPath, "metadata_path", j.opts.MetadataPath)

	out := &TrainOutcome{Result: res, Files: []string{j.opts.ModelPath, j.opts.MetadataPath}}

	out.Forecast = j.forecast(ctx, res)
	if out.Forecast != nil {
		out.Files = append(out.Files, j.opts.ForecastPath)
	}

	if j.reporter != nil {
		files, err := j.reporter.Report(res, out.Forecast)
		if err != nil {
			j.logger.Warn("training report failed", "error", err)
		} else {
			out.Files = append(out.Files, files...)
		}
	}

	if j.uploader != nil {
		for _, f := range out.Files {
			if err := j.uploader.Upload(ctx, f); err != nil {
				return out, fmt.Errorf("upload %s: %w", f, err)
			}
		}
		j.logger.Info("artifacts uploaded", "files", len(out.Files))
	}
	return out, nil
}

// forecast fits the revenue forecaster on the sales table. Every failure is
// logged and skipped.
func (j *TrainJob) forecast(ctx context.Context, res *model.TrainResult) *forecast.Result {
	if j.forecaster == nil {
		j.logger.Warn("revenue forecaster disabled, skipping forecast")
		return nil
	}
	start := time.Now()

	sales, err := j.reader.ReadTable(ctx, j.opts.SalesTable)
	if err != nil {
		j.logger.Warn("sales table unavailable, skipping forecast", "table", j.opts.SalesTable, "error", err)
		return nil
	}
	history, err := forecast.DailyRevenueFromTable(sales)
	if err != nil {
		j.logger.Warn("sales table unusable, skipping forecast", "error", err)
		return nil
	}
	if err := j.forecaster.Fit(ctx, history); err != nil {
		j.logger.Warn("forecast fit failed, skipping forecast", "model", j.forecaster.Name(), "days", len(history), "error", err)
		return nil
	}
	points, err := j.forecaster.Forecast(j.opts.ForecastHorizon)
	if err != nil {
		j.logger.Warn("forecast failed", "model", j.forecaster.Name(), "error", err)
		return nil
	}

	fc := &forecast.Result{
		Model:    j.forecaster.Name(),
		History:  history,
		Forecast: points,
	}
	if res.Metadata.LastTrained != nil {
		fc.GeneratedAt = *res.Metadata.LastTrained
	}
	if o, ok := j.forecaster.(interface{ Order() string }); ok {
		fc.Order = o.Order()
	}
	if err := forecast.SaveResult(j.opts.ForecastPath, *fc); err != nil {
		j.logger.Warn("forecast not saved", "path", j.opts.ForecastPath, "error", err)
		return nil
	}
	j.metrics.StageDuration.WithLabelValues("forecast").Observe(time.Since(start).Seconds())
	j.logger.Info("revenue forecast saved", "path", j.opts.ForecastPath, "days", len(history), "horizon", len(points))
	return fc
}
