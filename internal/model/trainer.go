package model

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/flight-delay-etl/internal/domain"
	"github.com/couchcryptid/flight-delay-etl/internal/features"
)

// Training defaults.
const (
	DefaultSampleFraction = 0.10
	DefaultSeed           = 42
	DefaultTestSize       = 0.2

	modelName = "Flight Delay Classifier"
	algorithm = "RandomForestClassifier (one-hot + standard scaling, balanced class weights)"
)

// TrainerConfig controls a training run.
type TrainerConfig struct {
	SampleFraction float64
	Seed           uint64
	TestSize       float64
	DelayThreshold float64
	Forest         ForestConfig
	// TrainingData describes the input for the metadata record.
	TrainingData string
}

// DefaultTrainerConfig returns the production settings.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		SampleFraction: DefaultSampleFraction,
		Seed:           DefaultSeed,
		TestSize:       DefaultTestSize,
		DelayThreshold: features.DefaultDelayThreshold,
		Forest:         DefaultForestConfig(),
	}
}

// TrainResult is the outcome of one training run.
type TrainResult struct {
	Pipeline   *Pipeline
	Evaluation Evaluation
	Metadata   *Metadata
	// Prevalence is the share of delayed rows in the sampled data and in the
	// held-out split.
	Prevalence     float64
	TestPrevalence float64
	Duration       time.Duration
}

// Trainer fits the delay classifier from a cleaned flight table.
type Trainer struct {
	cfg    TrainerConfig
	logger *slog.Logger
}

// NewTrainer creates a Trainer.
func NewTrainer(cfg TrainerConfig, logger *slog.Logger) *Trainer {
	return &Trainer{cfg: cfg, logger: logger}
}

// Train derives features and labels, samples, splits, fits and evaluates.
// It fails fast with features.ErrLabelUnavailable when no label can be
// derived. The context is checked between stages; a single fit is not
// interruptible.
func (t *Trainer) Train(ctx context.Context, table domain.Table) (*TrainResult, error) {
	start := clock.Now()
	schema := features.DelaySchema()

	ds, err := features.BuildDataset(table, schema, t.cfg.DelayThreshold)
	if err != nil {
		return nil, err
	}
	t.logger.Info("training dataset built",
		"rows", ds.Len(),
		"skipped_missing_arr_delay", ds.Skipped,
		"delayed", ds.Positives(),
	)

	rng := NewRand(t.cfg.Seed)
	if t.cfg.SampleFraction > 0 && t.cfg.SampleFraction < 1 {
		ds = ds.Subset(Sample(ds.Len(), t.cfg.SampleFraction, rng))
		t.logger.Info("training dataset sampled", "fraction", t.cfg.SampleFraction, "rows", ds.Len())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trainIdx, testIdx, err := StratifiedSplit(ds.Labels, t.cfg.TestSize, rng)
	if err != nil {
		return nil, errors.Wrap(err, "split dataset")
	}
	train, test := ds.Subset(trainIdx), ds.Subset(testIdx)

	p, err := Fit(train, t.cfg.Forest, rng)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pred, err := p.Predict(test.Rows)
	if err != nil {
		return nil, errors.Wrap(err, "predict held-out split")
	}
	eval := Evaluate(test.Labels, pred)

	res := &TrainResult{
		Pipeline:       p,
		Evaluation:     eval,
		Prevalence:     prevalence(ds.Labels),
		TestPrevalence: prevalence(test.Labels),
		Duration:       clock.Since(start),
	}
	res.Metadata = t.metadata(res, train.Len(), test.Len())

	t.logger.Info("model trained",
		"run_id", res.Metadata.RunID,
		"rows_trained", train.Len(),
		"rows_tested", test.Len(),
		"accuracy", eval.Accuracy,
		"f1_delayed", eval.Classes[1].F1,
		"prevalence", res.Prevalence,
		"test_prevalence", res.TestPrevalence,
		"duration", res.Duration,
	)
	return res, nil
}

func (t *Trainer) metadata(res *TrainResult, nTrain, nTest int) *Metadata {
	acc := res.Evaluation.Accuracy
	now := clock.Now().UTC()
	eval := res.Evaluation
	return &Metadata{
		ModelName:          modelName,
		Algorithm:          algorithm,
		Target:             "is_delayed (arr_delay > threshold)",
		Accuracy:           &acc,
		TrainingData:       t.cfg.TrainingData,
		LastTrained:        &now,
		Features:           res.Pipeline.Schema.Columns(),
		RunID:              uuid.NewString(),
		RowsTrained:        nTrain,
		RowsTested:         nTest,
		DelayThreshold:     t.cfg.DelayThreshold,
		Evaluation:         &eval,
		FeatureImportances: res.Pipeline.FeatureImportances(),
	}
}

func prevalence(labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	x := make([]float64, len(labels))
	for i, y := range labels {
		x[i] = float64(y)
	}
	return stat.Mean(x, nil)
}
