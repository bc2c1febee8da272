package model

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/scigo/preprocessing"
	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/flight-delay-etl/internal/features"
)

// ErrSchemaMismatch is returned when an input does not match the feature
// schema the pipeline was fitted on. It fails only the request at hand.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// ScalerParams are the fitted standardization statistics, persisted with the
// pipeline.
type ScalerParams struct {
	Mean  []float64
	Scale []float64
}

// Pipeline is the fitted preprocessing plus classifier, persisted as a single
// artifact. Categorical features are one-hot encoded and numeric features are
// standard-scaled before reaching the forest.
type Pipeline struct {
	Schema  features.Schema
	Encoder *OneHotEncoder
	Scaler  ScalerParams
	Forest  *RandomForest

	scaler *preprocessing.StandardScaler
}

// Fit trains a pipeline on a labeled dataset.
func Fit(ds *features.Dataset, cfg ForestConfig, rng *rand.Rand) (*Pipeline, error) {
	if ds.Len() == 0 {
		return nil, errors.New("fit pipeline: empty training set")
	}
	for i, r := range ds.Rows {
		if len(r.Categorical) != len(ds.Schema.Categorical) || len(r.Numeric) != len(ds.Schema.Numeric) {
			return nil, errors.Wrapf(ErrSchemaMismatch, "training row %d", i)
		}
	}

	p := &Pipeline{
		Schema:  ds.Schema,
		Encoder: FitOneHot(ds.Schema.Categorical, ds.Rows),
	}

	scaler := preprocessing.NewStandardScalerDefault()
	if err := scaler.Fit(numericMatrix(ds.Rows, len(ds.Schema.Numeric))); err != nil {
		return nil, errors.Wrap(err, "fit scaler")
	}
	p.Scaler = ScalerParams{Mean: scaler.Mean, Scale: scaler.Scale}
	p.scaler = scaler

	x, err := p.encode(ds.Rows)
	if err != nil {
		return nil, err
	}
	forest, err := FitForest(x, ds.Labels, p.Encoder.Width, len(ds.Schema.Numeric), cfg, rng)
	if err != nil {
		return nil, errors.Wrap(err, "fit forest")
	}
	p.Forest = forest
	return p, nil
}

// restore rebuilds the unexported state after decoding.
func (p *Pipeline) restore() error {
	if p.Encoder == nil || p.Forest == nil {
		return errors.New("pipeline is missing its encoder or forest")
	}
	if len(p.Scaler.Mean) != len(p.Schema.Numeric) || len(p.Scaler.Scale) != len(p.Schema.Numeric) {
		return errors.Wrapf(ErrSchemaMismatch, "scaler has %d columns, schema has %d numeric features",
			len(p.Scaler.Mean), len(p.Schema.Numeric))
	}
	p.Encoder.buildIndex()

	s := preprocessing.NewStandardScalerDefault()
	s.Mean = p.Scaler.Mean
	s.Scale = p.Scaler.Scale
	s.NFeatures = len(p.Scaler.Mean)
	s.SetFitted()
	p.scaler = s
	return nil
}

// PredictProba returns the delay probability of every row.
func (p *Pipeline) PredictProba(rows []features.Vector) ([]float64, error) {
	x, err := p.encode(rows)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i := range x {
		out[i] = p.Forest.PredictProba(x[i])
	}
	return out, nil
}

// Predict returns 1 for rows whose delay probability exceeds one half.
func (p *Pipeline) Predict(rows []features.Vector) ([]int, error) {
	proba, err := p.PredictProba(rows)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(proba))
	for i, pr := range proba {
		if pr > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

// FeatureImportances folds the per-column importances back onto schema
// feature names: indicator columns sum into their categorical feature.
func (p *Pipeline) FeatureImportances() map[string]float64 {
	out := make(map[string]float64, len(p.Schema.Columns()))
	for _, name := range p.Schema.Columns() {
		out[name] = 0
	}
	for col, v := range p.Forest.Importances {
		if col < p.Encoder.Width {
			out[p.Schema.Categorical[p.Encoder.ColumnFeature(col)]] += v
			continue
		}
		out[p.Schema.Numeric[col-p.Encoder.Width]] += v
	}
	return out
}

func (p *Pipeline) encode(rows []features.Vector) ([]EncodedRow, error) {
	nCat, nNum := len(p.Schema.Categorical), len(p.Schema.Numeric)
	for i, r := range rows {
		if len(r.Categorical) != nCat || len(r.Numeric) != nNum {
			return nil, errors.Wrapf(ErrSchemaMismatch,
				"row %d has %d categorical and %d numeric values, pipeline expects %d and %d",
				i, len(r.Categorical), len(r.Numeric), nCat, nNum)
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	scaled, err := p.scaler.Transform(numericMatrix(rows, nNum))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "scale numeric features"), ErrSchemaMismatch)
	}

	out := make([]EncodedRow, len(rows))
	for i, r := range rows {
		num := make([]float64, nNum)
		mat.Row(num, i, scaled)
		out[i] = EncodedRow{Hot: p.Encoder.Encode(r.Categorical), Num: num}
	}
	return out, nil
}

func numericMatrix(rows []features.Vector, width int) *mat.Dense {
	m := mat.NewDense(len(rows), width, nil)
	for i, r := range rows {
		m.SetRow(i, r.Numeric)
	}
	return m
}
