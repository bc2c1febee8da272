package model

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/couchcryptid/flight-delay-etl/internal/features"
)

// Prediction is the answer to one prediction request.
type Prediction struct {
	Delayed     bool    `json:"delayed"`
	Label       int     `json:"label"`
	Probability float64 `json:"probability"`
}

// Service is the inference consumer: it loads the artifact once and answers
// predictions with the shared feature schema. A missing artifact is not fatal;
// every prediction then fails with ErrModelNotFound until the process is
// restarted after training.
type Service struct {
	pipeline *Pipeline
	loadErr  error
	metadata *Metadata
	schema   features.Schema
}

// LoadService loads the artifact and its metadata. Only an unreadable metadata
// file is logged; load failures of the artifact are kept and reported per
// request and by CheckReadiness.
func LoadService(modelPath, metadataPath string, logger *slog.Logger) *Service {
	s := &Service{schema: features.DelaySchema()}

	s.pipeline, s.loadErr = LoadArtifact(modelPath)
	switch {
	case errors.Is(s.loadErr, ErrModelNotFound):
		logger.Warn("model artifact not found, predictions disabled until the model is trained", "path", modelPath)
	case s.loadErr != nil:
		logger.Error("model artifact could not be loaded", "path", modelPath, "error", s.loadErr)
	default:
		logger.Info("model artifact loaded", "path", modelPath, "trees", len(s.pipeline.Forest.Trees))
	}

	meta, err := LoadMetadata(metadataPath)
	if err != nil {
		logger.Warn("model metadata unreadable, showing N/A", "path", metadataPath, "error", err)
	}
	s.metadata = meta
	return s
}

// NewService wraps an already loaded pipeline.
func NewService(p *Pipeline, meta *Metadata) *Service {
	s := &Service{pipeline: p, metadata: meta, schema: features.DelaySchema()}
	if p == nil {
		s.loadErr = ErrModelNotFound
	}
	return s
}

// Predict scores one input. Inputs that do not fit the schema, or a pipeline
// fitted on a different schema, fail with ErrSchemaMismatch.
func (s *Service) Predict(_ context.Context, in features.Input) (Prediction, error) {
	if s.loadErr != nil {
		return Prediction{}, s.loadErr
	}
	if !s.pipeline.Schema.Equal(s.schema) {
		return Prediction{}, errors.Wrapf(ErrSchemaMismatch, "pipeline was fitted on %v, inference uses %v",
			s.pipeline.Schema.Columns(), s.schema.Columns())
	}

	v, err := s.schema.Vectorize(in.Row())
	if err != nil {
		return Prediction{}, errors.Mark(err, ErrSchemaMismatch)
	}
	proba, err := s.pipeline.PredictProba([]features.Vector{v})
	if err != nil {
		return Prediction{}, err
	}
	p := Prediction{Probability: proba[0]}
	if p.Probability > 0.5 {
		p.Delayed, p.Label = true, 1
	}
	return p, nil
}

// Metadata returns the display form of the metadata sidecar.
func (s *Service) Metadata(context.Context) MetadataSummary {
	return s.metadata.Summary()
}

// CheckReadiness reports whether a model is loaded.
func (s *Service) CheckReadiness(context.Context) error {
	if s.loadErr != nil {
		return s.loadErr
	}
	return nil
}
