package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

// NotAvailable is shown for metadata fields that are absent.
const NotAvailable = "N/A"

// Metadata is the JSON sidecar written next to the artifact. Readers tolerate
// any field being absent; nothing ties it to a particular artifact except the
// run id.
type Metadata struct {
	ModelName          string             `json:"model_name,omitempty"`
	Algorithm          string             `json:"algorithm,omitempty"`
	Target             string             `json:"target,omitempty"`
	Accuracy           *float64           `json:"accuracy,omitempty"`
	TrainingData       string             `json:"training_data,omitempty"`
	LastTrained        *time.Time         `json:"last_trained,omitempty"`
	Features           []string           `json:"features,omitempty"`
	RunID              string             `json:"run_id,omitempty"`
	RowsTrained        int                `json:"rows_trained,omitempty"`
	RowsTested         int                `json:"rows_tested,omitempty"`
	DelayThreshold     float64            `json:"delay_threshold_minutes,omitempty"`
	Evaluation         *Evaluation        `json:"evaluation,omitempty"`
	FeatureImportances map[string]float64 `json:"feature_importances,omitempty"`
}

// MetadataSummary is the display form of Metadata with absent fields shown
// as NotAvailable.
type MetadataSummary struct {
	ModelName    string   `json:"model_name"`
	Algorithm    string   `json:"algorithm"`
	Target       string   `json:"target"`
	Accuracy     string   `json:"accuracy"`
	TrainingData string   `json:"training_data"`
	LastTrained  string   `json:"last_trained"`
	Features     []string `json:"features"`
	RunID        string   `json:"run_id"`
}

// Summary renders m for display. A nil receiver yields an all-N/A summary.
func (m *Metadata) Summary() MetadataSummary {
	s := MetadataSummary{
		ModelName:    NotAvailable,
		Algorithm:    NotAvailable,
		Target:       NotAvailable,
		Accuracy:     NotAvailable,
		TrainingData: NotAvailable,
		LastTrained:  NotAvailable,
		Features:     []string{},
		RunID:        NotAvailable,
	}
	if m == nil {
		return s
	}
	orNA := func(v string) string {
		if v == "" {
			return NotAvailable
		}
		return v
	}
	s.ModelName = orNA(m.ModelName)
	s.Algorithm = orNA(m.Algorithm)
	s.Target = orNA(m.Target)
	s.TrainingData = orNA(m.TrainingData)
	s.RunID = orNA(m.RunID)
	if m.Accuracy != nil {
		s.Accuracy = strconv.FormatFloat(*m.Accuracy, 'f', 4, 64)
	}
	if m.LastTrained != nil {
		s.LastTrained = m.LastTrained.UTC().Format(time.RFC3339)
	}
	if m.Features != nil {
		s.Features = m.Features
	}
	return s
}

// SaveMetadata writes m as indented JSON, replacing any previous file.
func SaveMetadata(path string, m *Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode metadata")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create metadata directory")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec // metadata is not secret
		return errors.Wrap(err, "write metadata")
	}
	return nil
}

// LoadMetadata reads the sidecar. A missing file returns (nil, nil): absence
// is tolerated and displayed as N/A.
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read metadata")
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "decode metadata %s", path)
	}
	return &m, nil
}
