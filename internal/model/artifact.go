package model

import (
	"compress/gzip"
	"encoding/gob"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrModelNotFound is returned when no artifact exists at the model path.
var ErrModelNotFound = errors.New("model artifact not found")

const (
	artifactFormat  = "flight-delay-pipeline"
	artifactVersion = 1
)

// artifactHeader precedes the pipeline in the artifact stream so a foreign or
// outdated file is rejected before decoding the model.
type artifactHeader struct {
	Format  string
	Version int
	SavedAt time.Time
}

// SaveArtifact writes the pipeline as a gzip-compressed gob stream. The file
// is written next to path and renamed into place, so readers never observe a
// partial artifact.
func SaveArtifact(path string, p *Pipeline) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create model directory")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp artifact")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if err := EncodePipeline(tmp, p); err != nil {
		tmp.Close() //nolint:errcheck,gosec // already failing
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp artifact")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "move artifact into %s", path)
	}
	return nil
}

// EncodePipeline writes the artifact stream to w.
func EncodePipeline(w io.Writer, p *Pipeline) error {
	gz := gzip.NewWriter(w)
	enc := gob.NewEncoder(gz)
	hdr := artifactHeader{Format: artifactFormat, Version: artifactVersion, SavedAt: clock.Now().UTC()}
	if err := enc.Encode(hdr); err != nil {
		return errors.Wrap(err, "encode artifact header")
	}
	if err := enc.Encode(p); err != nil {
		return errors.Wrap(err, "encode pipeline")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "flush artifact")
	}
	return nil
}

// LoadArtifact reads a pipeline written by SaveArtifact. A missing file is
// reported as ErrModelNotFound.
func LoadArtifact(path string) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(ErrModelNotFound, "%s", path)
		}
		return nil, errors.Wrap(err, "open artifact")
	}
	defer f.Close()
	return DecodePipeline(f)
}

// DecodePipeline reads an artifact stream and restores the pipeline.
func DecodePipeline(r io.Reader) (*Pipeline, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open artifact stream")
	}
	defer gz.Close()

	dec := gob.NewDecoder(gz)
	var hdr artifactHeader
	if err := dec.Decode(&hdr); err != nil {
		return nil, errors.Wrap(err, "decode artifact header")
	}
	if hdr.Format != artifactFormat {
		return nil, errors.Newf("artifact format %q, want %q", hdr.Format, artifactFormat)
	}
	if hdr.Version != artifactVersion {
		return nil, errors.Newf("artifact version %d is not supported (want %d); retrain the model", hdr.Version, artifactVersion)
	}

	var p Pipeline
	if err := dec.Decode(&p); err != nil {
		return nil, errors.Wrap(err, "decode pipeline")
	}
	if err := p.restore(); err != nil {
		return nil, errors.Wrap(err, "restore pipeline")
	}
	return &p, nil
}
