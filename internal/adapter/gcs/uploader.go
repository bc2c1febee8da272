package gcs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/couchcryptid/flight-delay-etl/internal/config"
)

// Uploader copies training artifacts into a bucket under a fixed prefix.
// It implements pipeline.ArtifactUploader.
type Uploader struct {
	client *storage.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewUploader creates a storage client using application default credentials.
func NewUploader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Uploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Uploader{client: client, bucket: cfg.GCSBucket, prefix: cfg.GCSPrefix, logger: logger}, nil
}

// Upload writes the local file at localPath to gs://bucket/prefix<basename>,
// replacing any existing object.
func (u *Uploader) Upload(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	name := objectName(u.prefix, localPath)
	w := u.client.Bucket(u.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType(localPath)

	n, err := io.Copy(w, f)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("upload gs://%s/%s: %w", u.bucket, name, err)
	}
	// The object is only committed on Close.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gs://%s/%s: %w", u.bucket, name, err)
	}
	u.logger.Info("artifact uploaded", "object", "gs://"+u.bucket+"/"+name, "bytes", n)
	return nil
}

func (u *Uploader) Close() error {
	return u.client.Close()
}

func objectName(prefix, localPath string) string {
	prefix = strings.Trim(prefix, "/")
	base := filepath.Base(localPath)
	if prefix == "" {
		return base
	}
	return path.Join(prefix, base)
}

func contentType(localPath string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(localPath))); t != "" {
		return t
	}
	return "application/octet-stream"
}
