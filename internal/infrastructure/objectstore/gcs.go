// Package objectstore uploads user files to Google Cloud Storage or to an
// S3-compatible bucket (AWS, MinIO).
package objectstore

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/oksasatya/cofre-digital/pkg/helpers"
)

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

type GCS struct {
	client *storage.Client
	bucket string
	dl     helpers.Deadline
}

func NewGCS(client *storage.Client, bucket string, dl helpers.Deadline) *GCS {
	return &GCS{client: client, bucket: bucket, dl: dl}
}

// Put uploads r into bucket/key with the provided contentType.
func (g *GCS) Put(ctx context.Context, key, contentType string, r io.Reader, _ int64) (string, error) {
	ctx, cancel := g.dl.Apply(ctx)
	defer cancel()
	wc := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return GCSPublicURL(g.bucket, key), nil
}

// GCSPublicURL builds a public URL for an object (assuming public read access).
func GCSPublicURL(bucket, key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}
