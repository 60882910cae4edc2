package helpers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// GCSStore keeps avatar objects in a single bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

// Put uploads r into the bucket under key with the provided contentType
func (s *GCSStore) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	wc := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return fmt.Errorf("gcs upload %s: %w", key, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("gcs upload %s: %w", key, err)
	}
	return nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete %s: %w", key, err)
	}
	return nil
}

// URL builds a public URL for an object (assuming public read access or signed URLs)
func (s *GCSStore) URL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}
