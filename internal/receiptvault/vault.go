// Package receiptvault archives scanned receipt images in Google Cloud
// Storage so the original document survives beyond the extracted transaction.
package receiptvault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const uploadTimeout = 2 * time.Minute

// Vault stores receipt images in a GCS bucket.
type Vault struct {
	client *storage.Client
	bucket string
}

// New creates a Vault backed by the given bucket. It assumes Application
// Default Credentials are configured.
func New(ctx context.Context, bucket string) (*Vault, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("receiptvault: create storage client: %w", err)
	}
	return &Vault{client: client, bucket: bucket}, nil
}

// Archive uploads a receipt image and returns the object key it was stored
// under. Keys are grouped by upload date so buckets stay browsable.
func (v *Vault) Archive(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	key := objectKey(userID, time.Now().UTC())

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := v.client.Bucket(v.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("receiptvault: write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("receiptvault: close object %q: %w", key, err)
	}

	return key, nil
}

// Fetch reads a previously archived receipt back out of the bucket.
func (v *Vault) Fetch(ctx context.Context, key string) ([]byte, error) {
	r, err := v.client.Bucket(v.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("receiptvault: open object %q: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("receiptvault: read object %q: %w", key, err)
	}
	return data, nil
}

// Close releases the underlying storage client.
func (v *Vault) Close() error {
	return v.client.Close()
}

func objectKey(userID string, now time.Time) string {
	return fmt.Sprintf("receipts/%s/%s/%s", now.Format("2006/01/02"), userID, uuid.NewString())
}
