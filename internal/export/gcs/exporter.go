// Package gcs uploads JSON snapshots of the ledger to a Cloud Storage bucket.
package gcs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/finla/internal/export"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UploadTimeout bounds a single object upload.
const UploadTimeout = 2 * time.Minute

// Bucket is the destination bucket.
type Bucket interface {
	// Name returns the bucket name.
	Name() string

	// Write stores data as object, replacing any existing object.
	Write(ctx context.Context, object, contentType string, data []byte) error
}

// StorageBucket is the Bucket backed by a Cloud Storage client.
// It assumes Application Default Credentials are configured.
type StorageBucket struct {
	client *storage.Client
	bucket string
}

// NewStorageBucket creates a storage client for bucket.
func NewStorageBucket(ctx context.Context, bucket string) (*StorageBucket, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewStorageBucket: create storage client: %w", err)
	}
	return &StorageBucket{client: client, bucket: bucket}, nil
}

// Close closes the storage client.
func (b *StorageBucket) Close() error {
	return b.client.Close()
}

// Name implements Bucket.
func (b *StorageBucket) Name() string {
	return b.bucket
}

// Write implements Bucket.
func (b *StorageBucket) Write(ctx context.Context, object, contentType string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	w := b.client.Bucket(b.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("Write: copy to GCS writer: %w", err)
	}
	// Close finalizes the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("Write: finalize upload: %w", err)
	}
	return nil
}

// ObjectName returns the snapshot object path for a snapshot taken at t.
func ObjectName(t time.Time, id string) string {
	t = t.UTC()
	return fmt.Sprintf("snapshots/%04d/%02d/%02d/%s.json", t.Year(), int(t.Month()), t.Day(), id)
}

// URI returns the gs:// URI of object in bucket.
func URI(bucket, object string) string {
	return "gs://" + bucket + "/" + object
}

// Exporter implements export.Exporter for Cloud Storage.
type Exporter struct {
	bucket Bucket
	log    zerolog.Logger
	newID  func() string
}

// New creates an Exporter uploading to bucket.
func New(bucket Bucket, log zerolog.Logger) *Exporter {
	return &Exporter{bucket: bucket, log: log, newID: uuid.NewString}
}

// Target implements export.Exporter.
func (e *Exporter) Target() export.Target {
	return export.TargetGCS
}

// Export implements export.Exporter. Every run writes a new object.
func (e *Exporter) Export(ctx context.Context, snap export.Snapshot) (export.Result, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return export.Result{}, fmt.Errorf("Export: encode snapshot: %w", err)
	}

	object := ObjectName(snap.GeneratedAt, e.newID())
	if err := e.bucket.Write(ctx, object, "application/json", data); err != nil {
		return export.Result{}, fmt.Errorf("Export: %s: %w", object, err)
	}

	uri := URI(e.bucket.Name(), object)
	e.log.Info().Str("uri", uri).Int("bytes", len(data)).Msg("Snapshot uploaded")
	return export.Result{
		Target:   export.TargetGCS,
		Exported: len(snap.Transactions),
		Location: uri,
	}, nil
}

// Ensure Exporter implements export.Exporter.
var _ export.Exporter = (*Exporter)(nil)
