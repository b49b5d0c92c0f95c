package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't already exist.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName, content string) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = "text/plain; charset=utf-8"

	if _, err := io.Copy(writer, strings.NewReader(content)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			slog.Info("SKIPPING: Object already exists.", "gcsObject", objectName)
			return nil
		}
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		// The precondition is only evaluated when the upload is finalized.
		if isPreconditionFailed(err) {
			slog.Info("SKIPPING: Object already exists.", "gcsObject", objectName)
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 412
}

// ReadObject downloads an object into memory, refusing objects larger than maxBytes.
// It returns the object's size so callers can report oversized uploads.
func ReadObject(ctx context.Context, client *storage.Client, bucket, object string, maxBytes int64) ([]byte, int64, error) {
	obj := client.Bucket(bucket).Object(object)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read attributes of gs://%s/%s: %w", bucket, object, err)
	}
	if maxBytes > 0 && attrs.Size > maxBytes {
		return nil, attrs.Size, nil
	}

	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, attrs.Size, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, attrs.Size, fmt.Errorf("failed to download gs://%s/%s: %w", bucket, object, err)
	}
	return data, attrs.Size, nil
}

// ArtifactWriter exports the full text of completed runs to a bucket.
type ArtifactWriter struct {
	bucket *storage.BucketHandle
	name   string
}

// NewArtifactWriter returns a writer that stores artifacts in bucketName.
func NewArtifactWriter(client *storage.Client, bucketName string) *ArtifactWriter {
	return &ArtifactWriter{bucket: client.Bucket(bucketName), name: bucketName}
}

// SaveRun writes <runID>/arabic.txt and <runID>/bangla.txt concurrently.
func (w *ArtifactWriter) SaveRun(ctx context.Context, runID, arabic, bangla string) error {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(2)

	objects := map[string]string{
		runID + "/arabic.txt": arabic,
		runID + "/bangla.txt": bangla,
	}
	for name, content := range objects {
		eg.Go(func() error {
			if err := SaveToGCSAtomically(gctx, w.bucket, name, content); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to export run %s to gs://%s: %w", runID, w.name, err)
	}
	return nil
}
