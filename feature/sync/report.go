package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/arranf/MailChimpSync/core/storage"

	"github.com/minio/minio-go/v7"
)

// reportPrefix is where run reports live inside the archive bucket.
const reportPrefix = "reports/"

// Archiver persists run reports to object storage so operators can inspect
// past runs without scraping logs.
type Archiver struct {
	client storage.Client
	bucket string
}

// NewArchiver creates a report archiver targeting the given bucket.
func NewArchiver(client storage.Client, bucket string) *Archiver {
	return &Archiver{client: client, bucket: bucket}
}

// Archive writes the run report as JSON and returns the object name. The
// bucket is created on first use.
func (a *Archiver) Archive(ctx context.Context, result *Result) (string, error) {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return "", fmt.Errorf("failed to check report bucket: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("failed to create report bucket: %w", err)
		}
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run report: %w", err)
	}

	objectName := fmt.Sprintf("%s%s-%s.json",
		reportPrefix,
		result.StartedAt.UTC().Format("20060102T150405Z"),
		result.RunID,
	)
	_, err = a.client.PutObject(
		ctx,
		a.bucket,
		objectName,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return "", fmt.Errorf("failed to write run report: %w", err)
	}

	return objectName, nil
}

// List returns the names of every archived report, without the storage
// prefix. Object keys sort by start time, so the listing is chronological.
func (a *Archiver) List(ctx context.Context) ([]string, error) {
	names := []string{}
	objects := a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    reportPrefix,
		Recursive: true,
	})
	for object := range objects {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list run reports: %w", object.Err)
		}
		names = append(names, strings.TrimPrefix(object.Key, reportPrefix))
	}
	return names, nil
}

// Fetch returns the raw JSON of one archived report by its listed name.
func (a *Archiver) Fetch(ctx context.Context, name string) ([]byte, error) {
	object, err := a.client.GetObject(ctx, a.bucket, reportPrefix+name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run report %s: %w", name, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read run report %s: %w", name, err)
	}
	return data, nil
}
