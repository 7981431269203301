// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to provide a simplified interface for the run
// report archive: every reconciliation run can persist its JSON report to a
// bucket for operator inspection. The abstraction supports both AWS S3 and
// self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it
// easy to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Operations
//
//   - BucketExists: verifies access to the archive bucket.
//   - MakeBucket: creates the archive bucket if needed.
//   - PutObject: uploads a run report.
//   - GetObject: retrieves a past report as a stream.
//   - ListObjects: lists archived reports (supports prefix/recursive).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "mailchimp-sync")
package storage
