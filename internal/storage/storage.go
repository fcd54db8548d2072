// Package storage provides the file workspace for trim jobs: staging
// uploaded source videos, holding trimmed outputs, and optionally pushing
// results to S3.
package storage

import (
	"context"
	"io"
)

// Storage is the workspace port. A job that arrives as raw bytes is staged
// through SaveTemp before the pipeline runs, read back through LoadTemp for
// delivery, and released with CleanupTemp once the job is terminal.
type Storage interface {
	// SaveTemp stages data in the workspace and returns the file path.
	// The name is a filename hint; its extension is preserved.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// LoadTemp opens a workspace file for reading.
	// The caller is responsible for closing the returned ReadCloser.
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// CleanupTemp removes workspace files a finished job no longer needs.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error

	// UploadToS3 uploads a trimmed output to S3 and returns the public URL.
	// Returns ErrS3NotConfigured if S3 is not configured.
	UploadToS3(ctx context.Context, key string, data io.Reader) (url string, err error)
}
