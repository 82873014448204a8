// Package storage publishes finished run artifacts and serves them back,
// either from the local output directory or from a GCS bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

const (
	ProviderLocal = "local"
	ProviderGCS   = "gcs"
)

var ErrNotFound = errors.New("artifact not found")

// Store holds the artifacts of finished runs, grouped by run id.
type Store interface {
	// Publish makes the local file available under runID and returns its location.
	Publish(ctx context.Context, runID, localPath string) (string, error)
	Open(ctx context.Context, runID, name string) (io.ReadCloser, error)
	List(ctx context.Context, runID string) ([]string, error)
	Close() error
}

// objectKey joins the parts into a slash separated key and rejects anything
// that would escape the run.
func objectKey(prefix, runID, name string) (string, error) {
	for _, part := range []string{runID, name} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("invalid artifact path %q", part)
		}
	}
	return path.Join(prefix, runID, name), nil
}
