// Package storage persists run artifacts, report exports and
// dashboards, under a local directory or an S3 prefix.
package storage

import (
	"context"
	"strings"
)

// BlobStore is the artifact persistence surface. Keys are
// forward-slash relative paths under the store root.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Open picks a backend from target: s3://bucket[/prefix] selects S3,
// anything else is treated as a local directory.
func Open(ctx context.Context, target string) (BlobStore, error) {
	if strings.HasPrefix(target, "s3://") {
		return OpenS3(ctx, target)
	}
	return NewLocalStore(target), nil
}
