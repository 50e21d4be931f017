// Package journal persists lineage events as an append-only JSONL
// ledger, locally or on S3. The journal is the reference sink and the
// data source for export and browse.
package journal

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/DrSkyle/assetline/pkg/lineage"
)

// ErrCorruptRecord marks journal lines that fail to decode. Reads skip
// them with a warning rather than failing the whole ledger.
var ErrCorruptRecord = errors.New("corrupt journal record")

// Journal is an append-only event ledger.
type Journal interface {
	Append(ctx context.Context, ev *lineage.Event) error
	ReadAll(ctx context.Context) ([]*lineage.Event, error)
}

// Open resolves a journal location: an s3:// URL, a file:// URL, or a
// bare local path.
func Open(ctx context.Context, location string, logger *slog.Logger) (Journal, error) {
	if strings.HasPrefix(location, "s3://") {
		return NewS3(ctx, location, logger)
	}
	return NewFile(strings.TrimPrefix(location, "file://"), logger), nil
}

// DefaultPath is the project-local journal location used when no path
// is configured. Lineage is a property of the repo you run in, not of
// the user.
func DefaultPath() string {
	return filepath.Join(".assetline", "events.jsonl")
}
