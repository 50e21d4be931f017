package storage

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// PublishDir copies every file under dir into the store, preserving
// relative paths. Individual upload failures are logged and skipped so
// one bad artifact does not abort the rest; the count of published
// files is returned.
func PublishDir(ctx context.Context, store BlobStore, dir string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	published := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Failed to read artifact", "file", rel, "error", err)
			return nil
		}
		if err := store.Put(ctx, key, data); err != nil {
			logger.Warn("Failed to publish artifact", "file", rel, "error", err)
			return nil
		}

		published++
		return nil
	})

	return published, err
}
