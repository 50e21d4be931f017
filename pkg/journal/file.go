package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/DrSkyle/assetline/pkg/lineage"
)

// FileJournal stores events in a local JSONL file, one event per line.
type FileJournal struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFile opens a file journal at path. The file and its directory are
// created lazily on first append.
func NewFile(path string, logger *slog.Logger) *FileJournal {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileJournal{path: path, logger: logger}
}

func (j *FileJournal) Append(ctx context.Context, ev *lineage.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(data, '\n'))
	return err
}

func (j *FileJournal) ReadAll(ctx context.Context) ([]*lineage.Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if os.IsNotExist(err) {
		return []*lineage.Event{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []*lineage.Event
	line := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var ev lineage.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			j.logger.Warn("skipping journal record", "path", j.path, "line", line, "error", ErrCorruptRecord)
			continue
		}
		events = append(events, &ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
