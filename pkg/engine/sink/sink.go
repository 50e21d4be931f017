// Package sink delivers lineage events to their destinations. A sink is
// picked by URL scheme the same way asset keys name their systems:
// s3:// appends to an S3 journal, http(s):// posts a webhook, a path or
// file:// appends to a local journal, and log:// (or nothing) writes to
// the process log.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DrSkyle/assetline/pkg/journal"
	"github.com/DrSkyle/assetline/pkg/lineage"
)

// Sink is one event destination. Deliver must honour ctx; the emitter
// bounds every delivery with a timeout.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev *lineage.Event) error
	Close() error
}

// Open resolves a destination URL to a sink.
func Open(ctx context.Context, rawURL string, logger *slog.Logger) (Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	scheme, _, ok := strings.Cut(rawURL, "://")
	if !ok {
		if rawURL == "" {
			return NewLog(logger), nil
		}
		// Bare paths are local journals.
		return NewJournal("journal", journal.NewFile(rawURL, logger)), nil
	}

	switch scheme {
	case "log":
		return NewLog(logger), nil
	case "file":
		return NewJournal("journal", journal.NewFile(strings.TrimPrefix(rawURL, "file://"), logger)), nil
	case "s3":
		j, err := journal.NewS3(ctx, rawURL, logger)
		if err != nil {
			return nil, err
		}
		return NewJournal("s3-journal", j), nil
	case "http", "https":
		return NewWebhook(rawURL), nil
	default:
		return nil, fmt.Errorf("unsupported sink scheme %q", scheme)
	}
}

// Log writes a one-line summary of each event to the process log. It is
// the default sink and the fallback when nothing else is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Name() string { return "log" }

func (l *Log) Deliver(_ context.Context, ev *lineage.Event) error {
	l.logger.Info("lineage event",
		"key", ev.Key.Redacted(),
		"work_unit", ev.WorkUnit,
		"run_id", ev.RunID,
		"dependencies", len(ev.Dependencies),
		"metadata_fields", len(ev.Metadata),
		"properties_changed", ev.Properties != nil,
	)
	return nil
}

func (l *Log) Close() error { return nil }

// Journal appends each event to an event ledger.
type Journal struct {
	name string
	j    journal.Journal
}

func NewJournal(name string, j journal.Journal) *Journal {
	return &Journal{name: name, j: j}
}

func (s *Journal) Name() string { return s.name }

func (s *Journal) Deliver(ctx context.Context, ev *lineage.Event) error {
	return s.j.Append(ctx, ev)
}

func (s *Journal) Close() error { return nil }
