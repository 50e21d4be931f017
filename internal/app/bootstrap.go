// Package app wires commands to the engine, journal, report, and
// storage layers. Commands parse flags; this package does the work.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/DrSkyle/assetline/internal/runner"
	"github.com/DrSkyle/assetline/internal/ui"
	"github.com/DrSkyle/assetline/pkg/engine"
	"github.com/DrSkyle/assetline/pkg/engine/emit"
	"github.com/DrSkyle/assetline/pkg/engine/policy"
	"github.com/DrSkyle/assetline/pkg/engine/sink"
	"github.com/DrSkyle/assetline/pkg/journal"
	"github.com/DrSkyle/assetline/pkg/lineage"
	"github.com/DrSkyle/assetline/pkg/manifest"
	"github.com/DrSkyle/assetline/pkg/report"
	"github.com/DrSkyle/assetline/pkg/storage"
	tea "github.com/charmbracelet/bubbletea"
)

// Config carries the settings shared by every command, resolved from
// flags, environment, and the config file.
type Config struct {
	JournalURL string // local path, file:// or s3://
	SinkURL    string // extra delivery target, empty for journal-only
	RulesFile  string // CEL policy rules, empty means no gate
	IgnoreFile string
	JsonLogs   bool
	Verbose    bool

	// Emitter tuning.
	EmitQueue       int
	EmitWorkers     int
	DeliveryTimeout time.Duration

	OtelEndpoint string
}

// RunConfig drives one manifest replay.
type RunConfig struct {
	Config
	ManifestPath string
	Pipeline     string
	Workers      int
}

// RunResult is what the run command reports once the emitter has
// drained.
type RunResult struct {
	Summary *runner.Summary
	Stats   emit.Stats
	Blocked int64
	Warned  int64
}

// Run replays a manifest through a fresh engine and drains it.
func Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	logger := engine.NewLogger(os.Stdout, cfg.JsonLogs, cfg.Verbose)

	file, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{
		engine.WithConfig(engine.Config{
			SinkURL:         cfg.SinkURL,
			RulesFile:       cfg.RulesFile,
			JsonLogs:        cfg.JsonLogs,
			QueueSize:       cfg.EmitQueue,
			Workers:         cfg.EmitWorkers,
			DeliveryTimeout: cfg.DeliveryTimeout,
			OtelEndpoint:    cfg.OtelEndpoint,
			Logger:          logger,
		}),
	}
	if cfg.JournalURL != "" {
		js, err := sink.Open(ctx, cfg.JournalURL, logger)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		opts = append(opts, engine.WithSink(js))
	}

	eng, err := engine.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	summary, replayErr := runner.Replay(ctx, eng, file, runner.Options{
		Pipeline: cfg.Pipeline,
		Workers:  cfg.Workers,
	})

	// Drain before reading stats; delivery is asynchronous.
	if err := eng.Shutdown(ctx); err != nil {
		logger.Warn("Shutdown incomplete", "error", err)
	}
	if replayErr != nil {
		return nil, replayErr
	}

	res := &RunResult{Summary: summary, Stats: eng.Emitter.Stats()}
	if g := eng.Gate(); g != nil {
		res.Blocked = g.Blocked()
		res.Warned = g.Warned()
	}
	return res, nil
}

// ExportConfig drives report generation from the journal.
type ExportConfig struct {
	Config
	OutputDir string
	Publish   string // blob store target, empty to skip
}

// ExportResult lists what was written where.
type ExportResult struct {
	Events    int
	Assets    int
	Files     []string
	Published int
}

// Export folds the journal into a graph and writes the JSON, CSV, and
// HTML reports, optionally publishing the output directory to a blob
// store.
func Export(ctx context.Context, cfg ExportConfig) (*ExportResult, error) {
	logger := engine.NewLogger(os.Stdout, cfg.JsonLogs, cfg.Verbose)

	j, err := journal.Open(ctx, cfg.JournalURL, logger)
	if err != nil {
		return nil, err
	}
	events, err := j.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	g := lineage.BuildGraph(events)

	ignore, err := report.LoadIgnoreList(cfg.IgnoreFile)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, err
	}

	res := &ExportResult{Events: len(events), Assets: g.Len()}
	outputs := []struct {
		name string
		gen  func(*lineage.Graph, *report.IgnoreList, string) error
	}{
		{"lineage_report.json", report.GenerateJSON},
		{"lineage_report.csv", report.GenerateCSV},
		{"dashboard.html", report.GenerateHTML},
	}
	for _, out := range outputs {
		path := filepath.Join(cfg.OutputDir, out.name)
		if err := out.gen(g, ignore, path); err != nil {
			return nil, fmt.Errorf("generating %s: %w", out.name, err)
		}
		res.Files = append(res.Files, path)
	}

	if cfg.Publish != "" {
		store, err := storage.Open(ctx, cfg.Publish)
		if err != nil {
			return nil, err
		}
		n, err := storage.PublishDir(ctx, store, cfg.OutputDir, logger)
		if err != nil {
			return nil, err
		}
		res.Published = n
	}

	return res, nil
}

// Violation is one policy rule matching one journaled event.
type Violation struct {
	EventID string
	Key     string
	Rule    policy.Rule
}

// Check replays the journal through the policy rules offline and
// returns every match. Rules that fail to evaluate on an event are
// logged and skipped, same as the live gate.
func Check(ctx context.Context, cfg Config) ([]Violation, int, error) {
	logger := engine.NewLogger(os.Stdout, cfg.JsonLogs, cfg.Verbose)

	rules := policy.DefaultRules()
	if cfg.RulesFile != "" {
		var err error
		rules, err = policy.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, 0, err
		}
	}

	cel, err := policy.NewCELEngine()
	if err != nil {
		return nil, 0, err
	}
	if err := cel.Compile(rules); err != nil {
		return nil, 0, err
	}

	j, err := journal.Open(ctx, cfg.JournalURL, logger)
	if err != nil {
		return nil, 0, err
	}
	events, err := j.ReadAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	var violations []Violation
	for _, ev := range events {
		matches, err := cel.Evaluate(ctx, policy.ContextForEvent(ev))
		if err != nil {
			logger.Warn("Rule evaluation failed", "event_id", ev.EventID, "error", err)
			continue
		}
		for _, rule := range matches {
			violations = append(violations, Violation{
				EventID: ev.EventID,
				Key:     ev.Key.Redacted(),
				Rule:    rule,
			})
		}
	}
	return violations, len(events), nil
}

// Browse opens the interactive lineage browser over the journal.
func Browse(ctx context.Context, cfg Config) error {
	// Journal warnings would tear the alternate screen; the browser
	// surfaces read errors itself.
	logger := engine.NewLogger(io.Discard, cfg.JsonLogs, cfg.Verbose)

	j, err := journal.Open(ctx, cfg.JournalURL, logger)
	if err != nil {
		return err
	}

	model := ui.NewModel(j, cfg.JournalURL, cfg.IgnoreFile)
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser crashed: %w", err)
	}
	return nil
}
