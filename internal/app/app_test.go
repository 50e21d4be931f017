package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/DrSkyle/assetline/pkg/journal"
)

const testManifest = `
pipeline "daily_etl" {
  work_unit "build_report" {
    materializes {
      key  = "s3://b/d.csv"
      name = "D"
    }
    depends_on {
      key = "s3://b/raw.csv"
    }
  }

  run "build_report" {
    metadata "s3://b/d.csv" {
      fields = { row_count = 1042 }
    }
  }
}
`

func TestRunExportCheck_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "pipeline.hcl")
	if err := os.WriteFile(manifestPath, []byte(testManifest), 0644); err != nil {
		t.Fatal(err)
	}

	base := Config{
		JournalURL: filepath.Join(dir, "journal.jsonl"),
		IgnoreFile: filepath.Join(dir, "ignore.yaml"),
	}
	ctx := context.Background()

	// 1. Replay the manifest.
	res, err := Run(ctx, RunConfig{Config: base, ManifestPath: manifestPath})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Summary.Runs != 1 || res.Summary.Failures != 0 {
		t.Fatalf("unexpected summary: %+v", res.Summary)
	}
	if res.Stats.Emitted != 1 || res.Stats.Failed != 0 {
		t.Fatalf("unexpected emitter stats: %+v", res.Stats)
	}

	// 2. The journal holds the event.
	j := journal.NewFile(base.JournalURL, slog.Default())
	events, err := j.ReadAll(ctx)
	if err != nil {
		t.Fatalf("journal unreadable: %v", err)
	}
	if len(events) != 1 || events[0].Key != "s3://b/d.csv" {
		t.Fatalf("journal contents wrong: %+v", events)
	}

	// 3. Export reports from it.
	outDir := filepath.Join(dir, "out")
	eres, err := Export(ctx, ExportConfig{
		Config:    base,
		OutputDir: outDir,
		Publish:   filepath.Join(dir, "published"),
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if eres.Events != 1 || eres.Assets != 2 {
		t.Fatalf("unexpected export result: %+v", eres)
	}
	if len(eres.Files) != 3 || eres.Published != 3 {
		t.Fatalf("expected 3 files written and published: %+v", eres)
	}
	for _, f := range eres.Files {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("report not written: %v", err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "published", "dashboard.html")); err != nil {
		t.Errorf("publish did not copy the dashboard: %v", err)
	}

	// 4. The default rules flag the unowned asset.
	violations, n, err := Check(ctx, base)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 event checked, got %d", n)
	}
	if len(violations) != 1 || violations[0].Rule.ID != "unowned-asset" {
		t.Fatalf("expected the unowned-asset rule to match: %+v", violations)
	}
}

func TestRun_MissingManifest(t *testing.T) {
	_, err := Run(context.Background(), RunConfig{
		Config:       Config{JournalURL: filepath.Join(t.TempDir(), "j.jsonl")},
		ManifestPath: filepath.Join(t.TempDir(), "nope.hcl"),
	})
	if err == nil {
		t.Fatal("expected an error for a missing manifest")
	}
}

func TestExport_EmptyJournal(t *testing.T) {
	dir := t.TempDir()
	res, err := Export(context.Background(), ExportConfig{
		Config: Config{
			JournalURL: filepath.Join(dir, "journal.jsonl"),
			IgnoreFile: filepath.Join(dir, "ignore.yaml"),
		},
		OutputDir: filepath.Join(dir, "out"),
	})
	if err != nil {
		t.Fatalf("Export failed on empty journal: %v", err)
	}
	if res.Events != 0 || res.Assets != 0 {
		t.Fatalf("expected empty result: %+v", res)
	}
	if len(res.Files) != 3 {
		t.Fatalf("reports should still be written: %+v", res)
	}
}
