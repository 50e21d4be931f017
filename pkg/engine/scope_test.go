package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DrSkyle/assetline/pkg/asset"
	"github.com/DrSkyle/assetline/pkg/lineage"
)

func TestScope_ScenarioBuildReport(t *testing.T) {
	e, c := newTestEngine(t)

	decl := Declaration{
		WorkUnit: "build_report",
		Targets:  []asset.Asset{asset.New("s3://b/d.csv", &asset.Properties{Name: asset.String("D")})},
		Deps:     []asset.Asset{asset.KeyRef("s3://b/raw.csv")},
	}
	s, err := e.Open(context.Background(), decl, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(context.Background(), true); err != nil {
		t.Fatalf("Close: %v", err)
	}
	drain(t, e)

	if len(c.events) != 1 {
		t.Fatalf("emitted %d events, want 1", len(c.events))
	}
	ev := c.events[0]
	if ev.Key != "s3://b/d.csv" || ev.WorkUnit != "build_report" {
		t.Errorf("identity wrong: %+v", ev)
	}
	if ev.SchemaVersion != lineage.SchemaVersion || ev.EventID == "" || ev.RunID == "" || ev.EventTime.IsZero() {
		t.Errorf("envelope incomplete: %+v", ev)
	}
	if len(ev.Dependencies) != 1 || ev.Dependencies[0] != "s3://b/raw.csv" {
		t.Errorf("Dependencies = %v, want [s3://b/raw.csv]", ev.Dependencies)
	}
	if ev.Properties == nil || ev.Properties.Name == nil || *ev.Properties.Name != "D" {
		t.Errorf("Properties = %+v, want name D", ev.Properties)
	}
	if ev.Metadata == nil || len(ev.Metadata) != 0 {
		t.Errorf("Metadata = %v, want empty non-nil", ev.Metadata)
	}
}

func TestScope_MetadataAccumulates(t *testing.T) {
	e, c := newTestEngine(t)

	s, err := e.Open(context.Background(), Declaration{
		WorkUnit: "ingest",
		Targets:  []asset.Asset{asset.KeyRef("s3://b/d.csv")},
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	must(s.Record("s3://b/d.csv", lineage.Metadata{"row_count": 10}))
	must(s.Record("s3://b/d.csv", lineage.Metadata{"bytes": 2048}))
	must(s.Record("s3://b/d.csv", lineage.Metadata{"row_count": 1042, "source": "api"}))

	if err := s.Close(context.Background(), true); err != nil {
		t.Fatalf("Close: %v", err)
	}
	drain(t, e)

	ev := c.byKey()["s3://b/d.csv"]
	if ev == nil {
		t.Fatal("no event for the target")
	}
	if ev.Metadata["row_count"] != 1042 || ev.Metadata["bytes"] != 2048 || ev.Metadata["source"] != "api" {
		t.Errorf("per-field last-writer merge failed: %v", ev.Metadata)
	}
}

func TestScope_FailureDiscardsBuffers(t *testing.T) {
	e, c := newTestEngine(t)
	decl := Declaration{WorkUnit: "ingest", Targets: []asset.Asset{asset.KeyRef("s3://b/d.csv")}}

	failed, err := e.Open(context.Background(), decl, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := failed.Record("s3://b/d.csv", lineage.Metadata{"row_count": 7}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := failed.Close(context.Background(), false); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A later successful run must not inherit the discarded fields.
	retry, err := e.Open(context.Background(), decl, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := retry.Record("s3://b/d.csv", lineage.Metadata{"bytes": 99}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := retry.Close(context.Background(), true); err != nil {
		t.Fatalf("Close: %v", err)
	}
	drain(t, e)

	if len(c.events) != 1 {
		t.Fatalf("failed run leaked events: got %d, want 1", len(c.events))
	}
	ev := c.events[0]
	if _, leaked := ev.Metadata["row_count"]; leaked {
		t.Errorf("discarded metadata resurfaced: %v", ev.Metadata)
	}
	if ev.Metadata["bytes"] != 99 {
		t.Errorf("retry metadata lost: %v", ev.Metadata)
	}
}

func TestScope_CancelSuppressesEmission(t *testing.T) {
	e, c := newTestEngine(t)

	s, err := e.Open(context.Background(), Declaration{
		WorkUnit: "ingest",
		Targets:  []asset.Asset{asset.KeyRef("s3://b/d.csv")},
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Close(ctx, true); err != nil {
		t.Fatalf("Close: %v", err)
	}
	drain(t, e)

	if len(c.events) != 0 {
		t.Errorf("canceled run emitted %d events", len(c.events))
	}
}

func TestScope_UnknownAssetIsFatal(t *testing.T) {
	e, _ := newTestEngine(t)

	s, err := e.Open(context.Background(), Declaration{
		WorkUnit: "ingest",
		Targets:  []asset.Asset{asset.KeyRef("s3://b/d.csv")},
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	err = s.Record("s3://b/other.csv", lineage.Metadata{"x": 1})
	if !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("err = %v, want ErrUnknownAsset", err)
	}
	// The scope stays usable for declared targets.
	if err := s.Record("s3://b/d.csv", lineage.Metadata{"x": 1}); err != nil {
		t.Errorf("declared target rejected after a bad record: %v", err)
	}
}

func TestScope_OneEventPerTarget(t *testing.T) {
	e, c := newTestEngine(t)

	s, err := e.Open(context.Background(), Declaration{
		WorkUnit: "fanout",
		Targets: []asset.Asset{
			asset.KeyRef("s3://b/two.csv"),
			asset.KeyRef("s3://b/one.csv"),
			asset.KeyRef("s3://b/two.csv"), // duplicate declaration collapses
		},
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(context.Background(), true); err != nil {
		t.Fatalf("Close: %v", err)
	}
	drain(t, e)

	if len(c.events) != 2 {
		t.Fatalf("emitted %d events, want 2", len(c.events))
	}
	// Deterministic lexicographic emission order.
	if c.events[0].Key != "s3://b/one.csv" || c.events[1].Key != "s3://b/two.csv" {
		t.Errorf("order = [%s, %s]", c.events[0].Key, c.events[1].Key)
	}
	if c.events[0].RunID != c.events[1].RunID {
		t.Error("events of one run carry different run ids")
	}
}

func TestScope_DependencyUnionExcludesSelf(t *testing.T) {
	e, c := newTestEngine(t)

	s, err := e.Open(context.Background(), Declaration{
		WorkUnit: "merge",
		Targets:  []asset.Asset{asset.KeyRef("s3://b/out.csv")},
		Deps:     []asset.Asset{asset.KeyRef("s3://b/a.csv"), asset.KeyRef("s3://b/b.csv")},
	}, []asset.Key{"s3://b/b.csv", "s3://b/c.csv", "s3://b/out.csv"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(context.Background(), true); err != nil {
		t.Fatalf("Close: %v", err)
	}
	drain(t, e)

	ev := c.byKey()["s3://b/out.csv"]
	if ev == nil {
		t.Fatal("no event for the target")
	}
	want := []asset.Key{"s3://b/a.csv", "s3://b/b.csv", "s3://b/c.csv"}
	if len(ev.Dependencies) != len(want) {
		t.Fatalf("Dependencies = %v, want %v", ev.Dependencies, want)
	}
	for i, k := range want {
		if ev.Dependencies[i] != k {
			t.Errorf("Dependencies[%d] = %s, want %s", i, ev.Dependencies[i], k)
		}
	}
}

func TestScope_BareRefKeepsCanonicalDescriptor(t *testing.T) {
	e, c := newTestEngine(t)
	key := asset.Key("s3://b/d.csv")

	first, err := e.Open(context.Background(), Declaration{
		WorkUnit: "describe",
		Targets:  []asset.Asset{asset.New(key, &asset.Properties{Name: asset.String("D")})},
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Close(context.Background(), true); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := e.Open(context.Background(), Declaration{
		WorkUnit: "refresh",
		Targets:  []asset.Asset{asset.KeyRef(key)},
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := second.Close(context.Background(), true); err != nil {
		t.Fatalf("Close: %v", err)
	}
	drain(t, e)

	if len(c.events) != 2 {
		t.Fatalf("emitted %d events, want 2", len(c.events))
	}
	for _, ev := range c.events {
		switch ev.WorkUnit {
		case "describe":
			if ev.Properties == nil || *ev.Properties.Name != "D" {
				t.Errorf("describe event lost properties: %+v", ev.Properties)
			}
		case "refresh":
			if ev.Properties != nil {
				t.Errorf("bare ref must omit properties, got %+v", ev.Properties)
			}
		}
	}

	canon := e.Registry.Resolve(asset.KeyRef(key))
	if canon.Properties == nil || *canon.Properties.Name != "D" {
		t.Errorf("bare ref mutated the canonical descriptor: %+v", canon.Properties)
	}
}

func TestScope_OverwriteIsTotal(t *testing.T) {
	e, c := newTestEngine(t)
	key := asset.Key("s3://b/d.csv")
	owners := []string{"data-eng"}

	first, err := e.Open(context.Background(), Declaration{
		WorkUnit: "seed",
		Targets: []asset.Asset{asset.New(key, &asset.Properties{
			Name:   asset.String("D"),
			Owners: &owners,
		})},
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Close(context.Background(), true); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := e.Open(context.Background(), Declaration{
		WorkUnit: "rename",
		Targets:  []asset.Asset{asset.New(key, &asset.Properties{Name: asset.String("D2")})},
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := second.Close(context.Background(), true); err != nil {
		t.Fatalf("Close: %v", err)
	}
	drain(t, e)

	canon := e.Registry.Resolve(asset.KeyRef(key))
	if canon.Properties == nil || *canon.Properties.Name != "D2" {
		t.Fatalf("overwrite lost: %+v", canon.Properties)
	}
	if canon.Properties.Owners != nil {
		t.Errorf("field absent from the replacement survived: %v", *canon.Properties.Owners)
	}

	ev := c.events[len(c.events)-1]
	if ev.Properties == nil || ev.Properties.Owners != nil {
		t.Errorf("event did not reflect the wholesale replacement: %+v", ev.Properties)
	}
}

func TestScope_CloseIdempotent(t *testing.T) {
	e, c := newTestEngine(t)

	s, err := e.Open(context.Background(), Declaration{
		WorkUnit: "ingest",
		Targets:  []asset.Asset{asset.KeyRef("s3://b/d.csv")},
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(context.Background(), true); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := s.Close(context.Background(), true); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := s.Record("s3://b/d.csv", lineage.Metadata{"x": 1}); !errors.Is(err, ErrScopeClosed) {
		t.Errorf("Record after Close = %v, want ErrScopeClosed", err)
	}
	drain(t, e)
	if len(c.events) != 1 {
		t.Errorf("double close produced %d events, want 1", len(c.events))
	}
}

func TestScope_ParallelScopesAreIndependent(t *testing.T) {
	e, c := newTestEngine(t)

	openScope := func(unit string, key asset.Key) *Scope {
		t.Helper()
		s, err := e.Open(context.Background(), Declaration{
			WorkUnit: unit,
			Targets:  []asset.Asset{asset.KeyRef(key)},
		}, nil)
		if err != nil {
			t.Fatalf("Open %s: %v", unit, err)
		}
		return s
	}
	sa := openScope("unit_a", "s3://b/a.csv")
	sb := openScope("unit_b", "s3://b/b.csv")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = sa.Record("s3://b/a.csv", lineage.Metadata{"n": i})
			} else {
				_ = sb.Record("s3://b/b.csv", lineage.Metadata{"n": i})
			}
		}(i)
	}
	wg.Wait()

	if err := sa.Close(context.Background(), true); err != nil {
		t.Fatalf("Close a: %v", err)
	}
	if err := sb.Close(context.Background(), false); err != nil {
		t.Fatalf("Close b: %v", err)
	}
	drain(t, e)

	byKey := c.byKey()
	if len(c.events) != 1 || byKey["s3://b/a.csv"] == nil {
		t.Fatalf("want exactly the successful unit's event, got %d", len(c.events))
	}
	if _, ok := byKey["s3://b/a.csv"].Metadata["n"]; !ok {
		t.Error("metadata from the successful scope missing")
	}
}

func TestOpen_InvalidKeyIsFatal(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Open(context.Background(), Declaration{
		WorkUnit: "ingest",
		Targets:  []asset.Asset{asset.KeyRef("not a key")},
	}, nil)
	if !errors.Is(err, asset.ErrInvalidKey) {
		t.Errorf("bad target: err = %v, want ErrInvalidKey", err)
	}

	_, err = e.Open(context.Background(), Declaration{
		WorkUnit: "ingest",
		Targets:  []asset.Asset{asset.KeyRef("s3://b/d.csv")},
	}, []asset.Key{"://nope"})
	if !errors.Is(err, asset.ErrInvalidKey) {
		t.Errorf("bad inferred: err = %v, want ErrInvalidKey", err)
	}

	_, err = e.Open(context.Background(), Declaration{}, nil)
	if err == nil {
		t.Error("empty work unit name accepted")
	}
}
