package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/DrSkyle/assetline/pkg/asset"
)

func TestResolve_UnseenKeyReturnsEmptyEntry(t *testing.T) {
	r := New()
	c := r.Resolve(asset.KeyRef("s3://b/never-seen.csv"))
	if c.Properties != nil {
		t.Errorf("unseen key must resolve with nil properties, got %+v", c.Properties)
	}
	if r.Len() != 1 {
		t.Errorf("resolve must create the entry, Len() = %d", r.Len())
	}
}

func TestResolve_BareKeyIsIdempotent(t *testing.T) {
	r := New()
	key := asset.Key("s3://b/d.csv")
	r.Resolve(asset.New(key, &asset.Properties{Name: asset.String("D")}))

	first := r.Resolve(asset.KeyRef(key))
	second := r.Resolve(asset.KeyRef(key))

	if !first.Properties.Equal(second.Properties) {
		t.Errorf("repeated bare-key resolves diverged: %+v vs %+v", first.Properties, second.Properties)
	}
	if first.Properties == nil || *first.Properties.Name != "D" {
		t.Errorf("bare-key resolve mutated stored properties: %+v", first.Properties)
	}
}

func TestResolve_OverwriteIsTotal(t *testing.T) {
	r := New()
	key := asset.Key("s3://b/d.csv")

	r.Resolve(asset.New(key, &asset.Properties{
		Name:   asset.String("A"),
		Owners: asset.OwnerList("x"),
	}))
	got := r.Resolve(asset.New(key, &asset.Properties{Name: asset.String("A")}))

	if got.Properties.Owners != nil {
		t.Errorf("omitted owners must become absent after overwrite, got %v", *got.Properties.Owners)
	}
	if got.Properties.Name == nil || *got.Properties.Name != "A" {
		t.Errorf("overwrite lost the name field: %+v", got.Properties)
	}
}

func TestResolve_NilPropertiesDoesNotErase(t *testing.T) {
	r := New()
	key := asset.Key("s3://b/d.csv")
	r.Resolve(asset.New(key, &asset.Properties{Name: asset.String("D")}))

	got := r.Resolve(asset.KeyRef(key))
	if got.Properties == nil || *got.Properties.Name != "D" {
		t.Errorf("bare reference erased stored properties: %+v", got.Properties)
	}
}

func TestResolve_SnapshotIsIsolated(t *testing.T) {
	r := New()
	key := asset.Key("s3://b/d.csv")
	snap := r.Resolve(asset.New(key, &asset.Properties{Owners: asset.OwnerList("x")}))

	(*snap.Properties.Owners)[0] = "mutated"

	again := r.Resolve(asset.KeyRef(key))
	if (*again.Properties.Owners)[0] != "x" {
		t.Error("mutating a returned snapshot reached the canonical entry")
	}
}

func TestResolveMany_AppliesInInputOrder(t *testing.T) {
	r := New()
	key := asset.Key("s3://b/d.csv")
	out := r.ResolveMany([]asset.Asset{
		asset.New(key, &asset.Properties{Name: asset.String("first")}),
		asset.New(key, &asset.Properties{Name: asset.String("second")}),
		asset.KeyRef("s3://b/other.csv"),
	})

	if len(out) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(out))
	}
	if *out[0].Properties.Name != "first" || *out[1].Properties.Name != "second" {
		t.Errorf("duplicate-key batch did not apply in input order: %+v", out)
	}
	final := r.Resolve(asset.KeyRef(key))
	if *final.Properties.Name != "second" {
		t.Errorf("last writer in batch must win, got %q", *final.Properties.Name)
	}
}

func TestResolve_ConcurrentWritersSameKey(t *testing.T) {
	r := New()
	key := asset.Key("s3://b/contested.csv")

	const writers = 32
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("writer-%d", i)
			r.Resolve(asset.New(key, &asset.Properties{
				Name:   asset.String(name),
				Owners: asset.OwnerList(name),
			}))
		}(i)
	}
	wg.Wait()

	// Whoever won, the descriptor must be one writer's value in full,
	// never a blend of two writers.
	got := r.Resolve(asset.KeyRef(key))
	if got.Properties == nil || got.Properties.Name == nil || got.Properties.Owners == nil {
		t.Fatalf("torn descriptor after concurrent writes: %+v", got.Properties)
	}
	if *got.Properties.Name != (*got.Properties.Owners)[0] {
		t.Errorf("descriptor mixes two writers: name=%q owners=%v",
			*got.Properties.Name, *got.Properties.Owners)
	}
}

func TestResolveMany_OverlappingBatchesDoNotDeadlock(t *testing.T) {
	r := New()
	a := asset.New("s3://b/a.csv", &asset.Properties{Name: asset.String("A")})
	b := asset.New("s3://b/b.csv", &asset.Properties{Name: asset.String("B")})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			r.ResolveMany([]asset.Asset{a, b})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			r.ResolveMany([]asset.Asset{b, a})
		}
	}()
	wg.Wait()

	if r.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", r.Len())
	}
}

func TestKeys_Sorted(t *testing.T) {
	r := New()
	for _, k := range []asset.Key{"s3://b/c", "s3://b/a", "s3://b/b"} {
		r.Resolve(asset.KeyRef(k))
	}
	keys := r.Keys()
	want := []asset.Key{"s3://b/a", "s3://b/b", "s3://b/c"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", keys, want)
		}
	}
}
