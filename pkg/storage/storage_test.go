package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	key := "exports/run-1/report.json"
	payload := []byte(`[{"key":"s3://b/d.csv"}]`)

	ok, err := store.Exists(ctx, key)
	if err != nil || ok {
		t.Fatalf("expected missing artifact, got ok=%v err=%v", ok, err)
	}

	if err := store.Put(ctx, key, payload); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("artifact did not round-trip: %s", got)
	}

	ok, err = store.Exists(ctx, key)
	if err != nil || !ok {
		t.Errorf("expected artifact to exist, got ok=%v err=%v", ok, err)
	}

	keys, err := store.List(ctx, "exports")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{key}) {
		t.Errorf("unexpected listing: %v", keys)
	}

	// Listing a prefix that was never written is empty, not an error.
	keys, err = store.List(ctx, "nope")
	if err != nil || len(keys) != 0 {
		t.Errorf("expected empty listing, got %v err=%v", keys, err)
	}
}

func TestOpen_Dispatch(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_REGION", "us-east-1")

	ctx := context.Background()

	local, err := Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Open local failed: %v", err)
	}
	if _, ok := local.(*LocalStore); !ok {
		t.Fatalf("expected LocalStore, got %T", local)
	}

	remote, err := Open(ctx, "s3://artifacts/reports/daily")
	if err != nil {
		t.Fatalf("Open s3 failed: %v", err)
	}
	s3s, ok := remote.(*S3Store)
	if !ok {
		t.Fatalf("expected S3Store, got %T", remote)
	}
	if s3s.Bucket != "artifacts" || s3s.Prefix != "reports/daily" {
		t.Errorf("target not parsed: bucket=%q prefix=%q", s3s.Bucket, s3s.Prefix)
	}

	if _, err := Open(ctx, "s3://"); err == nil {
		t.Error("expected error for bucketless url")
	}
}

func TestS3Store_ObjectKeys(t *testing.T) {
	bare := NewS3Store(nil, "b", "")
	if got := bare.object("report.json"); got != "report.json" {
		t.Errorf("unexpected object key: %q", got)
	}

	prefixed := NewS3Store(nil, "b", "/reports/")
	if prefixed.Prefix != "reports" {
		t.Errorf("prefix not normalized: %q", prefixed.Prefix)
	}
	if got := prefixed.object("run-1/report.json"); got != "reports/run-1/report.json" {
		t.Errorf("unexpected object key: %q", got)
	}
}

func TestPublishDir(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"report.json":       `[]`,
		"nested/report.csv": "Key\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(src, filepath.FromSlash(name)), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	store := NewLocalStore(t.TempDir())
	n, err := PublishDir(ctx, store, src, logger)
	if err != nil {
		t.Fatalf("PublishDir failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 published artifacts, got %d", n)
	}
	for name, content := range files {
		got, err := store.Get(ctx, name)
		if err != nil || string(got) != content {
			t.Errorf("artifact %s not published: %s err=%v", name, got, err)
		}
	}
}

type failStore struct{}

func (failStore) Put(context.Context, string, []byte) error      { return errors.New("boom") }
func (failStore) Get(context.Context, string) ([]byte, error)    { return nil, errors.New("boom") }
func (failStore) List(context.Context, string) ([]string, error) { return nil, errors.New("boom") }
func (failStore) Exists(context.Context, string) (bool, error)   { return false, errors.New("boom") }

func TestPublishDir_SkipsFailedUploads(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "report.json"), []byte(`[]`), 0644); err != nil {
		t.Fatal(err)
	}

	n, err := PublishDir(context.Background(), failStore{}, src, logger)
	if err != nil {
		t.Fatalf("per-file failures must not abort the walk: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 published artifacts, got %d", n)
	}
}
