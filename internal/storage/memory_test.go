package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("samples/", time.Hour)

	if _, err := s.Upload(ctx, "dataset-1", "a.png", []byte("x"), "image/png"); err == nil {
		t.Fatalf("upload into missing container should fail")
	}
	if err := s.CreateContainer(ctx, "dataset-1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	path, err := s.Upload(ctx, "dataset-1", "analysis-results.json", []byte(`{}`), "application/json")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if path != "dataset-1/analysis-results.json" {
		t.Fatalf("path = %q", path)
	}

	data, err := s.Download(ctx, "dataset-1", "analysis-results.json")
	if err != nil || string(data) != "{}" {
		t.Fatalf("download: %q %v", data, err)
	}
	if _, err := s.Download(ctx, "dataset-1", "missing.json"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}

	grant, err := s.UploadAccess(ctx, "dataset-1")
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	if grant.KeyPrefix != "samples/" || grant.Container != "dataset-1" || !grant.ExpiresAt.After(time.Now()) {
		t.Fatalf("unexpected grant: %+v", grant)
	}

	if err := s.DeleteContainer(ctx, "dataset-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteContainer(ctx, "dataset-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if s.Exists("dataset-1") {
		t.Fatalf("container still exists")
	}
	if s.CreateCount("dataset-1") != 1 {
		t.Fatalf("create count = %d", s.CreateCount("dataset-1"))
	}
}
