package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"gutcom/internal/artifact/core"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, err := store.Put(ctx, "models/a", bytes.NewReader([]byte("abc")), core.PutOptions{Metadata: map[string]string{"sample": "a"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "models/a", bytes.NewReader([]byte("x")), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	info, rc, err := store.Get(ctx, "models/a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "abc" || info.Size != 3 {
		t.Fatalf("unexpected get %q %+v", b, info)
	}
	if ok, _ := store.Exists(ctx, "models/a"); !ok {
		t.Fatal("Exists must report stored key")
	}
	list, err := store.List(ctx, "models/")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
	if deleted, _ := store.Delete(ctx, "models/a"); !deleted {
		t.Fatal("delete must report existing key")
	}
	if _, _, err := store.Get(ctx, "models/a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStore_OverwriteIsolatesCaller(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("v1")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("v2")), core.PutOptions{Overwrite: true}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	_, rc, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "v2" {
		t.Fatalf("got %q, want v2", b)
	}
}
