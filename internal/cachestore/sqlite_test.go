package cachestore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/taladar/sl-map-tools/internal/cachestore"
	"github.com/taladar/sl-map-tools/pkg/logger"
)

func newTestStore(t *testing.T) *cachestore.SQLiteStore {
	t.Helper()
	store, err := cachestore.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"), logger.NewNopLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	stored := cachestore.Entry{
		Payload:      []byte{0xFF, 0xD8, 0x00, 0x10, 0x4A},
		ETag:         `"v1"`,
		LastModified: time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC),
		ExpiresAt:    time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
		StoredAt:     time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC),
	}
	if err := store.Put(ctx, "tile-1-1000-1000", stored); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := store.Get(ctx, "tile-1-1000-1000")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("Get reported a miss for a stored key")
	}
	if diff := cmp.Diff(stored, got); diff != "" {
		t.Errorf("round trip mismatch (-want+got):\n%v", diff)
	}
}

func TestSQLiteStoreMiss(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.Get(context.Background(), "tile-1-9999-9999")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Get reported a hit for an unknown key")
	}
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "k", cachestore.Entry{Payload: []byte("old"), ETag: `"v1"`}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "k", cachestore.Entry{Payload: []byte("new"), ETag: `"v2"`}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := store.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if string(got.Payload) != "new" || got.ETag != `"v2"` {
		t.Errorf("Get after overwrite = %q/%q, want new/\"v2\"", got.Payload, got.ETag)
	}
}

func TestSQLiteStoreNegativeEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	negative := cachestore.Entry{
		Negative:  true,
		ExpiresAt: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
		StoredAt:  time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC),
	}
	if err := store.Put(ctx, "tile-8-0-0", negative); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := store.Get(ctx, "tile-8-0-0")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if !got.Negative {
		t.Error("Negative flag lost in round trip")
	}
	if len(got.Payload) != 0 {
		t.Errorf("negative entry carries payload %q", got.Payload)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")
	ctx := context.Background()

	store, err := cachestore.NewSQLiteStore(path, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := store.Put(ctx, "k", cachestore.Entry{Payload: []byte("survives")}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := cachestore.NewSQLiteStore(path, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore on existing file failed: %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if string(got.Payload) != "survives" {
		t.Errorf("Payload = %q, want %q", got.Payload, "survives")
	}
}
