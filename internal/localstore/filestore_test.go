package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestFileStorePutGet(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := store.Get("missing"); !errors.Is(err, ErrNoKey) {
		t.Fatalf("expected ErrNoKey, got %v", err)
	}

	if err := store.Put("local.loans", []byte(`{"records":[]}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, err := store.Get("local.loans")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != `{"records":[]}` {
		t.Fatalf("unexpected data: %s", data)
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "local.loans" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestFileStoreDelete(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Put("k", []byte(`{}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get("k"); !errors.Is(err, ErrNoKey) {
		t.Fatalf("expected ErrNoKey after delete, got %v", err)
	}
	// Deleting an absent key is a no-op.
	if err := store.Delete("k"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestFileStoreWatchExternalWrite(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Put("shared", []byte(`{"records":[]}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	changed := make(chan string, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	go func() {
		_ = store.Watch(ctx, 20*time.Millisecond, func(key string) {
			select {
			case changed <- key:
			default:
			}
		})
	}()

	// Simulate another process writing the same key. Backdate-proof: bump
	// the mtime explicitly in case the filesystem clock is coarse.
	path := filepath.Join(dir, "shared.json")
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"records":[{"id":"x"}]}`), 0600); err != nil {
		t.Fatalf("external write: %v", err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	select {
	case key := <-changed:
		if key != "shared" {
			t.Fatalf("expected change on 'shared', got %q", key)
		}
	case <-ctx.Done():
		t.Fatal("watcher did not observe the external write")
	}
}

func record(t *testing.T, id string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"id": id, "name": "n-" + id})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func TestRecordStoreCRUD(t *testing.T) {
	files, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rs := NewRecordStore(files)
	ctx := context.Background()

	if err := rs.Insert(ctx, core.KindLoans, "local", "a", record(t, "a")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := rs.Insert(ctx, core.KindLoans, "local", "b", record(t, "b")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := rs.Insert(ctx, core.KindLoans, "local", "a", record(t, "a")); err == nil {
		t.Fatal("duplicate insert should fail")
	}

	records, err := rs.LoadAll(ctx, core.KindLoans, "local")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Insertion order preserved.
	if id, _ := recordID(records[0]); id != "a" {
		t.Fatalf("expected first record a, got %s", id)
	}

	if err := rs.Update(ctx, core.KindLoans, "local", "b", record(t, "b")); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := rs.Update(ctx, core.KindLoans, "local", "zz", record(t, "zz")); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := rs.Delete(ctx, core.KindLoans, "local", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := rs.Delete(ctx, core.KindLoans, "local", "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	records, err = rs.LoadAll(ctx, core.KindLoans, "local")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	// Collections are isolated per kind and owner.
	other, err := rs.LoadAll(ctx, core.KindGoals, "local")
	if err != nil {
		t.Fatalf("load goals: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty goals collection, got %d", len(other))
	}
}
