package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestFileKV(t *testing.T) (KeyValueStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "localstorage.yaml")
	return NewFileKeyValueStore(path), path
}

func TestFileKeyValueStore_MissingFileIsEmpty(t *testing.T) {
	kv, _ := newTestFileKV(t)

	_, ok, err := kv.Get("tasks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected key to be absent")
	}
}

func TestFileKeyValueStore_SetGet(t *testing.T) {
	kv, path := newTestFileKV(t)

	if err := kv.Set("tasks", `[{"title":"a"}]`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := kv.Set("color-scheme", "dark"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reopened := NewFileKeyValueStore(path)
	got, ok, err := reopened.Get("tasks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || got != `[{"title":"a"}]` {
		t.Fatalf("expected stored value, got %q (ok=%v)", got, ok)
	}
	theme, _, _ := reopened.Get("color-scheme")
	if theme != "dark" {
		t.Fatalf("expected dark, got %q", theme)
	}
}

func TestFileKeyValueStore_OverwriteLeavesNoTempFile(t *testing.T) {
	kv, path := newTestFileKV(t)

	for _, v := range []string{"one", "two", "three"} {
		if err := kv.Set("k", v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, _, _ := kv.Get("k")
	if got != "three" {
		t.Fatalf("expected last write to win, got %q", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be gone, stat err = %v", err)
	}
}

func TestFileKeyValueStore_Delete(t *testing.T) {
	kv, _ := newTestFileKV(t)
	_ = kv.Set("a", "1")
	_ = kv.Set("b", "2")

	if err := kv.Delete("a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := kv.Delete("missing"); err != nil {
		t.Fatalf("deleting a missing key should be a no-op: %v", err)
	}

	if _, ok, _ := kv.Get("a"); ok {
		t.Fatal("expected a to be deleted")
	}
	if v, ok, _ := kv.Get("b"); !ok || v != "2" {
		t.Fatalf("expected b preserved, got %q", v)
	}
}

func TestFileKeyValueStore_CorruptFile(t *testing.T) {
	kv, path := newTestFileKV(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("tasks: [\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := kv.Get("tasks"); err == nil {
		t.Fatal("expected error for corrupt file")
	}
	if err := kv.Set("tasks", "[]"); err == nil {
		t.Fatal("expected Set to refuse overwriting a corrupt file")
	}
}

func TestFileKeyValueStore_ConcurrentWritersKeepAllKeys(t *testing.T) {
	_, path := newTestFileKV(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Separate instances stand in for separate processes.
			kv := NewFileKeyValueStore(path)
			if err := kv.Set(fmt.Sprintf("key-%d", i), "v"); err != nil {
				t.Errorf("Set key-%d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	kv := NewFileKeyValueStore(path)
	for i := 0; i < 8; i++ {
		if _, ok, err := kv.Get(fmt.Sprintf("key-%d", i)); err != nil || !ok {
			t.Errorf("key-%d missing (err=%v)", i, err)
		}
	}
}

func TestMemoryKeyValueStore(t *testing.T) {
	kv := NewMemoryKeyValueStore()

	if _, ok, _ := kv.Get("x"); ok {
		t.Fatal("expected empty store")
	}
	_ = kv.Set("x", "1")
	if v, ok, _ := kv.Get("x"); !ok || v != "1" {
		t.Fatalf("expected 1, got %q", v)
	}
	_ = kv.Delete("x")
	if _, ok, _ := kv.Get("x"); ok {
		t.Fatal("expected x deleted")
	}
}

func TestFileKeyValueStore_Update(t *testing.T) {
	kv, path := newTestFileKV(t)

	err := kv.Update("counter", func(old string, ok bool) (string, error) {
		if ok || old != "" {
			t.Errorf("expected absent key, got %q ok=%v", old, ok)
		}
		return "1", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = kv.Set("other", "kept")

	if err := kv.Update("counter", func(old string, ok bool) (string, error) {
		return old + "+1", nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reopened := NewFileKeyValueStore(path)
	if v, _, _ := reopened.Get("counter"); v != "1+1" {
		t.Errorf("expected 1+1, got %q", v)
	}
	if v, _, _ := reopened.Get("other"); v != "kept" {
		t.Errorf("expected other key kept, got %q", v)
	}
}

func TestFileKeyValueStore_UpdateErrorLeavesValue(t *testing.T) {
	kv, _ := newTestFileKV(t)
	_ = kv.Set("tasks", "[]")

	boom := errors.New("rejected")
	err := kv.Update("tasks", func(string, bool) (string, error) { return "changed", boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected the callback error, got %v", err)
	}
	if v, _, _ := kv.Get("tasks"); v != "[]" {
		t.Fatalf("expected value untouched, got %q", v)
	}
}

func TestFileKeyValueStore_ConcurrentUpdatesAreSerialized(t *testing.T) {
	_, path := newTestFileKV(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kv := NewFileKeyValueStore(path)
			err := kv.Update("log", func(old string, _ bool) (string, error) {
				return old + "x", nil
			})
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	if v, _, _ := NewFileKeyValueStore(path).Get("log"); v != strings.Repeat("x", 8) {
		t.Fatalf("expected 8 appends, got %q", v)
	}
}

func TestMemoryKeyValueStore_Update(t *testing.T) {
	kv := NewMemoryKeyValueStore()

	_ = kv.Update("x", func(old string, ok bool) (string, error) {
		if ok {
			t.Error("expected absent key")
		}
		return "1", nil
	})
	err := kv.Update("x", func(string, bool) (string, error) { return "2", errors.New("no") })
	if err == nil {
		t.Fatal("expected callback error")
	}
	if v, _, _ := kv.Get("x"); v != "1" {
		t.Fatalf("expected 1, got %q", v)
	}
}
