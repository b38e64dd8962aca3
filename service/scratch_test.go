package service

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DEFRA/water-abstraction-ui-sub001/config"
)

func newTestStore(t *testing.T) *ScratchStore {
	t.Helper()
	return NewScratchStore(&config.UploadConfig{
		ScratchDir:        t.TempDir(),
		ScratchTTLMinutes: 60,
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("stream interrupted")
}

func TestAllocate(t *testing.T) {
	store := newTestStore(t)

	first := store.Allocate()
	second := store.Allocate()

	if first == second {
		t.Error("Expected unique paths per allocation")
	}
	if filepath.Dir(first) != store.Dir() {
		t.Errorf("Expected path inside %s, got %s", store.Dir(), first)
	}
	if store.ActiveCount() != 2 {
		t.Errorf("Expected 2 active allocations, got %d", store.ActiveCount())
	}
}

func TestEnsureDirIdempotent(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(store.Dir(), "nested", "upload.csv")

	if err := store.EnsureDir(path); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := store.EnsureDir(path); err != nil {
		t.Fatalf("Expected second EnsureDir to succeed: %v", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	dest := store.Allocate()

	if err := store.Store(strings.NewReader("a,b,c\n"), dest); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	contents, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Failed to read stored file: %v", err)
	}
	if string(contents) != "a,b,c\n" {
		t.Errorf("Unexpected contents: %q", contents)
	}
}

func TestStoreWriteError(t *testing.T) {
	store := newTestStore(t)
	dest := filepath.Join(store.Dir(), "missing-dir", "upload.csv")

	err := store.Store(strings.NewReader("data"), dest)
	if err == nil {
		t.Fatal("Expected error for unwritable destination")
	}

	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Errorf("Expected WriteError, got %T", err)
	}
}

func TestStoreReadError(t *testing.T) {
	store := newTestStore(t)
	dest := store.Allocate()

	err := store.Store(failingReader{}, dest)
	if err == nil {
		t.Fatal("Expected error for failing source stream")
	}

	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Errorf("Expected ReadError, got %T", err)
	}
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)
	dest := store.Allocate()

	if err := store.Store(strings.NewReader("data"), dest); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	store.Remove(dest)

	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("Expected file to be removed")
	}
	if store.ActiveCount() != 0 {
		t.Errorf("Expected 0 active allocations, got %d", store.ActiveCount())
	}

	// Removing a path that never existed must not panic or log an error out
	store.Remove(filepath.Join(store.Dir(), "never-existed"))
}

func TestSweep(t *testing.T) {
	store := NewScratchStore(&config.UploadConfig{
		ScratchDir:        t.TempDir(),
		ScratchTTLMinutes: 30,
	})

	// A stale file from a crashed request
	stale := filepath.Join(store.Dir(), "stale-upload")
	if err := os.WriteFile(stale, []byte("old"), 0o600); err != nil {
		t.Fatalf("Failed to write stale file: %v", err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("Failed to age stale file: %v", err)
	}

	// A live, recent allocation
	live := store.Allocate()
	if err := store.Store(strings.NewReader("fresh"), live); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	removed := store.Sweep()
	if removed != 1 {
		t.Errorf("Expected 1 file swept, got %d", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("Expected stale file to be swept")
	}
	if _, err := os.Stat(live); err != nil {
		t.Error("Expected live file to survive sweep")
	}
}
