package service

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/DEFRA/water-abstraction-ui-sub001/config"
	"github.com/google/uuid"
)

// ScratchStore manages per-request temporary upload files inside a scratch
// directory. Each upload owns exactly one allocated path; the owning handler
// must remove it on every exit path. A background sweep removes files left
// behind by crashed requests.
type ScratchStore struct {
	dir    string
	ttl    time.Duration
	mu     sync.Mutex
	active map[string]time.Time
}

// NewScratchStore creates a scratch store rooted at the configured directory.
func NewScratchStore(cfg *config.UploadConfig) *ScratchStore {
	return &ScratchStore{
		dir:    cfg.ScratchDir,
		ttl:    time.Duration(cfg.ScratchTTLMinutes) * time.Minute,
		active: make(map[string]time.Time),
	}
}

// Dir returns the scratch directory root.
func (s *ScratchStore) Dir() string {
	return s.dir
}

// Allocate returns a process-unique path inside the scratch directory. The
// file is not created; the path is registered as live until Remove is called.
func (s *ScratchStore) Allocate() string {
	path := filepath.Join(s.dir, uuid.New().String())

	s.mu.Lock()
	s.active[path] = time.Now()
	s.mu.Unlock()

	return path
}

// EnsureDir creates the parent directories for the given path. Idempotent.
func (s *ScratchStore) EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o750)
}

// Store streams the uploaded payload to the destination path. A failure to
// open or write the destination returns a WriteError; a failure of the source
// stream returns a ReadError. On failure the destination may hold a partial
// file; the caller is responsible for removing it.
func (s *ScratchStore) Store(src io.Reader, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return &WriteError{Path: dest, Err: err}
	}

	_, copyErr := io.Copy(out, src)
	closeErr := out.Close()

	if copyErr != nil {
		return &ReadError{Err: copyErr}
	}
	if closeErr != nil {
		return &WriteError{Path: dest, Err: closeErr}
	}
	return nil
}

// Remove deletes the file at the given path and releases its allocation.
// Best-effort: a deletion failure is logged, never returned, so it cannot
// mask the primary outcome of the request.
func (s *ScratchStore) Remove(path string) {
	s.mu.Lock()
	delete(s.active, path)
	s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove scratch file", "path", path, "error", err)
	}
}

// ActiveCount returns the number of live allocations.
func (s *ScratchStore) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Sweep removes scratch files older than the TTL that are no longer (or were
// never) registered as live. Returns the number of files removed.
func (s *ScratchStore) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read scratch directory", "dir", s.dir, "error", err)
		}
		return 0
	}

	cutoff := time.Now().Add(-s.ttl)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())

		s.mu.Lock()
		allocatedAt, live := s.active[path]
		s.mu.Unlock()

		if live && allocatedAt.After(cutoff) {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		s.Remove(path)
		slog.Info("swept stale scratch file", "path", path)
		removed++
	}

	return removed
}

// StartSweeper runs Sweep on the given interval until stop is closed.
func (s *ScratchStore) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-stop:
				return
			}
		}
	}()
}
