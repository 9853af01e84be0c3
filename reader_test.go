package safeatomic

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestReadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.txt")
	start := time.Now()
	_, err := ReadFile(path, ReadOptions{Retries: 2, Delay: time.Millisecond})
	if !errors.Is(err, ErrReadUnavailable) {
		t.Fatalf("expected ErrReadUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("error must name the path: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("retry loop unbounded: %v", elapsed)
	}
}

func TestReadIgnoresLockByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if ok, _ := TryAcquireLock(path, fastLock("holder")); !ok {
		t.Fatalf("seed acquire failed")
	}
	got, err := ReadFile(path, fastRead())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "content" {
		t.Fatalf("content: %q", got)
	}
}

func TestReadRequireUnlocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if ok, _ := TryAcquireLock(path, fastLock("holder")); !ok {
		t.Fatalf("seed acquire failed")
	}

	opts := ReadOptions{Retries: 2, Delay: time.Millisecond, RequireUnlocked: true}
	if _, err := ReadFile(path, opts); !errors.Is(err, ErrReadUnavailable) {
		t.Fatalf("expected ErrReadUnavailable while locked, got %v", err)
	}

	if err := ReleaseLock(path); err != nil {
		t.Fatalf("ReleaseLock: %v", err)
	}
	got, err := ReadFile(path, opts)
	if err != nil {
		t.Fatalf("ReadFile after release: %v", err)
	}
	if string(got) != "content" {
		t.Fatalf("content: %q", got)
	}
}

func TestReaderNeverSeesTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target.txt")
	if err := os.WriteFile(path, []byte("committed"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// An open staging file next to the target must not leak into reads.
	w, err := NewWriter(path, fastWrite("staging"))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.Write([]byte("half")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := ReadFile(path, fastRead())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "committed" {
		t.Fatalf("reader observed staged content: %q", got)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
