package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dombert/safeatomic"
)

func seedAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("seed %s: %v", path, err)
	}
	past := time.Now().Add(-age)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("age %s: %v", path, err)
	}
}

func TestCleanupRemovesAgedTempFiles(t *testing.T) {
	dir := t.TempDir()
	oldTemp := safeatomic.TempPath(filepath.Join(dir, "a.txt"))
	seedAged(t, oldTemp, 48*time.Hour)
	freshTemp := safeatomic.TempPath(filepath.Join(dir, "b.txt"))
	seedAged(t, freshTemp, time.Minute)
	target := filepath.Join(dir, "keep.txt")
	seedAged(t, target, 48*time.Hour)

	out, err := captureStdout(t, func() error {
		return runCleanup([]string{"--dir", dir, "--older-than", "36h", "--yes", "--json"})
	})
	if err != nil {
		t.Fatalf("runCleanup: %v (output: %q)", err, out)
	}
	var result struct {
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.Removed != 1 {
		t.Fatalf("removed: got %d want 1", result.Removed)
	}
	if _, err := os.Stat(oldTemp); !os.IsNotExist(err) {
		t.Fatalf("aged temp survived")
	}
	if _, err := os.Stat(freshTemp); err != nil {
		t.Fatalf("fresh temp removed: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("ordinary file removed: %v", err)
	}
}

func TestCleanupLocksOptIn(t *testing.T) {
	dir := t.TempDir()
	lockPath := safeatomic.LockPath(filepath.Join(dir, "t.txt"))
	seedAged(t, lockPath, 48*time.Hour)

	// Without --locks the lock file is out of scope.
	if _, err := captureStdout(t, func() error {
		return runCleanup([]string{"--dir", dir, "--older-than", "1h", "--yes"})
	}); err != nil {
		t.Fatalf("runCleanup: %v", err)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Fatalf("lock removed without --locks: %v", err)
	}

	if _, err := captureStdout(t, func() error {
		return runCleanup([]string{"--dir", dir, "--older-than", "1h", "--locks", "--yes"})
	}); err != nil {
		t.Fatalf("runCleanup --locks: %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Fatalf("aged lock survived")
	}
}

func TestCleanupDryRun(t *testing.T) {
	dir := t.TempDir()
	oldTemp := safeatomic.TempPath(filepath.Join(dir, "a.txt"))
	seedAged(t, oldTemp, 48*time.Hour)

	out, err := captureStdout(t, func() error {
		return runCleanup([]string{"--dir", dir, "--older-than", "1h", "--dry-run", "--json"})
	})
	if err != nil {
		t.Fatalf("runCleanup: %v", err)
	}
	var result struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("count: got %d", result.Count)
	}
	if _, err := os.Stat(oldTemp); err != nil {
		t.Fatalf("dry run deleted: %v", err)
	}
}

func TestCleanupRequiresThreshold(t *testing.T) {
	_, err := captureStdout(t, func() error {
		return runCleanup([]string{"--dir", t.TempDir()})
	})
	if GetExitCode(err) != ExitUsage {
		t.Fatalf("expected usage error, got %v", err)
	}
}
