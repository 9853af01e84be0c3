package cli

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dombert/safeatomic"
)

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.txt")

	out, err := captureStdout(t, func() error {
		return runWrite([]string{"--file", path, "--data", "hello", "--session", "A"})
	})
	if err != nil {
		t.Fatalf("runWrite: %v (output: %q)", err, out)
	}

	out, err = captureStdout(t, func() error {
		return runRead([]string{"--file", path})
	})
	if err != nil {
		t.Fatalf("runRead: %v", err)
	}
	if out != "hello" {
		t.Fatalf("read output: %q", out)
	}
}

func TestReadJSONOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.txt")
	if err := safeatomic.WriteFile(path, []byte("payload"), safeatomic.WriteOptions{
		Retries: 2, Delay: time.Millisecond,
	}); err != nil {
		t.Fatalf("seed write: %v", err)
	}

	out, err := captureStdout(t, func() error {
		return runRead([]string{"--file", path, "--json"})
	})
	if err != nil {
		t.Fatalf("runRead: %v", err)
	}
	var result struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("unmarshal: %v (output: %q)", err, out)
	}
	if result.Content != "payload" {
		t.Fatalf("content: %q", result.Content)
	}
}

func TestWriteContentionExitCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.txt")
	if ok, _ := safeatomic.TryAcquireLock(path, safeatomic.LockOptions{
		Retries: 2, Delay: time.Millisecond, Session: "holder",
	}); !ok {
		t.Fatalf("seed acquire failed")
	}

	_, err := captureStdout(t, func() error {
		return runWrite([]string{
			"--file", path, "--data", "x",
			"--retries", "2", "--delay", "1ms", "--session", "B",
		})
	})
	if !errors.Is(err, safeatomic.ErrLockUnavailable) {
		t.Fatalf("expected lock contention, got %v", err)
	}
	if GetExitCode(err) != ExitLocked {
		t.Fatalf("exit code: got %d want %d", GetExitCode(err), ExitLocked)
	}
}

func TestWriteForcedAfterContention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.txt")
	if err := safeatomic.WriteFile(path, []byte("hello"), safeatomic.WriteOptions{
		Retries: 2, Delay: time.Millisecond, Session: "A",
	}); err != nil {
		t.Fatalf("seed write: %v", err)
	}
	if ok, _ := safeatomic.TryAcquireLock(path, safeatomic.LockOptions{
		Retries: 2, Delay: time.Millisecond, Session: "A",
	}); !ok {
		t.Fatalf("seed acquire failed")
	}

	// Without force: contention.
	_, err := captureStdout(t, func() error {
		return runWrite([]string{
			"--file", path, "--data", "from-B",
			"--retries", "3", "--delay", "10ms", "--session", "B",
		})
	})
	if GetExitCode(err) != ExitLocked {
		t.Fatalf("expected contention, got %v", err)
	}

	// With force: B wins and its content is committed.
	_, err = captureStdout(t, func() error {
		return runWrite([]string{
			"--file", path, "--data", "from-B",
			"--retries", "3", "--delay", "10ms", "--session", "B", "--force",
		})
	})
	if err != nil {
		t.Fatalf("forced write: %v", err)
	}
	got, err := safeatomic.ReadFile(path, safeatomic.ReadOptions{Retries: 2, Delay: time.Millisecond})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "from-B" {
		t.Fatalf("content: %q", got)
	}
}

func TestReadMissingExitCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.txt")
	_, err := captureStdout(t, func() error {
		return runRead([]string{"--file", path, "--retries", "2", "--delay", "1ms"})
	})
	if GetExitCode(err) != ExitNotFound {
		t.Fatalf("exit code: got %d want %d (err=%v)", GetExitCode(err), ExitNotFound, err)
	}
}

func TestWriteSimulate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.txt")
	out, err := captureStdout(t, func() error {
		return runWrite([]string{"--file", path, "--data", "x", "--simulate", "--json"})
	})
	if err != nil {
		t.Fatalf("simulate write: %v", err)
	}
	var result struct {
		Simulate bool `json:"simulate"`
		Bytes    int  `json:"bytes"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !result.Simulate || result.Bytes != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}
