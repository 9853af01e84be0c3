package safeatomic

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMoveToFreshPath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("seed src: %v", err)
	}
	if err := Move(src, dst, false); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("src still present: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "payload" {
		t.Fatalf("dst content: %q err=%v", got, err)
	}
}

func TestMoveRefusesExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatalf("seed src: %v", err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed dst: %v", err)
	}

	err := Move(src, dst, false)
	if !errors.Is(err, ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}
	// Both files untouched.
	if got, _ := os.ReadFile(src); string(got) != "new" {
		t.Fatalf("src changed: %q", got)
	}
	if got, _ := os.ReadFile(dst); string(got) != "old" {
		t.Fatalf("dst changed: %q", got)
	}
}

func TestMoveForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	if err := os.WriteFile(src, []byte("new"), 0o600); err != nil {
		t.Fatalf("seed src: %v", err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o640); err != nil {
		t.Fatalf("seed dst: %v", err)
	}
	past := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := os.Chtimes(dst, past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	if err := Move(src, dst, true); err != nil {
		t.Fatalf("Move force: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("src still present: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "new" {
		t.Fatalf("dst content: %q", got)
	}
	// The old destination's metadata survives onto the new content.
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("perm not carried over: %v", info.Mode().Perm())
	}
	if !info.ModTime().Equal(past) {
		t.Fatalf("mtime not carried over: %v", info.ModTime())
	}
}
