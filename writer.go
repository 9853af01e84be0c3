package safeatomic

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// WriteOptions parameterize a write session. Zero Retries/Delay mean the
// package defaults; zero Perm means 0o600 for a new target.
type WriteOptions struct {
	Retries int
	Delay   time.Duration
	Session string
	Force   bool

	// Simulate discards all writes while still exercising the lock
	// acquire/release cycle. No temp file is created and no rename occurs.
	Simulate bool

	Perm  os.FileMode
	Alive LivenessFunc

	// Warn receives non-fatal diagnostics (metadata-copy failures and
	// cleanup hiccups). Nil sends them to stderr.
	Warn func(format string, args ...any)
}

// Writer is an atomic write session. NewWriter acquires the target's lock
// and stages writes into a private temp file; Commit publishes the staged
// content with one atomic rename; Close without a prior Commit aborts,
// leaving the target byte-for-byte unchanged. Lock release and temp-file
// removal happen on every exit path exactly once.
type Writer struct {
	path    string
	tmpPath string
	opts    WriteOptions

	file *os.File
	dst  io.Writer
	done bool
}

// NewWriter opens a write session for path. Either it returns a writer with
// the lock held, or it fails leaving no lock, no temp file, and no change
// to the target. Lock contention surfaces as ErrLockUnavailable.
func NewWriter(path string, opts WriteOptions) (*Writer, error) {
	if opts.Perm == 0 {
		opts.Perm = 0o600
	}
	ok, err := TryAcquireLock(path, LockOptions{
		Retries: opts.Retries,
		Delay:   opts.Delay,
		Session: opts.Session,
		Force:   opts.Force,
		Alive:   opts.Alive,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLockUnavailable, path)
	}

	w := &Writer{path: path, opts: opts}
	if opts.Simulate {
		w.dst = io.Discard
		return w, nil
	}

	w.tmpPath = TempPath(path)
	f, err := os.OpenFile(w.tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, opts.Perm)
	if err != nil {
		_ = ReleaseLock(path)
		return nil, err
	}
	w.file = f
	w.dst = f
	return w, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.done {
		return 0, fs.ErrClosed
	}
	return w.dst.Write(p)
}

// Path returns the target path of the session.
func (w *Writer) Path() string { return w.path }

// Commit flushes the staged content and publishes it: fsync, best-effort
// metadata copy from the existing target, atomic rename, directory sync.
// The lock is released and the temp file removed whether or not the commit
// succeeds. Calling Commit after the session is finished is a no-op.
func (w *Writer) Commit() error {
	if w.done {
		return nil
	}
	w.done = true
	defer w.cleanup()

	if w.opts.Simulate {
		return nil
	}
	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	if err := syncDir(dir); err != nil {
		return err
	}
	if _, err := os.Stat(w.path); err == nil {
		// Carry the prior target's permissions and timestamps onto the
		// new content. Content correctness beats metadata fidelity, so a
		// failure here is reported and the rename proceeds.
		if err := copyFileMetadata(w.path, w.tmpPath); err != nil {
			w.warnf("copy metadata %s: %v", w.path, err)
		}
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		return err
	}
	return syncDir(dir)
}

// Close ends the session. After a successful Commit it is a no-op; before
// one it aborts: the temp file is removed, the lock released, and the
// target left untouched. Close is safe to defer unconditionally.
func (w *Writer) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	var err error
	if w.file != nil {
		err = w.file.Close()
	}
	w.cleanup()
	return err
}

// cleanup releases the lock and removes the temp file if it still exists.
// After a successful rename it no longer does; this is insurance for every
// path that never reached the rename.
func (w *Writer) cleanup() {
	if err := ReleaseLock(w.path); err != nil {
		w.warnf("release lock %s: %v", w.path, err)
	}
	if w.tmpPath == "" {
		return
	}
	if err := os.Remove(w.tmpPath); err != nil && !os.IsNotExist(err) {
		w.warnf("remove temp %s: %v", w.tmpPath, err)
	}
}

func (w *Writer) warnf(format string, args ...any) {
	if w.opts.Warn != nil {
		w.opts.Warn(format, args...)
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// WriteFile writes data to path through a full atomic session. On any error
// the target keeps its prior content.
func WriteFile(path string, data []byte, opts WriteOptions) error {
	w, err := NewWriter(path, opts)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Commit()
}
