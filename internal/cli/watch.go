package cli

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dombert/safeatomic"
)

// runWatch blocks until the target's lock clears, then reports how long it
// waited. Useful before batch reads that need a quiet target.
func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	common := addCommonFlags(fs)
	fileFlag := fs.String("file", "", "Target path")
	timeoutFlag := fs.Duration("timeout", 60*time.Second, "Maximum time to wait (0 = wait forever)")
	pollFlag := fs.Bool("poll", false, "Use polling fallback instead of fsnotify (for network filesystems)")

	usage := usageWithFlags(fs, "safeatomic watch --file <path> [options]")
	if handled, err := parseFlags(fs, args, usage); err != nil {
		return err
	} else if handled {
		return nil
	}
	path, err := requireFile(*fileFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if *timeoutFlag > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeoutFlag)
		defer cancel()
	}

	start := time.Now()
	var waitErr error
	if *pollFlag {
		waitErr = waitUnlockedPolling(ctx, path)
	} else {
		waitErr = waitUnlockedFsnotify(ctx, path)
	}
	if waitErr != nil {
		if errors.Is(waitErr, context.DeadlineExceeded) {
			if common.JSON {
				if err := writeJSON(os.Stdout, map[string]any{"event": "timeout"}); err != nil {
					return err
				}
			}
			return TimeoutError("still locked after %s: %s", *timeoutFlag, path)
		}
		return waitErr
	}

	if common.JSON {
		return writeJSON(os.Stdout, map[string]any{
			"event":     "unlocked",
			"waited_ms": time.Since(start).Milliseconds(),
		})
	}
	return writeStdout("Unlocked after %s: %s\n", time.Since(start).Round(time.Millisecond), path)
}

func waitUnlockedFsnotify(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Fall back to polling if fsnotify fails
		return waitUnlockedPolling(ctx, path)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: the lock file itself comes and goes, and a
	// watch on a removed file would be lost.
	if err := watcher.Add(filepath.Dir(safeatomic.LockPath(path))); err != nil {
		return waitUnlockedPolling(ctx, path)
	}

	// Check AFTER the watcher is in place so a release between check and
	// watch setup cannot be missed.
	if !safeatomic.IsLocked(path) {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if !safeatomic.IsLocked(path) {
					return nil
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			return err
		}
	}
}

func waitUnlockedPolling(ctx context.Context, path string) error {
	if !safeatomic.IsLocked(path) {
		return nil
	}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !safeatomic.IsLocked(path) {
				return nil
			}
		}
	}
}
