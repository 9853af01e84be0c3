package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dombert/safeatomic"
)

func runLock(args []string) error {
	if len(args) == 0 || isHelp(args[0]) {
		return lockUsage()
	}
	switch args[0] {
	case "status":
		return runLockStatus(args[1:])
	case "acquire":
		return runLockAcquire(args[1:])
	case "release":
		return runLockRelease(args[1:])
	case "release-stale":
		return runLockReleaseStale(args[1:])
	default:
		return fmt.Errorf("unknown lock subcommand: %s", args[0])
	}
}

func lockUsage() error {
	lines := []string{
		"Usage:",
		"  safeatomic lock status --file <path> [--json]",
		"  safeatomic lock acquire --file <path> [--force] [options]",
		"  safeatomic lock release --file <path>",
		"  safeatomic lock release-stale --file <path> --older-than <duration>",
	}
	for _, line := range lines {
		if err := writeStdoutLine(line); err != nil {
			return err
		}
	}
	return nil
}

func runLockStatus(args []string) error {
	fs := flag.NewFlagSet("lock status", flag.ContinueOnError)
	common := addCommonFlags(fs)
	fileFlag := fs.String("file", "", "Target path")

	usage := usageWithFlags(fs, "safeatomic lock status --file <path> [--json]")
	if handled, err := parseFlags(fs, args, usage); err != nil {
		return err
	} else if handled {
		return nil
	}
	path, err := requireFile(*fileFlag)
	if err != nil {
		return err
	}

	info := safeatomic.InspectLock(path, nil)
	if common.JSON {
		return writeJSON(os.Stdout, info)
	}
	return printLockInfo(info)
}

func printLockInfo(info safeatomic.LockInfo) error {
	if !info.Exists {
		return writeStdout("No lock: %s\n", info.LockPath)
	}
	if info.Corrupt {
		return writeStdout("Lock: %s\n  corrupt: content not parseable\n", info.LockPath)
	}
	state := "dead"
	if info.OwnerAlive {
		state = "alive"
	}
	session := info.Fingerprint
	if session == "" {
		session = "(none)"
	}
	return writeStdout("Lock: %s\n  pid: %d (%s)\n  session: %s\n  created: %s\n",
		info.LockPath, info.OwnerPID, state, session, info.CreatedAt)
}

func runLockAcquire(args []string) error {
	fs := flag.NewFlagSet("lock acquire", flag.ContinueOnError)
	common := addCommonFlags(fs)
	fileFlag := fs.String("file", "", "Target path")
	forceFlag := fs.Bool("force", false, "Steal the lock from a live owner")

	usage := usageWithFlags(fs, "safeatomic lock acquire --file <path> [--force] [options]",
		"The lock stays held until 'safeatomic lock release' runs for the same path.")
	if handled, err := parseFlags(fs, args, usage); err != nil {
		return err
	} else if handled {
		return nil
	}
	path, err := requireFile(*fileFlag)
	if err != nil {
		return err
	}

	ok, err := safeatomic.TryAcquireLock(path, safeatomic.LockOptions{
		Retries: common.Retries,
		Delay:   common.Delay,
		Session: common.Session,
		Force:   *forceFlag,
	})
	if err != nil {
		return err
	}
	if !ok {
		return LockedError("lock already held or persistent: %s", path)
	}

	if common.JSON {
		return writeJSON(os.Stdout, map[string]any{
			"path":      path,
			"lock_path": safeatomic.LockPath(path),
			"acquired":  true,
		})
	}
	return writeStdout("Acquired %s\n", safeatomic.LockPath(path))
}

func runLockRelease(args []string) error {
	fs := flag.NewFlagSet("lock release", flag.ContinueOnError)
	common := addCommonFlags(fs)
	fileFlag := fs.String("file", "", "Target path")

	usage := usageWithFlags(fs, "safeatomic lock release --file <path>")
	if handled, err := parseFlags(fs, args, usage); err != nil {
		return err
	} else if handled {
		return nil
	}
	path, err := requireFile(*fileFlag)
	if err != nil {
		return err
	}

	if err := safeatomic.ReleaseLock(path); err != nil {
		return err
	}
	if common.JSON {
		return writeJSON(os.Stdout, map[string]any{"path": path, "released": true})
	}
	return writeStdout("Released %s\n", safeatomic.LockPath(path))
}

func runLockReleaseStale(args []string) error {
	fs := flag.NewFlagSet("lock release-stale", flag.ContinueOnError)
	common := addCommonFlags(fs)
	fileFlag := fs.String("file", "", "Target path")
	olderFlag := fs.String("older-than", "", "Age threshold (e.g. 30m)")

	usage := usageWithFlags(fs, "safeatomic lock release-stale --file <path> --older-than <duration>",
		"Removes the lock only when it is older than the threshold, owner liveness notwithstanding.")
	if handled, err := parseFlags(fs, args, usage); err != nil {
		return err
	} else if handled {
		return nil
	}
	path, err := requireFile(*fileFlag)
	if err != nil {
		return err
	}
	if *olderFlag == "" {
		return UsageError("--older-than is required")
	}
	maxAge, err := time.ParseDuration(*olderFlag)
	if err != nil {
		return err
	}
	if maxAge <= 0 {
		return errors.New("--older-than must be > 0")
	}

	stale := safeatomic.IsStaleLock(path, maxAge)
	if err := safeatomic.ReleaseStaleLock(path, maxAge); err != nil {
		return err
	}
	if common.JSON {
		return writeJSON(os.Stdout, map[string]any{"path": path, "released": stale})
	}
	if stale {
		return writeStdout("Released stale %s\n", safeatomic.LockPath(path))
	}
	return writeStdoutLine("No stale lock to release.")
}
