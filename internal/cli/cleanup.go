package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dombert/safeatomic"
)

// runCleanup removes staging files abandoned by crashed writers and,
// optionally, lock files past an age threshold. It never touches targets.
func runCleanup(args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ContinueOnError)
	common := addCommonFlags(fs)
	dirFlag := fs.String("dir", ".", "Directory to scan")
	olderFlag := fs.String("older-than", "", "Age threshold (e.g. 36h)")
	locksFlag := fs.Bool("locks", false, "Also remove lock files older than the threshold")
	dryRunFlag := fs.Bool("dry-run", false, "Show what would be removed without deleting")
	yesFlag := fs.Bool("yes", false, "Skip confirmation prompt")

	usage := usageWithFlags(fs, "safeatomic cleanup --dir <dir> --older-than <duration> [--locks] [--dry-run] [--yes]")
	if handled, err := parseFlags(fs, args, usage); err != nil {
		return err
	} else if handled {
		return nil
	}
	if *olderFlag == "" {
		return UsageError("--older-than is required")
	}
	dur, err := time.ParseDuration(*olderFlag)
	if err != nil {
		return err
	}
	if dur <= 0 {
		return errors.New("--older-than must be > 0")
	}
	dir := filepath.Clean(*dirFlag)
	cutoff := time.Now().Add(-dur)

	candidates, err := findAbandoned(dir, cutoff, *locksFlag)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		if common.JSON {
			return writeJSON(os.Stdout, map[string]any{
				"removed":    0,
				"candidates": []string{},
			})
		}
		return writeStdoutLine("Nothing to remove.")
	}

	if *dryRunFlag {
		if common.JSON {
			return writeJSON(os.Stdout, map[string]any{
				"candidates": candidates,
				"count":      len(candidates),
			})
		}
		if err := writeStdout("Would remove %d file(s).\n", len(candidates)); err != nil {
			return err
		}
		for _, path := range candidates {
			if err := writeStdout("%s\n", path); err != nil {
				return err
			}
		}
		return nil
	}

	if !*yesFlag {
		ok, err := confirmPrompt(fmt.Sprintf("Delete %d file(s)?", len(candidates)))
		if err != nil {
			return err
		}
		if !ok {
			return writeStdoutLine("Aborted.")
		}
	}

	removed := 0
	for _, path := range candidates {
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
	}

	if common.JSON {
		return writeJSON(os.Stdout, map[string]any{"removed": removed})
	}
	return writeStdout("Removed %d file(s).\n", removed)
}

func findAbandoned(dir string, cutoff time.Time, includeLocks bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		isTemp := safeatomic.IsTempName(name)
		isLock := includeLocks && strings.HasSuffix(name, safeatomic.LockSuffix)
		if !isTemp && !isLock {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			out = append(out, filepath.Join(dir, name))
		}
	}
	return out, nil
}
