package cli

import (
	"errors"
	"flag"
	"os"

	"github.com/dombert/safeatomic"
)

func runWrite(args []string) error {
	fs := flag.NewFlagSet("write", flag.ContinueOnError)
	common := addCommonFlags(fs)
	fileFlag := fs.String("file", "", "Target path")
	dataFlag := fs.String("data", "", "Content to write (default: stdin)")
	fromFlag := fs.String("from-file", "", "Read content from this file ('-' for stdin)")
	forceFlag := fs.Bool("force", false, "Steal the lock from a live owner")
	simulateFlag := fs.Bool("simulate", false, "Exercise locking but discard all writes")

	usage := usageWithFlags(fs, "safeatomic write --file <path> [--data <s> | --from-file <p>] [options]")
	if handled, err := parseFlags(fs, args, usage); err != nil {
		return err
	} else if handled {
		return nil
	}
	path, err := requireFile(*fileFlag)
	if err != nil {
		return err
	}
	data, err := resolveData(*dataFlag, *fromFlag)
	if err != nil {
		return err
	}

	opts := safeatomic.WriteOptions{
		Retries:  common.Retries,
		Delay:    common.Delay,
		Session:  common.Session,
		Force:    *forceFlag,
		Simulate: *simulateFlag,
	}
	if err := safeatomic.WriteFile(path, data, opts); err != nil {
		if errors.Is(err, safeatomic.ErrLockUnavailable) {
			return WithExitCode(ExitLocked, err)
		}
		return err
	}

	if common.JSON {
		return writeJSON(os.Stdout, map[string]any{
			"path":     path,
			"bytes":    len(data),
			"simulate": *simulateFlag,
		})
	}
	if *simulateFlag {
		return writeStdout("Simulated write of %d byte(s) to %s\n", len(data), path)
	}
	return writeStdout("Wrote %d byte(s) to %s\n", len(data), path)
}
