package cli

import (
	"errors"
	"flag"
	"os"

	"github.com/dombert/safeatomic"
)

func runRead(args []string) error {
	fs := flag.NewFlagSet("read", flag.ContinueOnError)
	common := addCommonFlags(fs)
	fileFlag := fs.String("file", "", "Target path")
	unlockedFlag := fs.Bool("require-unlocked", false, "Refuse to read while the path is locked")

	usage := usageWithFlags(fs, "safeatomic read --file <path> [options]")
	if handled, err := parseFlags(fs, args, usage); err != nil {
		return err
	} else if handled {
		return nil
	}
	path, err := requireFile(*fileFlag)
	if err != nil {
		return err
	}

	data, err := safeatomic.ReadFile(path, safeatomic.ReadOptions{
		Retries:         common.Retries,
		Delay:           common.Delay,
		RequireUnlocked: *unlockedFlag,
	})
	if err != nil {
		if errors.Is(err, safeatomic.ErrReadUnavailable) {
			return WithExitCode(ExitNotFound, err)
		}
		return err
	}

	if common.JSON {
		return writeJSON(os.Stdout, map[string]any{
			"path":    path,
			"content": string(data),
		})
	}
	return writeStdout("%s", data)
}
