package cli

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/dombert/safeatomic"
)

func runMove(args []string) error {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	common := addCommonFlags(fs)
	srcFlag := fs.String("src", "", "Source path")
	dstFlag := fs.String("dst", "", "Destination path")
	forceFlag := fs.Bool("force", false, "Overwrite an existing destination")

	usage := usageWithFlags(fs, "safeatomic move --src <path> --dst <path> [--force]")
	if handled, err := parseFlags(fs, args, usage); err != nil {
		return err
	} else if handled {
		return nil
	}
	src := strings.TrimSpace(*srcFlag)
	dst := strings.TrimSpace(*dstFlag)
	if src == "" || dst == "" {
		return UsageError("--src and --dst are required")
	}
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	if err := safeatomic.Move(src, dst, *forceFlag); err != nil {
		return err
	}

	if common.JSON {
		return writeJSON(os.Stdout, map[string]any{
			"src":   src,
			"dst":   dst,
			"force": *forceFlag,
		})
	}
	return writeStdout("Moved %s -> %s\n", src, dst)
}
