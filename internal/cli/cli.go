package cli

import "fmt"

const (
	envRetries = "SAFEATOMIC_RETRIES"
	envDelay   = "SAFEATOMIC_DELAY"
	envSession = "SAFEATOMIC_SESSION"
)

func Run(args []string) error {
	if len(args) == 0 || isHelp(args[0]) {
		return printUsage()
	}

	switch args[0] {
	case "write":
		return runWrite(args[1:])
	case "read":
		return runRead(args[1:])
	case "move":
		return runMove(args[1:])
	case "lock":
		return runLock(args[1:])
	case "watch":
		return runWatch(args[1:])
	case "cleanup":
		return runCleanup(args[1:])
	case "selftest":
		return runSelftest(args[1:])
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printUsage() error {
	lines := []string{
		"safeatomic - crash-safe file replacement with advisory locks",
		"",
		"Usage:",
		"  safeatomic <command> [options]",
		"",
		"Commands:",
		"  write     Write a file atomically (lock, stage, rename)",
		"  read      Read a file's committed content",
		"  move      Atomically rename one path onto another",
		"  lock      Inspect or manage a path's lock (status/acquire/release/release-stale)",
		"  watch     Wait until a path's lock clears (uses fsnotify)",
		"  cleanup   Remove abandoned temp files and stale locks",
		"  selftest  Exercise the core end to end and write a report",
		"",
		"Environment:",
		"  SAFEATOMIC_RETRIES  Default retry attempts",
		"  SAFEATOMIC_DELAY    Default delay between retries (e.g. 100ms)",
		"  SAFEATOMIC_SESSION  Default session label",
	}
	for _, line := range lines {
		if err := writeStdoutLine(line); err != nil {
			return err
		}
	}
	return nil
}
