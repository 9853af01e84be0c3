package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/dombert/safeatomic"
)

type commonFlags struct {
	Retries int
	Delay   time.Duration
	Session string
	JSON    bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	flags := &commonFlags{}
	fs.IntVar(&flags.Retries, "retries", defaultRetries(), "Retry attempts for lock acquisition and reads")
	fs.DurationVar(&flags.Delay, "delay", defaultDelay(), "Delay between retry attempts")
	fs.StringVar(&flags.Session, "session", defaultSession(), "Session label recorded in the lock (or SAFEATOMIC_SESSION)")
	fs.BoolVar(&flags.JSON, "json", false, "Emit JSON output")
	return flags
}

func defaultRetries() int {
	if env := strings.TrimSpace(os.Getenv(envRetries)); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			return n
		}
	}
	return safeatomic.DefaultRetries
}

func defaultDelay() time.Duration {
	if env := strings.TrimSpace(os.Getenv(envDelay)); env != "" {
		if d, err := time.ParseDuration(env); err == nil && d > 0 {
			return d
		}
	}
	return safeatomic.DefaultDelay
}

func defaultSession() string {
	return strings.TrimSpace(os.Getenv(envSession))
}

func requireFile(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", UsageError("--file is required")
	}
	return filepath.Clean(path), nil
}

// resolveData picks the write payload: --data wins, then --from-file
// ("-" meaning stdin), then stdin.
func resolveData(dataFlag, fromFile string) ([]byte, error) {
	if dataFlag != "" {
		return []byte(dataFlag), nil
	}
	if fromFile != "" && fromFile != "-" {
		return os.ReadFile(fromFile)
	}
	return io.ReadAll(os.Stdin)
}

func isHelp(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

func parseFlags(fs *flag.FlagSet, args []string, usage func()) (bool, error) {
	fs.SetOutput(io.Discard)
	if usage != nil {
		fs.Usage = usage
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func usageWithFlags(fs *flag.FlagSet, usage string, notes ...string) func() {
	return func() {
		_ = writeStdoutLine("Usage:")
		_ = writeStdoutLine("  " + usage)
		if len(notes) > 0 {
			_ = writeStdoutLine("")
			for _, note := range notes {
				_ = writeStdoutLine(note)
			}
		}
		_ = writeStdoutLine("")
		_ = writeStdoutLine("Options:")
		_ = writeFlagDefaults(fs)
	}
}

func writeFlagDefaults(fs *flag.FlagSet) error {
	var buf bytes.Buffer
	fs.SetOutput(&buf)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
	if buf.Len() == 0 {
		return nil
	}
	return writeStdout("%s", buf.String())
}

// confirmPrompt asks for confirmation on a terminal. When stdin is not a
// tty (scripts, CI) there is nobody to ask; the caller's --yes flag governs
// and the prompt defaults to no.
func confirmPrompt(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, nil
	}
	if err := writeStdout("%s [y/N]: ", prompt); err != nil {
		return false, err
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes", nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStdout(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeStdoutLine(args ...any) error {
	_, err := fmt.Fprintln(os.Stdout, args...)
	return err
}

func writeStderr(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stderr, format, args...)
	return err
}
