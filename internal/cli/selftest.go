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

// Self-test fixtures.
const (
	selftestText = "Hello from the safeatomic self-test"
)

type selftestStep struct {
	Name string
	Run  func(dir string, opts stepOptions) error
}

type stepOptions struct {
	retries int
	delay   time.Duration
}

func (o stepOptions) write(session string) safeatomic.WriteOptions {
	return safeatomic.WriteOptions{Retries: o.retries, Delay: o.delay, Session: session}
}

func (o stepOptions) read() safeatomic.ReadOptions {
	return safeatomic.ReadOptions{Retries: o.retries, Delay: o.delay}
}

// runSelftest exercises the whole core against a scratch directory and
// writes a markdown report next to the artifacts it creates.
func runSelftest(args []string) error {
	fs := flag.NewFlagSet("selftest", flag.ContinueOnError)
	common := addCommonFlags(fs)
	dirFlag := fs.String("dir", "safeatomic-selftest", "Scratch directory for test artifacts")
	keepFlag := fs.Bool("keep", false, "Keep the scratch directory afterwards")

	usage := usageWithFlags(fs, "safeatomic selftest [--dir <dir>] [--keep] [--json]")
	if handled, err := parseFlags(fs, args, usage); err != nil {
		return err
	} else if handled {
		return nil
	}

	dir := filepath.Clean(*dirFlag)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	opts := stepOptions{retries: common.Retries, delay: common.Delay}

	type result struct {
		Name string `json:"name"`
		OK   bool   `json:"ok"`
		Err  string `json:"error,omitempty"`
	}
	var results []result
	failed := 0
	for _, step := range selftestSteps() {
		err := step.Run(dir, opts)
		r := result{Name: step.Name, OK: err == nil}
		if err != nil {
			r.Err = err.Error()
			failed++
		}
		results = append(results, r)
	}

	var report strings.Builder
	report.WriteString("# safeatomic self-test report\n\n")
	for _, r := range results {
		if r.OK {
			fmt.Fprintf(&report, "- PASS %s\n", r.Name)
		} else {
			fmt.Fprintf(&report, "- FAIL %s: %s\n", r.Name, r.Err)
		}
	}
	reportPath := filepath.Join(dir, "report.md")
	if err := safeatomic.WriteFile(reportPath, []byte(report.String()), opts.write("selftest-report")); err != nil {
		return err
	}

	if !*keepFlag && failed == 0 {
		// The report survives; everything else is scratch.
		entries, err := os.ReadDir(dir)
		if err == nil {
			for _, entry := range entries {
				if entry.Name() == "report.md" {
					continue
				}
				_ = os.Remove(filepath.Join(dir, entry.Name()))
			}
		}
	}

	if common.JSON {
		if err := writeJSON(os.Stdout, map[string]any{
			"report":  reportPath,
			"failed":  failed,
			"results": results,
		}); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			status := "PASS"
			if !r.OK {
				status = "FAIL"
			}
			if err := writeStdout("%s %s\n", status, r.Name); err != nil {
				return err
			}
		}
		if err := writeStdout("Report written to %s\n", reportPath); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d self-test step(s) failed", failed)
	}
	return nil
}

func selftestSteps() []selftestStep {
	return []selftestStep{
		{"write-read-roundtrip", stepRoundTrip},
		{"json-roundtrip", stepJSON},
		{"yaml-roundtrip", stepYAML},
		{"gob-roundtrip", stepGob},
		{"lock-lifecycle", stepLockLifecycle},
		{"force-reclaim", stepForceReclaim},
		{"stale-release", stepStaleRelease},
		{"simulate-write", stepSimulate},
		{"move", stepMove},
	}
}

func stepRoundTrip(dir string, opts stepOptions) error {
	path := filepath.Join(dir, "roundtrip.txt")
	if err := safeatomic.WriteFile(path, []byte(selftestText), opts.write("selftest")); err != nil {
		return err
	}
	got, err := safeatomic.ReadFile(path, opts.read())
	if err != nil {
		return err
	}
	if string(got) != selftestText {
		return fmt.Errorf("content mismatch: %q", got)
	}
	return nil
}

func stepJSON(dir string, opts stepOptions) error {
	path := filepath.Join(dir, "conf.json")
	in := map[string]int{"a": 1, "b": 2}
	if err := safeatomic.WriteJSON(path, in, opts.write("selftest")); err != nil {
		return err
	}
	var out map[string]int
	if err := safeatomic.ReadJSON(path, &out, opts.read()); err != nil {
		return err
	}
	if out["a"] != 1 || out["b"] != 2 {
		return fmt.Errorf("round trip mismatch: %v", out)
	}
	return nil
}

func stepYAML(dir string, opts stepOptions) error {
	path := filepath.Join(dir, "conf.yaml")
	in := map[string]int{"a": 1, "b": 2}
	if err := safeatomic.WriteYAML(path, in, opts.write("selftest")); err != nil {
		return err
	}
	var out map[string]int
	if err := safeatomic.ReadYAML(path, &out, opts.read()); err != nil {
		return err
	}
	if out["a"] != 1 || out["b"] != 2 {
		return fmt.Errorf("round trip mismatch: %v", out)
	}
	return nil
}

func stepGob(dir string, opts stepOptions) error {
	path := filepath.Join(dir, "state.bin")
	in := []int{1, 2, 3}
	if err := safeatomic.WriteGob(path, in, opts.write("selftest")); err != nil {
		return err
	}
	var out []int
	if err := safeatomic.ReadGob(path, &out, opts.read()); err != nil {
		return err
	}
	if len(out) != 3 || out[0] != 1 || out[2] != 3 {
		return fmt.Errorf("round trip mismatch: %v", out)
	}
	return nil
}

func stepLockLifecycle(dir string, opts stepOptions) error {
	path := filepath.Join(dir, "lock-lifecycle.txt")
	ok, err := safeatomic.TryAcquireLock(path, safeatomic.LockOptions{
		Retries: opts.retries, Delay: opts.delay, Session: "demo-session",
	})
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("acquire failed")
	}
	info := safeatomic.InspectLock(path, nil)
	if !info.Exists || info.Corrupt {
		return fmt.Errorf("bad lock info: %+v", info)
	}
	if info.Fingerprint != safeatomic.SessionFingerprint("demo-session") {
		return fmt.Errorf("fingerprint mismatch: %q", info.Fingerprint)
	}
	if err := safeatomic.ReleaseLock(path); err != nil {
		return err
	}
	if safeatomic.IsLocked(path) {
		return errors.New("lock survived release")
	}
	return nil
}

func stepForceReclaim(dir string, opts stepOptions) error {
	path := filepath.Join(dir, "force.txt")
	if ok, err := safeatomic.TryAcquireLock(path, safeatomic.LockOptions{
		Retries: opts.retries, Delay: opts.delay, Session: "first",
	}); err != nil || !ok {
		return fmt.Errorf("seed acquire: ok=%v err=%v", ok, err)
	}
	defer func() { _ = safeatomic.ReleaseLock(path) }()

	ok, err := safeatomic.TryAcquireLock(path, safeatomic.LockOptions{
		Retries: opts.retries, Delay: opts.delay, Session: "second", Force: true,
	})
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("forced acquire failed")
	}
	if got := safeatomic.InspectLock(path, nil).Fingerprint; got != safeatomic.SessionFingerprint("second") {
		return fmt.Errorf("fingerprint after force: %q", got)
	}
	return nil
}

func stepStaleRelease(dir string, opts stepOptions) error {
	path := filepath.Join(dir, "stale.txt")
	if ok, err := safeatomic.TryAcquireLock(path, safeatomic.LockOptions{
		Retries: opts.retries, Delay: opts.delay,
	}); err != nil || !ok {
		return fmt.Errorf("seed acquire: ok=%v err=%v", ok, err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(safeatomic.LockPath(path), past, past); err != nil {
		return err
	}
	if !safeatomic.IsStaleLock(path, time.Minute) {
		return errors.New("expected stale")
	}
	if err := safeatomic.ReleaseStaleLock(path, time.Minute); err != nil {
		return err
	}
	if safeatomic.IsLocked(path) {
		return errors.New("stale lock survived")
	}
	return nil
}

func stepSimulate(dir string, opts stepOptions) error {
	path := filepath.Join(dir, "simulate.txt")
	wo := opts.write("simulate-test")
	wo.Simulate = true
	if err := safeatomic.WriteFile(path, []byte("discarded"), wo); err != nil {
		return err
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return errors.New("simulate touched the target")
	}
	if safeatomic.IsLocked(path) {
		return errors.New("simulate left the lock held")
	}
	return nil
}

func stepMove(dir string, opts stepOptions) error {
	src := filepath.Join(dir, "move-src.txt")
	dst := filepath.Join(dir, "move-dst.txt")
	if err := safeatomic.WriteFile(src, []byte("new"), opts.write("selftest")); err != nil {
		return err
	}
	if err := safeatomic.WriteFile(dst, []byte("old"), opts.write("selftest")); err != nil {
		return err
	}
	if err := safeatomic.Move(src, dst, false); !errors.Is(err, safeatomic.ErrDestinationExists) {
		return fmt.Errorf("expected destination-exists, got %v", err)
	}
	if err := safeatomic.Move(src, dst, true); err != nil {
		return err
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		return err
	}
	if string(got) != "new" {
		return fmt.Errorf("dst content: %q", got)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		return errors.New("src survived the move")
	}
	return nil
}
