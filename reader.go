package safeatomic

import (
	"fmt"
	"io"
	"os"
	"time"
)

// ReadOptions parameterize a read session. Zero Retries/Delay mean the
// package defaults.
type ReadOptions struct {
	Retries int
	Delay   time.Duration

	// RequireUnlocked refuses to open while anyone holds the target's
	// lock, sleeping and retrying instead.
	RequireUnlocked bool
}

func (o ReadOptions) withDefaults() ReadOptions {
	if o.Retries <= 0 {
		o.Retries = DefaultRetries
	}
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	return o
}

// NewReader opens the target's current committed content. Staged temp files
// are never visible through here: the writer publishes only via rename, so
// an open either sees the previous content or the new one.
//
// A missing target is retried up to Retries times; with RequireUnlocked a
// held lock also consumes an attempt, and a file that vanishes between the
// lock check and the open (a writer committing concurrently) is retried
// rather than failed. Exhaustion yields ErrReadUnavailable naming the path.
func NewReader(path string, opts ReadOptions) (*os.File, error) {
	o := opts.withDefaults()
	for attempt := 0; attempt < o.Retries; attempt++ {
		if o.RequireUnlocked && IsLocked(path) {
			time.Sleep(o.Delay)
			continue
		}
		f, err := os.Open(path)
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
		time.Sleep(o.Delay)
	}
	return nil, fmt.Errorf("%w: %s", ErrReadUnavailable, path)
}

// ReadFile reads the target's entire committed content.
func ReadFile(path string, opts ReadOptions) ([]byte, error) {
	f, err := NewReader(path, opts)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return data, err
}
