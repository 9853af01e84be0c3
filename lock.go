package safeatomic

import (
	"os"
	"time"
)

// LockOptions parameterize TryAcquireLock. Zero values mean defaults:
// DefaultRetries attempts, DefaultDelay between them, no session label, no
// force, the real process table as liveness oracle.
type LockOptions struct {
	Retries int
	Delay   time.Duration
	Session string
	Force   bool
	Alive   LivenessFunc
}

func (o LockOptions) withDefaults() LockOptions {
	if o.Retries <= 0 {
		o.Retries = DefaultRetries
	}
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	if o.Alive == nil {
		o.Alive = PidAlive
	}
	return o
}

// LockInfo is the result of inspecting a target's lock file. When Corrupt is
// set the content could not be parsed and no other owner field is trusted.
type LockInfo struct {
	LockPath    string `json:"lock_path"`
	Exists      bool   `json:"exists"`
	OwnerPID    int    `json:"owner_pid,omitempty"`
	OwnerAlive  bool   `json:"owner_alive"`
	Fingerprint string `json:"session_fingerprint,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	Corrupt     bool   `json:"corrupt"`
}

// TryAcquireLock attempts to take the advisory lock for path. It returns
// (true, nil) once this process owns the lock file and (false, nil) when the
// retry budget is exhausted against a live owner; that is contention, not a
// bug, and the caller decides whether to retry, force, or give up.
//
// Each attempt tries an exclusive create of the lock file. If the file
// exists and its recorded owner is dead, or opts.Force is set, the lock is
// deleted and the attempt loop continues without sleeping; a live owner
// costs one attempt and one delay.
//
// Two processes may race the same reclamation: both can delete a dead lock,
// but the exclusive create lets at most one of them win, and the loser
// falls back into the loop. Two forced callers can each win in turn, which
// ends as last-writer-wins; force is a trust contract between callers.
func TryAcquireLock(path string, opts LockOptions) (bool, error) {
	o := opts.withDefaults()
	lockPath := LockPath(path)
	record := renderRecord(lockRecord{
		PID:         os.Getpid(),
		Fingerprint: SessionFingerprint(o.Session),
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
	})

	for attempt := 0; attempt < o.Retries; attempt++ {
		created, err := createLockFile(lockPath, record)
		if err != nil {
			return false, err
		}
		if created {
			return true, nil
		}
		info := inspect(path, o.Alive)
		if !info.OwnerAlive || o.Force {
			if err := ReleaseLock(path); err != nil {
				return false, err
			}
			continue
		}
		time.Sleep(o.Delay)
	}
	return false, nil
}

// createLockFile performs the exclusive create that arbitrates every
// acquisition race. Returns created=false when another process won.
func createLockFile(lockPath, record string) (created bool, err error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	if _, err := f.WriteString(record); err != nil {
		_ = f.Close()
		_ = os.Remove(lockPath)
		return false, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(lockPath)
		return false, err
	}
	return true, nil
}

// ReleaseLock removes the lock file for path if present. It is idempotent
// and does not verify ownership; callers must only release locks they hold.
func ReleaseLock(path string) error {
	err := os.Remove(LockPath(path))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// InspectLock reports the current lock state for path without blocking or
// retrying. A nil alive func uses the real process table.
func InspectLock(path string, alive LivenessFunc) LockInfo {
	if alive == nil {
		alive = PidAlive
	}
	return inspect(path, alive)
}

func inspect(path string, alive LivenessFunc) LockInfo {
	lockPath := LockPath(path)
	data, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return LockInfo{LockPath: lockPath}
		}
		// Unreadable but present: report it as an untrusted lock.
		return LockInfo{LockPath: lockPath, Exists: true, Corrupt: true}
	}
	rec, err := parseRecord(string(data))
	if err != nil {
		return LockInfo{LockPath: lockPath, Exists: true, Corrupt: true}
	}
	return LockInfo{
		LockPath:    lockPath,
		Exists:      true,
		OwnerPID:    rec.PID,
		OwnerAlive:  alive(rec.PID),
		Fingerprint: rec.Fingerprint,
		CreatedAt:   rec.Timestamp,
	}
}

// IsLocked reports whether a lock file currently exists for path.
func IsLocked(path string) bool {
	_, err := os.Stat(LockPath(path))
	return err == nil
}

// LockAge returns the wall-clock age of the lock file, or zero when no lock
// exists. Age is measured from the lock file's mtime, so even a corrupt
// lock has a usable age.
func LockAge(path string) time.Duration {
	info, err := os.Stat(LockPath(path))
	if err != nil {
		return 0
	}
	return time.Since(info.ModTime())
}

// IsStaleLock reports whether a lock exists and is older than maxAge.
// Staleness is independent of liveness: a live process can hold a stale
// lock. Age-based reclamation never happens automatically; callers opt in
// through ReleaseStaleLock.
func IsStaleLock(path string, maxAge time.Duration) bool {
	if !IsLocked(path) {
		return false
	}
	return LockAge(path) > maxAge
}

// ReleaseStaleLock removes the lock for path only when it is stale,
// regardless of whether the owner is alive.
func ReleaseStaleLock(path string, maxAge time.Duration) error {
	if IsStaleLock(path, maxAge) {
		return ReleaseLock(path)
	}
	return nil
}
