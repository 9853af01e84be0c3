package safeatomic

import (
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// LockSuffix is appended to a target path to form its lock-file path.
	LockSuffix = ".lock"

	tmpPrefix = ".__tmp-"
	tmpSuffix = ".tmp"

	// DefaultRetries and DefaultDelay bound the acquire and read retry
	// loops when the caller leaves the corresponding option zero.
	DefaultRetries = 5
	DefaultDelay   = 100 * time.Millisecond
)

// LockPath returns the lock-file path for a target path.
func LockPath(path string) string {
	return path + LockSuffix
}

// TempPath returns a fresh staging path co-located with the target, so the
// later rename stays on one filesystem. The embedded random token makes
// collisions between concurrent writers to the same directory vanishingly
// unlikely; every call returns a new path.
func TempPath(path string) string {
	u := uuid.New()
	token := hex.EncodeToString(u[:4])
	name := tmpPrefix + token + "." + filepath.Base(path) + tmpSuffix
	return filepath.Join(filepath.Dir(path), name)
}

// IsTempName reports whether a base name looks like a safeatomic staging
// file. Used by cleanup tooling to find temp files abandoned by crashed
// writers.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, tmpPrefix) && strings.HasSuffix(name, tmpSuffix)
}
