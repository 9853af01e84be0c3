//go:build !linux && !darwin

package safeatomic

import (
	"os"
	"time"
)

// Best effort on platforms without a portable atime: reuse mtime.
func fileTimes(_ string, info os.FileInfo) (atime, mtime time.Time) {
	return info.ModTime(), info.ModTime()
}
