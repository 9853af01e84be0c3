//go:build darwin

package safeatomic

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

func fileTimes(path string, info os.FileInfo) (atime, mtime time.Time) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return info.ModTime(), info.ModTime()
	}
	return time.Unix(st.Atimespec.Unix()), time.Unix(st.Mtimespec.Unix())
}
