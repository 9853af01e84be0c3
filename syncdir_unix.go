//go:build !windows

package safeatomic

import (
	"errors"
	"os"
	"syscall"
)

// syncDir fsyncs a directory so the entries created or renamed inside it
// are durable before and after the publish rename.
func syncDir(dir string) error {
	file, err := os.Open(dir)
	if err != nil {
		return err
	}
	syncErr := file.Sync()
	closeErr := file.Close()
	if syncErr != nil {
		if isSyncUnsupported(syncErr) {
			return nil
		}
		return syncErr
	}
	return closeErr
}

// Some filesystems (and some fuse mounts) reject fsync on directories.
func isSyncUnsupported(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTSUP)
}
