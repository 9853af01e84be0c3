package safeatomic

import "os"

// copyFileMetadata copies permissions and access/modification times from
// src onto dst. Callers treat failures as non-fatal.
func copyFileMetadata(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	atime, mtime := fileTimes(src, info)
	return os.Chtimes(dst, atime, mtime)
}
