package safeatomic

import (
	"fmt"
	"os"
)

// Move renames src onto dst atomically. Without force an existing dst fails
// with ErrDestinationExists and neither file changes. With force the old
// destination's permissions and timestamps are first copied onto src, so
// they survive the swap onto the new content; that copy is best-effort and
// never blocks the rename. Cross-filesystem moves fail at the rename.
func Move(src, dst string, force bool) error {
	if _, err := os.Stat(dst); err == nil {
		if !force {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		if err := copyFileMetadata(dst, src); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "warning: copy metadata %s: %v\n", dst, err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.Rename(src, dst)
}
