// Package safeatomic provides crash-safe file replacement and advisory
// cross-process locking for readers and writers sharing a filesystem.
//
// A write session stages content into a co-located temp file and publishes
// it with a single atomic rename, so readers observe either the previous or
// the new content, never a partial write. Concurrent writers to the same
// path serialize through a companion lock file.
//
// Locks are advisory: they are honored only by cooperating callers. The OS
// does not enforce them, and a process that writes the target path directly
// bypasses every guarantee here. Mutual exclusion holds only for processes
// sharing the target's directory on one filesystem; there is no cross-machine
// coordination.
package safeatomic
