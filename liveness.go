package safeatomic

import "github.com/shirou/gopsutil/v4/process"

// LivenessFunc answers whether the process owning a lock is still running.
// Tests substitute a fake table of live/dead pids; production code uses
// PidAlive.
type LivenessFunc func(pid int) bool

// PidAlive reports whether pid names a running process. When the lookup
// itself fails the owner is assumed alive: wrongly reclaiming a live lock
// corrupts the target, while leaving a dead lock in place only delays the
// next writer.
func PidAlive(pid int) bool {
	ok, err := process.PidExists(int32(pid))
	if err != nil {
		return true
	}
	return ok
}
