package safeatomic

import "errors"

var (
	// ErrLockUnavailable is returned when a write session exhausts its
	// retry budget against a live, non-forced lock holder.
	ErrLockUnavailable = errors.New("safeatomic: lock unavailable")

	// ErrLockCorrupt marks a lock file whose content cannot be parsed.
	// Inspection reports it via LockInfo.Corrupt rather than failing.
	ErrLockCorrupt = errors.New("safeatomic: lock file corrupt")

	// ErrDestinationExists is returned by Move without force when the
	// destination is already present.
	ErrDestinationExists = errors.New("safeatomic: destination exists")

	// ErrReadUnavailable is returned when a read session exhausts its
	// retries, whether the file was missing or persistently locked.
	ErrReadUnavailable = errors.New("safeatomic: read failed or locked")
)
