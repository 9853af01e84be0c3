package safeatomic

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Lock file content is a single line: pid|fingerprint|timestamp. This is the
// stable on-disk format; do not change it without a migration path.
const lockSeparator = "|"

type lockRecord struct {
	PID         int
	Fingerprint string
	Timestamp   string
}

func renderRecord(r lockRecord) string {
	return fmt.Sprintf("%d%s%s%s%s", r.PID, lockSeparator, r.Fingerprint, lockSeparator, r.Timestamp)
}

func parseRecord(content string) (lockRecord, error) {
	parts := strings.Split(strings.TrimSpace(content), lockSeparator)
	if len(parts) != 3 {
		return lockRecord{}, fmt.Errorf("%w: want 3 fields, got %d", ErrLockCorrupt, len(parts))
	}
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return lockRecord{}, fmt.Errorf("%w: bad owner pid %q", ErrLockCorrupt, parts[0])
	}
	return lockRecord{PID: pid, Fingerprint: parts[1], Timestamp: parts[2]}, nil
}

// SessionFingerprint derives the short one-way identifier recorded in the
// lock file for a session label. The label itself never reaches disk. An
// empty label yields an empty fingerprint, which means "no session", not a
// session with an empty name.
func SessionFingerprint(session string) string {
	if session == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(session))
	return hex.EncodeToString(sum[:])[:8]
}
