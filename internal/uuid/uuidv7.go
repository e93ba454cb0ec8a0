// Package uuid generates the time-ordered identifiers used as primary keys.
package uuid

import (
	"time"

	googleuuid "github.com/google/uuid"
)

// New returns a new UUIDv7 string. UUIDv7 values sort by creation time, which
// the rule engine relies on to break priority ties in creation order.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// Entropy failure: a random v4 still yields a unique key.
		return googleuuid.New().String()
	}
	return id.String()
}

// Time extracts the millisecond timestamp embedded in a UUIDv7 string.
// ok is false for malformed ids or ids of another version.
func Time(s string) (t time.Time, ok bool) {
	id, err := googleuuid.Parse(s)
	if err != nil || id.Version() != 7 {
		return time.Time{}, false
	}
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec).UTC(), true
}

// IsValid checks if a string is a valid UUID of any version.
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
