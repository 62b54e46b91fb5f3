package store

import "time"

// Entry is one stored key's full record: its value, an optional absolute
// expiration instant, and a reserved version counter not yet consumed by
// any command (kept for forward compatibility with optimistic-lock style
// operations).
type Entry struct {
	Value    *Value
	ExpireAt *time.Time
	Version  uint64
}

// IsExpired reports whether the entry's expiration instant is at or before
// now. An entry with no expiration is never expired.
func (e *Entry) IsExpired(now time.Time) bool {
	return e.ExpireAt != nil && !now.Before(*e.ExpireAt)
}

// TTLSeconds follows the store's TTL convention: -1 means the key has no
// expiry, otherwise the number of whole seconds remaining (rounded up so a
// key set to expire in 100s reads back in [99, 100] immediately after).
// Callers are expected to have already confirmed the entry is not expired.
func (e *Entry) TTLSeconds(now time.Time) int64 {
	if e.ExpireAt == nil {
		return -1
	}
	remaining := e.ExpireAt.Sub(now)
	secs := int64(remaining / time.Second)
	if remaining%time.Second != 0 {
		secs++
	}
	if secs < 0 {
		secs = 0
	}
	return secs
}
