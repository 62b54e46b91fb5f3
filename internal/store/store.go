package store

import "time"

// Stats is the scan-authoritative snapshot returned by Store.Stats.
type Stats struct {
	TotalKeys      int64
	ActiveKeys     int64
	ExpiredKeys    int64
	UsedMemoryBytes int64
}

// Store is a single shard's key space: an unordered key to Entry map owned
// exclusively by that shard's worker goroutine. Nothing in Store is
// synchronized — correctness depends on the shard being its sole caller.
type Store struct {
	data map[string]*Entry

	// totalKeys/expiredKeys are maintained lazily as a fast path for Len;
	// they can drift from the true active/expired counts as keys expire
	// between touches. Stats always recomputes by scan instead of trusting
	// them — see Stats below.
	totalKeys   int64
	expiredKeys int64

	now func() time.Time
}

func New() *Store {
	return &Store{data: make(map[string]*Entry), now: time.Now}
}

func (s *Store) nowTime() time.Time { return s.now() }

// Set stores value under key with no expiry, replacing whatever was there.
func (s *Store) Set(key string, value *Value) {
	if _, existed := s.data[key]; !existed {
		s.totalKeys++
	}
	s.data[key] = &Entry{Value: value}
}

// SetWithExpiry stores value under key with an absolute expiration instant.
func (s *Store) SetWithExpiry(key string, value *Value, expireAt time.Time) {
	if _, existed := s.data[key]; !existed {
		s.totalKeys++
	}
	s.data[key] = &Entry{Value: value, ExpireAt: &expireAt}
}

// lookup returns the live entry for key, evicting and reporting absence if
// it has expired. This is the single place lazy expiry happens on reads.
func (s *Store) lookup(key string) (*Entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if e.IsExpired(s.nowTime()) {
		delete(s.data, key)
		s.expiredKeys++
		return nil, false
	}
	return e, true
}

// Get returns the value stored at key, or ok=false if absent or expired.
func (s *Store) Get(key string) (*Value, bool) {
	e, ok := s.lookup(key)
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// GetMut returns the live Entry for key so its Value can be mutated in
// place (list/set/hash commands), or ok=false if absent or expired.
func (s *Store) GetMut(key string) (*Entry, bool) {
	return s.lookup(key)
}

// Delete removes key, returning whether it was present (and unexpired).
func (s *Store) Delete(key string) bool {
	_, ok := s.lookup(key)
	if !ok {
		return false
	}
	delete(s.data, key)
	s.totalKeys--
	return true
}

// Exists reports whether key is present and unexpired.
func (s *Store) Exists(key string) bool {
	_, ok := s.lookup(key)
	return ok
}

// Expire sets key's TTL to seconds from now. seconds <= 0 clears any
// expiry outright (the key remains, permanently, until an explicit
// delete). Returns false if the key is absent or already expired.
func (s *Store) Expire(key string, seconds int64) bool {
	e, ok := s.lookup(key)
	if !ok {
		return false
	}
	if seconds <= 0 {
		e.ExpireAt = nil
		return true
	}
	expireAt := s.nowTime().Add(time.Duration(seconds) * time.Second)
	e.ExpireAt = &expireAt
	return true
}

// TTL reports remaining seconds per the store's convention: -2 if the key
// is absent or expired, -1 if present with no expiry, otherwise seconds
// remaining.
func (s *Store) TTL(key string) int64 {
	e, ok := s.lookup(key)
	if !ok {
		return -2
	}
	return e.TTLSeconds(s.nowTime())
}

// Clear empties the store.
func (s *Store) Clear() {
	s.data = make(map[string]*Entry)
	s.totalKeys = 0
	s.expiredKeys = 0
}

// Keys returns every live key. O(n); intended for admin use (KEYS), not
// hot-path command execution.
func (s *Store) Keys() []string {
	now := s.nowTime()
	keys := make([]string, 0, len(s.data))
	for k, e := range s.data {
		if e.IsExpired(now) {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// CleanupExpired proactively evicts every expired entry and returns how
// many were removed.
func (s *Store) CleanupExpired() int {
	now := s.nowTime()
	removed := 0
	for k, e := range s.data {
		if e.IsExpired(now) {
			delete(s.data, k)
			removed++
		}
	}
	s.expiredKeys += int64(removed)
	return removed
}

// MemoryUsage approximates total bytes held by live values. Reporting
// only, not an accounting invariant.
func (s *Store) MemoryUsage() int64 {
	var total int64
	now := s.nowTime()
	for k, e := range s.data {
		if e.IsExpired(now) {
			continue
		}
		total += int64(len(k)) + e.Value.MemoryUsage()
	}
	return total
}

// Len is the fast, lazily-derived key count: it can include entries that
// have since expired but haven't yet been touched by a read. Use Stats for
// an authoritative count.
func (s *Store) Len() int64 {
	return s.totalKeys - s.expiredKeys
}

// Stats recomputes ActiveKeys and ExpiredKeys by a full scan rather than
// trusting the lazily-maintained counters, which can drift as keys expire
// between touches.
func (s *Store) Stats() Stats {
	now := s.nowTime()
	var active, expired int64
	var mem int64
	for k, e := range s.data {
		if e.IsExpired(now) {
			expired++
			continue
		}
		active++
		mem += int64(len(k)) + e.Value.MemoryUsage()
	}
	return Stats{
		TotalKeys:       int64(len(s.data)),
		ActiveKeys:      active,
		ExpiredKeys:     expired,
		UsedMemoryBytes: mem,
	}
}
