// Package router computes which shard owns a given key.
package router

import "hash/maphash"

// Router is a stateless, trivially clonable function from key to shard
// index. It hashes with a process-local seed (hash/maphash, a keyed,
// collision-resistant hash — the stdlib's closest equivalent to
// SipHash-1-3, and the only keyed-hash implementation found anywhere in
// the reference corpus) so routing is deterministic for the lifetime of
// one process but not predictable or reproducible across processes.
type Router struct {
	numShards int
	seed      maphash.Seed
}

// New builds a router over numShards shards, seeded once for this
// process. numShards must be at least 1; a single shard always routes to
// index 0 without hashing anything.
func New(numShards int) *Router {
	if numShards < 1 {
		numShards = 1
	}
	return &Router{numShards: numShards, seed: maphash.MakeSeed()}
}

// NumShards reports how many shards this router spreads keys across.
func (r *Router) NumShards() int { return r.numShards }

// Route returns the shard index key belongs to.
func (r *Router) Route(key string) int {
	if r.numShards == 1 {
		return 0
	}
	h := r.hashKey(key)
	return int(h % uint64(r.numShards))
}

func (r *Router) hashKey(key string) uint64 {
	var h maphash.Hash
	h.SetSeed(r.seed)
	_, _ = h.WriteString(key)
	return h.Sum64()
}
