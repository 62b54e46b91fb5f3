// Package cluster holds every shard and routes RESP2 request frames to
// the one that owns a request's key, the same responsibility as the
// teacher's multi-node gossip layer but scoped to a single process's
// shard-per-core topology (spec.md §4.5).
package cluster

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shardkv/shardkv/internal/aof"
	"github.com/shardkv/shardkv/internal/commands"
	"github.com/shardkv/shardkv/internal/metrics"
	"github.com/shardkv/shardkv/internal/protocol"
	"github.com/shardkv/shardkv/internal/router"
	"github.com/shardkv/shardkv/internal/shard"
	"github.com/shardkv/shardkv/internal/store"
)

// Manager owns every shard and the router that addresses them.
type Manager struct {
	shards []*shard.Shard
	router *router.Router
	warnf  func(format string, args ...interface{})
}

// shardCountSidecarName records the shard count a data directory's AOF
// files were produced under, so a mismatched restart can be detected and
// warned about instead of silently mis-routing replayed keys (SPEC_FULL
// §4.10 item 3).
const shardCountSidecarName = "shard_count.txt"

// New spawns numShards shards, replaying each one's AOF file before this
// call returns, and wires them behind a router. mx may be nil, disabling
// metrics collection.
func New(numShards int, aofEnabled bool, dataDir string, syncPolicy aof.SyncPolicy, warnf func(format string, args ...interface{}), mx *metrics.Metrics) (*Manager, error) {
	if warnf == nil {
		warnf = func(string, ...interface{}) {}
	}
	if numShards < 1 {
		numShards = 1
	}

	if aofEnabled {
		checkShardCountSidecar(dataDir, numShards, warnf)
	}

	shards := make([]*shard.Shard, numShards)
	for i := 0; i < numShards; i++ {
		sh, err := shard.New(shard.Config{
			ID:         i,
			AOFEnabled: aofEnabled,
			DataDir:    dataDir,
			SyncPolicy: syncPolicy,
			Metrics:    mx,
			Warnf:      warnf,
		})
		if err != nil {
			return nil, fmt.Errorf("cluster: start shard %d: %w", i, err)
		}
		shards[i] = sh
	}

	return &Manager{
		shards: shards,
		router: router.New(numShards),
		warnf:  warnf,
	}, nil
}

// checkShardCountSidecar compares the shard count recorded at dataDir's
// sidecar file to the live shard count and warns on mismatch, then
// rewrites the sidecar to the live count.
func checkShardCountSidecar(dataDir string, numShards int, warnf func(format string, args ...interface{})) {
	path := filepath.Join(dataDir, shardCountSidecarName)
	if data, err := os.ReadFile(path); err == nil {
		if recorded, convErr := strconv.Atoi(strings.TrimSpace(string(data))); convErr == nil {
			if recorded != numShards {
				warnf("cluster: data dir %s was written with %d shards, starting with %d; replayed keys may no longer route to the same shard as before", dataDir, recorded, numShards)
			}
		}
	}
	_ = os.WriteFile(path, []byte(strconv.Itoa(numShards)), 0644)
}

// NumShards reports the shard count this manager was built with.
func (m *Manager) NumShards() int { return len(m.shards) }

// Execute routes frame to the shard that owns it and returns the shard's
// reply, per spec.md §4.5.
func (m *Manager) Execute(frame *protocol.Value, connID int64, remoteAddr string) *protocol.Value {
	args, err := protocol.AsCommandArgs(frame)
	if err != nil || len(args) == 0 {
		return protocol.ErrorReply("ERR protocol error: expected a non-empty array of bulk strings")
	}

	name := strings.ToUpper(string(args[0]))
	shardIdx := 0
	if !commands.NoKeyCommands[name] && len(args) >= 2 {
		shardIdx = m.router.Route(string(args[1]))
	}

	target := m.shards[shardIdx]
	replyCh := make(chan *protocol.Value, 1)
	req := shard.CommandRequest{
		Name:       name,
		Args:       args[1:],
		ConnID:     connID,
		RemoteAddr: remoteAddr,
		ReplyCh:    replyCh,
	}

	if ok := target.Submit(req); !ok {
		m.warnf("cluster: shard %d unreachable", shardIdx)
		return protocol.ErrorReply("ERR internal error")
	}

	reply, ok := <-replyCh
	if !ok {
		m.warnf("cluster: shard %d did not respond", shardIdx)
		return protocol.ErrorReply("ERR shard did not respond")
	}
	return reply
}

// Stats aggregates Stats() across every shard.
type Stats struct {
	NumShards       int
	TotalKeys       int64
	ActiveKeys      int64
	ExpiredKeys     int64
	UsedMemoryBytes int64
}

// AggregateStats collects and sums every shard's store stats.
func (m *Manager) AggregateStats() Stats {
	agg := Stats{NumShards: len(m.shards)}
	for _, details := range m.ShardStats() {
		agg.TotalKeys += details.TotalKeys
		agg.ActiveKeys += details.ActiveKeys
		agg.ExpiredKeys += details.ExpiredKeys
		agg.UsedMemoryBytes += details.UsedMemoryBytes
	}
	return agg
}

// ShardDetail reports one shard's store stats plus its identity.
type ShardDetail struct {
	ShardID int
	store.Stats
}

// ShardStats requests a Stats snapshot from every shard and returns them
// in shard-index order. A shard that fails to respond contributes a zero
// snapshot rather than aborting the whole report.
func (m *Manager) ShardStats() []ShardDetail {
	details := make([]ShardDetail, len(m.shards))
	for i, sh := range m.shards {
		replyCh := make(chan store.Stats, 1)
		details[i] = ShardDetail{ShardID: sh.ID()}
		if !sh.RequestStats(shard.StatsRequest{ReplyCh: replyCh}) {
			m.warnf("cluster: shard %d unreachable for stats", sh.ID())
			continue
		}
		if stats, ok := <-replyCh; ok {
			details[i].Stats = stats
		} else {
			m.warnf("cluster: shard %d did not respond to stats request", sh.ID())
		}
	}
	return details
}

// Shutdown drains every shard, closing its AOF writer in turn.
func (m *Manager) Shutdown() {
	for _, sh := range m.shards {
		sh.Drain()
	}
}
