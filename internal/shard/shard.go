// Package shard owns one slice of the keyspace: a private Store, an
// optional AOF writer, and a single worker goroutine that serializes every
// command against that Store. Nothing outside the owning goroutine ever
// touches the Store or the AOF writer directly; all access goes through
// the command and stats inboxes.
package shard

import (
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/shardkv/shardkv/internal/aof"
	"github.com/shardkv/shardkv/internal/commands"
	"github.com/shardkv/shardkv/internal/metrics"
	"github.com/shardkv/shardkv/internal/protocol"
	"github.com/shardkv/shardkv/internal/store"
)

// State is the shard's lifecycle stage.
type State int32

const (
	Starting State = iota
	Running
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config configures a single shard.
type Config struct {
	ID int

	// AOFEnabled turns on append-only durability for this shard.
	AOFEnabled bool
	// DataDir holds shard_<ID>.aof when AOFEnabled is true.
	DataDir    string
	SyncPolicy aof.SyncPolicy

	// Metrics is nil when the process runs without a metrics registry.
	Metrics *metrics.Metrics

	Warnf func(format string, args ...interface{})
}

// CommandRequest is one client command routed to this shard.
type CommandRequest struct {
	Name       string
	Args       [][]byte
	ConnID     int64
	RemoteAddr string
	ReplyCh    chan *protocol.Value
}

// StatsRequest asks the shard for a Stats snapshot of its Store.
type StatsRequest struct {
	ReplyCh chan store.Stats
}

// Shard is a handle to the running worker goroutine: the only things an
// outside caller may touch are its two inbox channels and its state.
type Shard struct {
	id int

	commandCh chan CommandRequest
	statsCh   chan StatsRequest
	stopCh    chan struct{}

	state atomic.Int32

	warnf func(format string, args ...interface{})
}

// AOFPath returns the deterministic AOF filename for shard id under dir.
func AOFPath(dir string, id int) string {
	return filepath.Join(dir, fmt.Sprintf("shard_%d.aof", id))
}

// New constructs shard id, synchronously loading and replaying its AOF
// file (if enabled) before spawning the worker goroutine. Replay happens
// before the shard accepts its first request so no command ever races
// against un-replayed state.
func New(config Config) (*Shard, error) {
	warnf := config.Warnf
	if warnf == nil {
		warnf = func(string, ...interface{}) {}
	}

	s := store.New()

	var writer *aof.Writer
	if config.AOFEnabled {
		path := AOFPath(config.DataDir, config.ID)
		reader, err := aof.NewReader(path)
		if err != nil {
			return nil, fmt.Errorf("shard %d: open aof for replay: %w", config.ID, err)
		}
		entries := reader.ParseEntries(warnf)
		if len(entries) > 0 {
			aof.Replay(entries, s, warnf)
			warnf("shard %d: replayed %d aof entries from %s", config.ID, len(entries), path)
		}

		writer, err = aof.NewWriter(aof.Config{
			Enabled:    true,
			Filepath:   path,
			SyncPolicy: config.SyncPolicy,
			BufferSize: 4096,
		})
		if err != nil {
			return nil, fmt.Errorf("shard %d: open aof writer: %w", config.ID, err)
		}
	}

	sh := &Shard{
		id:        config.ID,
		commandCh: make(chan CommandRequest, 256),
		statsCh:   make(chan StatsRequest, 16),
		stopCh:    make(chan struct{}),
		warnf:     warnf,
	}
	sh.state.Store(int32(Starting))

	ctx := commands.NewContext(s, writer)
	ctx.Warnf = warnf
	registry := commands.NewRegistry()

	go sh.loop(ctx, registry, writer, config.Metrics)

	return sh, nil
}

// ID reports this shard's index.
func (s *Shard) ID() int { return s.id }

// State reports the shard's current lifecycle stage.
func (s *Shard) State() State { return State(s.state.Load()) }

// Submit enqueues req on the command inbox. It returns false if the shard
// is no longer accepting work (draining or stopped); the caller is
// expected to translate that into "ERR internal error".
func (s *Shard) Submit(req CommandRequest) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case <-s.stopCh:
		return false
	default:
	}
	select {
	case s.commandCh <- req:
		return true
	case <-s.stopCh:
		return false
	}
}

// RequestStats enqueues a stats request and returns false under the same
// conditions as Submit.
func (s *Shard) RequestStats(req StatsRequest) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case <-s.stopCh:
		return false
	default:
	}
	select {
	case s.statsCh <- req:
		return true
	case <-s.stopCh:
		return false
	}
}

// Drain stops accepting new work and closes the worker loop once the
// inboxes are idle. Safe to call once.
func (s *Shard) Drain() {
	s.state.Store(int32(Draining))
	close(s.stopCh)
}

func (s *Shard) loop(ctx *commands.Context, registry *commands.Registry, writer *aof.Writer, mx *metrics.Metrics) {
	s.state.Store(int32(Running))
	var writesBefore int64
	for {
		select {
		case req := <-s.commandCh:
			ctx.ConnID = req.ConnID
			ctx.RemoteAddr = req.RemoteAddr
			if writer != nil {
				writesBefore = writer.GetStats().TotalWrites
			}
			reply := registry.Dispatch(ctx, req.Name, req.Args)
			if mx != nil {
				mx.ObserveCommand(req.Name, reply.Kind == protocol.KindError)
				if writer != nil {
					if delta := writer.GetStats().TotalWrites - writesBefore; delta > 0 {
						for i := int64(0); i < delta; i++ {
							mx.ObserveAOFWrite()
						}
					}
				}
			}
			select {
			case req.ReplyCh <- reply:
			default:
				// Reply channel abandoned (connection closed mid-flight);
				// the command already ran, there is nowhere left to send.
			}
		case req := <-s.statsCh:
			stats := ctx.Store.Stats()
			if mx != nil {
				mx.SetShardKeys(s.id, stats.ActiveKeys)
			}
			select {
			case req.ReplyCh <- stats:
			default:
			}
		case <-s.stopCh:
			if len(s.commandCh) > 0 || len(s.statsCh) > 0 {
				// Requests queued before Drain still get served.
				continue
			}
			s.state.Store(int32(Stopped))
			if writer != nil {
				if err := writer.Close(); err != nil {
					s.warnf("shard %d: close aof: %v", s.id, err)
				}
			}
			s.warnf("shard %d: shutting down", s.id)
			return
		}
	}
}
