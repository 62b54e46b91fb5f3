package commands

import (
	"time"

	"github.com/shardkv/shardkv/internal/aof"
	"github.com/shardkv/shardkv/internal/store"
)

// Context is the per-invocation handle a command executes against: the
// shard's store, its optional AOF writer, and enough connection identity
// to answer CLIENT subcommands. A Context is only ever touched from the
// shard worker goroutine that owns Store.
type Context struct {
	Store *store.Store

	// AOFWriter is nil when the shard runs without durability enabled.
	AOFWriter *aof.Writer

	// Warnf logs best-effort failures (AOF write errors) without failing
	// the client's reply; nil is a valid no-op logger.
	Warnf func(format string, args ...interface{})

	// ConnID and RemoteAddr identify the calling connection, used only by
	// CLIENT subcommands' synthetic replies.
	ConnID     int64
	RemoteAddr string

	now func() time.Time
}

// NewContext builds a Context over store s, optionally backed by an AOF
// writer. A nil writer disables AOF logging for every command run
// through this Context.
func NewContext(s *store.Store, writer *aof.Writer) *Context {
	return &Context{Store: s, AOFWriter: writer, now: time.Now}
}

// logAOF appends one entry after a mutation has already succeeded. A
// write failure here is warned, never surfaced to the client: the
// command's reply is already decided by the time this runs.
func (c *Context) logAOF(op aof.Op, key string, payloads ...[]byte) {
	if c.AOFWriter == nil {
		return
	}
	entry := &aof.Entry{
		Op:          op,
		TimestampMs: uint64(c.now().UnixMilli()),
		Key:         key,
		Payloads:    payloads,
	}
	if err := c.AOFWriter.Append(entry); err != nil && c.Warnf != nil {
		c.Warnf("aof: append %s key=%q failed: %v", op, key, err)
	}
}
