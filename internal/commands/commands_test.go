package commands

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardkv/shardkv/internal/aof"
	"github.com/shardkv/shardkv/internal/protocol"
	"github.com/shardkv/shardkv/internal/store"
)

func newTestCtx() (*Registry, *Context) {
	return NewRegistry(), NewContext(store.New(), nil)
}

func run(r *Registry, ctx *Context, name string, args ...string) *protocol.Value {
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	return r.Dispatch(ctx, name, raw)
}

func TestS1StringRoundTrip(t *testing.T) {
	r, ctx := newTestCtx()

	reply := run(r, ctx, "SET", "mykey", "myvalue")
	assert.Equal(t, protocol.KindSimpleString, reply.Kind)
	assert.Equal(t, "OK", reply.Str)

	reply = run(r, ctx, "GET", "mykey")
	require.Equal(t, protocol.KindBulkString, reply.Kind)
	assert.Equal(t, "myvalue", string(reply.Bulk))

	reply = run(r, ctx, "GET", "none")
	assert.True(t, reply.BulkNull)
}

func TestS2ListPushAndRange(t *testing.T) {
	r, ctx := newTestCtx()

	reply := run(r, ctx, "RPUSH", "mylist", "a", "b", "c")
	assert.Equal(t, int64(3), reply.Int)

	reply = run(r, ctx, "LPUSH", "mylist", "x")
	assert.Equal(t, int64(4), reply.Int)

	reply = run(r, ctx, "LRANGE", "mylist", "0", "-1")
	assert.Equal(t, []string{"x", "a", "b", "c"}, flattenBulk(reply))

	reply = run(r, ctx, "LRANGE", "mylist", "-2", "-1")
	assert.Equal(t, []string{"b", "c"}, flattenBulk(reply))
}

func TestS3SetAddAndMembers(t *testing.T) {
	r, ctx := newTestCtx()

	reply := run(r, ctx, "SADD", "myset", "a", "b", "c")
	assert.Equal(t, int64(3), reply.Int)

	reply = run(r, ctx, "SADD", "myset", "b", "c", "d")
	assert.Equal(t, int64(1), reply.Int)

	reply = run(r, ctx, "SCARD", "myset")
	assert.Equal(t, int64(4), reply.Int)

	reply = run(r, ctx, "SMEMBERS", "myset")
	assert.Len(t, reply.Elems, 4)
}

func TestS4HashFieldLifecycle(t *testing.T) {
	r, ctx := newTestCtx()

	reply := run(r, ctx, "HSET", "h", "f1", "v1", "f2", "v2")
	assert.Equal(t, int64(2), reply.Int)

	reply = run(r, ctx, "HGET", "h", "f1")
	assert.Equal(t, "v1", string(reply.Bulk))

	reply = run(r, ctx, "HDEL", "h", "f1")
	assert.Equal(t, int64(1), reply.Int)

	reply = run(r, ctx, "HDEL", "h", "f1")
	assert.Equal(t, int64(0), reply.Int)

	reply = run(r, ctx, "HINCRBY", "h", "c", "10")
	assert.Equal(t, int64(10), reply.Int)

	reply = run(r, ctx, "HINCRBY", "h", "c", "5")
	assert.Equal(t, int64(15), reply.Int)
}

func TestWrongTypeDoesNotMutate(t *testing.T) {
	r, ctx := newTestCtx()
	run(r, ctx, "SET", "k", "v")

	reply := run(r, ctx, "LPUSH", "k", "x")
	assert.Equal(t, protocol.KindError, reply.Kind)
	assert.True(t, strings.HasPrefix(reply.Str, "WRONGTYPE"))

	// State must be unchanged.
	reply = run(r, ctx, "GET", "k")
	assert.Equal(t, "v", string(reply.Bulk))
}

func TestIncrUpgradesStringAndOverflows(t *testing.T) {
	r, ctx := newTestCtx()
	run(r, ctx, "SET", "n", "41")

	reply := run(r, ctx, "INCR", "n")
	assert.Equal(t, int64(42), reply.Int)

	run(r, ctx, "SET", "max", "9223372036854775807")
	reply = run(r, ctx, "INCR", "max")
	assert.Equal(t, protocol.KindError, reply.Kind)
}

func TestCounterOpsAreLoggedToAOF(t *testing.T) {
	r := NewRegistry()
	s := store.New()
	writer, err := aof.NewWriter(aof.DefaultConfig(filepath.Join(t.TempDir(), "shard_0.aof")))
	require.NoError(t, err)
	defer writer.Close()

	ctx := NewContext(s, writer)
	run(r, ctx, "INCR", "a")
	run(r, ctx, "INCRBY", "a", "2")
	run(r, ctx, "DECR", "a")
	run(r, ctx, "DECRBY", "a", "3")

	assert.Equal(t, int64(4), writer.GetStats().TotalWrites)
}

func TestTTLConventions(t *testing.T) {
	r, ctx := newTestCtx()
	run(r, ctx, "SET", "k", "v")

	reply := run(r, ctx, "TTL", "k")
	assert.Equal(t, int64(-1), reply.Int)

	run(r, ctx, "EXPIRE", "k", "100")
	reply = run(r, ctx, "TTL", "k")
	assert.True(t, reply.Int >= 99 && reply.Int <= 100)
}

func TestKeysGlobShapes(t *testing.T) {
	r, ctx := newTestCtx()
	run(r, ctx, "SET", "user:1", "a")
	run(r, ctx, "SET", "user:2", "b")
	run(r, ctx, "SET", "session:1", "c")

	reply := run(r, ctx, "KEYS", "user:*")
	assert.Len(t, reply.Elems, 2)

	reply = run(r, ctx, "KEYS", "*")
	assert.Len(t, reply.Elems, 3)
}

func TestUnknownCommand(t *testing.T) {
	r, ctx := newTestCtx()
	reply := run(r, ctx, "NOPE")
	assert.Equal(t, protocol.KindError, reply.Kind)
	assert.Contains(t, reply.Str, "unknown command")
}

func flattenBulk(v *protocol.Value) []string {
	out := make([]string, len(v.Elems))
	for i, e := range v.Elems {
		out[i] = string(e.Bulk)
	}
	return out
}
