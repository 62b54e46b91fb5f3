package commands

import (
	"strconv"

	"github.com/shardkv/shardkv/internal/aof"
	"github.com/shardkv/shardkv/internal/protocol"
	"github.com/shardkv/shardkv/internal/store"
)

// applyDelta loads the current value at key (initializing it to 0 if
// absent), adds delta, and stores the result. An existing String is
// parsed as a base-10 i64 and upgraded to Integer on success; any other
// existing kind is WRONGTYPE. Overflow leaves the stored value untouched.
func applyDelta(ctx *Context, key string, delta int64) (int64, *protocol.Value) {
	entry, ok := ctx.Store.GetMut(key)
	if !ok {
		ctx.Store.Set(key, store.NewIntegerValue(delta))
		return delta, nil
	}

	switch entry.Value.Kind() {
	case store.KindInteger:
		cur, _ := entry.Value.AsInteger()
		next, overflowed := addOverflow(cur, delta)
		if overflowed {
			return 0, errorf("ERR increment or decrement would overflow")
		}
		ctx.Store.Set(key, store.NewIntegerValue(next))
		return next, nil
	case store.KindString:
		b, _ := entry.Value.AsString()
		cur, ok := parseInt64(b)
		if !ok {
			return 0, errorf("ERR value is not an integer or out of range")
		}
		next, overflowed := addOverflow(cur, delta)
		if overflowed {
			return 0, errorf("ERR increment or decrement would overflow")
		}
		ctx.Store.Set(key, store.NewIntegerValue(next))
		return next, nil
	default:
		return 0, errorf("WRONGTYPE Operation against a key holding the wrong kind of value")
	}
}

func addOverflow(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, true
	}
	return sum, false
}

// IncrCmd implements INCR key. Logs to AOF as SET with the post-increment
// decimal value, matching GET's rendering of an Integer key.
type IncrCmd struct{}

func (IncrCmd) Name() string { return "INCR" }
func (IncrCmd) MinArgs() int { return 1 }
func (IncrCmd) MaxArgs() int { return 1 }

func (IncrCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	key := string(args[0])
	n, errReply := applyDelta(ctx, key, 1)
	if errReply != nil {
		return errReply
	}
	ctx.logAOF(aof.OpSet, key, []byte(strconv.FormatInt(n, 10)))
	return protocol.Integer(n)
}

// IncrByCmd implements INCRBY key increment.
type IncrByCmd struct{}

func (IncrByCmd) Name() string { return "INCRBY" }
func (IncrByCmd) MinArgs() int { return 2 }
func (IncrByCmd) MaxArgs() int { return 2 }

func (IncrByCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	delta, ok := parseInt64(args[1])
	if !ok {
		return errorf("ERR value is not an integer or out of range")
	}
	key := string(args[0])
	n, errReply := applyDelta(ctx, key, delta)
	if errReply != nil {
		return errReply
	}
	ctx.logAOF(aof.OpIncrBy, key, []byte(strconv.FormatInt(n, 10)))
	return protocol.Integer(n)
}

// DecrCmd implements DECR key.
type DecrCmd struct{}

func (DecrCmd) Name() string { return "DECR" }
func (DecrCmd) MinArgs() int { return 1 }
func (DecrCmd) MaxArgs() int { return 1 }

func (DecrCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	key := string(args[0])
	n, errReply := applyDelta(ctx, key, -1)
	if errReply != nil {
		return errReply
	}
	// Reuses OpIncrBy on replay: the entry carries the resulting value,
	// not the sign of the delta that produced it.
	ctx.logAOF(aof.OpIncrBy, key, []byte(strconv.FormatInt(n, 10)))
	return protocol.Integer(n)
}

// DecrByCmd implements DECRBY key decrement.
type DecrByCmd struct{}

func (DecrByCmd) Name() string { return "DECRBY" }
func (DecrByCmd) MinArgs() int { return 2 }
func (DecrByCmd) MaxArgs() int { return 2 }

func (DecrByCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	delta, ok := parseInt64(args[1])
	if !ok {
		return errorf("ERR value is not an integer or out of range")
	}
	key := string(args[0])
	n, errReply := applyDelta(ctx, key, -delta)
	if errReply != nil {
		return errReply
	}
	ctx.logAOF(aof.OpIncrBy, key, []byte(strconv.FormatInt(n, 10)))
	return protocol.Integer(n)
}
