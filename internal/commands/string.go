package commands

import (
	"strconv"

	"github.com/shardkv/shardkv/internal/aof"
	"github.com/shardkv/shardkv/internal/protocol"
	"github.com/shardkv/shardkv/internal/store"
)

// SetCmd implements SET key value.
type SetCmd struct{}

func (SetCmd) Name() string  { return "SET" }
func (SetCmd) MinArgs() int  { return 2 }
func (SetCmd) MaxArgs() int  { return 2 }

func (SetCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	key, value := string(args[0]), args[1]
	ctx.Store.Set(key, store.NewStringValue(value))
	ctx.logAOF(aof.OpSet, key, value)
	return protocol.SimpleString("OK")
}

// GetCmd implements GET key.
type GetCmd struct{}

func (GetCmd) Name() string { return "GET" }
func (GetCmd) MinArgs() int { return 1 }
func (GetCmd) MaxArgs() int { return 1 }

func (GetCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	v, ok := ctx.Store.Get(string(args[0]))
	if !ok {
		return protocol.NullBulk()
	}
	switch v.Kind() {
	case store.KindString:
		b, _ := v.AsString()
		return protocol.BulkString(b)
	case store.KindInteger:
		n, _ := v.AsInteger()
		return protocol.BulkStringFromString(strconv.FormatInt(n, 10))
	default:
		return errorf("WRONGTYPE Operation against a key holding the wrong kind of value")
	}
}
