package commands

import (
	"github.com/shardkv/shardkv/internal/aof"
	"github.com/shardkv/shardkv/internal/protocol"
	"github.com/shardkv/shardkv/internal/store"
)

func getOrCreateList(ctx *Context, key string) (*store.List, *protocol.Value) {
	entry, ok := ctx.Store.GetMut(key)
	if !ok {
		v := store.NewListValue()
		ctx.Store.Set(key, v)
		l, _ := v.AsListMut()
		return l, nil
	}
	l, err := entry.Value.AsListMut()
	if err != nil {
		return nil, errorf(err.Error())
	}
	return l, nil
}

// LPushCmd implements LPUSH key value [value ...]. Each value is pushed
// to the front in argument order, so the first argument ends up closest to
// the list's existing head and the last argument becomes the new head
// (LPUSH k a b c on an empty key yields [c, b, a]).
type LPushCmd struct{}

func (LPushCmd) Name() string { return "LPUSH" }
func (LPushCmd) MinArgs() int { return 2 }
func (LPushCmd) MaxArgs() int { return Unbounded }

func (LPushCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	key := string(args[0])
	l, errReply := getOrCreateList(ctx, key)
	if errReply != nil {
		return errReply
	}
	for _, v := range args[1:] {
		l.PushFront(v)
		ctx.logAOF(aof.OpLPush, key, v)
	}
	return protocol.Integer(int64(l.Len()))
}

// RPushCmd implements RPUSH key value [value ...], appending in order.
type RPushCmd struct{}

func (RPushCmd) Name() string { return "RPUSH" }
func (RPushCmd) MinArgs() int { return 2 }
func (RPushCmd) MaxArgs() int { return Unbounded }

func (RPushCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	key := string(args[0])
	l, errReply := getOrCreateList(ctx, key)
	if errReply != nil {
		return errReply
	}
	for _, v := range args[1:] {
		l.PushBack(v)
		ctx.logAOF(aof.OpRPush, key, v)
	}
	return protocol.Integer(int64(l.Len()))
}

// LRangeCmd implements LRANGE key start stop: an inclusive, clamped,
// negative-index-aware range.
type LRangeCmd struct{}

func (LRangeCmd) Name() string { return "LRANGE" }
func (LRangeCmd) MinArgs() int { return 3 }
func (LRangeCmd) MaxArgs() int { return 3 }

func (LRangeCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	start, ok1 := parseInt64(args[1])
	stop, ok2 := parseInt64(args[2])
	if !ok1 || !ok2 {
		return errorf("ERR value is not an integer or out of range")
	}
	v, ok := ctx.Store.Get(string(args[0]))
	if !ok {
		return bulkArray(nil)
	}
	l, err := v.AsListMut()
	if err != nil {
		return errorf(err.Error())
	}
	return bulkArray(l.Range(start, stop))
}

// LLenCmd implements LLEN key.
type LLenCmd struct{}

func (LLenCmd) Name() string { return "LLEN" }
func (LLenCmd) MinArgs() int { return 1 }
func (LLenCmd) MaxArgs() int { return 1 }

func (LLenCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	v, ok := ctx.Store.Get(string(args[0]))
	if !ok {
		return protocol.Integer(0)
	}
	l, err := v.AsListMut()
	if err != nil {
		return errorf(err.Error())
	}
	return protocol.Integer(int64(l.Len()))
}
