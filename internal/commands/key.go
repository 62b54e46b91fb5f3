package commands

import (
	"github.com/shardkv/shardkv/internal/aof"
	"github.com/shardkv/shardkv/internal/protocol"
)

// DelCmd implements DEL key [key ...]. Only the first key is used for
// routing by the cluster manager; all keys named here are deleted on
// whichever shard this Context belongs to (see internal/cluster for the
// cross-shard routing caveat this implies).
type DelCmd struct{}

func (DelCmd) Name() string { return "DEL" }
func (DelCmd) MinArgs() int { return 1 }
func (DelCmd) MaxArgs() int { return Unbounded }

func (DelCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	var deleted int64
	for _, arg := range args {
		key := string(arg)
		if ctx.Store.Delete(key) {
			deleted++
			ctx.logAOF(aof.OpDel, key)
		}
	}
	return protocol.Integer(deleted)
}

// ExistsCmd implements EXISTS key [key ...].
type ExistsCmd struct{}

func (ExistsCmd) Name() string { return "EXISTS" }
func (ExistsCmd) MinArgs() int { return 1 }
func (ExistsCmd) MaxArgs() int { return Unbounded }

func (ExistsCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	var count int64
	for _, arg := range args {
		if ctx.Store.Exists(string(arg)) {
			count++
		}
	}
	return protocol.Integer(count)
}
