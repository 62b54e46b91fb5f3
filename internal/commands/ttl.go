package commands

import (
	"strconv"

	"github.com/shardkv/shardkv/internal/aof"
	"github.com/shardkv/shardkv/internal/protocol"
)

// ExpireCmd implements EXPIRE key seconds. seconds <= 0 clears any
// existing expiry outright rather than expiring the key immediately.
type ExpireCmd struct{}

func (ExpireCmd) Name() string { return "EXPIRE" }
func (ExpireCmd) MinArgs() int { return 2 }
func (ExpireCmd) MaxArgs() int { return 2 }

func (ExpireCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	seconds, ok := parseInt64(args[1])
	if !ok {
		return errorf("ERR value is not an integer or out of range")
	}
	key := string(args[0])
	if !ctx.Store.Expire(key, seconds) {
		return protocol.Integer(0)
	}
	ctx.logAOF(aof.OpExpire, key, []byte(strconv.FormatInt(seconds, 10)))
	return protocol.Integer(1)
}

// TtlCmd implements TTL key.
type TtlCmd struct{}

func (TtlCmd) Name() string { return "TTL" }
func (TtlCmd) MinArgs() int { return 1 }
func (TtlCmd) MaxArgs() int { return 1 }

func (TtlCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	return protocol.Integer(ctx.Store.TTL(string(args[0])))
}
