package commands

import (
	"github.com/shardkv/shardkv/internal/aof"
	"github.com/shardkv/shardkv/internal/protocol"
	"github.com/shardkv/shardkv/internal/store"
)

func getOrCreateSet(ctx *Context, key string) (map[string]struct{}, *protocol.Value) {
	entry, ok := ctx.Store.GetMut(key)
	if !ok {
		v := store.NewSetValue()
		ctx.Store.Set(key, v)
		s, _ := v.AsSetMut()
		return s, nil
	}
	s, err := entry.Value.AsSetMut()
	if err != nil {
		return nil, errorf(err.Error())
	}
	return s, nil
}

// SAddCmd implements SADD key member [member ...], returning the count of
// members that were not already present.
type SAddCmd struct{}

func (SAddCmd) Name() string { return "SADD" }
func (SAddCmd) MinArgs() int { return 2 }
func (SAddCmd) MaxArgs() int { return Unbounded }

func (SAddCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	key := string(args[0])
	set, errReply := getOrCreateSet(ctx, key)
	if errReply != nil {
		return errReply
	}
	var added int64
	for _, m := range args[1:] {
		member := string(m)
		if _, exists := set[member]; !exists {
			set[member] = struct{}{}
			added++
			ctx.logAOF(aof.OpSAdd, key, m)
		}
	}
	return protocol.Integer(added)
}

// SMembersCmd implements SMEMBERS key; member order is unspecified.
type SMembersCmd struct{}

func (SMembersCmd) Name() string { return "SMEMBERS" }
func (SMembersCmd) MinArgs() int { return 1 }
func (SMembersCmd) MaxArgs() int { return 1 }

func (SMembersCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	v, ok := ctx.Store.Get(string(args[0]))
	if !ok {
		return bulkArray(nil)
	}
	set, err := v.AsSetMut()
	if err != nil {
		return errorf(err.Error())
	}
	members := make([][]byte, 0, len(set))
	for m := range set {
		members = append(members, []byte(m))
	}
	return bulkArray(members)
}

// SCardCmd implements SCARD key.
type SCardCmd struct{}

func (SCardCmd) Name() string { return "SCARD" }
func (SCardCmd) MinArgs() int { return 1 }
func (SCardCmd) MaxArgs() int { return 1 }

func (SCardCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	v, ok := ctx.Store.Get(string(args[0]))
	if !ok {
		return protocol.Integer(0)
	}
	set, err := v.AsSetMut()
	if err != nil {
		return errorf(err.Error())
	}
	return protocol.Integer(int64(len(set)))
}
