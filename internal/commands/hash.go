package commands

import (
	"strconv"

	"github.com/shardkv/shardkv/internal/aof"
	"github.com/shardkv/shardkv/internal/protocol"
	"github.com/shardkv/shardkv/internal/store"
)

func getOrCreateHash(ctx *Context, key string) (map[string][]byte, *protocol.Value) {
	entry, ok := ctx.Store.GetMut(key)
	if !ok {
		v := store.NewHashValue()
		ctx.Store.Set(key, v)
		h, _ := v.AsHashMut()
		return h, nil
	}
	h, err := entry.Value.AsHashMut()
	if err != nil {
		return nil, errorf(err.Error())
	}
	return h, nil
}

// HSetCmd implements HSET key field value [field value ...], returning
// the count of fields newly created (not the total number set). Each
// field/value pair is logged as its own AOF HSET entry.
type HSetCmd struct{}

func (HSetCmd) Name() string { return "HSET" }
func (HSetCmd) MinArgs() int { return 3 }
func (HSetCmd) MaxArgs() int { return Unbounded }

func (HSetCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	if (len(args)-1)%2 != 0 {
		return wrongArgs("HSET")
	}
	key := string(args[0])
	hash, errReply := getOrCreateHash(ctx, key)
	if errReply != nil {
		return errReply
	}
	var created int64
	for i := 1; i < len(args); i += 2 {
		field, value := string(args[i]), args[i+1]
		if _, exists := hash[field]; !exists {
			created++
		}
		hash[field] = value
		ctx.logAOF(aof.OpHSet, key, args[i], value)
	}
	return protocol.Integer(created)
}

// HGetCmd implements HGET key field.
type HGetCmd struct{}

func (HGetCmd) Name() string { return "HGET" }
func (HGetCmd) MinArgs() int { return 2 }
func (HGetCmd) MaxArgs() int { return 2 }

func (HGetCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	v, ok := ctx.Store.Get(string(args[0]))
	if !ok {
		return protocol.NullBulk()
	}
	hash, err := v.AsHashMut()
	if err != nil {
		return errorf(err.Error())
	}
	value, ok := hash[string(args[1])]
	if !ok {
		return protocol.NullBulk()
	}
	return protocol.BulkString(value)
}

// HGetAllCmd implements HGETALL key: a flat array alternating field,
// value. Field iteration order is not guaranteed (map-backed).
type HGetAllCmd struct{}

func (HGetAllCmd) Name() string { return "HGETALL" }
func (HGetAllCmd) MinArgs() int { return 1 }
func (HGetAllCmd) MaxArgs() int { return 1 }

func (HGetAllCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	v, ok := ctx.Store.Get(string(args[0]))
	if !ok {
		return bulkArray(nil)
	}
	hash, err := v.AsHashMut()
	if err != nil {
		return errorf(err.Error())
	}
	flat := make([][]byte, 0, len(hash)*2)
	for field, value := range hash {
		flat = append(flat, []byte(field), value)
	}
	return bulkArray(flat)
}

// HDelCmd implements HDEL key field [field ...].
type HDelCmd struct{}

func (HDelCmd) Name() string { return "HDEL" }
func (HDelCmd) MinArgs() int { return 2 }
func (HDelCmd) MaxArgs() int { return Unbounded }

func (HDelCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	key := string(args[0])
	v, ok := ctx.Store.Get(key)
	if !ok {
		return protocol.Integer(0)
	}
	hash, err := v.AsHashMut()
	if err != nil {
		return errorf(err.Error())
	}
	var removed int64
	for _, f := range args[1:] {
		field := string(f)
		if _, exists := hash[field]; exists {
			delete(hash, field)
			removed++
			ctx.logAOF(aof.OpHDel, key, f)
		}
	}
	return protocol.Integer(removed)
}

// HKeysCmd implements HKEYS key.
type HKeysCmd struct{}

func (HKeysCmd) Name() string { return "HKEYS" }
func (HKeysCmd) MinArgs() int { return 1 }
func (HKeysCmd) MaxArgs() int { return 1 }

func (HKeysCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	v, ok := ctx.Store.Get(string(args[0]))
	if !ok {
		return bulkArray(nil)
	}
	hash, err := v.AsHashMut()
	if err != nil {
		return errorf(err.Error())
	}
	keys := make([][]byte, 0, len(hash))
	for field := range hash {
		keys = append(keys, []byte(field))
	}
	return bulkArray(keys)
}

// HIncrByCmd implements HINCRBY key field increment: parses the field as
// an i64 (defaulting to 0 if absent), adds increment, and stores the
// result back as decimal ASCII.
type HIncrByCmd struct{}

func (HIncrByCmd) Name() string { return "HINCRBY" }
func (HIncrByCmd) MinArgs() int { return 3 }
func (HIncrByCmd) MaxArgs() int { return 3 }

func (HIncrByCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	increment, ok := parseInt64(args[2])
	if !ok {
		return errorf("ERR value is not an integer or out of range")
	}
	key := string(args[0])
	hash, errReply := getOrCreateHash(ctx, key)
	if errReply != nil {
		return errReply
	}
	field := string(args[1])
	var current int64
	if existing, ok := hash[field]; ok {
		current, ok = parseInt64(existing)
		if !ok {
			return errorf("ERR hash value is not an integer")
		}
	}
	next, overflowed := addOverflow(current, increment)
	if overflowed {
		return errorf("ERR increment would overflow")
	}
	value := []byte(strconv.FormatInt(next, 10))
	hash[field] = value
	ctx.logAOF(aof.OpHSet, key, args[1], value)
	return protocol.Integer(next)
}
