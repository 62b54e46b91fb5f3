package commands

import (
	"strconv"

	"github.com/shardkv/shardkv/internal/protocol"
)

// parseInt64 parses a command argument as a base-10 i64, the shape every
// numeric argument (TTL seconds, INCRBY amounts, LRANGE indices) takes on
// the wire: every argument arrives as a bulk string.
func parseInt64(arg []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(arg), 10, 64)
	return n, err == nil
}

func bulkArray(items [][]byte) *protocol.Value {
	elems := make([]*protocol.Value, len(items))
	for i, it := range items {
		elems[i] = protocol.BulkString(it)
	}
	return protocol.Array(elems)
}
