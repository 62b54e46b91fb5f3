package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/shardkv/shardkv/internal/protocol"
)

// InfoCmd implements INFO [section], rendering a "# Server" and
// "# Keyspace" section in the conventional INFO text format.
type InfoCmd struct{}

func (InfoCmd) Name() string { return "INFO" }
func (InfoCmd) MinArgs() int { return 0 }
func (InfoCmd) MaxArgs() int { return 1 }

func (InfoCmd) Execute(ctx *Context, _ [][]byte) *protocol.Value {
	stats := ctx.Store.Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "# Server\r\n")
	fmt.Fprintf(&b, "shardkv_version:1.0.0\r\n")
	fmt.Fprintf(&b, "shardkv_mode:sharded\r\n")
	fmt.Fprintf(&b, "os:%s\r\n", runtime.GOOS)
	fmt.Fprintf(&b, "arch:%s\r\n", runtime.GOARCH)
	fmt.Fprintf(&b, "\r\n")
	fmt.Fprintf(&b, "# Keyspace\r\n")
	fmt.Fprintf(&b, "db0:keys=%d,expires=%d\r\n", stats.ActiveKeys, stats.ExpiredKeys)
	return protocol.BulkStringFromString(b.String())
}

// PingCmd implements PING, the liveness no-key command the cluster
// manager always routes to shard 0.
type PingCmd struct{}

func (PingCmd) Name() string { return "PING" }
func (PingCmd) MinArgs() int { return 0 }
func (PingCmd) MaxArgs() int { return 1 }

func (PingCmd) Execute(_ *Context, args [][]byte) *protocol.Value {
	if len(args) == 1 {
		return protocol.BulkString(args[0])
	}
	return protocol.SimpleString("PONG")
}

// FlushDbCmd implements FLUSHDB, dropping every key on the current shard.
type FlushDbCmd struct{}

func (FlushDbCmd) Name() string { return "FLUSHDB" }
func (FlushDbCmd) MinArgs() int { return 0 }
func (FlushDbCmd) MaxArgs() int { return 0 }

func (FlushDbCmd) Execute(ctx *Context, _ [][]byte) *protocol.Value {
	ctx.Store.Clear()
	return protocol.SimpleString("OK")
}

// ClientCmd implements the CLIENT family of protocol-compatibility stubs:
// SETNAME/SETINFO/REPLY return OK, GETNAME returns null, ID returns a
// fixed integer, and LIST returns one synthetic line describing the
// calling connection (real clients parsing this reply expect
// line-oriented text even from a single-connection server).
type ClientCmd struct{}

func (ClientCmd) Name() string { return "CLIENT" }
func (ClientCmd) MinArgs() int { return 1 }
func (ClientCmd) MaxArgs() int { return Unbounded }

func (ClientCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	sub := strings.ToUpper(string(args[0]))
	switch sub {
	case "SETNAME":
		if len(args) != 2 {
			return wrongArgs("CLIENT|SETNAME")
		}
		return protocol.SimpleString("OK")
	case "GETNAME":
		return protocol.NullBulk()
	case "LIST":
		line := fmt.Sprintf("id=%d addr=%s laddr= fd=0 name= age=0 idle=0 flags=N db=0 sub=0 psub=0 multi=-1 cmd=client|list\n",
			ctx.ConnID, ctx.RemoteAddr)
		return protocol.BulkStringFromString(line)
	case "SETINFO":
		return protocol.SimpleString("OK")
	case "REPLY":
		return protocol.SimpleString("OK")
	case "ID":
		return protocol.Integer(1)
	default:
		return errorf("ERR unknown subcommand '" + sub + "'")
	}
}
