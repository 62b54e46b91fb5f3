// Package commands implements the fixed command catalogue: one type per
// RESP2 command, a name-keyed registry, and the shared argument-count
// validation the dispatcher applies before any command runs.
package commands

import "github.com/shardkv/shardkv/internal/protocol"

// Unbounded marks a command with no maximum argument count.
const Unbounded = -1

// Command is one entry in the catalogue. Execute receives args with the
// command name already stripped (args[0] of the wire request is the name
// itself, not part of args here).
type Command interface {
	Name() string
	MinArgs() int
	MaxArgs() int // Unbounded if there is no cap
	Execute(ctx *Context, args [][]byte) *protocol.Value
}

func wrongArgs(name string) *protocol.Value {
	return protocol.ErrorReply("ERR wrong number of arguments for '" + name + "' command")
}

func errorf(msg string) *protocol.Value {
	return protocol.ErrorReply(msg)
}
