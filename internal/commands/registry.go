package commands

import (
	"strings"

	"github.com/shardkv/shardkv/internal/protocol"
)

// Registry is the catalogue of every command this store understands,
// keyed by upper-cased name.
type Registry struct {
	commands map[string]Command
}

// NewRegistry builds a Registry with every command in the catalogue
// registered.
func NewRegistry() *Registry {
	r := &Registry{commands: make(map[string]Command)}
	for _, cmd := range []Command{
		SetCmd{}, GetCmd{},
		DelCmd{}, ExistsCmd{},
		ExpireCmd{}, TtlCmd{},
		IncrCmd{}, IncrByCmd{}, DecrCmd{}, DecrByCmd{},
		LPushCmd{}, RPushCmd{}, LRangeCmd{}, LLenCmd{},
		SAddCmd{}, SMembersCmd{}, SCardCmd{},
		HSetCmd{}, HGetCmd{}, HGetAllCmd{}, HDelCmd{}, HKeysCmd{}, HIncrByCmd{},
		InfoCmd{}, FlushDbCmd{}, ClientCmd{}, PingCmd{},
		KeysCmd{},
	} {
		r.register(cmd)
	}
	return r
}

func (r *Registry) register(cmd Command) {
	r.commands[strings.ToUpper(cmd.Name())] = cmd
}

// Get looks up a command by case-insensitive name.
func (r *Registry) Get(name string) (Command, bool) {
	cmd, ok := r.commands[strings.ToUpper(name)]
	return cmd, ok
}

// NoKeyCommands are the subset the cluster manager routes to shard 0
// regardless of any key argument (spec.md §4.5).
var NoKeyCommands = map[string]bool{
	"INFO":    true,
	"FLUSHDB": true,
	"PING":    true,
}

// Dispatch validates the argument count for name and, if valid, runs its
// Execute against ctx. args excludes the command name itself. Unknown
// commands and arity errors never touch the store.
func (r *Registry) Dispatch(ctx *Context, name string, args [][]byte) *protocol.Value {
	cmd, ok := r.Get(name)
	if !ok {
		return protocol.ErrorReply("ERR unknown command '" + name + "'")
	}
	if len(args) < cmd.MinArgs() || (cmd.MaxArgs() != Unbounded && len(args) > cmd.MaxArgs()) {
		return wrongArgs(strings.ToUpper(name))
	}
	return cmd.Execute(ctx, args)
}
