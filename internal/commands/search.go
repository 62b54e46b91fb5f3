package commands

import (
	"strings"

	"github.com/shardkv/shardkv/internal/protocol"
)

// KeysCmd implements KEYS pattern with the deliberately limited glob-lite
// grammar: "*" (all), "prefix*", "*suffix", "*substring*"; anything else
// falls back to an exact match. No character classes, no "?".
type KeysCmd struct{}

func (KeysCmd) Name() string { return "KEYS" }
func (KeysCmd) MinArgs() int { return 1 }
func (KeysCmd) MaxArgs() int { return 1 }

func (KeysCmd) Execute(ctx *Context, args [][]byte) *protocol.Value {
	pattern := string(args[0])
	var matched [][]byte
	for _, key := range ctx.Store.Keys() {
		if matchesPattern(key, pattern) {
			matched = append(matched, []byte(key))
		}
	}
	return bulkArray(matched)
}

func matchesPattern(key, pattern string) bool {
	if pattern == "*" {
		return true
	}
	hasPrefix := strings.HasPrefix(pattern, "*")
	hasSuffix := strings.HasSuffix(pattern, "*")
	switch {
	case hasPrefix && hasSuffix && len(pattern) >= 2:
		return strings.Contains(key, pattern[1:len(pattern)-1])
	case hasPrefix:
		return strings.HasSuffix(key, pattern[1:])
	case hasSuffix:
		return strings.HasPrefix(key, pattern[:len(pattern)-1])
	default:
		return key == pattern
	}
}
