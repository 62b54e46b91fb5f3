// Package logging wraps the standard log package with level-prefixed
// helpers and an environment-driven level filter, matching the plain
// log.Printf idiom used throughout this tree instead of introducing a
// structured logging library.
package logging

import (
	"log"
	"os"
	"strings"
)

// Level orders the severities this package filters on. The zero value,
// LevelInfo, logs everything — so a Logger built without New (e.g. a
// struct literal in a test) behaves as if no filter were configured.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
	LevelNone
)

// envVar is the filter's name, read once in New. Its values mirror the
// Rust original's RUST_LOG levels (debug/info/warn/error), plus "none" to
// silence this process's logging entirely.
const envVar = "SHARDKV_LOG"

func levelFromEnv() Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envVar))) {
	case "debug", "info", "":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "none", "off":
		return LevelNone
	default:
		return LevelInfo
	}
}

// Logger prefixes every line with a level tag and drops lines below the
// level named by SHARDKV_LOG (default: log everything).
type Logger struct {
	*log.Logger
	minLevel Level
}

// New builds a Logger writing to os.Stderr with the standard date/time
// prefix, filtered by the SHARDKV_LOG environment variable.
func New() *Logger {
	return &Logger{
		Logger:   log.New(os.Stderr, "", log.LstdFlags),
		minLevel: levelFromEnv(),
	}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if l.minLevel > LevelInfo {
		return
	}
	l.Printf("INFO: "+format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	if l.minLevel > LevelWarn {
		return
	}
	l.Printf("WARN: "+format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.minLevel > LevelError {
		return
	}
	l.Printf("ERROR: "+format, args...)
}
