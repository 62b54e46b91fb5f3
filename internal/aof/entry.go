// Package aof implements the append-only file: entry encoding, the
// writer with its sync policies, the corruption-stopping reader, and
// replay onto a store.Store.
package aof

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Op identifies which mutation an AOF entry records.
type Op byte

const (
	OpSet     Op = 1
	OpDel     Op = 2
	OpExpire  Op = 3
	OpHSet    Op = 4
	OpHDel    Op = 5
	OpLPush   Op = 6
	OpRPush   Op = 7
	OpSAdd    Op = 8
	OpIncr    Op = 9
	OpIncrBy  Op = 10
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "SET"
	case OpDel:
		return "DEL"
	case OpExpire:
		return "EXPIRE"
	case OpHSet:
		return "HSET"
	case OpHDel:
		return "HDEL"
	case OpLPush:
		return "LPUSH"
	case OpRPush:
		return "RPUSH"
	case OpSAdd:
		return "SADD"
	case OpIncr:
		return "INCR"
	case OpIncrBy:
		return "INCRBY"
	default:
		return fmt.Sprintf("OP(%d)", byte(o))
	}
}

// Entry is one logged mutation: an op tag, an advisory millisecond
// timestamp, the affected key, and an ordered list of opaque payload
// items whose count and meaning depend on Op.
type Entry struct {
	Op        Op
	TimestampMs uint64
	Key       string
	Payloads  [][]byte
}

// minEntrySize is the size of an entry with an empty key and no payloads:
// 1 (op) + 8 (ts) + 4 (klen) + 0 + 4 (pcount) + 8 (checksum) = 25.
const minEntrySize = 1 + 8 + 4 + 4 + 8

// ErrIncomplete mirrors protocol.ErrIncomplete: buf does not yet hold a
// full entry and must be retried once more bytes are appended.
var ErrIncomplete = errors.New("aof: incomplete entry")

// ChecksumError reports that an entry's trailing xxhash64 checksum does
// not match the bytes that precede it.
type ChecksumError struct{}

func (ChecksumError) Error() string { return "aof: checksum mismatch" }

// Encode renders e as its on-disk byte layout, little-endian throughout,
// with a trailing xxhash64 (seed 0) checksum over everything before it.
func (e *Entry) Encode() []byte {
	size := 1 + 8 + 4 + len(e.Key) + 4
	for _, p := range e.Payloads {
		size += 4 + len(p)
	}
	buf := make([]byte, size, size+8)

	buf[0] = byte(e.Op)
	binary.LittleEndian.PutUint64(buf[1:9], e.TimestampMs)
	binary.LittleEndian.PutUint32(buf[9:13], uint32(len(e.Key)))
	off := 13
	copy(buf[off:], e.Key)
	off += len(e.Key)
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(e.Payloads)))
	off += 4
	for _, p := range e.Payloads {
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(p)))
		off += 4
		copy(buf[off:], p)
		off += len(p)
	}

	sum := xxhash.Sum64(buf)
	checksum := make([]byte, 8)
	binary.LittleEndian.PutUint64(checksum, sum)
	return append(buf, checksum...)
}

// DecodeEntry decodes exactly one entry at the head of buf, returning the
// number of bytes consumed. Three outcomes: success; ErrIncomplete if buf
// doesn't yet hold a full entry (which includes a corrupt length field
// pointing past the end of buf); or ChecksumError for a corrupt entry.
func DecodeEntry(buf []byte) (*Entry, int, error) {
	if len(buf) < minEntrySize {
		return nil, 0, ErrIncomplete
	}
	op := Op(buf[0])
	ts := binary.LittleEndian.Uint64(buf[1:9])
	klen := binary.LittleEndian.Uint32(buf[9:13])
	off := 13
	if uint64(off)+uint64(klen) > uint64(len(buf)) {
		return nil, 0, ErrIncomplete
	}
	key := string(buf[off : off+int(klen)])
	off += int(klen)

	if off+4 > len(buf) {
		return nil, 0, ErrIncomplete
	}
	pcount := binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4

	payloads := make([][]byte, 0, pcount)
	for i := uint32(0); i < pcount; i++ {
		if off+4 > len(buf) {
			return nil, 0, ErrIncomplete
		}
		plen := binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
		if uint64(off)+uint64(plen) > uint64(len(buf)) {
			return nil, 0, ErrIncomplete
		}
		payload := make([]byte, plen)
		copy(payload, buf[off:off+int(plen)])
		payloads = append(payloads, payload)
		off += int(plen)
	}

	frameEnd := off
	if frameEnd+8 > len(buf) {
		return nil, 0, ErrIncomplete
	}
	wantSum := binary.LittleEndian.Uint64(buf[frameEnd : frameEnd+8])
	gotSum := xxhash.Sum64(buf[:frameEnd])
	if wantSum != gotSum {
		return nil, 0, ChecksumError{}
	}

	return &Entry{Op: op, TimestampMs: ts, Key: key, Payloads: payloads}, frameEnd + 8, nil
}
