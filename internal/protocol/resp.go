// Package protocol implements the RESP2 wire format: binary-safe decoding
// of frames from a byte buffer and canonical encoding of reply values.
package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Kind identifies which RESP2 frame a Value represents.
type Kind byte

const (
	KindSimpleString Kind = '+'
	KindError        Kind = '-'
	KindInteger      Kind = ':'
	KindBulkString   Kind = '$'
	KindArray        Kind = '*'
)

// maxDepth bounds array nesting so a malformed or adversarial frame can't
// blow the goroutine stack during decode.
const maxDepth = 64

// maxBulkLen and maxArrayLen bound a single length field so a hostile or
// corrupt length can't demand an unbounded amount of buffering before the
// frame could ever complete. These are the only length fields this codec
// treats as provably unrecoverable: the connection can resync by closing
// rather than buffering forever on the client's behalf (spec.md §7).
const (
	maxBulkLen  = 512 * 1024 * 1024 // 512 MiB
	maxArrayLen = 1 << 20           // 1M elements
)

// Value is a decoded (or to-be-encoded) RESP2 frame. Only the fields
// relevant to Kind are meaningful; the zero Value is not itself valid.
type Value struct {
	Kind Kind

	Str string // SimpleString / Error payload

	Int int64 // Integer payload

	Bulk     []byte // BulkString payload
	BulkNull bool   // true for "$-1\r\n"

	Elems   []*Value // Array payload
	ArrNull bool     // true for "*-1\r\n"
}

// Constructors mirror the variants a command's result can take.

func SimpleString(s string) *Value { return &Value{Kind: KindSimpleString, Str: s} }
func ErrorReply(s string) *Value   { return &Value{Kind: KindError, Str: s} }
func Integer(n int64) *Value       { return &Value{Kind: KindInteger, Int: n} }
func BulkString(b []byte) *Value   { return &Value{Kind: KindBulkString, Bulk: b} }
func NullBulk() *Value             { return &Value{Kind: KindBulkString, BulkNull: true} }
func Array(elems []*Value) *Value  { return &Value{Kind: KindArray, Elems: elems} }
func NullArray() *Value            { return &Value{Kind: KindArray, ArrNull: true} }

// BulkStringFromString is a convenience for string-producing commands.
func BulkStringFromString(s string) *Value { return BulkString([]byte(s)) }

// ErrIncomplete is returned by Decode when buf does not yet contain a full
// frame. Callers must leave buf untouched and retry once more bytes arrive;
// it is never returned after partially consuming an array.
var ErrIncomplete = errors.New("protocol: incomplete frame")

// ProtocolError reports a malformed frame: a prefix byte does not match any
// known frame type, a length or integer field doesn't parse, or a bulk
// string is missing its trailing CRLF. Unrecoverable is set only for the
// small class of errors where no amount of additional buffering could ever
// complete the frame (a length field beyond maxBulkLen/maxArrayLen); every
// other ProtocolError is an ordinary malformed frame that a caller should
// report to the client without closing the connection (spec.md §7).
type ProtocolError struct {
	Msg           string
	Unrecoverable bool
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Msg }

func protoErr(format string, args ...interface{}) error {
	return &ProtocolError{Msg: fmt.Sprintf(format, args...)}
}

func protoErrUnrecoverable(format string, args ...interface{}) error {
	return &ProtocolError{Msg: fmt.Sprintf(format, args...), Unrecoverable: true}
}

// Decode parses exactly one frame at the head of buf.
//
// Three outcomes: success returns the frame and the number of bytes it
// consumed; an incomplete frame returns ErrIncomplete and buf must be
// retried unchanged once more bytes are available; a malformed frame
// returns a *ProtocolError. decodeAt tracks its position in local
// variables only, so a partial array never consumes its header or any of
// its children — nothing is reported to the caller until the whole frame,
// recursively, has succeeded.
func Decode(buf []byte) (*Value, int, error) {
	v, pos, err := decodeAt(buf, 0, 0)
	if err != nil {
		return nil, 0, err
	}
	return v, pos, nil
}

func decodeAt(buf []byte, pos int, depth int) (*Value, int, error) {
	if pos >= len(buf) {
		return nil, pos, ErrIncomplete
	}
	switch buf[pos] {
	case byte(KindSimpleString):
		return decodeLine(buf, pos, KindSimpleString)
	case byte(KindError):
		return decodeLine(buf, pos, KindError)
	case byte(KindInteger):
		return decodeInteger(buf, pos)
	case byte(KindBulkString):
		return decodeBulk(buf, pos)
	case byte(KindArray):
		if depth >= maxDepth {
			return nil, pos, protoErr("array nesting exceeds %d", maxDepth)
		}
		return decodeArray(buf, pos, depth)
	default:
		return nil, pos, protoErr("unknown type prefix %q", buf[pos])
	}
}

// findCRLF locates the first "\r\n" at or after pos, returning its index or
// -1 if not present yet in buf.
func findCRLF(buf []byte, pos int) int {
	idx := bytes.Index(buf[pos:], []byte("\r\n"))
	if idx < 0 {
		return -1
	}
	return pos + idx
}

func decodeLine(buf []byte, pos int, kind Kind) (*Value, int, error) {
	end := findCRLF(buf, pos+1)
	if end < 0 {
		return nil, pos, ErrIncomplete
	}
	line := buf[pos+1 : end]
	if !utf8.Valid(line) {
		return nil, pos, protoErr("non-UTF8 %c line", byte(kind))
	}
	return &Value{Kind: kind, Str: string(line)}, end + 2, nil
}

func decodeInteger(buf []byte, pos int) (*Value, int, error) {
	end := findCRLF(buf, pos+1)
	if end < 0 {
		return nil, pos, ErrIncomplete
	}
	line := buf[pos+1 : end]
	if !utf8.Valid(line) {
		return nil, pos, protoErr("non-UTF8 integer line")
	}
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return nil, pos, protoErr("invalid integer %q", line)
	}
	return &Value{Kind: KindInteger, Int: n}, end + 2, nil
}

func decodeBulk(buf []byte, pos int) (*Value, int, error) {
	lineEnd := findCRLF(buf, pos+1)
	if lineEnd < 0 {
		return nil, pos, ErrIncomplete
	}
	lenLine := buf[pos+1 : lineEnd]
	if !utf8.Valid(lenLine) {
		return nil, pos, protoErr("non-UTF8 bulk length line")
	}
	n, err := strconv.ParseInt(string(lenLine), 10, 64)
	if err != nil {
		return nil, pos, protoErr("invalid bulk length %q", lenLine)
	}
	if n == -1 {
		return &Value{Kind: KindBulkString, BulkNull: true}, lineEnd + 2, nil
	}
	if n < -1 {
		return nil, pos, protoErr("negative bulk length %d", n)
	}
	if n > maxBulkLen {
		return nil, pos, protoErrUnrecoverable("bulk length %d exceeds maximum %d", n, maxBulkLen)
	}
	dataStart := lineEnd + 2
	dataEnd := dataStart + int(n)
	needEnd := dataEnd + 2
	if len(buf) < needEnd {
		return nil, pos, ErrIncomplete
	}
	if buf[dataEnd] != '\r' || buf[dataEnd+1] != '\n' {
		return nil, pos, protoErr("missing trailing CRLF after bulk payload")
	}
	payload := make([]byte, n)
	copy(payload, buf[dataStart:dataEnd])
	return &Value{Kind: KindBulkString, Bulk: payload}, needEnd, nil
}

func decodeArray(buf []byte, pos int, depth int) (*Value, int, error) {
	lineEnd := findCRLF(buf, pos+1)
	if lineEnd < 0 {
		return nil, pos, ErrIncomplete
	}
	countLine := buf[pos+1 : lineEnd]
	if !utf8.Valid(countLine) {
		return nil, pos, protoErr("non-UTF8 array length line")
	}
	count, err := strconv.ParseInt(string(countLine), 10, 64)
	if err != nil {
		return nil, pos, protoErr("invalid array length %q", countLine)
	}
	if count == -1 {
		return &Value{Kind: KindArray, ArrNull: true}, lineEnd + 2, nil
	}
	if count < -1 {
		return nil, pos, protoErr("negative array length %d", count)
	}
	if count > maxArrayLen {
		return nil, pos, protoErrUnrecoverable("array length %d exceeds maximum %d", count, maxArrayLen)
	}

	cursor := lineEnd + 2
	elems := make([]*Value, 0, count)
	for i := int64(0); i < count; i++ {
		child, next, err := decodeAt(buf, cursor, depth+1)
		if err != nil {
			// Whether incomplete or malformed, nothing about this array
			// (header included) has been committed back to the caller.
			return nil, pos, err
		}
		elems = append(elems, child)
		cursor = next
	}
	return &Value{Kind: KindArray, Elems: elems}, cursor, nil
}

// Encode renders v as its canonical RESP2 byte serialization.
func (v *Value) Encode() []byte {
	var buf bytes.Buffer
	v.encodeTo(&buf)
	return buf.Bytes()
}

func (v *Value) encodeTo(buf *bytes.Buffer) {
	switch v.Kind {
	case KindSimpleString:
		buf.WriteByte('+')
		buf.WriteString(v.Str)
		buf.WriteString("\r\n")
	case KindError:
		buf.WriteByte('-')
		buf.WriteString(v.Str)
		buf.WriteString("\r\n")
	case KindInteger:
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(v.Int, 10))
		buf.WriteString("\r\n")
	case KindBulkString:
		if v.BulkNull {
			buf.WriteString("$-1\r\n")
			return
		}
		buf.WriteByte('$')
		buf.WriteString(strconv.Itoa(len(v.Bulk)))
		buf.WriteString("\r\n")
		buf.Write(v.Bulk)
		buf.WriteString("\r\n")
	case KindArray:
		if v.ArrNull {
			buf.WriteString("*-1\r\n")
			return
		}
		buf.WriteByte('*')
		buf.WriteString(strconv.Itoa(len(v.Elems)))
		buf.WriteString("\r\n")
		for _, e := range v.Elems {
			e.encodeTo(buf)
		}
	default:
		panic(fmt.Sprintf("protocol: unencodable kind %v", v.Kind))
	}
}

// AsCommandArgs extracts a client request's argv from a frame that must be
// an array of bulk strings, the only valid shape for a RESP2 request.
func AsCommandArgs(v *Value) ([][]byte, error) {
	if v.Kind != KindArray || v.ArrNull {
		return nil, protoErr("request must be an array")
	}
	args := make([][]byte, 0, len(v.Elems))
	for _, e := range v.Elems {
		if e.Kind != KindBulkString || e.BulkNull {
			return nil, protoErr("request elements must be bulk strings")
		}
		args = append(args, e.Bulk)
	}
	return args, nil
}
