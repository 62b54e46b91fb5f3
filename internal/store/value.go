// Package store implements the typed in-memory value model and the
// per-shard key-value store with lazy expiry.
package store

import "fmt"

// Kind identifies which variant a Value holds. A key holds exactly one
// variant at a time; it changes only when the key's Value is replaced
// (SET over any key, or a counter command upgrading a String to Integer).
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindList
	KindSet
	KindHash
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	default:
		return "unknown"
	}
}

// List is an ordered, double-ended sequence of binary-safe byte strings.
// items[head:] holds the live elements; head leaves slack at the front so
// repeated PushFront calls don't each reallocate and shift the whole slice.
type List struct {
	items [][]byte
	head  int
}

func NewList() *List { return &List{} }

// PushFront prepends item. Amortized O(1): the backing array keeps front
// slack from the last grow, and only reallocates once that slack is
// exhausted, reserving front slack equal to the new length (at least 4).
func (l *List) PushFront(item []byte) {
	if l.head > 0 {
		l.head--
		l.items[l.head] = item
		return
	}
	n := l.Len()
	slack := n + 1
	if slack < 4 {
		slack = 4
	}
	grown := make([][]byte, n+1+slack)
	newHead := slack
	copy(grown[newHead+1:], l.items[l.head:])
	grown[newHead] = item
	l.items = grown
	l.head = newHead
}

// PushBack appends item. Amortized O(1) via the slice's own growth.
func (l *List) PushBack(item []byte) {
	l.items = append(l.items, item)
}

func (l *List) Len() int { return len(l.items) - l.head }

// Range returns an inclusive, clamped, negative-index-aware slice, the same
// semantics LRANGE exposes to clients.
func (l *List) Range(start, stop int64) [][]byte {
	n := int64(l.Len())
	if n == 0 {
		return nil
	}
	start = clampIndex(start, n)
	stop = clampIndex(stop, n)
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return nil
	}
	out := make([][]byte, 0, stop-start+1)
	for i := start; i <= stop; i++ {
		out = append(out, l.items[l.head+int(i)])
	}
	return out
}

func clampIndex(idx, n int64) int64 {
	if idx < 0 {
		idx = n + idx
	}
	return idx
}

// Value is a tagged variant over the five value types this store supports.
// Only the field matching Kind is populated.
type Value struct {
	kind Kind

	str []byte
	num int64

	list *List
	set  map[string]struct{}
	hash map[string][]byte
}

func NewStringValue(b []byte) *Value   { return &Value{kind: KindString, str: b} }
func NewIntegerValue(n int64) *Value   { return &Value{kind: KindInteger, num: n} }
func NewListValue() *Value            { return &Value{kind: KindList, list: NewList()} }
func NewSetValue() *Value             { return &Value{kind: KindSet, set: make(map[string]struct{})} }
func NewHashValue() *Value            { return &Value{kind: KindHash, hash: make(map[string][]byte)} }

func (v *Value) Kind() Kind { return v.kind }

// WrongTypeError is returned by the typed accessors when a key's stored
// variant does not match the operation being attempted.
type WrongTypeError struct {
	Have Kind
	Want Kind
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("WRONGTYPE Operation against a key holding the wrong kind of value (have %s, want %s)", e.Have, e.Want)
}

func (v *Value) AsString() ([]byte, error) {
	if v.kind != KindString {
		return nil, &WrongTypeError{Have: v.kind, Want: KindString}
	}
	return v.str, nil
}

func (v *Value) AsInteger() (int64, error) {
	if v.kind != KindInteger {
		return 0, &WrongTypeError{Have: v.kind, Want: KindInteger}
	}
	return v.num, nil
}

func (v *Value) AsListMut() (*List, error) {
	if v.kind != KindList {
		return nil, &WrongTypeError{Have: v.kind, Want: KindList}
	}
	return v.list, nil
}

func (v *Value) AsSetMut() (map[string]struct{}, error) {
	if v.kind != KindSet {
		return nil, &WrongTypeError{Have: v.kind, Want: KindSet}
	}
	return v.set, nil
}

func (v *Value) AsHashMut() (map[string][]byte, error) {
	if v.kind != KindHash {
		return nil, &WrongTypeError{Have: v.kind, Want: KindHash}
	}
	return v.hash, nil
}

// MemoryUsage approximates the value's footprint in bytes. It is a
// reporting aid, not an accounting invariant.
func (v *Value) MemoryUsage() int64 {
	const overhead = 16
	switch v.kind {
	case KindString:
		return overhead + int64(len(v.str))
	case KindInteger:
		return overhead + 8
	case KindList:
		var n int64
		for _, item := range v.list.items[v.list.head:] {
			n += int64(len(item)) + overhead
		}
		return n
	case KindSet:
		var n int64
		for member := range v.set {
			n += int64(len(member)) + overhead
		}
		return n
	case KindHash:
		var n int64
		for field, val := range v.hash {
			n += int64(len(field)) + int64(len(val)) + overhead
		}
		return n
	default:
		return overhead
	}
}
