package aof

import (
	"fmt"
	"os"
)

// Reader loads an AOF file fully into memory and decodes its entries.
type Reader struct {
	data []byte
}

// NewReader reads path into memory. A missing file yields an empty
// reader (nothing to replay), matching a shard's first-ever startup.
func NewReader(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Reader{}, nil
		}
		return nil, fmt.Errorf("aof: read %s: %w", path, err)
	}
	return &Reader{data: data}, nil
}

// ParseEntries iteratively decodes entries from the head of the file. On
// any parse or checksum failure it logs the byte position and stops —
// conservative, so it never resyncs past a corrupt tail — and returns the
// prefix of well-formed entries decoded so far.
func (r *Reader) ParseEntries(warnf func(format string, args ...interface{})) []*Entry {
	var entries []*Entry
	pos := 0
	for pos < len(r.data) {
		entry, n, err := DecodeEntry(r.data[pos:])
		if err != nil {
			if warnf != nil {
				warnf("aof: stopping replay at byte offset %d: %v", pos, err)
			}
			break
		}
		entries = append(entries, entry)
		pos += n
	}
	return entries
}
