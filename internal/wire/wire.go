package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sort"
)

const (
	version   byte = 1
	kindTable byte = 1
)

var (
	ErrCorrupt = errors.New("seedcache: corrupt snapshot")
	magic4     = [...]byte{'S', 'E', 'E', 'D'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry is one table row in a snapshot: a canonical key string and its
// codec-encoded payload.
type Entry struct {
	Key     string
	Payload []byte
}

// EncodeTable frames a table snapshot:
//
//	magic(4) | ver(1) | kind(1=table) | n(u32 be)
//	keyLen(u16 be) | key(keyLen) | vlen(u32 be) | payload(vlen) * n
//
// Entries are sorted by key before framing so equal tables always encode to
// identical bytes. The input slice is not mutated.
func EncodeTable(entries []Entry) []byte {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	total := 4 + 1 + 1 + 4
	for _, e := range sorted {
		total += 2 + len(e.Key) + 4 + len(e.Payload)
	}

	var buf bytes.Buffer
	buf.Grow(total)

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindTable)

	var u4 [4]byte
	var u2 [2]byte

	binary.BigEndian.PutUint32(u4[:], uint32(len(sorted)))
	buf.Write(u4[:])

	for _, e := range sorted {
		if l := len(e.Key); l == 0 || l > 0xFFFF {
			panic("seedcache: invalid key length in snapshot")
		}
		binary.BigEndian.PutUint16(u2[:], uint16(len(e.Key)))
		buf.Write(u2[:])
		buf.WriteString(e.Key)

		binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
		buf.Write(u4[:])
		buf.Write(e.Payload)
	}

	return buf.Bytes()
}

// DecodeTable parses a snapshot produced by EncodeTable. Framing is strict:
// bad magic, wrong version/kind, short reads, and trailing bytes all fail
// with ErrCorrupt.
func DecodeTable(b []byte) ([]Entry, error) {
	const hdr = 4 + 1 + 1 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindTable {
		return nil, ErrCorrupt
	}

	off := 6

	n := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if n < 0 {
		return nil, ErrCorrupt
	}

	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		if off+2 > len(b) {
			return nil, ErrCorrupt
		}
		klen := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if klen <= 0 || klen > len(b)-off {
			return nil, ErrCorrupt
		}

		keyBytes := b[off : off+klen]
		off += klen

		if off+4 > len(b) {
			return nil, ErrCorrupt
		}
		vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if vlen < 0 || vlen > len(b)-off {
			return nil, ErrCorrupt
		}

		payload := b[off : off+vlen]
		off += vlen

		entries = append(entries, Entry{
			Key:     string(keyBytes), // one expected alloc per entry
			Payload: payload,
		})
	}

	if off != len(b) {
		return nil, ErrCorrupt // trailing bytes
	}

	return entries, nil
}
