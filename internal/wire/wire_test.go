package wire

import (
	"bytes"
	"testing"
)

func mustDecode(t *testing.T, b []byte) []Entry {
	t.Helper()
	entries, err := DecodeTable(b)
	if err != nil {
		t.Fatalf("DecodeTable error: %v", err)
	}
	return entries
}

func TestTableRoundTrip(t *testing.T) {
	cases := [][]Entry{
		nil,
		{{Key: `["a"]`, Payload: []byte("x")}},
		{
			{Key: `["api","article",1]`, Payload: []byte(`{"id":1}`)},
			{Key: `["api","article",2]`, Payload: nil},
			{Key: `["api","article","1"]`, Payload: []byte{0, 1, 2, 3}},
		},
	}
	for _, entries := range cases {
		enc := EncodeTable(entries)
		got := mustDecode(t, enc)
		if len(got) != len(entries) {
			t.Fatalf("entry count mismatch: got %d want %d", len(got), len(entries))
		}
		byKey := make(map[string][]byte, len(got))
		for _, e := range got {
			byKey[e.Key] = e.Payload
		}
		for _, e := range entries {
			if !bytes.Equal(byKey[e.Key], e.Payload) {
				t.Fatalf("payload mismatch for %q: got %x want %x", e.Key, byKey[e.Key], e.Payload)
			}
		}
	}
}

func TestEncodeDeterministicOrder(t *testing.T) {
	a := []Entry{
		{Key: `["a"]`, Payload: []byte("1")},
		{Key: `["b"]`, Payload: []byte("2")},
	}
	b := []Entry{
		{Key: `["b"]`, Payload: []byte("2")},
		{Key: `["a"]`, Payload: []byte("1")},
	}
	if !bytes.Equal(EncodeTable(a), EncodeTable(b)) {
		t.Fatalf("encodings differ for equal entry sets")
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	enc := EncodeTable([]Entry{{Key: `["a"]`, Payload: []byte("x")}})
	enc = append(enc, 0xDE, 0xAD) // trailing junk
	if _, err := DecodeTable(enc); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}
}

func TestDecodeCorruptHeadersAndLengths(t *testing.T) {
	enc := EncodeTable([]Entry{{Key: `["a"]`, Payload: []byte("abc")}})

	// bad magic
	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, err := DecodeTable(badMagic); err == nil {
		t.Fatalf("expected error on bad magic")
	}

	// wrong version
	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, err := DecodeTable(badVer); err == nil {
		t.Fatalf("expected error on bad version")
	}

	// wrong kind
	badKind := append([]byte(nil), enc...)
	badKind[5] = kindTable + 1
	if _, err := DecodeTable(badKind); err == nil {
		t.Fatalf("expected error on bad kind")
	}

	// truncated payload
	short := enc[:len(enc)-1]
	if _, err := DecodeTable(short); err == nil {
		t.Fatalf("expected error on truncated payload")
	}

	// inflated entry count
	badCount := append([]byte(nil), enc...)
	badCount[9] = 2 // n lives at offset 6..10 (big endian)
	if _, err := DecodeTable(badCount); err == nil {
		t.Fatalf("expected error on inflated entry count")
	}
}

func TestEncodePanicsOnEmptyKey(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on empty key")
		}
	}()
	_ = EncodeTable([]Entry{{Key: "", Payload: []byte("x")}})
}
