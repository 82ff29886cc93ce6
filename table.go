package seedcache

import (
	"fmt"

	cd "github.com/unkn0wn-root/seedcache/codec"
	"github.com/unkn0wn-root/seedcache/internal/wire"
)

// TableOptions tune producer-side behavior. The zero value is usable.
type TableOptions struct {
	// Strict makes Seed return ErrNoKey when the key serializes to the
	// NoKey sentinel instead of silently skipping the write.
	Strict bool
	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
}

// Table is the fallback store for one rendering context. A producer seeds it
// with precomputed values, seals it, and hands it to consumers; after Seal it
// is read-only and may be shared freely across readers.
//
// Table is deliberately unsynchronized: the contract is that all writes
// complete before any reader sees the table (Seal marks that boundary), so
// the happens-before edge comes from handing the table over, not from locks.
type Table struct {
	entries map[string][]byte
	sealed  bool
	strict  bool
	log     Logger
	hooks   Hooks
}

// NewTable returns an empty, unsealed table.
func NewTable(opts TableOptions) *Table {
	return &Table{
		entries: make(map[string][]byte),
		strict:  opts.Strict,
		log:     coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:   coalesce[Hooks](opts.Hooks, NopHooks{}),
	}
}

// Sealed reports whether the table has been sealed.
func (t *Table) Sealed() bool { return t.sealed }

// Len returns the number of seeded entries.
func (t *Table) Len() int { return len(t.entries) }

// Seal freezes the table. Every Seed after Seal fails with ErrSealed.
// Seal the table before exposing it to readers.
func (t *Table) Seal() { t.sealed = true }

// Export serializes the table into a deterministic binary snapshot suitable
// for handing to another rendering pass (e.g. server -> client). Equal
// tables export equal bytes. The table does not need to be sealed.
func (t *Table) Export() []byte {
	entries := make([]wire.Entry, 0, len(t.entries))
	for k, p := range t.entries {
		entries = append(entries, wire.Entry{Key: k, Payload: p})
	}
	return wire.EncodeTable(entries)
}

// ImportTable rebuilds a table from an Export snapshot. Imported tables are
// sealed: the producing context already finished writing.
func ImportTable(b []byte, opts TableOptions) (*Table, error) {
	entries, err := wire.DecodeTable(b)
	if err != nil {
		return nil, err
	}
	t := NewTable(opts)
	for _, e := range entries {
		t.entries[e.Key] = e.Payload
	}
	t.sealed = true
	return t, nil
}

// Seed computes the canonical key string and stores the codec-encoded value
// under it. A NoKey sentinel is a no-op, or ErrNoKey when the
// table is strict. Seeding the same key twice keeps the last write.
func Seed[V any](t *Table, c cd.Codec[V], key Key, value V) error {
	canonical, err := Serialize(key)
	if err != nil {
		return err
	}
	if canonical == NoKey {
		if t.strict {
			return ErrNoKey
		}
		t.hooks.SeedSkipped("no_key")
		t.log.Debug("seed skipped (no key)", nil)
		return nil
	}
	if t.sealed {
		return ErrSealed
	}
	payload, err := c.Encode(value)
	if err != nil {
		return &SeedError{Canonical: canonical, Err: err}
	}
	if _, exists := t.entries[canonical]; exists {
		t.log.Debug("seed overwrote existing entry", Fields{"key": canonical})
	}
	t.entries[canonical] = payload
	return nil
}

// Get computes the canonical key string and returns the seeded value if
// present. A NoKey sentinel is an immediate miss, never an
// error. Lookup is a single map read and does not mutate the table.
//
// A payload that fails to decode is surfaced as an error: the table holds
// producer-local data, so a bad payload is a producer bug rather than
// shared-store corruption to heal around.
func Get[V any](t *Table, c cd.Codec[V], key Key) (V, bool, error) {
	var zero V
	canonical, err := Serialize(key)
	if err != nil {
		return zero, false, err
	}
	if canonical == NoKey {
		return zero, false, nil
	}
	payload, ok := t.entries[canonical]
	if !ok {
		return zero, false, nil
	}
	v, err := c.Decode(payload)
	if err != nil {
		return zero, false, fmt.Errorf("seedcache: decode %q: %w", canonical, err)
	}
	return v, true, nil
}

// lookupRaw returns the encoded payload for an already-canonicalized key.
func (t *Table) lookupRaw(canonical string) ([]byte, bool) {
	p, ok := t.entries[canonical]
	return p, ok
}
