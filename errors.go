package seedcache

import (
	"errors"
	"fmt"
)

var (
	// ErrNoKey is returned by strict-mode Seed when the key serializes to
	// the NoKey sentinel.
	ErrNoKey = errors.New("seedcache: no key")

	// ErrSealed is returned by Seed after the table has been sealed.
	ErrSealed = errors.New("seedcache: table sealed")

	// ErrNoFetch is returned by Reader.Start/Resolve when no fetch function
	// was configured and the key missed.
	ErrNoFetch = errors.New("seedcache: no fetch function configured")
)

// KeyError reports a malformed composite key element.
type KeyError struct {
	Index int // element position within the key
	Err   error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("seedcache: key element %d: %v", e.Index, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }

// SeedError reports a failed Seed: the key is fine but encoding or storing
// the value failed.
type SeedError struct {
	Canonical string
	Err       error
}

func (e *SeedError) Error() string {
	return fmt.Sprintf("seedcache: seed %q: %v", e.Canonical, e.Err)
}

func (e *SeedError) Unwrap() error { return e.Err }
