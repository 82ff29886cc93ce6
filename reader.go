package seedcache

import (
	"context"
	"fmt"
	"time"

	cd "github.com/unkn0wn-root/seedcache/codec"
	pr "github.com/unkn0wn-root/seedcache/provider"
)

// FetchFunc produces a value for a key when no cached copy exists. It is the
// only place the reader does I/O; cancellation flows through ctx.
type FetchFunc[V any] func(ctx context.Context, key Key) (V, error)

// SetCostFunc lets cost-based providers (Ristretto) weigh live writes.
type SetCostFunc func(storageKey string, raw []byte) int64

// ReaderOptions tune the behavior of a consumer-side reader.
// Only Namespace and Codec are required; others have sensible defaults.
type ReaderOptions[V any] struct {
	// Required
	Namespace string // logical namespace to avoid live-key collisions. e.g. "article", "tag"
	Codec     cd.Codec[V]

	Table    *Table        // fallback table for this rendering context; nil => no fallback
	Fetch    FetchFunc[V]  // nil => Start/Resolve fail on miss with ErrNoFetch
	Live     pr.Provider   // cache for fetched values; nil => every miss re-fetches
	LiveTTL  time.Duration // live entries; 0 => 5m
	SetCost  SetCostFunc   // default 1
	Logger   Logger        // if nil, NopLogger is used
	Hooks    Hooks         // if nil, NopHooks is used
	Disabled bool          // default false (enabled); disabled readers always miss
}

// Reader is the consumer half of the cache: a two-phase lookup/fetch over a
// sealed fallback table and an optional live provider.
//
// Lookup never performs I/O beyond the live provider read. A miss hands
// control back to the caller, who explicitly runs the fetch via Start (async
// task) or Resolve (lookup + awaited fetch).
type Reader[V any] struct {
	ns      string
	codec   cd.Codec[V]
	table   *Table
	fetch   FetchFunc[V]
	live    pr.Provider
	liveTTL time.Duration
	setCost SetCostFunc
	log     Logger
	hooks   Hooks
	enabled bool
}

func NewReader[V any](opts ReaderOptions[V]) (*Reader[V], error) {
	if opts.Codec == nil {
		return nil, fmt.Errorf("seedcache: codec is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("seedcache: namespace is required")
	}

	r := &Reader[V]{
		ns:      opts.Namespace,
		codec:   opts.Codec,
		table:   opts.Table,
		fetch:   opts.Fetch,
		live:    opts.Live,
		enabled: !opts.Disabled,
	}

	// defaults
	r.log = coalesce[Logger](opts.Logger, NopLogger{})
	r.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	r.liveTTL = coalesce[time.Duration](opts.LiveTTL, 5*time.Minute)

	if opts.SetCost != nil {
		r.setCost = opts.SetCost
	} else {
		r.setCost = func(_ string, _ []byte) int64 { return 1 }
	}

	return r, nil
}

func (r *Reader[V]) Enabled() bool { return r.enabled }

func (r *Reader[V]) Close(ctx context.Context) error {
	if r.live != nil {
		return r.live.Close(ctx)
	}
	return nil
}

// Lookup is phase one: fallback table first, then the live provider.
// A NoKey sentinel is an immediate miss with no error, signaling that no
// fetch should occur either. Lookup never invokes the fetch function.
func (r *Reader[V]) Lookup(ctx context.Context, key Key) (V, bool, error) {
	var zero V
	canonical, err := Serialize(key)
	if err != nil {
		return zero, false, err
	}
	if canonical == NoKey || !r.enabled {
		return zero, false, nil
	}

	if r.table != nil {
		if payload, ok := r.table.lookupRaw(canonical); ok {
			v, err := r.codec.Decode(payload)
			if err != nil {
				// producer-local data; surface instead of healing
				return zero, false, fmt.Errorf("seedcache: decode %q: %w", canonical, err)
			}
			r.hooks.FallbackHit(canonical)
			return v, true, nil
		}
	}

	if r.live != nil {
		k := r.liveKey(canonical)
		raw, ok, err := r.live.Get(ctx, k)
		if err != nil {
			return zero, false, err
		}
		if ok {
			v, err := r.codec.Decode(raw)
			if err != nil {
				_ = r.live.Del(ctx, k) // self-heal corrupt
				r.hooks.SelfHeal(k, "value_decode")
				r.log.Debug("deleted corrupt live entry", Fields{"key": k})
				return zero, false, nil
			}
			r.hooks.LiveHit(k)
			return v, true, nil
		}
	}

	r.hooks.Miss(canonical)
	return zero, false, nil
}

// Start is phase two: an explicit asynchronous fetch for a key that missed.
// The returned task is awaited with Await and torn down with Cancel; a
// successful result is written to the live provider best-effort.
//
// Start on a NoKey sentinel fails immediately with ErrNoKey - the sentinel
// means no fetch should ever occur.
func (r *Reader[V]) Start(ctx context.Context, key Key) *Task[V] {
	canonical, err := Serialize(key)
	if err != nil {
		return failedTask[V](err)
	}
	if canonical == NoKey {
		return failedTask[V](ErrNoKey)
	}
	if r.fetch == nil {
		return failedTask[V](ErrNoFetch)
	}

	fctx, cancel := context.WithCancel(ctx)
	t := &Task[V]{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer cancel()
		defer close(t.done)
		v, err := r.fetch(fctx, key)
		if err != nil {
			t.err = err
			r.hooks.FetchError(canonical, err)
			r.log.Warn("fetch failed", Fields{"key": canonical, "err": err})
			return
		}
		t.v = v
		r.storeLive(fctx, canonical, v)
	}()
	return t
}

// Resolve is Lookup followed by an awaited fetch on miss. No fetch ever
// fires when the fallback table (or live provider) holds the key.
func (r *Reader[V]) Resolve(ctx context.Context, key Key) (V, error) {
	var zero V
	canonical, err := Serialize(key)
	if err != nil {
		return zero, err
	}
	if canonical == NoKey {
		return zero, ErrNoKey
	}
	v, ok, err := r.Lookup(ctx, key)
	if err != nil {
		return zero, err
	}
	if ok {
		return v, nil
	}
	return r.Start(ctx, key).Await(ctx)
}

// Invalidate removes the live entry for a key. The fallback table is
// immutable for the life of its rendering context and is left untouched.
func (r *Reader[V]) Invalidate(ctx context.Context, key Key) error {
	canonical, err := Serialize(key)
	if err != nil {
		return err
	}
	if canonical == NoKey || r.live == nil {
		return nil
	}
	return r.live.Del(ctx, r.liveKey(canonical))
}

func (r *Reader[V]) storeLive(ctx context.Context, canonical string, v V) {
	if r.live == nil {
		return
	}
	raw, err := r.codec.Encode(v)
	if err != nil {
		r.log.Warn("live encode failed", Fields{"key": canonical, "err": err})
		return
	}
	k := r.liveKey(canonical)
	ok, err := r.live.Set(ctx, k, raw, r.setCost(k, raw), r.liveTTL)
	if err != nil {
		r.log.Warn("live set failed", Fields{"key": k, "err": err})
		return
	}
	if !ok {
		r.hooks.ProviderSetRejected(k)
		r.log.Debug("live set rejected by provider (pressure)", Fields{"key": k})
	}
}

func (r *Reader[V]) liveKey(canonical string) string {
	// isolate by namespace
	return "live:" + r.ns + ":" + canonical
}
