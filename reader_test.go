package seedcache

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	pr "github.com/unkn0wn-root/seedcache/provider"
)

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	m map[string]memEntry
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.m[key] = memEntry{v: value, exp: exp}
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error { delete(p.m, key); return nil }
func (p *memProvider) Close(_ context.Context) error           { return nil }

// countingFetch returns the configured article and counts invocations.
func countingFetch(calls *atomic.Int64, val article) FetchFunc[article] {
	return func(_ context.Context, _ Key) (article, error) {
		calls.Add(1)
		return val, nil
	}
}

func newTestReader(t *testing.T, optsOpt func(*ReaderOptions[article])) *Reader[article] {
	t.Helper()
	opts := ReaderOptions[article]{
		Namespace: "article",
		Codec:     articleCodec,
	}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	r, err := NewReader[article](opts)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	return r
}

// TestFallbackHitSuppressesFetch: the seeded value is used as the initial
// value and no fetch fires.
func TestFallbackHitSuppressesFetch(t *testing.T) {
	ctx := context.Background()
	key := K(String("api"), String("article"), Int(1))
	want := article{ID: 1, Title: "X"}

	tbl := NewTable(TableOptions{})
	if err := Seed(tbl, articleCodec, key, want); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	tbl.Seal()

	var calls atomic.Int64
	r := newTestReader(t, func(o *ReaderOptions[article]) {
		o.Table = tbl
		o.Fetch = countingFetch(&calls, article{ID: 99, Title: "fetched"})
	})
	defer r.Close(ctx)

	got, err := r.Resolve(ctx, key)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != want {
		t.Fatalf("Resolve = %+v, want seeded %+v", got, want)
	}
	if n := calls.Load(); n != 0 {
		t.Fatalf("fallback hit must suppress fetch, fetch ran %d times", n)
	}
}

// TestMissTriggersFetchAndLivePopulation: an unseeded key fetches once,
// the result lands in the live provider, and the next lookup hits it.
func TestMissTriggersFetchAndLivePopulation(t *testing.T) {
	ctx := context.Background()
	seeded := K(String("api"), String("article"), Int(1))
	missed := K(String("api"), String("article"), Int(2))
	fetched := article{ID: 2, Title: "fetched"}

	tbl := NewTable(TableOptions{})
	if err := Seed(tbl, articleCodec, seeded, article{ID: 1, Title: "X"}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	tbl.Seal()

	mp := newMemProvider()
	var calls atomic.Int64
	r := newTestReader(t, func(o *ReaderOptions[article]) {
		o.Table = tbl
		o.Live = mp
		o.Fetch = countingFetch(&calls, fetched)
	})
	defer r.Close(ctx)

	got, err := r.Resolve(ctx, missed)
	if err != nil {
		t.Fatalf("Resolve miss: %v", err)
	}
	if got != fetched {
		t.Fatalf("Resolve = %+v, want %+v", got, fetched)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly one fetch, got %d", n)
	}

	// Fetched value must be stored under the namespaced live key.
	found := false
	for k := range mp.m {
		if strings.HasPrefix(k, "live:article:") {
			found = true
		}
	}
	if !found {
		t.Fatalf("fetched value was not written to the live provider")
	}

	// Second lookup comes from the live provider, no new fetch.
	got2, ok, err := r.Lookup(ctx, missed)
	if err != nil || !ok || got2 != fetched {
		t.Fatalf("Lookup after fetch: ok=%v err=%v got=%+v", ok, err, got2)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("live hit must not re-fetch, got %d fetches", n)
	}
}

// TestNoKeySentinel: the sentinel means no lookup and no fetch.
func TestNoKeySentinel(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	r := newTestReader(t, func(o *ReaderOptions[article]) {
		o.Fetch = countingFetch(&calls, article{ID: 1})
	})
	defer r.Close(ctx)

	if _, ok, err := r.Lookup(ctx, nil); err != nil || ok {
		t.Fatalf("Lookup nil key: ok=%v err=%v", ok, err)
	}
	if _, err := r.Resolve(ctx, nil); !errors.Is(err, ErrNoKey) {
		t.Fatalf("Resolve nil key: got %v, want ErrNoKey", err)
	}
	if _, err := r.Start(ctx, nil).Await(ctx); !errors.Is(err, ErrNoKey) {
		t.Fatalf("Start nil key: want ErrNoKey")
	}
	if n := calls.Load(); n != 0 {
		t.Fatalf("sentinel must never fetch, got %d", n)
	}
}

// TestStartCancel: tearing the task down cancels the in-flight fetch.
func TestStartCancel(t *testing.T) {
	ctx := context.Background()
	r := newTestReader(t, func(o *ReaderOptions[article]) {
		o.Fetch = func(ctx context.Context, _ Key) (article, error) {
			<-ctx.Done() // simulate a hung fetch
			return article{}, ctx.Err()
		}
	})
	defer r.Close(ctx)

	task := r.Start(ctx, K(String("slow")))
	task.Cancel()
	if _, err := task.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Await after Cancel: got %v, want context.Canceled", err)
	}
}

// TestAwaitContextExpiry: Await honors its own context independently of the
// fetch.
func TestAwaitContextExpiry(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	r := newTestReader(t, func(o *ReaderOptions[article]) {
		o.Fetch = func(_ context.Context, _ Key) (article, error) {
			<-release
			return article{ID: 7}, nil
		}
	})
	defer r.Close(ctx)

	task := r.Start(ctx, K(String("slow")))
	expired, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := task.Await(expired); !errors.Is(err, context.Canceled) {
		t.Fatalf("Await with expired ctx: got %v", err)
	}

	// The fetch itself was not canceled; it can still complete.
	close(release)
	got, err := task.Await(ctx)
	if err != nil || got.ID != 7 {
		t.Fatalf("Await after release: got=%+v err=%v", got, err)
	}
}

// TestSelfHealCorruptLive: undecodable live bytes are deleted on read and
// reported as a miss.
func TestSelfHealCorruptLive(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	r := newTestReader(t, func(o *ReaderOptions[article]) {
		o.Live = mp
	})
	defer r.Close(ctx)

	key := K(String("bad"))
	storageKey := r.liveKey(MustSerialize(key))
	if ok, err := mp.Set(ctx, storageKey, []byte("not-json"), 1, time.Minute); err != nil || !ok {
		t.Fatalf("inject corrupt: ok=%v err=%v", ok, err)
	}

	if _, ok, err := r.Lookup(ctx, key); err != nil || ok {
		t.Fatalf("Lookup on corrupt should miss, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := mp.Get(ctx, storageKey); ok {
		t.Fatalf("corrupt live entry was not deleted by self-heal")
	}
}

// TestInvalidate clears the live entry so the next resolve re-fetches.
func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	var calls atomic.Int64
	r := newTestReader(t, func(o *ReaderOptions[article]) {
		o.Live = mp
		o.Fetch = countingFetch(&calls, article{ID: 3, Title: "live"})
	})
	defer r.Close(ctx)

	key := K(String("api"), String("article"), Int(3))
	if _, err := r.Resolve(ctx, key); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := r.Invalidate(ctx, key); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, err := r.Lookup(ctx, key); err != nil || ok {
		t.Fatalf("Lookup after invalidate should miss, ok=%v err=%v", ok, err)
	}
	if _, err := r.Resolve(ctx, key); err != nil {
		t.Fatalf("Resolve after invalidate: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("expected re-fetch after invalidate, fetches=%d", n)
	}
}

// TestDisabledReader: a disabled reader always misses but still fetches.
func TestDisabledReader(t *testing.T) {
	ctx := context.Background()
	key := K(String("api"), String("article"), Int(1))

	tbl := NewTable(TableOptions{})
	if err := Seed(tbl, articleCodec, key, article{ID: 1, Title: "seeded"}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	tbl.Seal()

	var calls atomic.Int64
	r := newTestReader(t, func(o *ReaderOptions[article]) {
		o.Table = tbl
		o.Disabled = true
		o.Fetch = countingFetch(&calls, article{ID: 1, Title: "fetched"})
	})
	defer r.Close(ctx)

	if r.Enabled() {
		t.Fatalf("Enabled() should be false")
	}
	if _, ok, err := r.Lookup(ctx, key); err != nil || ok {
		t.Fatalf("disabled Lookup should miss, ok=%v err=%v", ok, err)
	}
	got, err := r.Resolve(ctx, key)
	if err != nil || got.Title != "fetched" {
		t.Fatalf("disabled Resolve: got=%+v err=%v", got, err)
	}
}

// TestNoFetchConfigured: misses without a fetch function fail explicitly.
func TestNoFetchConfigured(t *testing.T) {
	ctx := context.Background()
	r := newTestReader(t, nil)
	defer r.Close(ctx)

	if _, err := r.Resolve(ctx, K(String("x"))); !errors.Is(err, ErrNoFetch) {
		t.Fatalf("Resolve without fetch: got %v, want ErrNoFetch", err)
	}
}

// TestReaderValidation: required options are enforced.
func TestReaderValidation(t *testing.T) {
	if _, err := NewReader[article](ReaderOptions[article]{Codec: articleCodec}); err == nil {
		t.Fatalf("expected error for missing namespace")
	}
	if _, err := NewReader[article](ReaderOptions[article]{Namespace: "article"}); err == nil {
		t.Fatalf("expected error for missing codec")
	}
}
