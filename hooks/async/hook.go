// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/seedcache"
//	"github.com/unkn0wn-root/seedcache/codec"
//	asynchook "github.com/unkn0wn-root/seedcache/hooks/async"
//	"github.com/unkn0wn-root/seedcache/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    MissEvery:     10, // sample logs: ~every 10th miss
//	    SelfHealEvery: 1,  // log every self-heal
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	reader, _ := seedcache.NewReader[Article](seedcache.ReaderOptions[Article]{
//	    Namespace: "article",
//	    Codec:     codec.JSON[Article]{},
//	    Table:     tbl,
//	    Hooks:     hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/seedcache"
)

type Hooks struct {
	inner seedcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ seedcache.Hooks = (*Hooks)(nil)

func New(inner seedcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) SeedSkipped(reason string)      { h.try(func() { h.inner.SeedSkipped(reason) }) }
func (h *Hooks) FallbackHit(canonical string)   { h.try(func() { h.inner.FallbackHit(canonical) }) }
func (h *Hooks) LiveHit(k string)               { h.try(func() { h.inner.LiveHit(k) }) }
func (h *Hooks) Miss(canonical string)          { h.try(func() { h.inner.Miss(canonical) }) }
func (h *Hooks) SelfHeal(k, r string)           { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) ProviderSetRejected(k string)   { h.try(func() { h.inner.ProviderSetRejected(k) }) }
func (h *Hooks) FetchError(c string, err error) { h.try(func() { h.inner.FetchError(c, err) }) }
