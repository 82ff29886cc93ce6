package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/seedcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	MissEvery     uint64
	SelfHealEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	missCtr     atomic.Uint64
	selfHealCtr atomic.Uint64
}

var _ seedcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) SeedSkipped(reason string) {
	if h.l == nil {
		return
	}
	h.l.Debug("seedcache.seed_skipped",
		"reason", reason)
}

func (h *Hooks) FallbackHit(canonical string) {
	if h.l == nil {
		return
	}
	h.l.Debug("seedcache.fallback_hit",
		"key", h.redact(canonical))
}

func (h *Hooks) LiveHit(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Debug("seedcache.live_hit",
		"key", h.redact(storageKey))
}

func (h *Hooks) Miss(canonical string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("seedcache.miss",
		"key", h.redact(canonical))
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("seedcache.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("seedcache.provider_set_rejected",
		"key", h.redact(storageKey))
}

func (h *Hooks) FetchError(canonical string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("seedcache.fetch_error",
		"key", h.redact(canonical),
		"err", err)
}
