package validate

import (
	"sync"

	"golang.org/x/time/rate"
)

// EmitterKey is a raw ed25519 public key used as a rate-bucket map key.
type EmitterKey [32]byte

// RateDecision is the outcome of a single rate-limit check (§4.6 step 6,
// §7 RateLimited).
type RateDecision int

const (
	// RateAllow: a token was available, admit now.
	RateAllow RateDecision = iota
	// RateHold: no token, but the emitter's small held buffer has room;
	// the caller should retry once tokens replenish (§7: "Delay or
	// drop").
	RateHold
	// RateDrop: no token and the held buffer is full; the event is
	// dropped.
	RateDrop
)

// RateLimiterConfig mirrors the defaults of §4.6: capacity 64, refill 8/s,
// held buffer 16.
type RateLimiterConfig struct {
	Capacity       int
	RefillPerSec   float64
	HoldBufferSize int
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Capacity:       64,
		RefillPerSec:   8,
		HoldBufferSize: 16,
	}
}

// RateLimiter is a per-emitter token bucket (golang.org/x/time/rate) with a
// small held-event counter layered on top for the §4.6 "hold a few while
// tokens replenish" behavior.
type RateLimiter struct {
	cfg RateLimiterConfig

	mu      sync.Mutex
	buckets map[EmitterKey]*rate.Limiter
	held    map[EmitterKey]int
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		buckets: make(map[EmitterKey]*rate.Limiter),
		held:    make(map[EmitterKey]int),
	}
}

func (rl *RateLimiter) bucket(e EmitterKey) *rate.Limiter {
	b, ok := rl.buckets[e]
	if !ok {
		b = rate.NewLimiter(rate.Limit(rl.cfg.RefillPerSec), rl.cfg.Capacity)
		rl.buckets[e] = b
	}
	return b
}

// Check consumes a token for e if one is available, otherwise tries to hold
// the request, otherwise reports it should be dropped.
func (rl *RateLimiter) Check(e EmitterKey) RateDecision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.bucket(e).Allow() {
		return RateAllow
	}
	if rl.held[e] < rl.cfg.HoldBufferSize {
		rl.held[e]++
		return RateHold
	}
	return RateDrop
}

// Release lets a caller free a held slot once a previously-held event has
// finally been admitted or permanently abandoned.
func (rl *RateLimiter) Release(e EmitterKey) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.held[e] > 0 {
		rl.held[e]--
	}
}

// HoldBufferSize exposes the configured per-emitter held-buffer capacity so
// callers that queue held events themselves (store.Store) can bound their
// own queues the same way.
func (rl *RateLimiter) HoldBufferSize() int {
	return rl.cfg.HoldBufferSize
}
