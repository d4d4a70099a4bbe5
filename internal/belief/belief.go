package belief

import "github.com/rng-ops/gossip/internal/event"

// Belief is the per-TargetRef robust-statistics summary of §3.5: a
// trimmed, diversity-saturated, recency-decayed, trust-weighted estimate
// of a provider's observed quality. Every field is fixed-point
// parts-per-million.
type Belief struct {
	MuPPM           int64  // central estimate, 0..1_000_000
	SigmaPPM        int64  // dispersion of the accepted (post-trim) sample set
	TrendPPM        int64  // signed rate of change of Mu per epoch
	DisagreementPPM int64  // spread (max-min) of the accepted sample set
	SampleCount     int    // raw attestation count folded into this belief
	LastEpoch       uint64 // epoch this belief was last recomputed at
}

// Attestation is the minimal shape Recompute needs per sample: who
// reported it, when, and its BehaviorAttestation payload. Kept separate
// from event.Event so this package never needs to care about signatures
// or envelopes — only the quality-bearing content the event carried.
type Attestation struct {
	Emitter [32]byte
	Epoch   uint64
	Body    *event.BehaviorAttestation
}

type sample struct {
	emitter    [32]byte
	qualityPPM int64
	epoch      uint64
	cluster    clusterKey
}

type targetState struct {
	samples []sample
	belief  Belief
}
