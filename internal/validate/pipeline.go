package validate

import (
	"encoding/binary"
	"errors"

	"github.com/rng-ops/gossip/internal/event"
	"github.com/rng-ops/gossip/internal/tgcrypto"
)

// EmitterWorldKey identifies one (emitter, world) pair's sequence history.
type EmitterWorldKey struct {
	World   [32]byte
	Emitter EmitterKey
}

// SequenceChecker is the store-scoped state the pipeline consults for
// §3.2's sequence and epoch monotonicity rules. The store is the only
// implementation; kept as an interface so this package never imports
// package store.
type SequenceChecker interface {
	// LastEpoch reports the highest epoch_id seen for key, if any.
	LastEpoch(key EmitterWorldKey) (epoch uint64, known bool)
	// HasSequence reports whether (epoch, seq) has already been admitted
	// for key under a *different* event_id than the one being checked
	// (exact duplicates are handled earlier by the store itself and never
	// reach the pipeline).
	HasSequence(key EmitterWorldKey, epoch, seq uint64) bool
}

// ReputationProvider exposes the trust weight (§4.7) the reputation gate
// uses to scale admission probability for low-trust emitters.
type ReputationProvider interface {
	// TrustWeightPPM returns a value in [50_000, 1_000_000]: the 5%
	// exploration floor up to full trust, in parts per million.
	TrustWeightPPM(emitter EmitterKey) int64
}

// Result records the fine-grained outcome of one Check call, useful for
// logging and for the store's gap-bookkeeping even when the overall
// decision is accept.
type Result struct {
	Reason     Reason
	Rate       RateDecision
	Passed     bool
	SequenceGap bool // accepted despite a detected gap (§3.2/§4.3)
}

// Pipeline runs the ordered §4.6 checks against one decoded, not-yet-known
// event. Well-formedness (step 1) and the identifier check (step 2) happen
// in event.FromCanonical/codec.VerifyCanonical before a caller even reaches
// this type; Check starts at step 3 (signature) through step 7
// (reputation).
type Pipeline struct {
	Rate *RateLimiter
	Rep  ReputationProvider
}

func NewPipeline(rate *RateLimiter, rep ReputationProvider) *Pipeline {
	return &Pipeline{Rate: rate, Rep: rep}
}

// Check runs steps 3-7 of §4.6 against ev, consulting seq for the
// store-scoped sequence history.
func (p *Pipeline) Check(ev *event.Event, seq SequenceChecker) Result {
	// Step 3 + 4: signature verification, replica/emitter binding.
	if err := ev.Validate(); err != nil {
		switch {
		case errors.Is(err, event.ErrBadSignature):
			return Result{Reason: ReasonBadSignature}
		case errors.Is(err, event.ErrReplicaMismatch):
			return Result{Reason: ReasonBadIdentifier}
		default:
			return Result{Reason: ReasonBadSignature}
		}
	}

	key := EmitterWorldKey{World: [32]byte(ev.World)}
	copy(key.Emitter[:], ev.Emitter)

	// Step 5: sequence rule (§3.2).
	gap := false
	if lastEpoch, known := seq.LastEpoch(key); known {
		if ev.EpochID < lastEpoch {
			return Result{Reason: ReasonEpochRegression}
		}
		if ev.EpochID == lastEpoch && seq.HasSequence(key, ev.EpochID, ev.Sequence) {
			// Same (emitter, world, epoch, sequence) already filled by a
			// different event_id: equivocation, not a benign duplicate.
			return Result{Reason: ReasonSequenceViolation}
		}
	}
	if ev.Sequence > 0 && !seq.HasSequence(key, ev.EpochID, ev.Sequence-1) {
		// s-1 has not been admitted for this (emitter, world, epoch): the
		// event is still accepted, with the gap flagged.
		gap = true
	}

	// Step 6: rate limit.
	rateDecision := p.Rate.Check(key.Emitter)
	if rateDecision != RateAllow {
		return Result{Reason: ReasonRateLimited, Rate: rateDecision}
	}

	// Step 7: reputation gate. Emitters at or above reputationFloorPPM pass
	// unconditionally; below it, admission is a draw that passes with
	// probability weight/1_000_000. The draw is a deterministic function of
	// the event's own content hash and the current trust weight, so two runs
	// against the same event and the same trust state make the same decision.
	weight := p.Rep.TrustWeightPPM(key.Emitter)
	if weight < 50_000 {
		weight = 50_000
	}
	if weight > 1_000_000 {
		weight = 1_000_000
	}
	if weight < reputationFloorPPM && !passesReputationDraw(ev, weight) {
		return Result{Reason: ReasonRateLimited, Rate: RateHold}
	}

	return Result{Reason: ReasonNone, Rate: RateAllow, Passed: true, SequenceGap: gap}
}

// reputationFloorPPM is the trust weight (half of full trust) below which
// the reputation gate scales admission probability.
const reputationFloorPPM = 500_000

// passesReputationDraw derives a pseudo-random draw in [0, 1_000_000) from
// the event's canonical bytes so the decision is reproducible without
// shared mutable RNG state.
func passesReputationDraw(ev *event.Event, weightPPM int64) bool {
	b, err := ev.CanonicalUnsigned()
	if err != nil {
		return false
	}
	digest := tgcrypto.H("reputation-draw", b)
	draw := binary.BigEndian.Uint64(digest[:8]) % 1_000_000
	return int64(draw) < weightPPM
}
