package belief

import "github.com/rng-ops/gossip/internal/validate"

// Trust-update step sizes: each accepted contribution nudges trust toward
// full weight by trustStepPPM of the remaining gap; each dispute nudges it
// toward the exploration floor by disputeStepPPM of the remaining gap.
// Both are asymptotic (never overshoot, never fully reach the bound) so
// trust is always comparable across emitters regardless of history length.
const (
	trustStepPPM   = 20_000
	disputeStepPPM = 150_000
)

type trustState struct {
	weightPPM   int64
	disputedAt  uint64
	everDisputed bool
}

// trustOrNew returns the emitter's trust state, seeding newly-seen emitters
// at the midpoint between the exploration floor and full trust rather than
// at either extreme.
func (a *Aggregator) trustOrNew(emitter [32]byte) *trustState {
	st, ok := a.trust[emitter]
	if !ok {
		st = &trustState{weightPPM: (a.cfg.ExplorationFloorPPM + ppmScale) / 2}
		a.trust[emitter] = st
	}
	return st
}

// recordContribution nudges an emitter's trust weight up after one of its
// attestations clears the validation pipeline and is folded into a belief.
func (a *Aggregator) recordContribution(emitter [32]byte) {
	st := a.trustOrNew(emitter)
	gap := ppmScale - st.weightPPM
	st.weightPPM = clampPPM(st.weightPPM+gap*trustStepPPM/ppmScale, a.cfg.ExplorationFloorPPM, ppmScale)
}

// TrustWeightPPM implements validate.ReputationProvider.
func (a *Aggregator) TrustWeightPPM(emitter validate.EmitterKey) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.trustOrNew([32]byte(emitter)).weightPPM
}

// OnDispute nudges every named emitter's trust weight down toward the
// exploration floor and marks them disputed as of epoch. Per §9's open
// question resolution, the dispute is never explicitly closed: its effect
// on sample weight and belief uncertainty instead fades with the same
// recency-decay curve as everything else (disputeDampeningPPM,
// disputeSigmaMultiplierPPM below), so old disputes drain away on their
// own rather than needing a resolution event.
func (a *Aggregator) OnDispute(emitters [][32]byte, epoch uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range emitters {
		st := a.trustOrNew(e)
		gap := st.weightPPM - a.cfg.ExplorationFloorPPM
		st.weightPPM = clampPPM(st.weightPPM-gap*disputeStepPPM/ppmScale, a.cfg.ExplorationFloorPPM, ppmScale)
		st.disputedAt = epoch
		st.everDisputed = true
	}
}

// disputeDampeningPPM scales down a disputed emitter's sample weight; it
// starts at cfg.DisputeWeightPPM at the moment of dispute and relaxes back
// toward ppmScale (no dampening) as the dispute ages past the recency
// half-life.
func (a *Aggregator) disputeDampeningPPM(emitter [32]byte, atEpoch uint64) int64 {
	st, ok := a.trust[emitter]
	if !ok || !st.everDisputed {
		return ppmScale
	}
	delta := epochDelta(atEpoch, st.disputedAt)
	fresh := recencyWeightPPM(delta, a.cfg.HalfLifeEpochs)
	return a.cfg.DisputeWeightPPM + (ppmScale-a.cfg.DisputeWeightPPM)*(ppmScale-fresh)/ppmScale
}

// disputeSigmaMultiplierPPM is the sharpest (largest) sigma inflation
// factor among a target's currently-contributing emitters, applied so a
// disputed target reports a wider, more honest uncertainty band until the
// dispute fades (§4.7 "inflate sigma... until the dispute is resolved").
func (a *Aggregator) disputeSigmaMultiplierPPM(emitters []([32]byte), atEpoch uint64) int64 {
	mult := int64(ppmScale)
	for _, e := range emitters {
		st, ok := a.trust[e]
		if !ok || !st.everDisputed {
			continue
		}
		delta := epochDelta(atEpoch, st.disputedAt)
		fresh := recencyWeightPPM(delta, a.cfg.HalfLifeEpochs)
		m := ppmScale + (a.cfg.DisputeSigmaInflatePPM-ppmScale)*fresh/ppmScale
		if m > mult {
			mult = m
		}
	}
	return mult
}

func epochDelta(now, then uint64) uint64 {
	if now < then {
		return 0
	}
	return now - then
}
