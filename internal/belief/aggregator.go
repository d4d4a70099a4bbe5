package belief

import (
	"sort"
	"sync"

	"github.com/rng-ops/gossip/internal/event"
)

// Config holds the tunables of §4.7's aggregation formula.
type Config struct {
	// HalfLifeEpochs is the exponential recency-decay half-life.
	HalfLifeEpochs uint64
	// TrimFractionPPM is the fraction (in ppm, each tail) trimmed from the
	// weighted sample set before averaging. 200_000 = 20% per tail.
	TrimFractionPPM int64
	// ExplorationFloorPPM is the minimum trust weight any emitter can fall
	// to, preserving a chance for a low-trust emitter's evidence to still
	// occasionally count (§4.7 "5% exploration floor").
	ExplorationFloorPPM int64
	// DisputeWeightPPM is the sample-weight multiplier applied to a freshly
	// disputed emitter's contributions.
	DisputeWeightPPM int64
	// DisputeSigmaInflatePPM is the sigma multiplier applied to a target
	// while one of its contributors is freshly disputed.
	DisputeSigmaInflatePPM int64
}

func DefaultConfig() Config {
	return Config{
		HalfLifeEpochs:         2_016,
		TrimFractionPPM:        200_000,
		ExplorationFloorPPM:    50_000,
		DisputeWeightPPM:       250_000,
		DisputeSigmaInflatePPM: 2_000_000,
	}
}

// Aggregator maintains one Belief per TargetRef, updated incrementally as
// attestations are admitted and recomputable from scratch at any time; the
// two paths are required to agree exactly given the same sample set (§8.4,
// §8.5).
type Aggregator struct {
	cfg Config

	mu           sync.Mutex
	targets      map[event.TargetRef]*targetState
	trust        map[[32]byte]*trustState
	currentEpoch uint64
}

func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{
		cfg:     cfg,
		targets: make(map[event.TargetRef]*targetState),
		trust:   make(map[[32]byte]*trustState),
	}
}

func (a *Aggregator) targetOrNew(target event.TargetRef) *targetState {
	st, ok := a.targets[target]
	if !ok {
		st = &targetState{}
		a.targets[target] = st
	}
	return st
}

// OnAttestation folds one more sample into target's belief incrementally
// and returns the updated Belief.
func (a *Aggregator) OnAttestation(target event.TargetRef, emitter [32]byte, body *event.BehaviorAttestation, epoch uint64) Belief {
	a.mu.Lock()
	defer a.mu.Unlock()

	if epoch > a.currentEpoch {
		a.currentEpoch = epoch
	}
	a.recordContribution(emitter)

	st := a.targetOrNew(target)
	st.samples = append(st.samples, sample{
		emitter:    emitter,
		qualityPPM: body.QualityPPM,
		epoch:      epoch,
		cluster:    clusterKeyFor(body),
	})
	b := a.computeLocked(st, a.currentEpoch)
	st.belief = b
	return b
}

// Recompute rebuilds target's belief from the given attestation set,
// replacing whatever incremental history had accumulated. It must produce
// exactly the same Belief as the incremental path would for the same final
// sample set and epoch (§8.5 idempotence).
func (a *Aggregator) Recompute(target event.TargetRef, atts []Attestation, atEpoch uint64) Belief {
	a.mu.Lock()
	defer a.mu.Unlock()

	if atEpoch > a.currentEpoch {
		a.currentEpoch = atEpoch
	}

	samples := make([]sample, 0, len(atts))
	for _, at := range atts {
		samples = append(samples, sample{
			emitter:    at.Emitter,
			qualityPPM: at.Body.QualityPPM,
			epoch:      at.Epoch,
			cluster:    clusterKeyFor(at.Body),
		})
	}

	st := a.targetOrNew(target)
	st.samples = samples
	b := a.computeLocked(st, atEpoch)
	st.belief = b
	return b
}

// Belief returns the last computed belief for target, if any.
func (a *Aggregator) Belief(target event.TargetRef) (Belief, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.targets[target]
	if !ok {
		return Belief{}, false
	}
	return st.belief, true
}

type weighted struct {
	qualityPPM int64
	weightPPM  int64
	emitter    [32]byte
	epoch      uint64
}

// computeLocked runs the full §4.7 pipeline: per-sample weight (cluster
// saturation * recency decay * trust * dispute dampening), a weighted trim
// of the extreme tails, then the weighted mean/spread/trend over what
// remains. Callers must hold mu.
func (a *Aggregator) computeLocked(st *targetState, atEpoch uint64) Belief {
	if len(st.samples) == 0 {
		return Belief{LastEpoch: atEpoch}
	}

	clusterSize := make(map[clusterKey]int, len(st.samples))
	for _, s := range st.samples {
		clusterSize[s.cluster]++
	}

	items := make([]weighted, 0, len(st.samples))
	for _, s := range st.samples {
		delta := epochDelta(atEpoch, s.epoch)
		w := clusterWeightPPM(clusterSize[s.cluster])
		w = w * recencyWeightPPM(delta, a.cfg.HalfLifeEpochs) / ppmScale
		w = w * a.trustOrNew(s.emitter).weightPPM / ppmScale
		w = w * a.disputeDampeningPPM(s.emitter, atEpoch) / ppmScale
		if w < 0 {
			w = 0
		}
		items = append(items, weighted{qualityPPM: s.qualityPPM, weightPPM: w, emitter: s.emitter, epoch: s.epoch})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].qualityPPM < items[j].qualityPPM })

	var total int64
	for _, it := range items {
		total += it.weightPPM
	}

	kept, minQ, maxQ := weightedTrim(items, total, a.cfg.TrimFractionPPM)

	var weightSum, weightedSum int64
	contributors := make([]([32]byte), 0, len(kept))
	for _, it := range kept {
		weightSum += it.weightPPM
		weightedSum += it.qualityPPM * it.weightPPM
		contributors = append(contributors, it.emitter)
	}

	var mu int64
	if weightSum > 0 {
		mu = weightedSum / weightSum
	}

	var sigma int64
	if weightSum > 0 {
		var varSum int64
		for _, it := range kept {
			d := it.qualityPPM - mu
			varSum += (d * d / ppmScale) * it.weightPPM
		}
		variance := varSum / weightSum
		if variance > 0 {
			sigma = int64(isqrtU64(uint64(variance) * ppmScale))
		}
	}
	sigma = sigma * a.disputeSigmaMultiplierPPM(contributors, atEpoch) / ppmScale

	disagreement := maxQ - minQ
	if disagreement < 0 {
		disagreement = 0
	}

	trend := trendPPM(kept)

	return Belief{
		MuPPM:           clampPPM(mu, 0, ppmScale),
		SigmaPPM:        sigma,
		TrendPPM:        trend,
		DisagreementPPM: disagreement,
		SampleCount:     len(st.samples),
		LastEpoch:       atEpoch,
	}
}

// trendPPM derives the belief's rate of change purely from the surviving
// sample set: the weighted mean at the latest epoch present, against the
// weighted mean of every earlier epoch present, divided by the gap between
// them. It deliberately never reads any previously cached Belief, so a
// from-scratch Recompute over the same samples as an incremental run of
// OnAttestation calls produces the identical TrendPPM (§8 invariant 7's
// bit-identical-replay requirement covers every Belief field, not just
// MuPPM/SampleCount). A target with contributions from only one epoch has
// nothing to compare against and reports zero trend.
func trendPPM(kept []weighted) int64 {
	if len(kept) == 0 {
		return 0
	}
	var latestEpoch uint64
	for _, it := range kept {
		if it.epoch > latestEpoch {
			latestEpoch = it.epoch
		}
	}

	var latestWeight, latestWeighted int64
	var priorWeight, priorWeighted int64
	var priorEpoch uint64
	for _, it := range kept {
		if it.epoch == latestEpoch {
			latestWeight += it.weightPPM
			latestWeighted += it.qualityPPM * it.weightPPM
			continue
		}
		priorWeight += it.weightPPM
		priorWeighted += it.qualityPPM * it.weightPPM
		if it.epoch > priorEpoch {
			priorEpoch = it.epoch
		}
	}
	if latestWeight == 0 || priorWeight == 0 || latestEpoch <= priorEpoch {
		return 0
	}

	span := int64(latestEpoch - priorEpoch)
	return (latestWeighted/latestWeight - priorWeighted/priorWeight) / span
}

// weightedTrim drops the bottom and top trimFractionPPM (of total weight)
// tails from a quality-sorted weighted list, splitting a boundary item's
// weight fractionally when the cut falls inside it rather than between two
// items, so the trim responds to weight mass rather than raw item count
// (§4.7 Scenario F needs this: a large low-trust cluster must not be able
// to out-vote two high-trust outliers just by having many raw members).
func weightedTrim(items []weighted, total, trimFractionPPM int64) (kept []weighted, minQ, maxQ int64) {
	if total <= 0 {
		return nil, 0, 0
	}
	cut := total * trimFractionPPM / ppmScale

	lo, hi := 0, len(items)-1
	loRemove, hiRemove := cut, cut

	first := true
	for lo <= hi {
		w := items[lo].weightPPM
		if loRemove <= 0 {
			break
		}
		if w <= loRemove {
			loRemove -= w
			lo++
			continue
		}
		// Partially consume this item's weight from the bottom.
		items[lo].weightPPM = w - loRemove
		loRemove = 0
	}
	for hi >= lo {
		w := items[hi].weightPPM
		if hiRemove <= 0 {
			break
		}
		if w <= hiRemove {
			hiRemove -= w
			hi--
			continue
		}
		items[hi].weightPPM = w - hiRemove
		hiRemove = 0
	}

	for i := lo; i <= hi; i++ {
		if items[i].weightPPM <= 0 {
			continue
		}
		if first {
			minQ, maxQ = items[i].qualityPPM, items[i].qualityPPM
			first = false
		} else {
			if items[i].qualityPPM < minQ {
				minQ = items[i].qualityPPM
			}
			if items[i].qualityPPM > maxQ {
				maxQ = items[i].qualityPPM
			}
		}
		kept = append(kept, items[i])
	}
	return kept, minQ, maxQ
}
