package belief_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rng-ops/gossip/internal/belief"
	"github.com/rng-ops/gossip/internal/event"
	"github.com/rng-ops/gossip/internal/validate"
)

func att(emitterByte byte, quality int64, prefix byte) belief.Attestation {
	var emitter [32]byte
	emitter[0] = emitterByte
	return belief.Attestation{
		Emitter: emitter,
		Epoch:   100,
		Body: &event.BehaviorAttestation{
			QualityPPM:    quality,
			NetworkPrefix: []byte{prefix},
		},
	}
}

func TestRecomputeAgreesWithIncrementalAppend(t *testing.T) {
	var target event.TargetRef
	target[0] = 1

	atts := []belief.Attestation{
		att(1, 900_000, 1),
		att(2, 920_000, 2),
		att(3, 880_000, 3),
	}

	full := belief.NewAggregator(belief.DefaultConfig())
	bFull := full.Recompute(target, atts, 100)

	incremental := belief.NewAggregator(belief.DefaultConfig())
	var last belief.Belief
	for _, a := range atts {
		last = incremental.OnAttestation(target, a.Emitter, a.Body, a.Epoch)
	}

	require.Equal(t, bFull, last, "Recompute and incremental OnAttestation must agree on every Belief field")
}

// TestRecomputeAgreesWithIncrementalAppendAcrossEpochs exercises the same
// agreement with samples spanning two epochs, so TrendPPM is actually
// nonzero and not just trivially equal because both paths returned 0 (§8
// invariant 7: two nodes reaching the same sample set via different call
// paths must compute bit-identical belief fields, including TrendPPM).
func TestRecomputeAgreesWithIncrementalAppendAcrossEpochs(t *testing.T) {
	var target event.TargetRef
	target[0] = 4

	atts := []belief.Attestation{
		{Emitter: [32]byte{1}, Epoch: 100, Body: &event.BehaviorAttestation{QualityPPM: 800_000, NetworkPrefix: []byte{1}}},
		{Emitter: [32]byte{2}, Epoch: 100, Body: &event.BehaviorAttestation{QualityPPM: 820_000, NetworkPrefix: []byte{2}}},
		{Emitter: [32]byte{3}, Epoch: 102, Body: &event.BehaviorAttestation{QualityPPM: 900_000, NetworkPrefix: []byte{3}}},
		{Emitter: [32]byte{4}, Epoch: 102, Body: &event.BehaviorAttestation{QualityPPM: 910_000, NetworkPrefix: []byte{4}}},
	}

	full := belief.NewAggregator(belief.DefaultConfig())
	bFull := full.Recompute(target, atts, 102)

	incremental := belief.NewAggregator(belief.DefaultConfig())
	var last belief.Belief
	for _, a := range atts {
		last = incremental.OnAttestation(target, a.Emitter, a.Body, a.Epoch)
	}

	require.Equal(t, bFull, last)
	require.NotZero(t, last.TrendPPM, "samples spanning two epochs should produce a nonzero trend")
}

func TestTrimmedMeanResistsHighOutlier(t *testing.T) {
	var target event.TargetRef
	target[0] = 2

	atts := []belief.Attestation{
		att(1, 200_000, 1),
		att(2, 210_000, 2),
		att(3, 205_000, 3),
		att(4, 195_000, 4),
		att(5, 990_000, 5), // lone adversarial high outlier
	}

	a := belief.NewAggregator(belief.DefaultConfig())
	b := a.Recompute(target, atts, 100)

	require.Less(t, b.MuPPM, int64(300_000), "trimmed mean should resist a single high outlier")
}

func TestCorrelationClusterSaturatesSybilInfluence(t *testing.T) {
	var target event.TargetRef
	target[0] = 3

	var atts []belief.Attestation
	for i := byte(0); i < 20; i++ {
		atts = append(atts, att(i+10, 200_000, 0)) // same NetworkPrefix: one cluster
	}
	atts = append(atts, att(1, 800_000, 1))
	atts = append(atts, att(2, 800_000, 2))

	a := belief.NewAggregator(belief.DefaultConfig())
	b := a.Recompute(target, atts, 100)

	require.Greater(t, b.MuPPM, int64(200_000), "a 20-member sybil cluster must not fully dominate two diverse honest reports")
}

func TestOnDisputeLowersTrustWeight(t *testing.T) {
	var emitter [32]byte
	emitter[0] = 9

	a := belief.NewAggregator(belief.DefaultConfig())
	before := a.TrustWeightPPM(validate.EmitterKey(emitter))
	a.OnDispute([][32]byte{emitter}, 100)
	after := a.TrustWeightPPM(validate.EmitterKey(emitter))
	require.Less(t, after, before)
}
