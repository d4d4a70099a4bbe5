package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rng-ops/gossip/internal/event"
	"github.com/rng-ops/gossip/internal/feed"
	"github.com/rng-ops/gossip/internal/ratelog"
	"github.com/rng-ops/gossip/internal/tgcrypto"
	"github.com/rng-ops/gossip/internal/validate"
	"github.com/rng-ops/gossip/internal/worldcfg"
)

func newTestNode(t *testing.T) *Node {
	t.Helper()
	cfg := worldcfg.DefaultNodeConfig()
	cfg.World = worldcfg.WorldConfig{Phrase: "river otters drift quietly", RuleBundleHash: ""}
	n, err := NewNode(cfg, ratelog.Log{})
	require.NoError(t, err)
	return n
}

func TestSubmitAcceptsAndDeliversToSubscriber(t *testing.T) {
	n := newTestNode(t)
	pub, priv, err := tgcrypto.GenerateKey()
	require.NoError(t, err)

	sub := n.Subscribe(feed.Filter{})
	defer sub.Close()

	ev := &event.Event{
		World:     n.world,
		EpochID:   1,
		Emitter:   pub,
		ReplicaID: event.NewReplicaID(pub, n.world, 1),
		Sequence:  0,
		Body:      &event.ProbeReceipt{StatusCode: 200},
	}
	require.NoError(t, ev.Sign(priv))

	res, err := n.Submit(ev)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	d := <-sub.C()
	require.NotNil(t, d.Event)
}

func TestSubmitBehaviorAttestationUpdatesBelief(t *testing.T) {
	n := newTestNode(t)
	pub, priv, err := tgcrypto.GenerateKey()
	require.NoError(t, err)

	target := event.TargetRef{9}
	ev := &event.Event{
		World:     n.world,
		EpochID:   1,
		Emitter:   pub,
		ReplicaID: event.NewReplicaID(pub, n.world, 1),
		Sequence:  0,
		Body:      &event.BehaviorAttestation{Target: target, QualityPPM: 900_000, ConfidencePPM: 900_000},
	}
	require.NoError(t, ev.Sign(priv))

	_, err = n.Submit(ev)
	require.NoError(t, err)

	b, ok := n.Belief(target)
	require.True(t, ok)
	require.Equal(t, 1, b.SampleCount)
}

func TestSubmitDisputeLowersConflictingEmitterTrust(t *testing.T) {
	n := newTestNode(t)
	pub, priv, err := tgcrypto.GenerateKey()
	require.NoError(t, err)

	var emitterKey validate.EmitterKey
	copy(emitterKey[:], pub)

	target := event.TargetRef{7}
	attestation := &event.Event{
		World:     n.world,
		EpochID:   1,
		Emitter:   pub,
		ReplicaID: event.NewReplicaID(pub, n.world, 1),
		Sequence:  0,
		Body:      &event.BehaviorAttestation{Target: target, QualityPPM: 900_000, ConfidencePPM: 900_000},
	}
	require.NoError(t, attestation.Sign(priv))
	res, err := n.Submit(attestation)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	trustBefore := n.beliefs.TrustWeightPPM(emitterKey)

	disputerPub, disputerPriv, err := tgcrypto.GenerateKey()
	require.NoError(t, err)
	dispute := &event.Event{
		World:     n.world,
		EpochID:   1,
		Emitter:   disputerPub,
		ReplicaID: event.NewReplicaID(disputerPub, n.world, 1),
		Sequence:  0,
		Body:      &event.Dispute{ConflictingEventIDs: [][32]byte{res.ID}, Reason: "bad data"},
	}
	require.NoError(t, dispute.Sign(disputerPriv))
	_, err = n.Submit(dispute)
	require.NoError(t, err)

	trustAfter := n.beliefs.TrustWeightPPM(emitterKey)
	require.Less(t, trustAfter, trustBefore)
}
