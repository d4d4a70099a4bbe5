package event_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rng-ops/gossip/internal/event"
	"github.com/rng-ops/gossip/internal/tgcrypto"
)

func mustEvent(t *testing.T, seq uint64) (*event.Event, []byte) {
	t.Helper()
	pub, priv, err := tgcrypto.GenerateKey()
	require.NoError(t, err)

	world := event.NewWorldID([]byte("seed"), make([]byte, 32))
	epoch := uint64(100)
	e := &event.Event{
		World:     world,
		EpochID:   epoch,
		Emitter:   pub,
		ReplicaID: event.NewReplicaID(pub, world, epoch),
		Sequence:  seq,
		Terrain:   event.TerrainAddress{Region: 1, Chunk: 2, Cell: 3},
		Body:      &event.ProbeReceipt{StatusCode: 200},
	}
	require.NoError(t, e.Sign(priv))
	return e, priv
}

func TestEventRoundTripAndID(t *testing.T) {
	e, _ := mustEvent(t, 0)

	b, err := e.Canonical()
	require.NoError(t, err)

	decoded, id, err := event.FromCanonical(b)
	require.NoError(t, err)

	wantID, err := e.ID()
	require.NoError(t, err)
	require.Equal(t, wantID, id, "event_id must match at emit time and after reload")

	require.NoError(t, decoded.Validate())

	b2, err := decoded.Canonical()
	require.NoError(t, err)
	require.Equal(t, b, b2)
}

func TestEventValidateRejectsTamperedSignature(t *testing.T) {
	e, _ := mustEvent(t, 0)
	e.Signature[0] ^= 0xFF
	require.ErrorIs(t, e.Validate(), event.ErrBadSignature)
}

func TestEventValidateRejectsReplicaMismatch(t *testing.T) {
	e, _ := mustEvent(t, 0)
	e.EpochID++ // replica_id was derived for the old epoch
	require.ErrorIs(t, e.Validate(), event.ErrReplicaMismatch)
}

func TestDisputeBody(t *testing.T) {
	pub, priv, err := tgcrypto.GenerateKey()
	require.NoError(t, err)
	world := event.NewWorldID([]byte("seed"), make([]byte, 32))
	e := &event.Event{
		World:     world,
		EpochID:   1,
		Emitter:   pub,
		ReplicaID: event.NewReplicaID(pub, world, 1),
		Sequence:  0,
		Body:      &event.Dispute{ConflictingEventIDs: [][32]byte{{1}, {2}}, Reason: "conflicting receipts"},
	}
	require.NoError(t, e.Sign(priv))
	require.NoError(t, e.Validate())

	b, err := e.Canonical()
	require.NoError(t, err)
	decoded, _, err := event.FromCanonical(b)
	require.NoError(t, err)
	d, ok := decoded.Body.(*event.Dispute)
	require.True(t, ok)
	require.Len(t, d.ConflictingEventIDs, 2)
}
