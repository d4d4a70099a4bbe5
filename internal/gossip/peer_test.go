package gossip

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestWorkingSetExcludesBusyPeers(t *testing.T) {
	tbl := NewPeerTable(PeerConfig{NActive: 4, NRandom: 1, EvictAfter: time.Minute})
	now := time.Now()

	good := uuid.New()
	busy := uuid.New()
	tbl.Upsert(PeerInfo{ID: good, LatencyMS: 10, LastSeen: now})
	tbl.Upsert(PeerInfo{ID: busy, LatencyMS: 10, LastSeen: now})
	tbl.MarkBusy(busy, time.Minute, now)

	set := tbl.WorkingSet(now, rand.New(rand.NewSource(1)))
	var gotGood, gotBusy bool
	for _, p := range set {
		if p.ID == good {
			gotGood = true
		}
		if p.ID == busy {
			gotBusy = true
		}
	}
	require.True(t, gotGood)
	require.False(t, gotBusy)
}

func TestEvictStaleRemovesInactivePeers(t *testing.T) {
	tbl := NewPeerTable(PeerConfig{NActive: 4, NRandom: 1, EvictAfter: time.Minute})
	now := time.Now()

	stale := uuid.New()
	fresh := uuid.New()
	tbl.Upsert(PeerInfo{ID: stale, LastSeen: now.Add(-2 * time.Minute)})
	tbl.Upsert(PeerInfo{ID: fresh, LastSeen: now})

	evicted := tbl.EvictStale(now)
	require.Equal(t, []uuid.UUID{stale}, evicted)

	set := tbl.WorkingSet(now, rand.New(rand.NewSource(1)))
	require.Len(t, set, 1)
	require.Equal(t, fresh, set[0].ID)
}

func TestScorePrefersLowerLatencyAndHigherOverlap(t *testing.T) {
	near := PeerInfo{LatencyMS: 10, TerrainOverlapScore: 1, InterestOverlapScore: 1}
	far := PeerInfo{LatencyMS: 900, TerrainOverlapScore: 0, InterestOverlapScore: 0}
	require.Greater(t, score(near), score(far))
}
