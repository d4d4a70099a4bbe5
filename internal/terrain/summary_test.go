package terrain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rng-ops/gossip/internal/event"
	"github.com/rng-ops/gossip/internal/terrain"
)

func TestSketchMembership(t *testing.T) {
	sk, err := terrain.NewSketch(100, 0.01)
	require.NoError(t, err)

	var a, b [32]byte
	a[0] = 1
	b[0] = 2
	sk.Insert(a)
	require.True(t, sk.MaybeContains(a))
	_ = b // b was never inserted; false positives are possible but unlikely here
}

type fakeSource struct {
	ids []event.ID
}

func (f fakeSource) CellScanIDs(event.WorldID, event.TerrainAddress) ([]event.ID, error) {
	return f.ids, nil
}

func TestIndexOnAdmitUpdatesSummary(t *testing.T) {
	idx := terrain.NewIndex(terrain.DefaultSchedule())
	var world event.WorldID
	terr := event.TerrainAddress{Region: 1}

	var id event.ID
	id[0] = 7
	idx.OnAdmit(world, terr, id, 5, fakeSource{})

	sum := idx.Summary(world, terr)
	require.Equal(t, uint64(1), sum.EventCount)
	require.Equal(t, uint64(5), sum.LastUpdated)
	require.True(t, sum.MaybeContains(id))
}

func TestIndexRebuildIsDeterministic(t *testing.T) {
	idx := terrain.NewIndex(terrain.DefaultSchedule())
	var world event.WorldID
	terr := event.TerrainAddress{Region: 2}

	var ids []event.ID
	for i := 0; i < 10; i++ {
		var id event.ID
		id[0] = byte(i)
		ids = append(ids, id)
	}
	require.NoError(t, idx.Rebuild(world, terr, fakeSource{ids: ids}, 9))
	sum := idx.Summary(world, terr)
	require.Equal(t, uint64(10), sum.EventCount)
	for _, id := range ids {
		require.True(t, sum.MaybeContains(id))
	}
}
