package feed_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rng-ops/gossip/internal/event"
	"github.com/rng-ops/gossip/internal/feed"
)

func mkEvent(terrain event.TerrainAddress, target event.TargetRef) *event.Event {
	return &event.Event{
		Terrain: terrain,
		Body:    &event.ProbeReceipt{Target: target},
	}
}

func TestSubscribeDeliversMatchingEvents(t *testing.T) {
	h := feed.NewHub(4)
	world := event.WorldID{1}
	want := event.TerrainAddress{Region: 1}
	sub := h.Subscribe(world, feed.Filter{Terrain: &want})
	defer sub.Close()

	h.Publish(world, mkEvent(want, event.TargetRef{}))
	h.Publish(world, mkEvent(event.TerrainAddress{Region: 2}, event.TargetRef{}))

	d := <-sub.C()
	require.NotNil(t, d.Event)
	require.Equal(t, want, d.Event.Terrain)

	select {
	case d2 := <-sub.C():
		t.Fatalf("unexpected second delivery: %+v", d2)
	default:
	}
}

func TestSubscribeReportsLaggedAfterOverflow(t *testing.T) {
	h := feed.NewHub(1)
	world := event.WorldID{1}
	sub := h.Subscribe(world, feed.Filter{})
	defer sub.Close()

	for i := 0; i < 4; i++ {
		h.Publish(world, mkEvent(event.TerrainAddress{}, event.TargetRef{}))
	}

	first := <-sub.C()
	require.NotNil(t, first.Event)

	h.Publish(world, mkEvent(event.TerrainAddress{}, event.TargetRef{}))
	second := <-sub.C()
	require.Greater(t, second.Lagged, uint64(0))
}

func TestCloseStopsFurtherDeliveries(t *testing.T) {
	h := feed.NewHub(4)
	world := event.WorldID{1}
	sub := h.Subscribe(world, feed.Filter{})
	sub.Close()

	h.Publish(world, mkEvent(event.TerrainAddress{}, event.TargetRef{}))

	_, ok := <-sub.C()
	require.False(t, ok)
}
