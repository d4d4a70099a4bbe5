package gossip

import (
	"bufio"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rng-ops/gossip/internal/event"
)

func TestWriteReadMessageRoundTrips(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	var replica event.ReplicaID
	replica[0] = 7
	hello := &SyncHello{World: event.WorldID{1}, Frontier: []FrontierEntry{{Replica: replica, Seq: 9}}}

	done := make(chan error, 1)
	go func() { done <- writeMessage(a, hello) }()

	got, err := readMessage(bufio.NewReader(b))
	require.NoError(t, err)
	require.NoError(t, <-done)

	gotHello, ok := got.(*SyncHello)
	require.True(t, ok)
	require.Equal(t, hello.World, gotHello.World)
	require.Equal(t, hello.Frontier, gotHello.Frontier)
}

func TestReadMessageRejectsUnknownTag(t *testing.T) {
	_, err := newMessageForTag(0xFF)
	require.ErrorIs(t, err, ErrUnknownMessageTag)
}

func TestFrontierEntryRoundTripPreservesSequences(t *testing.T) {
	var r1, r2 event.ReplicaID
	r1[0] = 1
	r2[0] = 2
	vv := map[event.ReplicaID]uint64{r1: 3, r2: 5}

	entries := frontierToEntries(vv)
	require.Len(t, entries, 2)

	back := entriesToFrontier(entries)
	require.Equal(t, uint64(3), back.Get(r1))
	require.Equal(t, uint64(5), back.Get(r2))
}
