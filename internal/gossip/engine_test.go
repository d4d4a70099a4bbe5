package gossip_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rng-ops/gossip/internal/clock"
	"github.com/rng-ops/gossip/internal/event"
	"github.com/rng-ops/gossip/internal/gossip"
	"github.com/rng-ops/gossip/internal/store"
	"github.com/rng-ops/gossip/internal/tgcrypto"
)

type fakeStore struct {
	mu        sync.Mutex
	events    map[event.ID]*event.Event
	frontier  clock.VersionVector
	byReplica map[event.ReplicaID]map[uint64]event.ID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:    make(map[event.ID]*event.Event),
		frontier:  clock.VersionVector{},
		byReplica: make(map[event.ReplicaID]map[uint64]event.ID),
	}
}

func (f *fakeStore) put(ev *event.Event) event.ID {
	id, _ := ev.ID()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[id] = ev
	f.frontier.Advance(ev.ReplicaID, ev.Sequence)
	m, ok := f.byReplica[ev.ReplicaID]
	if !ok {
		m = make(map[uint64]event.ID)
		f.byReplica[ev.ReplicaID] = m
	}
	m[ev.Sequence] = id
	return id
}

func (f *fakeStore) Admit(ev *event.Event) (store.AdmitResult, error) {
	id, err := ev.ID()
	if err != nil {
		return store.AdmitResult{}, err
	}
	f.mu.Lock()
	_, dup := f.events[id]
	f.mu.Unlock()
	if dup {
		return store.AdmitResult{ID: id, Duplicate: true, Accepted: true}, nil
	}
	f.put(ev)
	return store.AdmitResult{ID: id, Accepted: true}, nil
}

func (f *fakeStore) Get(id event.ID) (*event.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	return ev, ok
}

func (f *fakeStore) Frontier(event.WorldID) clock.VersionVector {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frontier.Clone()
}

func (f *fakeStore) CellScanIDs(event.WorldID, event.TerrainAddress) ([]event.ID, error) {
	return nil, nil
}

func (f *fakeStore) ReplicaRangeIDs(replica event.ReplicaID, lo, hi uint64) []event.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.byReplica[replica]
	var out []event.ID
	for seq := lo; seq < hi; seq++ {
		if id, ok := m[seq]; ok {
			out = append(out, id)
		}
	}
	return out
}

func TestRunCycleFetchesMissingRangeFromPeer(t *testing.T) {
	pub, priv, err := tgcrypto.GenerateKey()
	require.NoError(t, err)
	world := event.NewWorldID([]byte("w"), make([]byte, 32))
	replica := event.NewReplicaID(pub, world, 1)

	responderStore := newFakeStore()
	for seq := uint64(0); seq < 3; seq++ {
		e := &event.Event{World: world, EpochID: 1, Emitter: pub, ReplicaID: replica, Sequence: seq, Body: &event.ProbeReceipt{}}
		require.NoError(t, e.Sign(priv))
		responderStore.put(e)
	}

	initiatorStore := newFakeStore()

	initiatorConn, responderConn := net.Pipe()
	defer initiatorConn.Close()
	defer responderConn.Close()

	initiatorEngine := gossip.NewEngine(gossip.DefaultConfig(), initiatorStore, gossip.NewPeerTable(gossip.DefaultPeerConfig()))
	responderEngine := gossip.NewEngine(gossip.DefaultConfig(), responderStore, gossip.NewPeerTable(gossip.DefaultPeerConfig()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- responderEngine.ServeConn(ctx, responderConn) }()

	require.NoError(t, initiatorEngine.RunCycle(ctx, initiatorConn, world))
	require.NoError(t, <-serveErr)

	require.Equal(t, uint64(3), initiatorStore.Frontier(world).Get(replica))
	for seq := uint64(0); seq < 3; seq++ {
		id := responderStore.byReplica[replica][seq]
		_, ok := initiatorStore.Get(id)
		require.True(t, ok)
	}
}

func TestRunCycleIsNoOpWhenFrontiersAlreadyMatch(t *testing.T) {
	pub, priv, err := tgcrypto.GenerateKey()
	require.NoError(t, err)
	world := event.NewWorldID([]byte("w"), make([]byte, 32))
	replica := event.NewReplicaID(pub, world, 1)

	st := newFakeStore()
	e := &event.Event{World: world, EpochID: 1, Emitter: pub, ReplicaID: replica, Sequence: 0, Body: &event.ProbeReceipt{}}
	require.NoError(t, e.Sign(priv))
	st.put(e)

	initiatorConn, responderConn := net.Pipe()
	defer initiatorConn.Close()
	defer responderConn.Close()

	initiatorEngine := gossip.NewEngine(gossip.DefaultConfig(), st, gossip.NewPeerTable(gossip.DefaultPeerConfig()))
	responderEngine := gossip.NewEngine(gossip.DefaultConfig(), st, gossip.NewPeerTable(gossip.DefaultPeerConfig()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- responderEngine.ServeConn(ctx, responderConn) }()

	require.NoError(t, initiatorEngine.RunCycle(ctx, initiatorConn, world))

	// The responder never sees a DeltaRequest since both sides already
	// agree, so it should still be blocked reading stage two; closing the
	// initiator's end unblocks it with an EOF-shaped error instead of a
	// protocol violation.
	initiatorConn.Close()
	<-serveErr
}
