package gossip

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/rng-ops/gossip/internal/clock"
	"github.com/rng-ops/gossip/internal/event"
	"github.com/rng-ops/gossip/internal/store"
)

// Config mirrors §4.5/§5's defaults: T_gossip, the per-cycle event cap,
// and handshake/session limits.
type Config struct {
	Interval              time.Duration // T_gossip, default 30s
	MaxEventsPerDelta      uint32        // default 256
	HandshakeTimeout       time.Duration // default 10s per stage
	MaxConcurrentSessions int           // responder-side saturation point
	BatchSize              int           // events per DeltaBatch frame
}

func DefaultConfig() Config {
	return Config{
		Interval:              30 * time.Second,
		MaxEventsPerDelta:      256,
		HandshakeTimeout:       10 * time.Second,
		MaxConcurrentSessions: 32,
		BatchSize:              32,
	}
}

// Store is the event-store surface the engine needs; package store's
// *Store satisfies it. Kept as an interface so this package's tests can
// substitute a fake.
type Store interface {
	Admit(ev *event.Event) (store.AdmitResult, error)
	Get(id event.ID) (*event.Event, bool)
	Frontier(world event.WorldID) clock.VersionVector
	CellScanIDs(world event.WorldID, terrain event.TerrainAddress) ([]event.ID, error)
	ReplicaRangeIDs(replica event.ReplicaID, lo, hi uint64) []event.ID
}

// Engine drives the three-stage sync protocol of §4.5 over per-peer
// streams, with a semaphore bounding concurrent responder sessions as the
// saturation signal for SyncBusy (§4.5 backpressure).
type Engine struct {
	cfg   Config
	store Store
	peers *PeerTable
	sem   chan struct{}
}

func NewEngine(cfg Config, st Store, peers *PeerTable) *Engine {
	return &Engine{cfg: cfg, store: st, peers: peers, sem: make(chan struct{}, cfg.MaxConcurrentSessions)}
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

func setStageDeadline(conn io.ReadWriteCloser, d time.Duration) {
	if d <= 0 {
		return
	}
	if dl, ok := conn.(deadliner); ok {
		_ = dl.SetDeadline(time.Now().Add(d))
	}
}

// watchCancellation closes conn if ctx is cancelled before the returned
// stop func runs, implementing §5's "all network-bound operations are
// cancellable at await points" without requiring every read/write to
// thread ctx through manually.
func watchCancellation(ctx context.Context, conn io.Closer) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// missingRanges computes, for every replica the peer's frontier mentions,
// the (local, peer] range of frontier values this side is missing, i.e.
// sequences local through peer-1 (§4.5 stage 2).
func missingRanges(local, peer clock.VersionVector) []ReplicaRange {
	var out []ReplicaRange
	for _, r := range peer.Replicas() {
		lo := local.Get(r)
		hi := peer.Get(r)
		if hi > lo {
			out = append(out, ReplicaRange{Replica: r, Lo: lo, Hi: hi})
		}
	}
	return out
}

// RunCycle performs one initiator-side sync against a single peer over
// conn, for one world: frontier exchange followed by a delta fetch.
// Admitted events are durable even if the cycle is aborted partway (§4.5
// cancellation); the frontier only ever advances.
func (e *Engine) RunCycle(ctx context.Context, conn io.ReadWriteCloser, world event.WorldID) error {
	stop := watchCancellation(ctx, conn)
	defer stop()

	r := bufio.NewReader(conn)

	localFrontier := e.store.Frontier(world)
	setStageDeadline(conn, e.cfg.HandshakeTimeout)
	if err := writeMessage(conn, &SyncHello{World: world, Frontier: frontierToEntries(localFrontier)}); err != nil {
		return err
	}

	msg, err := readMessage(r)
	if err != nil {
		return err
	}
	peerHello, ok := msg.(*SyncHello)
	if !ok {
		return ErrUnknownMessageTag
	}
	peerFrontier := entriesToFrontier(peerHello.Frontier)

	ranges := missingRanges(localFrontier, peerFrontier)
	if len(ranges) == 0 {
		return nil
	}

	setStageDeadline(conn, e.cfg.HandshakeTimeout)
	req := &DeltaRequest{World: world, Ranges: ranges, MaxEvents: e.cfg.MaxEventsPerDelta}
	if err := writeMessage(conn, req); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := readMessage(r)
		if err != nil {
			return err
		}
		switch m := msg.(type) {
		case *SyncBusy:
			return &PeerSaturatedError{RetryAfter: time.Duration(m.RetryAfterMS) * time.Millisecond}
		case *SyncAbort:
			return ErrSyncAborted
		case *DeltaBatch:
			e.admitBatch(m)
			if m.EOB {
				return nil
			}
		default:
			return ErrUnknownMessageTag
		}
	}
}

// admitBatch folds a DeltaBatch's events into the store, dropping
// individually malformed events without aborting the batch (§7:
// MalformedEncoding is not attributed to the original signer since a relay
// may have corrupted the bytes).
func (e *Engine) admitBatch(b *DeltaBatch) {
	for _, raw := range b.Events {
		ev, _, err := event.FromCanonical(raw)
		if err != nil {
			continue
		}
		_, _ = e.store.Admit(ev)
	}
}

// ServeConn handles one inbound sync session as the responder, replying
// SyncBusy immediately if the session concurrency cap is reached (§4.5
// backpressure).
func (e *Engine) ServeConn(ctx context.Context, conn io.ReadWriteCloser) error {
	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	default:
		_ = writeMessage(conn, &SyncBusy{RetryAfterMS: uint32(e.cfg.Interval.Milliseconds())})
		return ErrPeerSaturated
	}

	stop := watchCancellation(ctx, conn)
	defer stop()

	r := bufio.NewReader(conn)

	setStageDeadline(conn, e.cfg.HandshakeTimeout)
	msg, err := readMessage(r)
	if err != nil {
		return err
	}
	hello, ok := msg.(*SyncHello)
	if !ok {
		return ErrUnknownMessageTag
	}

	localFrontier := e.store.Frontier(hello.World)
	if err := writeMessage(conn, &SyncHello{World: hello.World, Frontier: frontierToEntries(localFrontier)}); err != nil {
		return err
	}

	setStageDeadline(conn, e.cfg.HandshakeTimeout)
	msg, err = readMessage(r)
	if err != nil {
		return err
	}
	req, ok := msg.(*DeltaRequest)
	if !ok {
		return ErrUnknownMessageTag
	}

	return e.serveDelta(conn, req)
}

// serveDelta streams the requested ranges back in (replica_id, sequence)
// order, batched at cfg.BatchSize and capped at req.MaxEvents (§4.5 stage
// 2, §4.3's ordering guarantee).
func (e *Engine) serveDelta(conn io.Writer, req *DeltaRequest) error {
	var batch [][]byte
	var sent uint32

	flush := func(eob bool) error {
		err := writeMessage(conn, &DeltaBatch{World: req.World, Events: batch, EOB: eob})
		batch = nil
		return err
	}

	for _, rng := range req.Ranges {
		for _, id := range e.store.ReplicaRangeIDs(rng.Replica, rng.Lo, rng.Hi) {
			if sent >= req.MaxEvents {
				return flush(true)
			}
			ev, ok := e.store.Get(id)
			if !ok {
				continue
			}
			raw, err := ev.Canonical()
			if err != nil {
				continue
			}
			batch = append(batch, raw)
			sent++
			if len(batch) >= e.cfg.BatchSize {
				if err := flush(false); err != nil {
					return err
				}
			}
		}
	}
	return flush(true)
}

// OfferCell drives the initiator side of an anti-entropy sweep (§4.5 stage
// 3) for one cell: offer ids, read back which ones the peer wants, send
// just those.
func (e *Engine) OfferCell(conn io.ReadWriter, r *bufio.Reader, world event.WorldID, terrain event.TerrainAddress) error {
	ids, err := e.store.CellScanIDs(world, terrain)
	if err != nil {
		return err
	}
	if err := writeMessage(conn, &EventOffer{World: world, EventIDs: ids}); err != nil {
		return err
	}

	msg, err := readMessage(r)
	if err != nil {
		return err
	}
	want, ok := msg.(*EventWant)
	if !ok {
		return ErrUnknownMessageTag
	}

	var toSend [][]byte
	for i, id := range ids {
		if i >= len(want.Bitmap) || !want.Bitmap[i] {
			continue
		}
		ev, ok := e.store.Get(id)
		if !ok {
			continue
		}
		raw, err := ev.Canonical()
		if err != nil {
			continue
		}
		toSend = append(toSend, raw)
	}
	return writeMessage(conn, &DeltaBatch{World: world, Events: toSend, EOB: true})
}

// RespondAntiEntropy is the responder side of one sweep round: read an
// offer, reply with which ids are actually unknown, admit whatever comes
// back. Bloom-sketch false positives are tolerated (§4.5): an offered id
// the responder already has is simply not wanted.
func (e *Engine) RespondAntiEntropy(conn io.ReadWriter, r *bufio.Reader) error {
	msg, err := readMessage(r)
	if err != nil {
		return err
	}
	offer, ok := msg.(*EventOffer)
	if !ok {
		return ErrUnknownMessageTag
	}

	bitmap := make([]bool, len(offer.EventIDs))
	for i, id := range offer.EventIDs {
		_, known := e.store.Get(id)
		bitmap[i] = !known
	}
	if err := writeMessage(conn, &EventWant{World: offer.World, Bitmap: bitmap}); err != nil {
		return err
	}

	msg, err = readMessage(r)
	if err != nil {
		return err
	}
	batch, ok := msg.(*DeltaBatch)
	if !ok {
		return ErrUnknownMessageTag
	}
	e.admitBatch(batch)
	return nil
}
