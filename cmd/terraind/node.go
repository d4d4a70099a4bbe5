package main

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/rng-ops/gossip/internal/belief"
	"github.com/rng-ops/gossip/internal/event"
	"github.com/rng-ops/gossip/internal/feed"
	"github.com/rng-ops/gossip/internal/gossip"
	"github.com/rng-ops/gossip/internal/ratelog"
	"github.com/rng-ops/gossip/internal/store"
	"github.com/rng-ops/gossip/internal/terrain"
	"github.com/rng-ops/gossip/internal/validate"
	"github.com/rng-ops/gossip/internal/worldcfg"
)

// Node is the producer-facing surface of one running terraind process
// (§6.2): submit, subscribe, belief, plus the background loops that drive
// gossip.
type Node struct {
	world event.WorldID
	cfg   worldcfg.NodeConfig
	log   ratelog.Log

	store   *store.Store
	beliefs *belief.Aggregator
	engine  *gossip.Engine
	peers   *gossip.PeerTable
	rnd     *rand.Rand

	peerAddr map[uuid.UUID]string
}

// NewNode wires every layer per SPEC_FULL.md §3: the rate limiter feeds the
// validation pipeline, the belief aggregator doubles as the pipeline's
// reputation provider, the pipeline and terrain index feed the store, and
// the store feeds the gossip engine its admit/get/frontier surface.
func NewNode(cfg worldcfg.NodeConfig, log ratelog.Log) (*Node, error) {
	ruleBundleHash, err := hex.DecodeString(cfg.World.RuleBundleHash)
	if err != nil {
		return nil, fmt.Errorf("decode rule_bundle_hash: %w", err)
	}
	world := cfg.World.ID([]byte(cfg.World.Phrase), ruleBundleHash)

	beliefs := belief.NewAggregator(cfg.Belief)
	rate := validate.NewRateLimiter(cfg.RateLimit)
	pipeline := validate.NewPipeline(rate, beliefs)
	cells := terrain.NewIndex(terrain.DefaultSchedule())
	st := store.New(cfg.Retention, pipeline, cells)

	peers := gossip.NewPeerTable(cfg.Peers)
	engine := gossip.NewEngine(cfg.Gossip, st, peers)

	n := &Node{
		world:    world,
		cfg:      cfg,
		log:      log,
		store:    st,
		beliefs:  beliefs,
		engine:   engine,
		peers:    peers,
		rnd:      rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(world[:8])))),
		peerAddr: make(map[uuid.UUID]string),
	}
	now := time.Now()
	for _, addr := range cfg.SeedPeers {
		id := peerIDForAddr(addr)
		n.peerAddr[id] = addr
		n.peers.Upsert(gossip.PeerInfo{ID: id, LastSeen: now})
	}
	return n, nil
}

// peerIDForAddr derives a stable PeerTable key from a dial address, so the
// same seed peer resolves to the same PeerInfo across gossip cycles without
// the table needing to know anything about network addresses itself.
func peerIDForAddr(addr string) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte(addr))
}

// Admission is the producer API's submit() result (§6.2).
type Admission struct {
	ID       event.ID
	Accepted bool
	Reason   validate.Reason
}

// Submit implements §6.2's submit(event) → Admission.
func (n *Node) Submit(ev *event.Event) (Admission, error) {
	res, err := n.store.Admit(ev)
	if err != nil {
		return Admission{}, err
	}
	if res.Accepted {
		n.feedBelief(ev)
	}
	return Admission{ID: res.ID, Accepted: res.Accepted, Reason: res.Reason}, nil
}

// feedBelief folds a freshly admitted event into the belief aggregator: a
// BehaviorAttestation contributes a sample, a Dispute down-weights its
// named conflicting emitters (§4.6 Dispute handling). Every other body
// type carries no belief-relevant signal.
func (n *Node) feedBelief(ev *event.Event) {
	switch body := ev.Body.(type) {
	case *event.BehaviorAttestation:
		var emitter [32]byte
		copy(emitter[:], ev.Emitter)
		n.beliefs.OnAttestation(body.Target, emitter, body, ev.EpochID)
	case *event.Dispute:
		n.applyDispute(body, ev.EpochID)
	}
}

// applyDispute resolves a Dispute's conflicting event ids to the emitters
// that produced them and nudges the aggregator's trust state for each.
// Conflicting ids this node hasn't admitted are skipped rather than
// blocking the rest of the dispute.
func (n *Node) applyDispute(d *event.Dispute, epoch uint64) {
	emitters := make([][32]byte, 0, len(d.ConflictingEventIDs))
	for _, rawID := range d.ConflictingEventIDs {
		conflicting, ok := n.store.Get(event.ID(rawID))
		if !ok {
			continue
		}
		var emitter [32]byte
		copy(emitter[:], conflicting.Emitter)
		emitters = append(emitters, emitter)
	}
	if len(emitters) > 0 {
		n.beliefs.OnDispute(emitters, epoch)
	}
}

// Subscribe implements §6.2's subscribe(world, filter) → stream<Event>.
func (n *Node) Subscribe(filter feed.Filter) *feed.Subscription {
	return n.store.Subscribe(n.world, filter)
}

// Belief implements §6.2's belief(world, TargetRef) → Belief.
func (n *Node) Belief(target event.TargetRef) (belief.Belief, bool) {
	return n.beliefs.Belief(target)
}

// Run starts the inbound listener and the outbound gossip loop, blocking
// until ctx is cancelled.
func (n *Node) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- n.serve(ctx)
	}()
	go n.gossipLoop(ctx)
	go n.retryHeldLoop(ctx)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// retryHeldLoop periodically drains the store's rate-limit held buffer
// (§4.6 step 6), admitting whatever events a token refill now covers.
func (n *Node) retryHeldLoop(ctx context.Context) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.store.RetryHeld()
		}
	}
}

func (n *Node) serve(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", n.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", n.cfg.ListenAddr, err)
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go func() {
			if err := n.engine.ServeConn(ctx, conn); err != nil {
				n.log.Debugf("sync session from %s ended: %v", conn.RemoteAddr(), err)
			}
		}()
	}
}

func (n *Node) gossipLoop(ctx context.Context) {
	interval := n.cfg.Gossip.Interval
	if interval <= 0 {
		interval = gossip.DefaultConfig().Interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			n.peers.EvictStale(now)
			for _, p := range n.peers.WorkingSet(now, n.rnd) {
				addr, ok := n.peerAddr[p.ID]
				if !ok {
					continue
				}
				go n.cycleOnce(ctx, p.ID, addr)
			}
		}
	}
}

func (n *Node) cycleOnce(ctx context.Context, peerID uuid.UUID, addr string) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		n.log.Debugf("dial peer %s failed: %v", addr, err)
		return
	}
	defer conn.Close()

	now := time.Now()
	if err := n.engine.RunCycle(ctx, conn, n.world); err != nil {
		var saturated *gossip.PeerSaturatedError
		if errors.As(err, &saturated) {
			n.peers.MarkBusy(peerID, saturated.RetryAfter, now)
		}
		n.log.Debugf("gossip cycle with %s failed: %v", addr, err)
		return
	}
	n.peers.Upsert(gossip.PeerInfo{ID: peerID, LastSeen: now})
}
