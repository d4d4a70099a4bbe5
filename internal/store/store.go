package store

import (
	"bytes"
	"sort"
	"sync"

	"github.com/rng-ops/gossip/internal/clock"
	"github.com/rng-ops/gossip/internal/event"
	"github.com/rng-ops/gossip/internal/feed"
	"github.com/rng-ops/gossip/internal/terrain"
	"github.com/rng-ops/gossip/internal/validate"
)

// Config mirrors the retention knobs of §9's sealed-counter design note.
type Config struct {
	RetentionEpochs uint64
}

func DefaultConfig() Config {
	return Config{RetentionEpochs: 64}
}

type seqKey struct {
	world   event.WorldID
	emitter [32]byte
	epoch   uint64
	seq     uint64
}

type cellKey struct {
	world   event.WorldID
	terrain event.TerrainAddress
}

// Store is the in-memory reference implementation of the event log. All
// mutation happens behind mu, which serializes admission as the
// single-writer queue of §5; the read methods (Get, CellScanIDs,
// ReplicaRangeIDs, Frontier) take the same lock. Everything Admit calls that
// needs map access (LastEpoch, HasSequence, the internal indexers, and the
// cell scan handed to the terrain index) assumes that lock is already held
// rather than re-acquiring it, so Admit never deadlocks on its own call
// stack.
type Store struct {
	cfg Config

	pipeline *validate.Pipeline
	cells    *terrain.Index
	sealed   *clock.Sealed
	hub      *feed.Hub

	mu sync.Mutex

	events map[event.ID]*event.Event

	lastEpoch  map[validate.EmitterWorldKey]uint64
	knownEpoch map[validate.EmitterWorldKey]bool
	filled     map[seqKey]event.ID

	replicaSeen map[event.ReplicaID]map[uint64]bool
	frontiers   map[event.WorldID]clock.VersionVector
	replicaMeta map[event.ReplicaID]clock.ReplicaMeta

	cellOrder map[cellKey][]event.ID

	replicaSeqIndex map[event.ReplicaID]map[uint64]event.ID

	holdBufferSize int
	held           map[validate.EmitterKey][]*event.Event
}

func New(cfg Config, pipeline *validate.Pipeline, cells *terrain.Index) *Store {
	holdBufferSize := 0
	if pipeline != nil && pipeline.Rate != nil {
		holdBufferSize = pipeline.Rate.HoldBufferSize()
	}
	return &Store{
		cfg:         cfg,
		pipeline:    pipeline,
		cells:       cells,
		sealed:      clock.NewSealed(),
		hub:         feed.NewHub(0),
		events:      make(map[event.ID]*event.Event),
		lastEpoch:   make(map[validate.EmitterWorldKey]uint64),
		knownEpoch:  make(map[validate.EmitterWorldKey]bool),
		filled:      make(map[seqKey]event.ID),
		replicaSeen: make(map[event.ReplicaID]map[uint64]bool),
		frontiers:   make(map[event.WorldID]clock.VersionVector),
		replicaMeta: make(map[event.ReplicaID]clock.ReplicaMeta),
		cellOrder:   make(map[cellKey][]event.ID),

		replicaSeqIndex: make(map[event.ReplicaID]map[uint64]event.ID),

		holdBufferSize: holdBufferSize,
		held:           make(map[validate.EmitterKey][]*event.Event),
	}
}

// AdmitResult reports the fine-grained outcome of one Admit call.
type AdmitResult struct {
	ID        event.ID
	Duplicate bool
	Accepted  bool
	Reason    validate.Reason
}

// Admit runs ev through the validation pipeline and, if accepted, folds it
// into every index. Re-admitting an already-known event_id is a no-op that
// still reports success (§4.3: "admit is idempotent on duplicate
// event_id").
func (s *Store) Admit(ev *event.Event) (AdmitResult, error) {
	if s.pipeline == nil {
		return AdmitResult{}, ErrNilPipeline
	}

	id, err := ev.ID()
	if err != nil {
		return AdmitResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[id]; exists {
		return AdmitResult{ID: id, Duplicate: true, Accepted: true}, nil
	}

	result := s.pipeline.Check(ev, s)
	if !result.Passed {
		if result.Reason == validate.ReasonRateLimited && result.Rate == validate.RateHold {
			s.enqueueHeld(ev)
		}
		return AdmitResult{ID: id, Reason: result.Reason}, nil
	}

	s.index(ev, id)
	return AdmitResult{ID: id, Accepted: true, Reason: result.Reason}, nil
}

// enqueueHeld appends ev to its emitter's held buffer, matching the §4.6
// step 6 cap the rate limiter itself enforces before returning RateHold.
// Callers must hold mu.
func (s *Store) enqueueHeld(ev *event.Event) {
	var emitter validate.EmitterKey
	copy(emitter[:], ev.Emitter)
	if s.holdBufferSize > 0 && len(s.held[emitter]) >= s.holdBufferSize {
		return
	}
	s.held[emitter] = append(s.held[emitter], ev)
}

// RetryHeld re-attempts admission of one held event per emitter, the
// periodic "admitted as tokens replenish" half of §4.6 step 6. It frees
// the rate limiter's held slot before retrying so a replenished token can
// actually be consumed; an event that is still rate-limited on retry is
// re-queued by the same Admit path that queued it the first time. Callers
// drive this on a ticker (cmd/terraind's retryHeldLoop); RetryHeld itself
// never blocks waiting for tokens.
func (s *Store) RetryHeld() int {
	s.mu.Lock()
	var batch []*event.Event
	for emitter, q := range s.held {
		if len(q) == 0 {
			continue
		}
		batch = append(batch, q[0])
		if len(q) == 1 {
			delete(s.held, emitter)
		} else {
			s.held[emitter] = q[1:]
		}
	}
	s.mu.Unlock()

	admitted := 0
	for _, ev := range batch {
		if s.pipeline != nil && s.pipeline.Rate != nil {
			var emitter validate.EmitterKey
			copy(emitter[:], ev.Emitter)
			s.pipeline.Rate.Release(emitter)
		}
		res, err := s.Admit(ev)
		if err == nil && res.Accepted {
			admitted++
		}
	}
	return admitted
}

// index folds an accepted event into every in-memory index. Callers must
// hold mu.
func (s *Store) index(ev *event.Event, id event.ID) {
	s.events[id] = ev

	var emitter validate.EmitterKey
	copy(emitter[:], ev.Emitter)
	ewKey := validate.EmitterWorldKey{World: [32]byte(ev.World), Emitter: emitter}

	if !s.knownEpoch[ewKey] || ev.EpochID > s.lastEpoch[ewKey] {
		s.lastEpoch[ewKey] = ev.EpochID
		s.knownEpoch[ewKey] = true
	}
	s.filled[seqKey{world: ev.World, emitter: [32]byte(emitter), epoch: ev.EpochID, seq: ev.Sequence}] = id

	s.replicaMeta[ev.ReplicaID] = clock.ReplicaMeta{Emitter: clock.EmitterKey(emitter), EpochID: ev.EpochID}
	s.advanceFrontier(ev.World, ev.ReplicaID, ev.Sequence)

	seqIdx, ok := s.replicaSeqIndex[ev.ReplicaID]
	if !ok {
		seqIdx = make(map[uint64]event.ID)
		s.replicaSeqIndex[ev.ReplicaID] = seqIdx
	}
	seqIdx[ev.Sequence] = id

	ck := cellKey{world: ev.World, terrain: ev.Terrain}
	s.cellOrder[ck] = append(s.cellOrder[ck], id)
	if s.cells != nil {
		s.cells.OnAdmit(ev.World, ev.Terrain, id, ev.EpochID, lockedScan{s})
	}

	s.hub.Publish(ev.World, ev)
}

// Subscribe implements the producer API's subscribe operation (§6.2):
// admitted events matching filter are delivered to the returned
// Subscription in admission order, with a Lagged marker standing in for
// whatever a slow consumer's bounded queue had to drop.
func (s *Store) Subscribe(world event.WorldID, filter feed.Filter) *feed.Subscription {
	return s.hub.Subscribe(world, filter)
}

// advanceFrontier folds seq into replica's contiguous high-water mark for
// world, bounding memory by discarding sequence numbers once they have
// been folded into the mark (§3.3's gapless-prefix frontier). Callers must
// hold mu.
func (s *Store) advanceFrontier(world event.WorldID, replica event.ReplicaID, seq uint64) {
	seen, ok := s.replicaSeen[replica]
	if !ok {
		seen = make(map[uint64]bool)
		s.replicaSeen[replica] = seen
	}
	seen[seq] = true

	vv, ok := s.frontiers[world]
	if !ok {
		vv = clock.VersionVector{}
		s.frontiers[world] = vv
	}

	next := vv.Get(replica)
	for seen[next] {
		delete(seen, next)
		next++
	}
	if next > vv.Get(replica) {
		vv.Advance(replica, next-1)
	}
}

// LastEpoch implements validate.SequenceChecker. Only valid while called
// from within Admit's lock scope.
func (s *Store) LastEpoch(key validate.EmitterWorldKey) (uint64, bool) {
	epoch, ok := s.lastEpoch[key]
	return epoch, ok
}

// HasSequence implements validate.SequenceChecker. Only valid while called
// from within Admit's lock scope.
func (s *Store) HasSequence(key validate.EmitterWorldKey, epoch, seq uint64) bool {
	_, ok := s.filled[seqKey{world: event.WorldID(key.World), emitter: [32]byte(key.Emitter), epoch: epoch, seq: seq}]
	return ok
}

// Get returns a previously admitted event by id.
func (s *Store) Get(id event.ID) (*event.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	return ev, ok
}

// CellScanIDs implements terrain.EventSource: a scan of every event id
// admitted into one (world, TerrainAddress) cell, ordered by
// (replica_id, sequence) ascending regardless of admission order (§4.3),
// so two nodes that admitted the same events in different orders still
// produce an identical scan.
func (s *Store) CellScanIDs(world event.WorldID, terrain event.TerrainAddress) ([]event.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lockedScan{s}.CellScanIDs(world, terrain)
}

// lockedScan is the terrain.EventSource handed to the terrain index from
// inside Admit, where mu is already held, so it scans without locking.
type lockedScan struct{ s *Store }

func (l lockedScan) CellScanIDs(world event.WorldID, terrain event.TerrainAddress) ([]event.ID, error) {
	s := l.s
	ids := s.cellOrder[cellKey{world: world, terrain: terrain}]
	out := make([]event.ID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool {
		a, b := s.events[out[i]], s.events[out[j]]
		if cmp := bytes.Compare(a.ReplicaID[:], b.ReplicaID[:]); cmp != 0 {
			return cmp < 0
		}
		return a.Sequence < b.Sequence
	})
	return out, nil
}

// ReplicaRangeIDs returns, in ascending sequence order, the event ids
// admitted for replica between two frontier values lo and hi (see
// clock.VersionVector: each counts a gapless prefix), i.e. sequences lo
// through hi-1 — the exact shape the gossip engine's DeltaRequest/DeltaBatch
// exchange needs (§4.5 stage 2).
func (s *Store) ReplicaRangeIDs(replica event.ReplicaID, lo, hi uint64) []event.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	seqIdx := s.replicaSeqIndex[replica]
	if seqIdx == nil {
		return nil
	}
	var out []event.ID
	for seq := lo; seq < hi; seq++ {
		if id, ok := seqIdx[seq]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Frontier returns a snapshot of the causal frontier for world (§3.3).
func (s *Store) Frontier(world event.WorldID) clock.VersionVector {
	s.mu.Lock()
	defer s.mu.Unlock()
	vv, ok := s.frontiers[world]
	if !ok {
		return clock.VersionVector{}
	}
	return vv.Clone()
}

// Compact folds version-vector entries that have aged past the retention
// horizon into the per-emitter sealed counter (§9).
func (s *Store) Compact(world event.WorldID, currentEpoch uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	vv, ok := s.frontiers[world]
	if !ok {
		return 0
	}
	return s.sealed.Compact(vv, s.replicaMeta, currentEpoch, s.cfg.RetentionEpochs)
}
