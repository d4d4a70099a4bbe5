package terrain

import (
	"sync"

	"github.com/rng-ops/gossip/internal/event"
)

// Schedule is the (C, p) sizing schedule of §4.4: initial capacity and
// target false-positive rate, doubling capacity each time a cell's count
// exceeds it.
type Schedule struct {
	InitialCapacity uint64
	TargetFPR       float64
}

func DefaultSchedule() Schedule {
	return Schedule{InitialCapacity: 1024, TargetFPR: 0.01}
}

// Summary is the per-cell state of §3.4.
type Summary struct {
	EventCount  uint64
	LastUpdated uint64 // epoch of most recent admit
	sketch      *Sketch
}

// MaybeContains reports whether id might already be a member of this
// cell's event set.
func (s *Summary) MaybeContains(id event.ID) bool {
	if s.sketch == nil {
		return false
	}
	return s.sketch.MaybeContains([32]byte(id))
}

type cellKey struct {
	world   event.WorldID
	terrain event.TerrainAddress
}

// Index holds one Summary per (world, TerrainAddress) cell, each guarded
// by its own lock so unrelated cells progress in parallel (§5: "Cell
// summaries and beliefs are updated under per-key locks derived from the
// event's terrain/target").
type Index struct {
	schedule Schedule

	mu    sync.RWMutex
	cells map[cellKey]*cellEntry
}

type cellEntry struct {
	mu      sync.Mutex
	summary Summary
}

func NewIndex(schedule Schedule) *Index {
	return &Index{schedule: schedule, cells: make(map[cellKey]*cellEntry)}
}

func (x *Index) entry(world event.WorldID, terrain event.TerrainAddress) *cellEntry {
	key := cellKey{world: world, terrain: terrain}

	x.mu.RLock()
	e, ok := x.cells[key]
	x.mu.RUnlock()
	if ok {
		return e
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if e, ok = x.cells[key]; ok {
		return e
	}
	e = &cellEntry{}
	x.cells[key] = e
	return e
}

// OnAdmit updates event_count, inserts id into the membership sketch, and
// bumps last_updated, rebuilding the sketch at double capacity once the
// prior one is exhausted (§4.4).
func (x *Index) OnAdmit(world event.WorldID, terrain event.TerrainAddress, id event.ID, epoch uint64, rebuildFrom EventSource) {
	e := x.entry(world, terrain)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.summary.sketch == nil {
		sk, _ := NewSketch(x.schedule.InitialCapacity, x.schedule.TargetFPR)
		e.summary.sketch = sk
	} else if e.summary.sketch.Inserted() >= e.summary.sketch.Capacity() {
		sk, _ := NewSketch(e.summary.sketch.Capacity()*2, x.schedule.TargetFPR)
		e.summary.sketch = sk
		if rebuildFrom != nil {
			reinsertAll(e.summary.sketch, rebuildFrom, world, terrain)
		}
	}

	e.summary.sketch.Insert([32]byte(id))
	e.summary.EventCount++
	if epoch > e.summary.LastUpdated {
		e.summary.LastUpdated = epoch
	}
}

// Summary returns a snapshot of the current summary for a cell.
func (x *Index) Summary(world event.WorldID, terrain event.TerrainAddress) Summary {
	e := x.entry(world, terrain)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary
}

// EventSource is the minimal read surface Rebuild needs from the event
// store: an ordered scan of a single cell's events. Package store
// satisfies this; kept as an interface here so terrain never imports
// store.
type EventSource interface {
	CellScanIDs(world event.WorldID, terrain event.TerrainAddress) ([]event.ID, error)
}

// Rebuild deterministically reconstructs a cell's summary by rescanning
// the event store, per §4.4's "rebuild(world, TerrainAddress) ...
// reconstructs the summary from the event store". OnAdmit does not call it:
// a resized sketch is refilled by OnAdmit's own rescan of the source.
func (x *Index) Rebuild(world event.WorldID, terrain event.TerrainAddress, src EventSource, epoch uint64) error {
	ids, err := src.CellScanIDs(world, terrain)
	if err != nil {
		return err
	}

	capacity := x.schedule.InitialCapacity
	for capacity < uint64(len(ids)) {
		capacity *= 2
	}
	sk, err := NewSketch(capacity, x.schedule.TargetFPR)
	if err != nil {
		return err
	}
	for _, id := range ids {
		sk.Insert([32]byte(id))
	}

	e := x.entry(world, terrain)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.summary = Summary{EventCount: uint64(len(ids)), LastUpdated: epoch, sketch: sk}
	return nil
}

func reinsertAll(sk *Sketch, src EventSource, world event.WorldID, terrain event.TerrainAddress) {
	ids, err := src.CellScanIDs(world, terrain)
	if err != nil {
		return
	}
	for _, id := range ids {
		sk.Insert([32]byte(id))
	}
}
