package clock

import (
	"sync"

	"github.com/rng-ops/gossip/internal/event"
)

// EmitterKey is an emitter's raw ed25519 public key, used only as a map
// key inside sealed-counter bookkeeping.
type EmitterKey [32]byte

// ReplicaMeta is everything Sealed needs to know about a replica entry in
// order to decide whether it has aged out of the retention horizon and, if
// so, which emitter's sealed counter absorbs it.
type ReplicaMeta struct {
	Emitter EmitterKey
	EpochID uint64
}

// Sealed compacts version-vector entries whose epoch has aged past the
// retention horizon into one running per-emitter counter, per the §9
// design note: "replica_id intentionally changes each epoch; the version
// vector therefore grows over time... bound growth by compacting entries
// whose epoch is older than the retention horizon into a per-emitter
// sealed counter that no longer receives updates."
type Sealed struct {
	mu     sync.Mutex
	totals map[EmitterKey]uint64
}

func NewSealed() *Sealed {
	return &Sealed{totals: make(map[EmitterKey]uint64)}
}

// SealedTotal returns the cumulative sequence count folded away for an
// emitter; it no longer participates in live causal comparisons.
func (s *Sealed) SealedTotal(e EmitterKey) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals[e]
}

// Compact walks vv, and for every replica whose meta.EpochID is older than
// currentEpoch-retentionEpochs, folds its count into the emitter's sealed
// total and removes it from vv. Returns the number of replicas compacted.
func (s *Sealed) Compact(
	vv VersionVector,
	meta map[event.ReplicaID]ReplicaMeta,
	currentEpoch, retentionEpochs uint64,
) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	compacted := 0
	for r, seq := range vv {
		m, ok := meta[r]
		if !ok {
			continue
		}
		if currentEpoch < retentionEpochs || m.EpochID >= currentEpoch-retentionEpochs {
			continue
		}
		s.totals[m.Emitter] += seq
		delete(vv, r)
		compacted++
	}
	return compacted
}
