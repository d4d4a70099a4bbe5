package clock

import (
	"sort"

	"github.com/rng-ops/gossip/internal/event"
)

// VersionVector maps a replica to the length of the contiguous sequence
// prefix observed for it (§3.3): after sequences 0..n-1 the entry is n, one
// past the highest contiguous sequence, and a replica with no observed
// sequence has no entry. The zero value is the empty frontier.
type VersionVector map[event.ReplicaID]uint64

// Clone returns an independent copy.
func (vv VersionVector) Clone() VersionVector {
	out := make(VersionVector, len(vv))
	for k, v := range vv {
		out[k] = v
	}
	return out
}

// Get returns the number of contiguous sequences seen for r (one past the
// highest), or 0 if none.
func (vv VersionVector) Get(r event.ReplicaID) uint64 {
	return vv[r]
}

// Advance records that sequence seq has been observed for r, raising r's
// entry to seq+1 if it is lower. Callers are responsible for only calling this once the gapless
// prefix invariant actually holds (package store enforces that).
func (vv VersionVector) Advance(r event.ReplicaID, seq uint64) {
	if seq+1 > vv[r] {
		vv[r] = seq + 1
	}
}

// Dominates reports whether vv dominates other: every component of other is
// <= the matching component of vv (§3.3).
func (vv VersionVector) Dominates(other VersionVector) bool {
	for r, seq := range other {
		if vv[r] < seq {
			return false
		}
	}
	return true
}

// Merge returns the component-wise maximum of vv and other — the CRDT join
// that makes the frontier a commutative, idempotent, associative merge
// (§4.3 invariant).
func (vv VersionVector) Merge(other VersionVector) VersionVector {
	out := vv.Clone()
	for r, seq := range other {
		if seq > out[r] {
			out[r] = seq
		}
	}
	return out
}

// Equal reports whether vv and other have identical components.
func (vv VersionVector) Equal(other VersionVector) bool {
	if len(vv) != len(other) {
		return false
	}
	for r, seq := range vv {
		if other[r] != seq {
			return false
		}
	}
	return true
}

// Replicas returns the vector's replica ids in a stable, deterministic
// order, used when a caller needs to iterate reproducibly (e.g. building a
// DeltaRequest's per-replica ranges).
func (vv VersionVector) Replicas() []event.ReplicaID {
	out := make([]event.ReplicaID, 0, len(vv))
	for r := range vv {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		for k := 0; k < 32; k++ {
			if out[i][k] != out[j][k] {
				return out[i][k] < out[j][k]
			}
		}
		return false
	})
	return out
}
