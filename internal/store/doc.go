// Package store implements the append-only event log of §3.3/§4.3/§6.3:
// the single-writer admission point that runs every decoded event through
// the validation pipeline, then folds accepted events into the
// (world, replica, sequence), event_id, and (world, terrain) indices.
//
// Admit is the CRDT merge point: idempotent on a duplicate event_id and
// order-independent on the final indexed state, since the per-world
// version vector is a commutative, associative join (§4.3 invariant,
// grounded on the etag-conditional, single-committer append pattern of
// massifs/massifcommitter.go generalized from one cloud blob to an
// in-process log).
package store
