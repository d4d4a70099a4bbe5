// Package terrain implements the per-cell summary index of §3.4/§4.4: an
// event count, a bloom-filter membership sketch over event ids, and a
// last-updated epoch, kept per (world, TerrainAddress) cell and
// recomputable on demand from the event store.
//
// The sketch's header/sizing math is a single-filter generalization of
// bloom/bloom4.go's BloomHeaderV1 format (32-byte elements, LSB0 bit
// order, double hashing) — Forestrie's 4-parallel-filter layout exists to
// index several disjoint value spaces side by side in one massif index
// region, which this package has no use for: a cell tracks one set of
// event ids, so one filter region per cell is enough.
package terrain
