// Package clock implements the causal clock of §3.3: per-world version
// vectors over rotating replica identifiers, and the sealed-counter
// compaction the §9 design note prescribes to bound their growth across
// epoch rotations.
package clock
