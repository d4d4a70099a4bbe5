// Package testsupport gives gossip-convergence and belief-replay tests a
// seeded, reproducible harness, the way mmrtesting.TestContext gives the
// teacher's massif tests a fixed clock and a real blob-store emulator. There
// is no external emulator here since nothing in this module talks to a
// network service; the harness instead seeds math/rand and wraps event
// construction so two test runs with the same seed produce byte-identical
// synthetic event streams.
package testsupport
