// Package belief implements the robust-aggregation layer of §3.5/§4.7: a
// per-(world, TargetRef) belief field derived from the set of accepted
// BehaviorAttestation events. Every computation is fixed-point integer
// arithmetic (parts-per-million) — no float ever reaches a value that
// contributes to mu, sigma, trend, or disagreement — so that two nodes
// holding the same accepted event set compute bit-identical beliefs
// (§8 property 7, §9 design note).
package belief
