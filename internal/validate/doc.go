// Package validate implements the admission pipeline of §4.6: the ordered
// sequence of checks every inbound event passes before the store accepts
// it, the §7 error-kind taxonomy, per-emitter rate limiting, and the
// reputation gate that scales admission probability for low-trust
// emitters. Sequence and epoch monotonicity need the caller's (store's)
// per-emitter history, so they are expressed here as a small interface the
// store satisfies, keeping package store the only place that actually owns
// that state (§5: "the event store is the sole authority for accepted
// state").
package validate
