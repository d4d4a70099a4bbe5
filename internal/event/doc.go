// Package event implements the replicated record of §3.2: the Event
// envelope, its extensible tagged-union Body, and the structural
// invariants (content addressing, replica binding, signature validity)
// that do not depend on any other replica's state. Sequence and epoch
// monotonicity are store-scoped and live in package store instead.
package event
