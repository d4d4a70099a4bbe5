// Package feed implements the subscribe half of the producer API (§6.2):
// a Hub that fans admitted events out to per-consumer bounded queues,
// filtered by terrain, body type, or target, dropping events for a slow
// consumer rather than blocking the admission path and marking the drop
// with a Lagged delivery the next time that consumer catches up.
package feed
