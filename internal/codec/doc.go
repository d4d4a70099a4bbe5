// Package codec implements the canonical, deterministic encoding shared by
// every TerrainGossip protocol record: events, wire messages, version
// vectors, cell addresses.
//
// Encoding is canonical CBOR (RFC 8949 §4.2, "Core Deterministic Encoding")
// configured once in this package: map keys sorted by their own encoded
// bytes, no indefinite-length items. Floating-point values are not rejected
// by the codec; none of the encoded types has a float field. That gives every
// field shape spec.md asks for (unsigned varints, length-prefixed strings
// and sequences, ordered mappings, tagged unions) without a hand rolled byte
// pusher, the same way massifs/cose leans on fxamacker/cbor's deterministic
// mode rather than re-deriving CBOR from scratch.
package codec
