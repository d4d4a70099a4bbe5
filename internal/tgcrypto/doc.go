// Package tgcrypto is the crypto kit of §4.2: domain-separated hashing,
// its keyed variant, signing, and every identifier derivation named in
// §3.1. Hashing uses blake2b-256, which has a keyed mode built in (unlike
// SHA-256, which would need a separate HMAC construction for H_keyed) —
// the same primitive choice the pack's L1-client examples
// (wyf-ACCEPT-eth2030/pkg/crypto, gotmyname2018-wormhole-svm/sdk) make for
// protocol-level hashing. Signing uses stdlib Ed25519, mirrored on the
// COSE Sign1 wrapping style of massifs/cose/cose.go without pulling in the
// COSE/CWT envelope itself (no CWT claims header is needed here; the event
// already carries emitter/replica/epoch as plain canonical fields).
package tgcrypto
