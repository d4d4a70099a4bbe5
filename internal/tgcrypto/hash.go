package tgcrypto

import (
	"golang.org/x/crypto/blake2b"
)

// Hash256 is the 256-bit digest type used for every identifier in §3.1.
type Hash256 [32]byte

// H computes the keyless, domain-separated hash of label ‖ parts...
// described in §4.2. The label is hashed as a length-prefixed block ahead
// of the payload so "foo"‖"bar" and "foob"‖"ar" never collide.
func H(label string, parts ...[]byte) Hash256 {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic("tgcrypto: blake2b256 init: " + err.Error())
	}
	writeLabeled(h.Write, label, parts...)
	var out Hash256
	copy(out[:], h.Sum(nil))
	return out
}

// HKeyed computes the keyed variant, H_keyed in §3.1/§4.2, used to derive
// TargetRef from a control-plane key so the mapping from DescriptorId to
// TargetRef is unrecoverable without the key.
func HKeyed(key []byte, label string, parts ...[]byte) Hash256 {
	h, err := blake2b.New256(key)
	if err != nil {
		panic("tgcrypto: blake2b256 keyed init: " + err.Error())
	}
	writeLabeled(h.Write, label, parts...)
	var out Hash256
	copy(out[:], h.Sum(nil))
	return out
}

func writeLabeled(write func([]byte) (int, error), label string, parts ...[]byte) {
	lbl := []byte(label)
	var lenBuf [8]byte
	putLen(lenBuf[:], uint64(len(lbl)))
	_, _ = write(lenBuf[:])
	_, _ = write(lbl)
	for _, p := range parts {
		putLen(lenBuf[:], uint64(len(p)))
		_, _ = write(lenBuf[:])
		_, _ = write(p)
	}
}

func putLen(b []byte, n uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(n >> (8 * i))
	}
}
