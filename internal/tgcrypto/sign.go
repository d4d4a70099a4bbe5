package tgcrypto

import "crypto/ed25519"

// Sign signs msg under secret, returning the 64-byte Ed25519 signature.
func Sign(secret ed25519.PrivateKey, msg []byte) ([64]byte, error) {
	var out [64]byte
	if len(secret) != ed25519.PrivateKeySize {
		return out, ErrBadPrivateKeySize
	}
	copy(out[:], ed25519.Sign(secret, msg))
	return out, nil
}

// Verify reports whether sig is a valid signature over msg under public.
func Verify(public ed25519.PublicKey, msg []byte, sig [64]byte) bool {
	if len(public) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(public, msg, sig[:])
}

// GenerateKey is a thin convenience wrapper kept local so callers (tests,
// cmd/terraind bootstrap) never import crypto/ed25519 directly and risk
// drifting from the key sizes this package assumes.
func GenerateKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(nil)
}
