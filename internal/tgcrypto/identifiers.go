package tgcrypto

// Identifier derivations, one function per row of spec.md §3.1. Each uses a
// distinct string label so no two derivations can ever collide even given
// identical input bytes.

// WorldID = H("world" ‖ phrase_norm ‖ rule_bundle_hash).
func WorldID(phraseNorm []byte, ruleBundleHash []byte) Hash256 {
	return H("world", phraseNorm, ruleBundleHash)
}

// FAH = H("fah" ‖ canonical(CapabilityManifest)).
func FAH(canonicalManifest []byte) Hash256 {
	return H("fah", canonicalManifest)
}

// DescriptorID = H("descriptor" ‖ canonical(ProviderDescriptorUnsigned)).
func DescriptorID(canonicalDescriptor []byte) Hash256 {
	return H("descriptor", canonicalDescriptor)
}

// TargetRef = H_keyed(control_plane_key, "targetref" ‖ WorldId ‖ DescriptorId).
func TargetRef(controlPlaneKey []byte, world, descriptor Hash256) Hash256 {
	return HKeyed(controlPlaneKey, "targetref", world[:], descriptor[:])
}

// Handle = H("handle" ‖ observer_secret ‖ observed_fingerprint). Never
// transmitted; computed and consulted only by the observer that holds the
// secret.
func Handle(observerSecret, observedFingerprint []byte) Hash256 {
	return H("handle", observerSecret, observedFingerprint)
}

// EventID = H(canonical(Event)) with the event_id field itself excluded
// from the canonical encoding passed in.
func EventID(canonicalEventMinusID []byte) Hash256 {
	return H("event", canonicalEventMinusID)
}

// ReplicaID = H("replica" ‖ transport_pubkey ‖ WorldId ‖ EpochId).
func ReplicaID(transportPubkey []byte, world Hash256, epochID uint64) Hash256 {
	return H("replica", transportPubkey, world[:], uint64LE(epochID))
}

func uint64LE(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}
