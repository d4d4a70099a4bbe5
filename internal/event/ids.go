package event

import "github.com/rng-ops/gossip/internal/tgcrypto"

// Hash256-shaped identifiers, one named type per row of spec.md §3.1 so the
// type checker stops us from e.g. passing a DescriptorID where a WorldID is
// expected even though both are [32]byte underneath.
type (
	WorldID      [32]byte
	FAH          [32]byte
	DescriptorID [32]byte
	TargetRef    [32]byte
	Handle       [32]byte
	ID           [32]byte
	ReplicaID    [32]byte
)

func fromHash(h tgcrypto.Hash256) [32]byte { return [32]byte(h) }

func NewWorldID(phraseNorm, ruleBundleHash []byte) WorldID {
	return WorldID(fromHash(tgcrypto.WorldID(phraseNorm, ruleBundleHash)))
}

func NewTargetRef(controlPlaneKey []byte, world WorldID, descriptor DescriptorID) TargetRef {
	h := tgcrypto.Hash256(world)
	d := tgcrypto.Hash256(descriptor)
	return TargetRef(fromHash(tgcrypto.TargetRef(controlPlaneKey, h, d)))
}

func NewReplicaID(transportPubkey []byte, world WorldID, epochID uint64) ReplicaID {
	return ReplicaID(fromHash(tgcrypto.ReplicaID(transportPubkey, tgcrypto.Hash256(world), epochID)))
}

// TerrainAddress locates a summary bucket (§3.1).
type TerrainAddress struct {
	Region uint32 `cbor:"1,keyasint"`
	Chunk  uint32 `cbor:"2,keyasint"`
	Cell   uint32 `cbor:"3,keyasint"`
}
