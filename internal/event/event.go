package event

import (
	"crypto/ed25519"

	"github.com/rng-ops/gossip/internal/codec"
	"github.com/rng-ops/gossip/internal/tgcrypto"
)

// Event is the in-memory representation of the replicated record of §3.2.
// EventID is never carried on the wire; callers derive it with ID().
type Event struct {
	World     WorldID
	EpochID   uint64
	Emitter   ed25519.PublicKey
	ReplicaID ReplicaID
	Sequence  uint64
	Terrain   TerrainAddress
	Body      Body
	Signature [64]byte
}

// wireUnsigned is the canonical encoding of every field except the
// signature; it is both what gets signed and what EventID hashes.
type wireUnsigned struct {
	World     [32]byte     `cbor:"1,keyasint"`
	EpochID   uint64       `cbor:"2,keyasint"`
	Emitter   []byte       `cbor:"3,keyasint"`
	ReplicaID [32]byte     `cbor:"4,keyasint"`
	Sequence  uint64       `cbor:"5,keyasint"`
	Terrain   TerrainAddress `cbor:"6,keyasint"`
	Body      bodyEnvelope `cbor:"7,keyasint"`
}

type wireSigned struct {
	wireUnsigned
	Signature []byte `cbor:"8,keyasint"`
}

func (e *Event) toUnsigned() (wireUnsigned, error) {
	env, err := encodeBody(e.Body)
	if err != nil {
		return wireUnsigned{}, err
	}
	return wireUnsigned{
		World:     [32]byte(e.World),
		EpochID:   e.EpochID,
		Emitter:   []byte(e.Emitter),
		ReplicaID: [32]byte(e.ReplicaID),
		Sequence:  e.Sequence,
		Terrain:   e.Terrain,
		Body:      env,
	}, nil
}

// CanonicalUnsigned returns canonical(event_minus_event_id_and_signature),
// the exact bytes that are signed and that EventID hashes (§3.2, §4.2).
func (e *Event) CanonicalUnsigned() ([]byte, error) {
	u, err := e.toUnsigned()
	if err != nil {
		return nil, err
	}
	return codec.Encode(u)
}

// Canonical encodes the full event (including signature) for storage and
// wire transmission. EventID is intentionally absent.
func (e *Event) Canonical() ([]byte, error) {
	u, err := e.toUnsigned()
	if err != nil {
		return nil, err
	}
	return codec.Encode(wireSigned{wireUnsigned: u, Signature: e.Signature[:]})
}

// FromCanonical decodes a full wire event, including re-deriving its ID.
func FromCanonical(b []byte) (*Event, ID, error) {
	var w wireSigned
	if err := codec.Decode(b, &w); err != nil {
		return nil, ID{}, err
	}
	if err := codec.VerifyCanonical(b, w); err != nil {
		return nil, ID{}, err
	}

	body, err := decodeBody(w.Body)
	if err != nil {
		return nil, ID{}, err
	}

	e := &Event{
		World:     WorldID(w.World),
		EpochID:   w.EpochID,
		Emitter:   ed25519.PublicKey(append([]byte(nil), w.Emitter...)),
		ReplicaID: ReplicaID(w.ReplicaID),
		Sequence:  w.Sequence,
		Terrain:   w.Terrain,
		Body:      body,
	}
	copy(e.Signature[:], w.Signature)

	unsignedBytes, err := codec.Encode(w.wireUnsigned)
	if err != nil {
		return nil, ID{}, err
	}
	return e, ID(tgcrypto.EventID(unsignedBytes)), nil
}

// ID recomputes EventID = H(canonical(event_minus_event_id)) (§3.1).
func (e *Event) ID() (ID, error) {
	b, err := e.CanonicalUnsigned()
	if err != nil {
		return ID{}, err
	}
	return ID(tgcrypto.EventID(b)), nil
}

// Sign signs the event's canonical unsigned form and stores the result.
func (e *Event) Sign(secret ed25519.PrivateKey) error {
	b, err := e.CanonicalUnsigned()
	if err != nil {
		return err
	}
	sig, err := tgcrypto.Sign(secret, b)
	if err != nil {
		return err
	}
	e.Signature = sig
	return nil
}

// Validate checks the structural invariants that do not depend on any
// other replica's state: replica/emitter binding (§4.6 step 4) and
// signature validity under the emitter (§4.6 step 3). Sequence and epoch
// monotonicity are checked by the store, which alone knows prior history.
func (e *Event) Validate() error {
	if len(e.Emitter) != ed25519.PublicKeySize {
		return ErrBadEmitterKey
	}

	wantReplica := NewReplicaID([]byte(e.Emitter), e.World, e.EpochID)
	if wantReplica != e.ReplicaID {
		return ErrReplicaMismatch
	}

	b, err := e.CanonicalUnsigned()
	if err != nil {
		return err
	}
	if !tgcrypto.Verify(ed25519.PublicKey(e.Emitter), b, e.Signature) {
		return ErrBadSignature
	}
	return nil
}
