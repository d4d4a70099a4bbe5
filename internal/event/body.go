package event

import (
	"sync"

	"github.com/rng-ops/gossip/internal/codec"
)

// Body is implemented by every event payload variant. The set is
// extensible (§3.2): new variants register a tag and a zero-value
// constructor without touching the Event envelope.
type Body interface {
	codec.Canonical
	BodyTag() uint64
}

var (
	registryMu sync.RWMutex
	registry   = map[uint64]func() Body{}
)

// RegisterBody makes a Body variant decodable from the wire. Called from
// package init in bodies.go for the five built-in variants; external
// producers may register further variants at their own tags before
// accepting traffic.
func RegisterBody(tag uint64, ctor func() Body) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[tag]; exists {
		panic(ErrBodyTagCollision)
	}
	registry[tag] = ctor
}

func newBodyForTag(tag uint64) (Body, error) {
	registryMu.RLock()
	ctor, ok := registry[tag]
	registryMu.RUnlock()
	if !ok {
		return nil, ErrUnknownBodyTag
	}
	return ctor(), nil
}

// bodyEnvelope is the tagged-union wire shape of §4.1: a varint
// discriminant (here, a plain CBOR uint tag) followed by the canonical
// payload bytes for that variant.
type bodyEnvelope struct {
	Tag     uint64 `cbor:"1,keyasint"`
	Payload []byte `cbor:"2,keyasint"`
}

func encodeBody(b Body) (bodyEnvelope, error) {
	payload, err := codec.Encode(b)
	if err != nil {
		return bodyEnvelope{}, err
	}
	return bodyEnvelope{Tag: b.BodyTag(), Payload: payload}, nil
}

func decodeBody(env bodyEnvelope) (Body, error) {
	b, err := newBodyForTag(env.Tag)
	if err != nil {
		return nil, err
	}
	if err := codec.Decode(env.Payload, b); err != nil {
		return nil, err
	}
	return b, nil
}
