package codec

import (
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Canonical is implemented by the event body types and the gossip wire
// messages.
type Canonical interface {
	MarshalCanonical() ([]byte, error)
	UnmarshalCanonical([]byte) error
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
	once    sync.Once
)

// modes lazily builds the shared deterministic encode/decode modes. Built
// once and reused, the same way massifs/cose/cose.go caches EncMode/DecMode
// on the CoseSign1Message rather than re-deriving options per call.
func modes() (cbor.EncMode, cbor.DecMode) {
	once.Do(func() {
		encOpts := cbor.CanonicalEncOptions()
		encOpts.Time = cbor.TimeUnix
		m, err := encOpts.EncMode()
		if err != nil {
			panic("codec: bad deterministic enc options: " + err.Error())
		}
		encMode = m

		decOpts := cbor.DecOptions{
			DupMapKey:   cbor.DupMapKeyEnforcedAPF,
			IntDec:      cbor.IntDecConvertNone,
			MaxArrayElements: 1 << 20,
			MaxMapPairs:      1 << 20,
		}
		dm, err := decOpts.DecMode()
		if err != nil {
			panic("codec: bad deterministic dec options: " + err.Error())
		}
		decMode = dm
	})
	return encMode, decMode
}

// Encode produces the canonical byte encoding of v.
func Encode(v any) ([]byte, error) {
	m, _ := modes()
	return m.Marshal(v)
}

// Decode fills out from canonically encoded bytes.
func Decode(b []byte, out any) error {
	_, m := modes()
	return m.Unmarshal(b, out)
}

// VerifyCanonical re-encodes out (already populated by Decode) and checks it
// reproduces b exactly, catching the non-canonical encodings
// (§4.6 step 1, MalformedEncoding) that an attacker could use to create
// event-id ambiguity: two different byte strings decoding to the same value
// would otherwise hash to two different event ids for what a victim
// observer would call "the same event".
func VerifyCanonical(b []byte, v any) error {
	reenc, err := Encode(v)
	if err != nil {
		return err
	}
	if len(reenc) != len(b) {
		return ErrNotCanonical
	}
	for i := range reenc {
		if reenc[i] != b[i] {
			return ErrNotCanonical
		}
	}
	return nil
}

// EncodeAndVerify is Encode followed immediately by a decode/re-encode round
// trip, for any producer path that wants to guarantee the bytes it is about
// to sign are themselves canonical.
func EncodeAndVerify(v any) ([]byte, error) {
	b, err := Encode(v)
	if err != nil {
		return nil, err
	}
	var probe any
	_, dm := modes()
	if err := dm.Unmarshal(b, &probe); err != nil {
		return nil, err
	}
	if err := VerifyCanonical(b, probe); err != nil {
		return nil, err
	}
	return b, nil
}
