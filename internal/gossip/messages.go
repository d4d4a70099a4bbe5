package gossip

import (
	"github.com/rng-ops/gossip/internal/clock"
	"github.com/rng-ops/gossip/internal/codec"
	"github.com/rng-ops/gossip/internal/event"
)

// Message tags, one byte on the wire per §6.1's "prefixed by a varint
// length and a one-byte type tag".
const (
	TagSyncHello uint8 = iota + 1
	TagDeltaRequest
	TagDeltaBatch
	TagEventOffer
	TagEventWant
	TagSyncBusy
	TagSyncAbort
)

// Message is implemented by every wire type in this package.
type Message interface {
	codec.Canonical
	MessageTag() uint8
}

// FrontierEntry is one (replica, sequence) pair of a serialized version
// vector. Frontiers travel as an explicit sorted slice rather than a raw
// Go map so canonical byte equality never depends on a map-key encoding
// convention for an array-typed key.
type FrontierEntry struct {
	Replica event.ReplicaID `cbor:"1,keyasint"`
	Seq     uint64          `cbor:"2,keyasint"`
}

func frontierToEntries(vv clock.VersionVector) []FrontierEntry {
	replicas := vv.Replicas()
	out := make([]FrontierEntry, 0, len(replicas))
	for _, r := range replicas {
		out = append(out, FrontierEntry{Replica: r, Seq: vv.Get(r)})
	}
	return out
}

func entriesToFrontier(entries []FrontierEntry) clock.VersionVector {
	vv := make(clock.VersionVector, len(entries))
	for _, e := range entries {
		vv[e.Replica] = e.Seq
	}
	return vv
}

// SyncHello is stage 1 of §4.5: each side announces its frontier for the
// world being synced.
type SyncHello struct {
	World           event.WorldID          `cbor:"1,keyasint"`
	Frontier        []FrontierEntry        `cbor:"2,keyasint"`
	CellsOfInterest []event.TerrainAddress `cbor:"3,keyasint"`
}

func (m *SyncHello) MessageTag() uint8                 { return TagSyncHello }
func (m *SyncHello) MarshalCanonical() ([]byte, error) { return codec.Encode(m) }
func (m *SyncHello) UnmarshalCanonical(b []byte) error { return codec.Decode(b, m) }

// ReplicaRange is one range of missing sequences for a replica, given as
// the two frontier values (Lo, Hi] it lies between; since a frontier value
// counts a gapless prefix, the missing sequences are Lo through Hi-1.
type ReplicaRange struct {
	Replica event.ReplicaID `cbor:"1,keyasint"`
	Lo      uint64          `cbor:"2,keyasint"`
	Hi      uint64          `cbor:"3,keyasint"`
}

// DeltaRequest is stage 2's request: "send me everything you have in these
// ranges, capped at MaxEvents."
type DeltaRequest struct {
	World     event.WorldID  `cbor:"1,keyasint"`
	Ranges    []ReplicaRange `cbor:"2,keyasint"`
	MaxEvents uint32         `cbor:"3,keyasint"`
}

func (m *DeltaRequest) MessageTag() uint8                 { return TagDeltaRequest }
func (m *DeltaRequest) MarshalCanonical() ([]byte, error) { return codec.Encode(m) }
func (m *DeltaRequest) UnmarshalCanonical(b []byte) error { return codec.Decode(b, m) }

// DeltaBatch streams requested events in (replica_id, sequence) order;
// Events holds each event's full canonical encoding (event.Canonical()) so
// this package never needs its own event-shape knowledge beyond the
// envelope. EOB marks the final batch of a DeltaRequest's response.
type DeltaBatch struct {
	World  event.WorldID `cbor:"1,keyasint"`
	Events [][]byte      `cbor:"2,keyasint"`
	EOB    bool          `cbor:"3,keyasint"`
}

func (m *DeltaBatch) MessageTag() uint8                 { return TagDeltaBatch }
func (m *DeltaBatch) MarshalCanonical() ([]byte, error) { return codec.Encode(m) }
func (m *DeltaBatch) UnmarshalCanonical(b []byte) error { return codec.Decode(b, m) }

// EventOffer is stage 3's offer of candidate event ids drawn from a cell
// scan whose summary disagrees with the peer's.
type EventOffer struct {
	World    event.WorldID `cbor:"1,keyasint"`
	EventIDs []event.ID    `cbor:"2,keyasint"`
}

func (m *EventOffer) MessageTag() uint8                 { return TagEventOffer }
func (m *EventOffer) MarshalCanonical() ([]byte, error) { return codec.Encode(m) }
func (m *EventOffer) UnmarshalCanonical(b []byte) error { return codec.Decode(b, m) }

// EventWant answers an EventOffer: Bitmap[i] true means the offer's i-th
// event id is wanted.
type EventWant struct {
	World  event.WorldID `cbor:"1,keyasint"`
	Bitmap []bool        `cbor:"2,keyasint"`
}

func (m *EventWant) MessageTag() uint8                 { return TagEventWant }
func (m *EventWant) MarshalCanonical() ([]byte, error) { return codec.Encode(m) }
func (m *EventWant) UnmarshalCanonical(b []byte) error { return codec.Decode(b, m) }

// SyncBusy is the backpressure signal of §4.5/§7: honor RetryAfterMS
// before re-contacting this peer.
type SyncBusy struct {
	RetryAfterMS uint32 `cbor:"1,keyasint"`
}

func (m *SyncBusy) MessageTag() uint8                 { return TagSyncBusy }
func (m *SyncBusy) MarshalCanonical() ([]byte, error) { return codec.Encode(m) }
func (m *SyncBusy) UnmarshalCanonical(b []byte) error { return codec.Decode(b, m) }

// SyncAbort announces a voluntary abort with a reason code (§7).
type SyncAbort struct {
	Reason uint8 `cbor:"1,keyasint"`
}

func (m *SyncAbort) MessageTag() uint8                 { return TagSyncAbort }
func (m *SyncAbort) MarshalCanonical() ([]byte, error) { return codec.Encode(m) }
func (m *SyncAbort) UnmarshalCanonical(b []byte) error { return codec.Decode(b, m) }

func newMessageForTag(tag uint8) (Message, error) {
	switch tag {
	case TagSyncHello:
		return &SyncHello{}, nil
	case TagDeltaRequest:
		return &DeltaRequest{}, nil
	case TagDeltaBatch:
		return &DeltaBatch{}, nil
	case TagEventOffer:
		return &EventOffer{}, nil
	case TagEventWant:
		return &EventWant{}, nil
	case TagSyncBusy:
		return &SyncBusy{}, nil
	case TagSyncAbort:
		return &SyncAbort{}, nil
	default:
		return nil, ErrUnknownMessageTag
	}
}
