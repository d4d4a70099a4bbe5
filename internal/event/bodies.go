package event

import "github.com/rng-ops/gossip/internal/codec"

// Tags for the five built-in body variants named in §3.2. Values are
// stable across the network: changing one would fork every world.
const (
	TagProbeReceipt        uint64 = 1
	TagBehaviorAttestation uint64 = 2
	TagDispute             uint64 = 3
	TagLinkHint            uint64 = 4
	TagRuleEndorsement     uint64 = 5
)

func init() {
	RegisterBody(TagProbeReceipt, func() Body { return &ProbeReceipt{} })
	RegisterBody(TagBehaviorAttestation, func() Body { return &BehaviorAttestation{} })
	RegisterBody(TagDispute, func() Body { return &Dispute{} })
	RegisterBody(TagLinkHint, func() Body { return &LinkHint{} })
	RegisterBody(TagRuleEndorsement, func() Body { return &RuleEndorsement{} })
}

// ProbeReceipt records that a probe (an out-of-scope producer, §1) ran
// against a target and got a response; the core treats its contents as
// opaque beyond the fields needed for terrain placement and gossip.
type ProbeReceipt struct {
	Target      TargetRef `cbor:"1,keyasint"`
	LatencyPPM  int64     `cbor:"2,keyasint"` // microseconds, fixed point
	StatusCode  uint32    `cbor:"3,keyasint"`
	PayloadHash [32]byte  `cbor:"4,keyasint"`
}

func (p *ProbeReceipt) BodyTag() uint64 { return TagProbeReceipt }
func (p *ProbeReceipt) MarshalCanonical() ([]byte, error) {
	return codec.Encode(p)
}
func (p *ProbeReceipt) UnmarshalCanonical(b []byte) error {
	return codec.Decode(b, p)
}

// BehaviorAttestation is the metric-bearing body the belief aggregator
// (§4.7) consumes. Quality metrics are fixed-point parts-per-million so
// aggregation never touches a float (§9 design note).
type BehaviorAttestation struct {
	Target TargetRef `cbor:"1,keyasint"`

	QualityPPM int64 `cbor:"2,keyasint"` // observed quality, 0..1_000_000
	ConfidencePPM int64 `cbor:"3,keyasint"`

	// Correlation-cluster metadata (§4.7 diversity weighting).
	NetworkPrefix   []byte `cbor:"4,keyasint"`
	ReportedTerrain TerrainAddress `cbor:"5,keyasint"`
	TimingBucketMS  int64  `cbor:"6,keyasint"`
}

func (a *BehaviorAttestation) BodyTag() uint64 { return TagBehaviorAttestation }
func (a *BehaviorAttestation) MarshalCanonical() ([]byte, error) {
	return codec.Encode(a)
}
func (a *BehaviorAttestation) UnmarshalCanonical(b []byte) error {
	return codec.Decode(b, a)
}

// Dispute names a set of conflicting events without deleting or mutating
// them (§3.2 Lifecycle, §4.6 Dispute handling).
type Dispute struct {
	ConflictingEventIDs [][32]byte `cbor:"1,keyasint"`
	Reason              string     `cbor:"2,keyasint"`
}

func (d *Dispute) BodyTag() uint64 { return TagDispute }
func (d *Dispute) MarshalCanonical() ([]byte, error) {
	return codec.Encode(d)
}
func (d *Dispute) UnmarshalCanonical(b []byte) error {
	return codec.Decode(b, d)
}

// LinkHint is an out-of-core producer's suggestion of a relationship
// between two descriptors (e.g. "these two endpoints are the same
// provider"); the core stores and replicates it without interpreting it.
type LinkHint struct {
	A    DescriptorID `cbor:"1,keyasint"`
	B    DescriptorID `cbor:"2,keyasint"`
	Note string       `cbor:"3,keyasint"`
}

func (l *LinkHint) BodyTag() uint64 { return TagLinkHint }
func (l *LinkHint) MarshalCanonical() ([]byte, error) {
	return codec.Encode(l)
}
func (l *LinkHint) UnmarshalCanonical(b []byte) error {
	return codec.Decode(b, l)
}

// RuleEndorsement lets an emitter vouch for a candidate rule bundle ahead
// of a world fork (§9 open question: worlds are isolated unless an
// explicit cross-world type like this one carries evidence across).
type RuleEndorsement struct {
	RuleBundleHash [32]byte `cbor:"1,keyasint"`
	Note           string   `cbor:"2,keyasint"`
}

func (r *RuleEndorsement) BodyTag() uint64 { return TagRuleEndorsement }
func (r *RuleEndorsement) MarshalCanonical() ([]byte, error) {
	return codec.Encode(r)
}
func (r *RuleEndorsement) UnmarshalCanonical(b []byte) error {
	return codec.Decode(b, r)
}
