package validate

// Reason enumerates the §7 error kinds. Zero value ReasonNone means the
// event cleared every check.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMalformedEncoding
	ReasonBadIdentifier
	ReasonBadSignature
	ReasonSequenceViolation
	ReasonEpochRegression
	ReasonRateLimited
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMalformedEncoding:
		return "malformed_encoding"
	case ReasonBadIdentifier:
		return "bad_identifier"
	case ReasonBadSignature:
		return "bad_signature"
	case ReasonSequenceViolation:
		return "sequence_violation"
	case ReasonEpochRegression:
		return "epoch_regression"
	case ReasonRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Attributable reports whether a rejection reason should be reported back
// to the submitting producer (§7: "propagation to producers happens only
// for errors directly attributable to their submission"). Gossip-level
// malformed-encoding rejections are not attributable since a relay, not the
// original signer, may be the one who corrupted the bytes.
func (r Reason) Attributable() bool {
	switch r {
	case ReasonBadSignature, ReasonSequenceViolation, ReasonRateLimited:
		return true
	default:
		return false
	}
}
