package gossip

import (
	"errors"
	"time"
)

var (
	ErrUnknownMessageTag = errors.New("gossip: unknown wire message tag")
	ErrPeerSaturated     = errors.New("gossip: peer replied SyncBusy")
	ErrSyncAborted       = errors.New("gossip: peer closed the stream")
	ErrHandshakeTimeout  = errors.New("gossip: handshake stage timed out")
)

// PeerSaturatedError wraps ErrPeerSaturated with the peer's requested
// retry_after (§4.5 backpressure), so a caller can honor the retry window
// instead of re-contacting the peer immediately.
type PeerSaturatedError struct {
	RetryAfter time.Duration
}

func (e *PeerSaturatedError) Error() string { return ErrPeerSaturated.Error() }

func (e *PeerSaturatedError) Is(target error) bool { return target == ErrPeerSaturated }
