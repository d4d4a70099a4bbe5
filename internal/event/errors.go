package event

import "errors"

var (
	ErrUnknownBodyTag    = errors.New("no registered body type for this tag")
	ErrBadEmitterKey     = errors.New("emitter is not a valid ed25519 public key")
	ErrReplicaMismatch   = errors.New("replica_id does not bind to emitter/world/epoch_id")
	ErrBadSignature      = errors.New("signature does not verify under emitter")
	ErrBodyTagCollision  = errors.New("a body type is already registered under this tag")
)
