package terrain

import "errors"

var (
	ErrBadCapacity = errors.New("terrain: sketch capacity must be > 0")
	ErrBadFPR      = errors.New("terrain: target false-positive rate must be in (0, 1)")
)
