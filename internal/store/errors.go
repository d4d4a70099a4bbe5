package store

import "errors"

var (
	ErrUnknownEvent = errors.New("store: no event with that id")
	ErrNilPipeline  = errors.New("store: pipeline must not be nil")
)
