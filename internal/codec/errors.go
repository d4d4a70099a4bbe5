package codec

import "errors"

var (
	ErrNotCanonical  = errors.New("decoded value does not re-encode to the input bytes")
	ErrFloatField    = errors.New("canonicalizable types may not contain floating point fields")
	ErrUnknownTag    = errors.New("unrecognized tagged union discriminant")
	ErrTruncated     = errors.New("input too short to decode a complete value")
	ErrLengthPrefix  = errors.New("length prefix does not match remaining input")
)
