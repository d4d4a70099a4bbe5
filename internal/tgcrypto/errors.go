package tgcrypto

import "errors"

var (
	ErrBadPublicKeySize  = errors.New("public key is not the expected ed25519 size")
	ErrBadPrivateKeySize = errors.New("private key is not the expected ed25519 size")
	ErrBadSignatureSize  = errors.New("signature is not the expected 64 bytes")
)
