package tgcrypto_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rng-ops/gossip/internal/tgcrypto"
)

func TestHIsDeterministicAndLabelSeparated(t *testing.T) {
	a := tgcrypto.H("world", []byte("seed"))
	b := tgcrypto.H("world", []byte("seed"))
	require.Equal(t, a, b)

	c := tgcrypto.H("replica", []byte("seed"))
	require.NotEqual(t, a, c, "different labels must not collide")
}

func TestHKeyedDependsOnKey(t *testing.T) {
	a := tgcrypto.HKeyed([]byte("key-a"), "targetref", []byte("x"))
	b := tgcrypto.HKeyed([]byte("key-b"), "targetref", []byte("x"))
	require.NotEqual(t, a, b)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	pub, priv, err := tgcrypto.GenerateKey()
	require.NoError(t, err)

	msg := []byte("an event to sign")
	sig, err := tgcrypto.Sign(priv, msg)
	require.NoError(t, err)
	require.True(t, tgcrypto.Verify(pub, msg, sig))

	msg[0] ^= 0xFF
	require.False(t, tgcrypto.Verify(pub, msg, sig))
}

func TestReplicaIDBindsEmitterWorldEpoch(t *testing.T) {
	world := tgcrypto.WorldID([]byte("seed"), make([]byte, 32))
	r1 := tgcrypto.ReplicaID([]byte("pubkey"), world, 100)
	r2 := tgcrypto.ReplicaID([]byte("pubkey"), world, 101)
	require.NotEqual(t, r1, r2, "epoch rotation must change the replica id")
}
