package codec_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/rng-ops/gossip/internal/codec"
)

type sample struct {
	A uint64
	B string
	C []byte
	D map[string]uint64
}

func TestRoundTrip(t *testing.T) {
	in := sample{
		A: 42,
		B: "terrain",
		C: []byte{1, 2, 3},
		D: map[string]uint64{"z": 1, "a": 2, "m": 3},
	}

	enc, err := codec.Encode(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, codec.Decode(enc, &out))
	require.Empty(t, cmp.Diff(in, out))

	enc2, err := codec.Encode(out)
	require.NoError(t, err)
	require.True(t, bytes.Equal(enc, enc2), "re-encoding a decoded value must reproduce the same bytes")
}

func TestEncodeIsDeterministicAcrossRuns(t *testing.T) {
	in := sample{A: 7, B: "x", D: map[string]uint64{"k1": 1, "k0": 2}}
	a, err := codec.Encode(in)
	require.NoError(t, err)
	b, err := codec.Encode(in)
	require.NoError(t, err)
	require.True(t, bytes.Equal(a, b))
}

func TestVerifyCanonicalRejectsMismatch(t *testing.T) {
	in := sample{A: 1}
	enc, err := codec.Encode(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, codec.Decode(enc, &out))
	require.NoError(t, codec.VerifyCanonical(enc, out))

	tampered := append([]byte{}, enc...)
	tampered = append(tampered, 0xFF)
	require.Error(t, codec.VerifyCanonical(tampered, out))
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := codec.Frame{Type: 3, Payload: []byte("hello world")}
	require.NoError(t, codec.WriteFrame(&buf, want))

	got, err := codec.ReadFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestVarintRoundTrip(t *testing.T) {
	buf := make([]byte, codec.MaxVarintLen64)
	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 40} {
		n := codec.PutUvarint(buf, v)
		got, m := codec.Uvarint(buf[:n])
		require.Equal(t, n, m)
		require.Equal(t, v, got)
	}
}
