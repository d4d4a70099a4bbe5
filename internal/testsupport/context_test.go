package testsupport_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rng-ops/gossip/internal/event"
	"github.com/rng-ops/gossip/internal/testsupport"
)

func TestNewEmitterIsReproducibleForAFixedSeed(t *testing.T) {
	world := event.NewWorldID([]byte("w"), make([]byte, 32))

	a := testsupport.NewContext(t, testsupport.Config{Seed: 42}, world).NewEmitter(1)
	b := testsupport.NewContext(t, testsupport.Config{Seed: 42}, world).NewEmitter(1)

	require.Equal(t, a.Public, b.Public)
	require.Equal(t, a.Replica, b.Replica)
}

func TestSignedEventVerifies(t *testing.T) {
	world := event.NewWorldID([]byte("w"), make([]byte, 32))
	ctx := testsupport.NewContext(t, testsupport.Config{Seed: 7}, world)
	e := ctx.NewEmitter(1)

	ev := ctx.SignedEvent(e, 1, 0, ctx.RandomTerrain(), &event.ProbeReceipt{})
	require.NoError(t, ev.Validate())
}

func TestDifferentSeedsProduceDifferentEmitters(t *testing.T) {
	world := event.NewWorldID([]byte("w"), make([]byte, 32))
	a := testsupport.NewContext(t, testsupport.Config{Seed: 1}, world).NewEmitter(1)
	b := testsupport.NewContext(t, testsupport.Config{Seed: 2}, world).NewEmitter(1)
	require.NotEqual(t, a.Public, b.Public)
}
