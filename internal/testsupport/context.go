package testsupport

import (
	"crypto/ed25519"
	"math/rand"
	"testing"

	"github.com/rng-ops/gossip/internal/event"
	"github.com/rng-ops/gossip/internal/tgcrypto"
)

// Config mirrors mmrtesting.TestConfig's seed-everything-from-one-value
// shape: fix Seed and a test gets the same synthetic stream every run.
type Config struct {
	Seed            int64
	TestLabelPrefix string
}

// Context is the seeded test harness: a *rand.Rand for synthetic event
// generation and a *testing.T for assertion helpers.
type Context struct {
	T    *testing.T
	Rand *rand.Rand

	world event.WorldID
}

func NewContext(t *testing.T, cfg Config, world event.WorldID) *Context {
	return &Context{
		T:     t,
		Rand:  rand.New(rand.NewSource(cfg.Seed)),
		world: world,
	}
}

// Emitter is a keypair plus its replica id at the epoch it was minted for,
// bundled together since every synthetic event needs all three.
type Emitter struct {
	Public  ed25519.PublicKey
	Secret  ed25519.PrivateKey
	Replica event.ReplicaID
}

// NewEmitter mints a fresh signing keypair deterministically from the
// context's seeded RNG rather than crypto/rand, so a failing test's
// synthetic actors are reproducible across runs.
func (c *Context) NewEmitter(epoch uint64) Emitter {
	seed := make([]byte, ed25519.SeedSize)
	_, _ = c.Rand.Read(seed)
	secret := ed25519.NewKeyFromSeed(seed)
	public := secret.Public().(ed25519.PublicKey)
	return Emitter{
		Public:  public,
		Secret:  secret,
		Replica: event.NewReplicaID(public, c.world, epoch),
	}
}

// SignedEvent builds and signs an event for e at (epoch, seq) carrying body,
// failing the test immediately on a signing error so call sites stay
// one-liners.
func (c *Context) SignedEvent(e Emitter, epoch, seq uint64, terrain event.TerrainAddress, body event.Body) *event.Event {
	ev := &event.Event{
		World:     c.world,
		EpochID:   epoch,
		Emitter:   e.Public,
		ReplicaID: e.Replica,
		Sequence:  seq,
		Terrain:   terrain,
		Body:      body,
	}
	if err := ev.Sign(e.Secret); err != nil {
		c.T.Fatalf("testsupport: sign synthetic event: %v", err)
	}
	return ev
}

// RandomTerrain returns a deterministic pseudo-random terrain address,
// useful when a test needs many distinct cells without caring which ones.
func (c *Context) RandomTerrain() event.TerrainAddress {
	return event.TerrainAddress{
		Region: c.Rand.Uint32(),
		Chunk:  c.Rand.Uint32(),
		Cell:   c.Rand.Uint32(),
	}
}

// Hash is a convenience re-export so tests that want a domain-separated
// digest of some fixture value don't need their own tgcrypto import.
func Hash(domain string, parts ...[]byte) tgcrypto.Hash256 {
	return tgcrypto.H(domain, parts...)
}
