package worldcfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rng-ops/gossip/internal/belief"
	"github.com/rng-ops/gossip/internal/event"
	"github.com/rng-ops/gossip/internal/gossip"
	"github.com/rng-ops/gossip/internal/store"
	"github.com/rng-ops/gossip/internal/validate"
)

// WorldConfig is the YAML shape of one world definition: the inputs to
// event.NewWorldID (§3.1) plus the human-readable phrase it was derived
// from, kept around for operator-facing logs.
type WorldConfig struct {
	Phrase         string `yaml:"phrase"`
	RuleBundleHash string `yaml:"rule_bundle_hash"` // hex-encoded 32 bytes
}

// ID re-derives the world's WorldId from its normalized phrase and rule
// bundle hash (§3.1). Callers are expected to have already applied whatever
// phrase-normalization rule the world's rule bundle specifies; worldcfg does
// not normalize on the node's behalf.
func (c WorldConfig) ID(normalizedPhrase []byte, ruleBundleHash []byte) event.WorldID {
	return event.NewWorldID(normalizedPhrase, ruleBundleHash)
}

// NodeConfig is the top-level on-disk configuration for one terraind
// process: which world it serves, and the tuning knobs for every layer
// beneath cmd/terraind's composition root.
type NodeConfig struct {
	World WorldConfig `yaml:"world"`

	ListenAddr string   `yaml:"listen_addr"`
	SeedPeers  []string `yaml:"seed_peers"`

	Retention store.Config              `yaml:"retention"`
	RateLimit validate.RateLimiterConfig `yaml:"rate_limit"`
	Belief    belief.Config              `yaml:"belief"`
	Gossip    gossip.Config              `yaml:"gossip"`
	Peers     gossip.PeerConfig          `yaml:"peers"`
}

// DefaultNodeConfig returns the layered defaults of every wired component,
// so a config file only needs to override what it cares about.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		Retention: store.DefaultConfig(),
		RateLimit: validate.DefaultRateLimiterConfig(),
		Belief:    belief.DefaultConfig(),
		Gossip:    gossip.DefaultConfig(),
		Peers:     gossip.DefaultPeerConfig(),
	}
}

// Load reads and parses a NodeConfig from path, starting from
// DefaultNodeConfig so a sparse file only needs to name the fields it
// overrides.
func Load(path string) (NodeConfig, error) {
	cfg := DefaultNodeConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return NodeConfig{}, fmt.Errorf("worldcfg: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return NodeConfig{}, fmt.Errorf("worldcfg: parse %s: %w", path, err)
	}
	return cfg, nil
}
