// Package worldcfg loads the node-level configuration cmd/terraind needs to
// construct a runnable process: which world this node gossips for, and the
// tuning knobs for the store, validation and gossip layers. It follows the
// same config-struct-with-defaults idiom as massifs.MassifCommitterConfig
// and gossiper.ProposerConfig, loaded from YAML rather than built in code.
package worldcfg
