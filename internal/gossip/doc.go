// Package gossip implements the peer table and three-stage sync protocol
// of §4.5/§6.1: frontier exchange, delta fetch, and periodic anti-entropy,
// driven at T_gossip over an injected io.ReadWriteCloser stream (transport
// framing — TLS/QUIC selection — is out of scope per spec §1; this package
// only assumes an ordered, authenticated, length-delimited bidirectional
// byte stream, grounded on the same dedup-cache-plus-ticker shape as
// itinance-hypersdk/gossiper/proposer.go's Proposer/ProposerConfig).
package gossip
