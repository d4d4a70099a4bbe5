package belief

import (
	"encoding/binary"

	"github.com/rng-ops/gossip/internal/event"
	"github.com/rng-ops/gossip/internal/tgcrypto"
)

// clusterKey groups attestations that likely share a common vantage point
// — same network prefix, reported terrain, and timing bucket — so the
// aggregator can saturate their combined influence (§4.7 diversity
// weighting, Scenario F).
type clusterKey [32]byte

func clusterKeyFor(att *event.BehaviorAttestation) clusterKey {
	terrainBytes := make([]byte, 12)
	binary.BigEndian.PutUint32(terrainBytes[0:4], att.ReportedTerrain.Region)
	binary.BigEndian.PutUint32(terrainBytes[4:8], att.ReportedTerrain.Chunk)
	binary.BigEndian.PutUint32(terrainBytes[8:12], att.ReportedTerrain.Cell)

	var bucket [8]byte
	binary.BigEndian.PutUint64(bucket[:], uint64(att.TimingBucketMS))

	return clusterKey(tgcrypto.H("belief-cluster", att.NetworkPrefix, terrainBytes, bucket[:]))
}
