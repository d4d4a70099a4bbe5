package ratelog

import (
	"encoding/hex"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/rng-ops/gossip/internal/event"
)

// Init starts the process-wide logger at level, mirroring the teacher's
// logger.New(level) call during startup.
func Init(level string) {
	logger.New(level)
}

// Log wraps a logger.Logger scoped to one service name, adding the
// world/terrain/emitter fields every layer of this module logs.
type Log struct {
	logger.Logger
}

// New returns a Log scoped to service, the way mmrtesting.TestContext scopes
// its logger to a test label via logger.Sugar.WithServiceName.
func New(service string) Log {
	return Log{Logger: logger.Sugar.WithServiceName(service)}
}

func hex8(id [32]byte) string {
	return hex.EncodeToString(id[:8])
}

// World formats a WorldID as the short hex prefix every log line uses.
func World(w event.WorldID) string { return hex8([32]byte(w)) }

// Emitter formats an emitter public key's leading bytes for a log line
// without dumping the full 32-byte key.
func Emitter(pub []byte) string {
	var b [32]byte
	copy(b[:], pub)
	return hex8(b)
}

// Terrain formats a TerrainAddress compactly for a log line.
func Terrain(t event.TerrainAddress) string {
	return hex.EncodeToString([]byte{
		byte(t.Region >> 24), byte(t.Region >> 16), byte(t.Region >> 8), byte(t.Region),
		byte(t.Chunk >> 24), byte(t.Chunk >> 16), byte(t.Chunk >> 8), byte(t.Chunk),
		byte(t.Cell >> 24), byte(t.Cell >> 16), byte(t.Cell >> 8), byte(t.Cell),
	})
}
