package gossip

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PeerConfig mirrors §4.5's peer-selection defaults.
type PeerConfig struct {
	NActive    int           // working-set size (default 8)
	NRandom    int           // slots filled uniformly at random (default 2)
	EvictAfter time.Duration // inactivity horizon, 3 x T_gossip
}

func DefaultPeerConfig() PeerConfig {
	return PeerConfig{NActive: 8, NRandom: 2, EvictAfter: 90 * time.Second}
}

// PeerInfo is everything the scoring function and the working-set
// selector need to know about one known peer.
type PeerInfo struct {
	ID                   uuid.UUID
	LatencyMS            float64
	TerrainOverlapScore  float64 // 0..1, fraction of cells of interest shared
	InterestOverlapScore float64 // 0..1, fraction of subscribed worlds shared
	LastSeen             time.Time
	BusyUntil            time.Time // honor SyncBusy's retry_after (§4.5)
}

func (p PeerInfo) busy(now time.Time) bool {
	return now.Before(p.BusyUntil)
}

// score combines the §4.5 factors; lower latency and higher overlap score
// higher. The random jitter term is added separately by WorkingSet so
// repeated calls don't silently reshuffle a stable top set.
func score(p PeerInfo) float64 {
	latencyScore := 1.0 / (1.0 + p.LatencyMS/1000.0)
	return 0.4*latencyScore + 0.3*p.TerrainOverlapScore + 0.3*p.InterestOverlapScore
}

// PeerTable is the shared, reader-writer-disciplined peer set of §5:
// "writers only for membership changes."
type PeerTable struct {
	cfg PeerConfig

	mu    sync.RWMutex
	peers map[uuid.UUID]*PeerInfo
}

func NewPeerTable(cfg PeerConfig) *PeerTable {
	return &PeerTable{cfg: cfg, peers: make(map[uuid.UUID]*PeerInfo)}
}

// Upsert records a peer as seen, creating it if unknown.
func (t *PeerTable) Upsert(info PeerInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := info
	t.peers[info.ID] = &cp
}

// MarkBusy honors a SyncBusy{retry_after} from a peer (§4.5).
func (t *PeerTable) MarkBusy(id uuid.UUID, retryAfter time.Duration, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.peers[id]; ok {
		p.BusyUntil = now.Add(retryAfter)
	}
}

// EvictStale removes peers inactive for more than cfg.EvictAfter and
// returns their ids (§5 timeouts: "3 x T_gossip evicts that peer").
func (t *PeerTable) EvictStale(now time.Time) []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	var evicted []uuid.UUID
	for id, p := range t.peers {
		if now.Sub(p.LastSeen) > t.cfg.EvictAfter {
			delete(t.peers, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// WorkingSet selects up to NActive peers: the top-scoring (NActive-NRandom)
// non-busy peers, plus NRandom slots filled uniformly at random from the
// remainder, per §4.5 ("to avoid clustering").
func (t *PeerTable) WorkingSet(now time.Time, rnd *rand.Rand) []PeerInfo {
	t.mu.RLock()
	candidates := make([]PeerInfo, 0, len(t.peers))
	for _, p := range t.peers {
		if p.busy(now) {
			continue
		}
		candidates = append(candidates, *p)
	}
	t.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool { return score(candidates[i]) > score(candidates[j]) })

	scoredCount := t.cfg.NActive - t.cfg.NRandom
	if scoredCount < 0 {
		scoredCount = 0
	}
	if scoredCount > len(candidates) {
		scoredCount = len(candidates)
	}

	chosen := make([]PeerInfo, 0, t.cfg.NActive)
	chosen = append(chosen, candidates[:scoredCount]...)

	rest := candidates[scoredCount:]
	rnd.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	randomCount := t.cfg.NRandom
	if randomCount > len(rest) {
		randomCount = len(rest)
	}
	chosen = append(chosen, rest[:randomCount]...)
	return chosen
}
