package swarm

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// peerShardCount governs how many independent locks the peer map is split
// across. Per spec, operations are per-key atomic and no cross-key
// transaction is required, which is exactly what licenses sharding: two
// announces for different peer ids almost always land on different shards
// and never contend.
const peerShardCount = 16

type peerShard struct {
	mu    sync.RWMutex
	peers map[string]*TrackedPeer
}

// peerMap is a concurrency-safe map from hex_peer_id to *TrackedPeer,
// sharded by the xxhash of the key so that concurrent announces for
// distinct peers rarely block each other.
type peerMap struct {
	shards [peerShardCount]*peerShard
}

func newPeerMap() *peerMap {
	m := &peerMap{}
	for i := range m.shards {
		m.shards[i] = &peerShard{peers: make(map[string]*TrackedPeer)}
	}
	return m
}

func (m *peerMap) shardFor(hexPeerID string) *peerShard {
	h := xxhash.Sum64String(hexPeerID)
	return m.shards[h%peerShardCount]
}

func (m *peerMap) get(hexPeerID string) (*TrackedPeer, bool) {
	s := m.shardFor(hexPeerID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.peers[hexPeerID]
	return p, ok
}

func (m *peerMap) put(hexPeerID string, p *TrackedPeer) {
	s := m.shardFor(hexPeerID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[hexPeerID] = p
}

// remove deletes hexPeerID and returns the removed peer, if any.
func (m *peerMap) remove(hexPeerID string) (*TrackedPeer, bool) {
	s := m.shardFor(hexPeerID)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[hexPeerID]
	if ok {
		delete(s.peers, hexPeerID)
	}
	return p, ok
}

// len returns the total number of tracked peers across all shards.
func (m *peerMap) len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.peers)
		s.mu.RUnlock()
	}
	return n
}

// snapshot returns a copy of every peer pointer currently tracked. The
// slice is a point-in-time view; callers that remove entries while
// iterating should do so through remove, not by mutating this slice.
func (m *peerMap) snapshot() []*TrackedPeer {
	out := make([]*TrackedPeer, 0, m.len())
	for _, s := range m.shards {
		s.mu.RLock()
		for _, p := range s.peers {
			out = append(out, p)
		}
		s.mu.RUnlock()
	}
	return out
}

// forEachShard lets callers (the collector) walk and mutate one shard at a
// time, tolerating concurrent removal within the shard's own lock.
func (m *peerMap) forEachShard(fn func(s *peerShard)) {
	for _, s := range m.shards {
		fn(s)
	}
}
