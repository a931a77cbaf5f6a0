package swarm

import (
	"sync"

	"bttracker/internal/torrent"
	"bttracker/internal/trackerr"
)

// Registry maps info-hash to Swarm. Registration and unregistration are
// rare relative to announces, so the registry itself uses a single
// exclusive-writer guard; the read-mostly lookup path only needs an RLock.
type Registry struct {
	mu     sync.RWMutex
	swarms map[torrent.InfoHash]*Swarm
	clock  Clock
}

// NewRegistry returns an empty Registry. clock is threaded into every Swarm
// it creates; pass nil to use the system clock.
func NewRegistry(clock Clock) *Registry {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Registry{swarms: make(map[torrent.InfoHash]*Swarm), clock: clock}
}

// Register creates and stores a Swarm for t. A Swarm is never created
// implicitly from an announce -- only through Register.
func (r *Registry) Register(t *torrent.Torrent, answerPeers, announceIntervalSeconds int) (*Swarm, error) {
	sw, err := NewSwarm(t, answerPeers, announceIntervalSeconds, r.clock)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swarms[t.InfoHash] = sw
	return sw, nil
}

// Unregister removes a swarm entirely, destroying its state.
func (r *Registry) Unregister(infoHash torrent.InfoHash) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.swarms, infoHash)
}

// Get looks up the swarm for infoHash. An unknown info-hash is reported as
// UnknownTorrent, which the caller maps to a TrackerError rather than
// silently creating a swarm.
func (r *Registry) Get(infoHash torrent.InfoHash) (*Swarm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sw, ok := r.swarms[infoHash]
	if !ok {
		return nil, trackerr.New(trackerr.KindUnknownTorrent, "unknown torrent")
	}
	return sw, nil
}

// Swarms returns a snapshot of every registered swarm, used by the
// periodic collector to sweep all of them.
func (r *Registry) Swarms() []*Swarm {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Swarm, 0, len(r.swarms))
	for _, sw := range r.swarms {
		out = append(out, sw)
	}
	return out
}

// Len returns the number of registered swarms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.swarms)
}
