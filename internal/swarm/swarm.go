// Package swarm implements the per-torrent peer registry: the mapping from
// peer-id to TrackedPeer, the update() transition table that drives it, and
// the peer-sampling algorithm that answers an announce.
package swarm

import (
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/google/uuid"

	"bttracker/internal/torrent"
	"bttracker/internal/trackerr"
	"bttracker/internal/util"
)

// MinAnnounceIntervalSeconds is the floor for a swarm's announce interval
// (I4).
const MinAnnounceIntervalSeconds = 5

// DefaultAnnounceIntervalSeconds and DefaultAnswerPeers are the values a
// newly registered swarm uses unless told otherwise.
const (
	DefaultAnnounceIntervalSeconds = 10
	DefaultAnswerPeers             = 30
)

// Swarm is the set of peers exchanging one torrent, keyed by info-hash in a
// Registry. All exported methods are safe for concurrent use.
type Swarm struct {
	Torrent *torrent.Torrent
	peers   *peerMap
	clock   Clock

	answerPeers       int
	announceIntervalS int
	trackerID         string

	// totalCompleted is a monotonic lifetime counter of COMPLETED
	// transitions, never decremented as peers leave -- the "downloaded"
	// figure in a scrape response.
	totalCompleted int64

	rng *rand.Rand
}

// NewSwarm creates a Swarm for t with the given answerPeers cap and
// announce interval. It never auto-vivifies from an announce; a Swarm only
// comes into being through explicit registration.
func NewSwarm(t *torrent.Torrent, answerPeers, announceIntervalSeconds int, clock Clock) (*Swarm, error) {
	if announceIntervalSeconds < MinAnnounceIntervalSeconds {
		return nil, trackerr.New(trackerr.KindInvalidInterval,
			fmt.Sprintf("announce interval must be >= %d seconds", MinAnnounceIntervalSeconds))
	}
	if answerPeers <= 0 {
		answerPeers = DefaultAnswerPeers
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Swarm{
		Torrent:           t,
		peers:             newPeerMap(),
		clock:             clock,
		answerPeers:       answerPeers,
		announceIntervalS: announceIntervalSeconds,
		trackerID:         uuid.NewString(),
		rng:               rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// TrackerID is the opaque id minted once for this swarm and handed back to
// clients; they may echo it on later announces but it is never required.
func (s *Swarm) TrackerID() string { return s.trackerID }

// AnswerPeers is the configured cap on peers returned per announce.
func (s *Swarm) AnswerPeers() int { return s.answerPeers }

// AnnounceIntervalSeconds is the interval advertised back to peers.
func (s *Swarm) AnnounceIntervalSeconds() int { return s.announceIntervalS }

// SetAnnounceInterval validates and updates the swarm's announce interval
// (P7 in spec.md's scenario 7). Configuration errors of this kind fail
// loudly rather than silently clamping.
func (s *Swarm) SetAnnounceInterval(seconds int) error {
	if seconds < MinAnnounceIntervalSeconds {
		return trackerr.New(trackerr.KindInvalidInterval,
			fmt.Sprintf("announce interval must be >= %d seconds, got %d", MinAnnounceIntervalSeconds, seconds))
	}
	s.announceIntervalS = seconds
	return nil
}

func (s *Swarm) announceInterval() time.Duration {
	return time.Duration(s.announceIntervalS) * time.Second
}

// Len returns the number of peers currently tracked (I5's |peers|).
func (s *Swarm) Len() int { return s.peers.len() }

// Counts returns (seeders, leechers) such that seeders+leechers == Len()
// (I5 / P4).
func (s *Swarm) Counts() (seeders, leechers int) {
	for _, p := range s.peers.snapshot() {
		snap := p.snapshot()
		if snap.State == StateCompleted {
			seeders++
		} else {
			leechers++
		}
	}
	return
}

// TotalCompleted is the lifetime count of COMPLETED transitions, used for
// scrape's "downloaded" field.
func (s *Swarm) TotalCompleted() int64 { return s.totalCompleted }

// Update applies an announce event to the swarm, following the transition
// table in spec.md §4.3, and returns the resulting (possibly synthetic)
// peer record.
func (s *Swarm) Update(event Event, peerID [20]byte, ip net.IP, port uint16, uploaded, downloaded, left int64) (*TrackedPeer, error) {
	hexID := util.HexPeerID(peerID)
	now := s.clock.Now()

	switch event {
	case EventStarted:
		p := &TrackedPeer{
			PeerID:    peerID,
			HexPeerID: hexID,
		}
		p.refresh(StateStarted, ip, port, uploaded, downloaded, left, now)
		s.peers.put(hexID, p)
		return p, nil

	case EventStopped:
		removed, ok := s.peers.remove(hexID)
		if !ok {
			// Edge case: STOPPED on an unknown peer is a no-op on the
			// map, but the caller still gets a synthetic reply.
			synthetic := &TrackedPeer{PeerID: peerID, HexPeerID: hexID}
			synthetic.refresh(StateStopped, ip, port, uploaded, downloaded, left, now)
			return synthetic, nil
		}
		removed.refresh(StateStopped, ip, port, uploaded, downloaded, left, now)
		return removed, nil

	case EventCompleted:
		p, ok := s.peers.get(hexID)
		if !ok {
			return nil, trackerr.New(trackerr.KindPeerUnknown, "missing 'started' event")
		}
		p.refresh(StateCompleted, ip, port, uploaded, downloaded, left, now)
		s.totalCompleted++
		return p, nil

	case EventNone:
		p, ok := s.peers.get(hexID)
		if !ok {
			return nil, trackerr.New(trackerr.KindPeerUnknown, "missing 'started' event")
		}
		p.refresh(StateStarted, ip, port, uploaded, downloaded, left, now)
		return p, nil

	default:
		return nil, trackerr.New(trackerr.KindInvalidEvent, fmt.Sprintf("unrecognized event %d", event))
	}
}

// GetSomePeers samples up to AnswerPeers() distinct peers for an announce
// response, excluding requester and any stale/zombie entries it encounters
// along the way (spec.md §4.4). It is the only place sampling-time
// eviction happens; the collector (§4.5) is the source of bulk eviction.
func (s *Swarm) GetSomePeers(requester *TrackedPeer) []TrackedPeer {
	candidates := s.peers.snapshot()

	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	interval := s.announceInterval()
	now := s.clock.Now()
	requesterSnap := requester.snapshot()

	result := make([]TrackedPeer, 0, s.answerPeers)
	for _, candidate := range candidates {
		if len(result) >= s.answerPeers {
			break
		}

		candidateSnap := candidate.snapshot()

		if !candidate.isFresh(now, interval) {
			s.peers.remove(candidateSnap.HexPeerID)
			continue
		}

		if sameEndpoint(&candidateSnap, &requesterSnap) && candidateSnap.PeerID != requesterSnap.PeerID {
			// Zombie clone: same (ip, port) as the requester but a
			// different identity, left behind by a client that
			// reconnected from the same endpoint with a new peer-id.
			s.peers.remove(candidateSnap.HexPeerID)
			continue
		}

		if sameEndpoint(&requesterSnap, &candidateSnap) {
			// Don't include the requester itself.
			continue
		}

		result = append(result, candidateSnap)
	}
	return result
}

// CollectUnfresh removes every peer whose last announce has aged past
// 2x the announce interval (spec.md §4.5). It tolerates concurrent
// mutation: each shard is visited under its own lock, independent of the
// others.
func (s *Swarm) CollectUnfresh() int {
	interval := s.announceInterval()
	now := s.clock.Now()
	evicted := 0

	s.peers.forEachShard(func(shard *peerShard) {
		shard.mu.Lock()
		defer shard.mu.Unlock()
		for hexID, p := range shard.peers {
			if !p.isFresh(now, interval) {
				delete(shard.peers, hexID)
				evicted++
			}
		}
	})
	return evicted
}
