package piece

import "sync"

// RarityIndex is the rarest_ordered sequence: piece indices ordered by
// ascending availability across connected peers, ties broken by piece
// index. It is owned by the peer-wire subsystem, which mutates it as peers
// connect, disconnect, and advertise new pieces; selection strategies only
// ever take a read guard on it.
type RarityIndex struct {
	mu      sync.RWMutex
	ordered []int
}

// NewRarityIndex wraps an already rarest-first-ordered slice of piece
// indices. Callers that maintain availability counts are responsible for
// keeping it in that order as peers come and go.
func NewRarityIndex(ordered []int) *RarityIndex {
	cp := make([]int, len(ordered))
	copy(cp, ordered)
	return &RarityIndex{ordered: cp}
}

// Set replaces the ordering wholesale, e.g. after a recompute sweep.
func (r *RarityIndex) Set(ordered []int) {
	cp := make([]int, len(ordered))
	copy(cp, ordered)
	r.mu.Lock()
	r.ordered = cp
	r.mu.Unlock()
}

// Snapshot returns a copy of the current ordering, taken under a shared
// read guard so a concurrent Set doesn't tear a strategy's view of it.
func (r *RarityIndex) Snapshot() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int, len(r.ordered))
	copy(out, r.ordered)
	return out
}
