package piece

import (
	"math/rand"
	"time"
)

// Sequential always returns the smallest-index piece the remote peer has
// that the local client lacks. Deterministic, stateless.
type Sequential struct{}

func (Sequential) ChoosePiece(rarity *RarityIndex, interesting Bitfield, allPieces []Piece) (int, bool) {
	for _, p := range allPieces {
		if interesting.Has(p.Index) {
			return p.Index, true
		}
	}
	return 0, false
}

// RarestPieceJitter bounds how many of the rarest interesting pieces
// RarestFirstWithJitter will consider before picking at random. Fixed at 42
// by the contract this strategy implements; not configurable.
const RarestPieceJitter = 42

// RarestFirstWithJitter prefers pieces held by fewer peers, but picks
// uniformly among the top RarestPieceJitter rarest interesting candidates
// rather than always the single rarest -- this keeps every client in a
// swarm from racing for the same piece at once.
type RarestFirstWithJitter struct {
	rng *rand.Rand
}

// NewRarestFirstWithJitter seeds the strategy's random source from
// wall-clock time, once, at construction.
func NewRarestFirstWithJitter() *RarestFirstWithJitter {
	return &RarestFirstWithJitter{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *RarestFirstWithJitter) ChoosePiece(rarity *RarityIndex, interesting Bitfield, allPieces []Piece) (int, bool) {
	ordered := rarity.Snapshot()

	candidates := make([]int, 0, RarestPieceJitter)
	for _, index := range ordered {
		if len(candidates) >= RarestPieceJitter {
			break
		}
		if interesting.Has(index) {
			candidates = append(candidates, index)
		}
	}

	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[s.rng.Intn(len(candidates))], true
}
