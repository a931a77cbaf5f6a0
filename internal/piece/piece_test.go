package piece

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makePieces(n int) []Piece {
	out := make([]Piece, n)
	for i := range out {
		out[i] = Piece{Index: i}
	}
	return out
}

func TestSequentialReturnsSmallestInterestingIndex(t *testing.T) {
	all := makePieces(10)
	interesting := Bitfield{false, false, true, false, true, true, false, false, false, false}

	index, ok := Sequential{}.ChoosePiece(nil, interesting, all)
	require.True(t, ok)
	require.Equal(t, 2, index)
}

func TestSequentialNoneWhenNothingInteresting(t *testing.T) {
	all := makePieces(4)
	interesting := Bitfield{false, false, false, false}

	_, ok := Sequential{}.ChoosePiece(nil, interesting, all)
	require.False(t, ok)
}

func TestRarestFirstWithJitterStaysWithinBound(t *testing.T) {
	const total = 100
	all := makePieces(total)
	interesting := make(Bitfield, total)
	for i := range interesting {
		interesting[i] = true
	}

	ordered := make([]int, total)
	for i := range ordered {
		ordered[i] = total - 1 - i // descending, i.e. rarest-first by construction
	}
	rarity := NewRarityIndex(ordered)

	strategy := NewRarestFirstWithJitter()
	allowed := make(map[int]bool, RarestPieceJitter)
	for _, idx := range ordered[:RarestPieceJitter] {
		allowed[idx] = true
	}

	for i := 0; i < 200; i++ {
		index, ok := strategy.ChoosePiece(rarity, interesting, all)
		require.True(t, ok)
		require.True(t, allowed[index], "index %d outside the top %d rarest", index, RarestPieceJitter)
	}
}

func TestRarestFirstWithJitterNoneWhenNothingInteresting(t *testing.T) {
	all := makePieces(5)
	interesting := make(Bitfield, 5)
	rarity := NewRarityIndex([]int{4, 3, 2, 1, 0})

	_, ok := NewRarestFirstWithJitter().ChoosePiece(rarity, interesting, all)
	require.False(t, ok)
}

func TestRarestFirstWithJitterFewerThanJitterCandidates(t *testing.T) {
	all := makePieces(5)
	interesting := Bitfield{true, false, false, false, true}
	rarity := NewRarityIndex([]int{4, 3, 2, 1, 0})

	strategy := NewRarestFirstWithJitter()
	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		index, ok := strategy.ChoosePiece(rarity, interesting, all)
		require.True(t, ok)
		require.True(t, index == 0 || index == 4)
		seen[index] = true
	}
	require.Len(t, seen, 2, "expected both candidates to appear over enough draws")
}

func TestRarityIndexSnapshotIsIndependentCopy(t *testing.T) {
	rarity := NewRarityIndex([]int{1, 2, 3})
	snap := rarity.Snapshot()
	rarity.Set([]int{9, 9, 9})
	require.Equal(t, []int{1, 2, 3}, snap)
}
