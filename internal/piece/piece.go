// Package piece implements the piece-selection strategies a client uses to
// decide which piece to request next from a peer: sequential and
// rarest-first-with-jitter. It does not track block-level download state or
// talk to a disk cache -- those belong to the peer-wire subsystem, out of
// scope for this core.
package piece

// Piece is one entry of a torrent's piece array, as the selection
// strategies see it: just enough to identify and verify a piece, not the
// block-level bookkeeping the disk cache owns.
type Piece struct {
	Index  int
	Hash   [20]byte
	Length int64
}

// Bitfield is a bit-set indexed by piece index, true iff the remote peer
// has the piece and the local client lacks it.
type Bitfield []bool

// Has reports whether bit index is set. An out-of-range index is never
// interesting.
func (b Bitfield) Has(index int) bool {
	if index < 0 || index >= len(b) {
		return false
	}
	return b[index]
}

// Strategy chooses the next piece to request, given the current rarity
// ordering, the set of remotely-held-but-locally-missing pieces, and the
// full piece array. It returns ok=false when nothing qualifies.
type Strategy interface {
	ChoosePiece(rarity *RarityIndex, interesting Bitfield, allPieces []Piece) (index int, ok bool)
}
