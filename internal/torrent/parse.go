package torrent

import (
	"crypto/sha1"
	"fmt"
	"os"

	"bttracker/internal/bencode"
)

// Open reads and parses a .torrent file from disk.
func Open(filename string) (*Torrent, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("torrent: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes raw .torrent bytes into a Torrent descriptor, computing the
// info-hash as the SHA-1 of the re-encoded (canonical) "info" dictionary.
// The raw bytes of the source file are not hashed, so a file whose info
// dictionary is not in canonical form yields a different hash than the SHA-1
// of its own bytes.
func Parse(data []byte) (*Torrent, error) {
	decoded, err := bencode.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("torrent: decode: %w", err)
	}

	top, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("torrent: root value is not a dictionary")
	}

	infoVal, ok := top["info"]
	if !ok {
		return nil, fmt.Errorf("torrent: missing info dictionary")
	}
	infoMap, ok := infoVal.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("torrent: info is not a dictionary")
	}

	infoBytes, err := bencode.Encode(infoVal)
	if err != nil {
		return nil, fmt.Errorf("torrent: re-encode info dict: %w", err)
	}
	hash := sha1.Sum(infoBytes)

	t := &Torrent{InfoHash: hash}
	if err := populateFromInfo(t, infoMap); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func populateFromInfo(t *Torrent, infoMap map[string]interface{}) error {
	name, _ := infoMap["name"].(string)
	t.Name = name

	pieceLength, ok := infoMap["piece length"].(int64)
	if !ok {
		return fmt.Errorf("torrent: missing or invalid 'piece length'")
	}
	t.PieceLength = pieceLength

	piecesStr, ok := infoMap["pieces"].(string)
	if !ok {
		return fmt.Errorf("torrent: missing or invalid 'pieces'")
	}
	if len(piecesStr)%20 != 0 {
		return fmt.Errorf("torrent: pieces length %d is not a multiple of 20", len(piecesStr))
	}
	numPieces := len(piecesStr) / 20
	t.PieceHashes = make([][20]byte, numPieces)
	for i := 0; i < numPieces; i++ {
		copy(t.PieceHashes[i][:], piecesStr[i*20:(i+1)*20])
	}

	if length, ok := infoMap["length"].(int64); ok {
		t.TotalLength = length
		return nil
	}

	filesVal, ok := infoMap["files"].([]interface{})
	if !ok {
		return fmt.Errorf("torrent: must have either 'length' or 'files'")
	}
	var total int64
	for _, fv := range filesVal {
		fm, ok := fv.(map[string]interface{})
		if !ok {
			return fmt.Errorf("torrent: invalid file entry")
		}
		length, ok := fm["length"].(int64)
		if !ok {
			return fmt.Errorf("torrent: file missing length")
		}
		pathVal, ok := fm["path"].([]interface{})
		if !ok {
			return fmt.Errorf("torrent: file missing path")
		}
		path := make([]string, 0, len(pathVal))
		for _, p := range pathVal {
			s, ok := p.(string)
			if !ok {
				return fmt.Errorf("torrent: invalid path component")
			}
			path = append(path, s)
		}
		t.Files = append(t.Files, File{Length: length, Path: path})
		total += length
	}
	t.TotalLength = total
	return nil
}
