package trackermsg

import (
	"encoding/binary"
	"net"

	"bttracker/internal/swarm"
	"bttracker/internal/trackerr"
	"bttracker/internal/util"
)

// BEP-15 constants.
const (
	protocolMagic int64 = 0x41727101980

	actionConnect  int32 = 0
	actionAnnounce int32 = 1
	actionScrape   int32 = 2
	actionError    int32 = 3
)

// udpEventFromWire and udpEventToWire map BEP-15's wire event codes to the shared swarm.Event
// enum; note the wire order (0=none, 1=completed, 2=started, 3=stopped)
// does not match swarm.Event's own iota order, so this mapping has to be
// explicit rather than a cast.
var udpEventFromWire = map[int32]int{0: 0, 1: 2, 2: 1, 3: 3}
var udpEventToWire = map[int]int32{0: 0, 1: 2, 2: 1, 3: 3}

// DecodeConnectRequest parses a 16-byte BEP-15 connect request.
func DecodeConnectRequest(frame []byte) (*ConnectRequest, error) {
	if len(frame) != 16 {
		return nil, trackerr.New(trackerr.KindInvalidFrame, "connect request must be 16 bytes")
	}
	magic := int64(binary.BigEndian.Uint64(frame[0:8]))
	action := int32(binary.BigEndian.Uint32(frame[8:12]))
	if magic != protocolMagic {
		return nil, trackerr.New(trackerr.KindInvalidFrame, "bad connect magic")
	}
	if action != actionConnect {
		return nil, trackerr.New(trackerr.KindInvalidFrame, "action mismatch for connect request")
	}
	return &ConnectRequest{TransactionID: binary.BigEndian.Uint32(frame[12:16])}, nil
}

// EncodeConnectResponse renders a 16-byte BEP-15 connect response.
func EncodeConnectResponse(resp *ConnectResponse) []byte {
	out := make([]byte, 16)
	binary.BigEndian.PutUint32(out[0:4], uint32(actionConnect))
	binary.BigEndian.PutUint32(out[4:8], resp.TransactionID)
	binary.BigEndian.PutUint64(out[8:16], resp.ConnectionID)
	return out
}

// udpAnnounceRequestLen is the fixed size of a BEP-15 announce request.
const udpAnnounceRequestLen = 98

// DecodeAnnounceRequestUDP parses a 98-byte BEP-15 announce request. The
// returned connectionID must be checked by the caller against a previously
// issued connect response.
func DecodeAnnounceRequestUDP(frame []byte) (connectionID uint64, req *AnnounceRequest, transactionID uint32, err error) {
	if len(frame) != udpAnnounceRequestLen {
		return 0, nil, 0, trackerr.New(trackerr.KindInvalidFrame, "announce request must be 98 bytes")
	}
	action := int32(binary.BigEndian.Uint32(frame[8:12]))
	if action != actionAnnounce {
		return 0, nil, 0, trackerr.New(trackerr.KindInvalidFrame, "action mismatch for announce request")
	}

	connectionID = binary.BigEndian.Uint64(frame[0:8])
	transactionID = binary.BigEndian.Uint32(frame[12:16])

	req = &AnnounceRequest{}
	copy(req.InfoHash[:], frame[16:36])
	copy(req.PeerID[:], frame[36:56])
	req.Downloaded = int64(binary.BigEndian.Uint64(frame[56:64]))
	req.Left = int64(binary.BigEndian.Uint64(frame[64:72]))
	req.Uploaded = int64(binary.BigEndian.Uint64(frame[72:80]))

	wireEvent := int32(binary.BigEndian.Uint32(frame[80:84]))
	eventOrdinal, ok := udpEventFromWire[wireEvent]
	if !ok {
		return 0, nil, 0, trackerr.New(trackerr.KindInvalidEvent, "unrecognized UDP event code")
	}
	req.Event = eventFromOrdinal(eventOrdinal)

	if ipBits := binary.BigEndian.Uint32(frame[84:88]); ipBits != 0 {
		req.IP = net.IPv4(byte(ipBits>>24), byte(ipBits>>16), byte(ipBits>>8), byte(ipBits))
	}

	numWant := int32(binary.BigEndian.Uint32(frame[92:96]))
	if numWant < 0 {
		req.NumWant = -1
	} else {
		req.NumWant = int(numWant)
	}

	req.Port = binary.BigEndian.Uint16(frame[96:98])

	return connectionID, req, transactionID, nil
}

// EncodeAnnounceResponseUDP renders a BEP-15 announce response. Field
// order is incomplete (leechers) then complete (seeders) -- inverted from
// the intuitive seeder-first order, but this is what BEP-15 specifies and
// it must be preserved exactly.
func EncodeAnnounceResponseUDP(transactionID uint32, resp *AnnounceResponse) ([]byte, error) {
	out := make([]byte, 20, 20+len(resp.Peers)*6)
	binary.BigEndian.PutUint32(out[0:4], uint32(actionAnnounce))
	binary.BigEndian.PutUint32(out[4:8], transactionID)
	binary.BigEndian.PutUint32(out[8:12], uint32(resp.IntervalSeconds))
	binary.BigEndian.PutUint32(out[12:16], uint32(resp.Incomplete))
	binary.BigEndian.PutUint32(out[16:20], uint32(resp.Complete))

	for _, p := range resp.Peers {
		tuple, err := util.PackIPv4Port(p.IP, p.Port)
		if err != nil {
			// The UDP wire form is IPv4-only (spec.md's open question,
			// resolved as option (a)): silently drop IPv6 peers rather
			// than fail the whole response.
			continue
		}
		out = append(out, tuple[:]...)
	}
	return out, nil
}

// DecodeAnnounceResponseUDP parses a BEP-15 announce response, used by
// tests to verify the encoder round-trips (scenario 6 in spec.md §8).
func DecodeAnnounceResponseUDP(frame []byte) (transactionID uint32, resp *AnnounceResponse, err error) {
	if len(frame) < 20 {
		return 0, nil, trackerr.New(trackerr.KindInvalidFrame, "announce response shorter than 20 bytes")
	}
	if (len(frame)-20)%6 != 0 {
		return 0, nil, trackerr.New(trackerr.KindInvalidFrame, "announce response length not 20+6n")
	}
	action := int32(binary.BigEndian.Uint32(frame[0:4]))
	if action != actionAnnounce {
		return 0, nil, trackerr.New(trackerr.KindInvalidFrame, "action mismatch for announce response")
	}

	transactionID = binary.BigEndian.Uint32(frame[4:8])
	resp = &AnnounceResponse{
		IntervalSeconds: int(binary.BigEndian.Uint32(frame[8:12])),
		Incomplete:      int(binary.BigEndian.Uint32(frame[12:16])),
		Complete:        int(binary.BigEndian.Uint32(frame[16:20])),
	}

	for i := 20; i+6 <= len(frame); i += 6 {
		var tuple [6]byte
		copy(tuple[:], frame[i:i+6])
		ip, port := util.UnpackIPv4Port(tuple)
		resp.Peers = append(resp.Peers, PeerAddr{IP: ip, Port: port})
	}
	return transactionID, resp, nil
}

// EncodeErrorResponseUDP renders a BEP-15 error frame: action 3,
// transaction-id, then the message bytes to the end of the frame.
func EncodeErrorResponseUDP(transactionID uint32, message string) []byte {
	out := make([]byte, 8, 8+len(message))
	binary.BigEndian.PutUint32(out[0:4], uint32(actionError))
	binary.BigEndian.PutUint32(out[4:8], transactionID)
	return append(out, message...)
}

// DecodeScrapeRequestUDP parses a variable-length BEP-15 scrape request:
// connection-id, action, transaction-id, then zero or more 20-byte
// info-hashes.
func DecodeScrapeRequestUDP(frame []byte) (connectionID uint64, req *ScrapeRequest, err error) {
	if len(frame) < 16 || (len(frame)-16)%20 != 0 {
		return 0, nil, trackerr.New(trackerr.KindInvalidFrame, "malformed scrape request length")
	}
	action := int32(binary.BigEndian.Uint32(frame[8:12]))
	if action != actionScrape {
		return 0, nil, trackerr.New(trackerr.KindInvalidFrame, "action mismatch for scrape request")
	}

	connectionID = binary.BigEndian.Uint64(frame[0:8])
	req = &ScrapeRequest{TransactionID: binary.BigEndian.Uint32(frame[12:16])}
	for i := 16; i+20 <= len(frame); i += 20 {
		var h [20]byte
		copy(h[:], frame[i:i+20])
		req.InfoHashes = append(req.InfoHashes, h)
	}
	return connectionID, req, nil
}

// EncodeScrapeResponseUDP renders a BEP-15 scrape response: action,
// transaction-id, then 12 bytes per torrent (complete, downloaded,
// incomplete -- in that order, per BEP-15, distinct from announce's order).
func EncodeScrapeResponseUDP(resp *ScrapeResponse) []byte {
	out := make([]byte, 8, 8+len(resp.Stats)*12)
	binary.BigEndian.PutUint32(out[0:4], uint32(actionScrape))
	binary.BigEndian.PutUint32(out[4:8], resp.TransactionID)
	for _, s := range resp.Stats {
		var entry [12]byte
		binary.BigEndian.PutUint32(entry[0:4], uint32(s.Complete))
		binary.BigEndian.PutUint32(entry[4:8], uint32(s.Downloaded))
		binary.BigEndian.PutUint32(entry[8:12], uint32(s.Incomplete))
		out = append(out, entry[:]...)
	}
	return out
}

func eventFromOrdinal(o int) swarm.Event { return swarm.Event(o) }

// EncodeAnnounceRequestUDP renders a 98-byte BEP-15 announce request, the
// inverse of DecodeAnnounceRequestUDP. Used by round-trip tests and by any
// future UDP-speaking client built on this package.
func EncodeAnnounceRequestUDP(connectionID uint64, transactionID uint32, req *AnnounceRequest) []byte {
	out := make([]byte, udpAnnounceRequestLen)
	binary.BigEndian.PutUint64(out[0:8], connectionID)
	binary.BigEndian.PutUint32(out[8:12], uint32(actionAnnounce))
	binary.BigEndian.PutUint32(out[12:16], transactionID)
	copy(out[16:36], req.InfoHash[:])
	copy(out[36:56], req.PeerID[:])
	binary.BigEndian.PutUint64(out[56:64], uint64(req.Downloaded))
	binary.BigEndian.PutUint64(out[64:72], uint64(req.Left))
	binary.BigEndian.PutUint64(out[72:80], uint64(req.Uploaded))
	binary.BigEndian.PutUint32(out[80:84], uint32(udpEventToWire[int(req.Event)]))

	var ipBits uint32
	if v4 := req.IP.To4(); v4 != nil {
		ipBits = binary.BigEndian.Uint32(v4)
	}
	binary.BigEndian.PutUint32(out[84:88], ipBits)
	binary.BigEndian.PutUint32(out[88:92], 0) // key, unused by this core

	numWant := int32(-1)
	if req.NumWant >= 0 {
		numWant = int32(req.NumWant)
	}
	binary.BigEndian.PutUint32(out[92:96], uint32(numWant))
	binary.BigEndian.PutUint16(out[96:98], req.Port)
	return out
}
