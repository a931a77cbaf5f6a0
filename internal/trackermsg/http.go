package trackermsg

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"bttracker/internal/bencode"
	"bttracker/internal/swarm"
	"bttracker/internal/trackerr"
	"bttracker/internal/util"
)

// ParseAnnounceQuery decodes an HTTP GET /announce query string (already
// URL-decoded by net/url) into an AnnounceRequest.
func ParseAnnounceQuery(values url.Values) (*AnnounceRequest, error) {
	infoHashStr := values.Get("info_hash")
	peerIDStr := values.Get("peer_id")
	if len(infoHashStr) != 20 {
		return nil, trackerr.New(trackerr.KindInvalidFrame, "info_hash must be 20 bytes")
	}
	if len(peerIDStr) != 20 {
		return nil, trackerr.New(trackerr.KindInvalidFrame, "peer_id must be 20 bytes")
	}

	req := &AnnounceRequest{NumWant: -1}
	copy(req.InfoHash[:], infoHashStr)
	copy(req.PeerID[:], peerIDStr)

	port, err := strconv.ParseUint(values.Get("port"), 10, 16)
	if err != nil {
		return nil, trackerr.Wrap(trackerr.KindInvalidFrame, "invalid port", err)
	}
	req.Port = uint16(port)

	req.Uploaded = parseInt64Default(values.Get("uploaded"), 0)
	req.Downloaded = parseInt64Default(values.Get("downloaded"), 0)
	req.Left = parseInt64Default(values.Get("left"), 0)

	if ipStr := values.Get("ip"); ipStr != "" {
		ip := net.ParseIP(ipStr)
		if ip == nil {
			return nil, trackerr.New(trackerr.KindInvalidFrame, "invalid ip override")
		}
		req.IP = ip
	}

	if nw := values.Get("numwant"); nw != "" {
		n, err := strconv.Atoi(nw)
		if err == nil && n >= 0 {
			req.NumWant = n
		}
	}

	req.Compact = values.Get("compact") == "1"

	event, err := parseEventParam(values.Get("event"))
	if err != nil {
		return nil, err
	}
	req.Event = event

	return req, nil
}

func parseInt64Default(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func parseEventParam(s string) (swarm.Event, error) {
	switch s {
	case "", "none":
		return swarm.EventNone, nil
	case "started":
		return swarm.EventStarted, nil
	case "completed":
		return swarm.EventCompleted, nil
	case "stopped":
		return swarm.EventStopped, nil
	default:
		return 0, trackerr.New(trackerr.KindInvalidEvent, "unrecognized event: "+s)
	}
}

// EncodeAnnounceResponseHTTP renders a successful announce response as a
// bencoded dictionary, per spec.md §4.2 / §6. compact selects the peers
// field's shape: a packed byte string of 6-byte IPv4+port tuples when true,
// or a list of {peer id, ip, port} dicts when false, matching the
// request's compact flag.
func EncodeAnnounceResponseHTTP(resp *AnnounceResponse, compact bool) ([]byte, error) {
	dict := map[string]interface{}{
		"interval":   int64(resp.IntervalSeconds),
		"complete":   int64(resp.Complete),
		"incomplete": int64(resp.Incomplete),
	}
	if resp.TrackerID != "" {
		dict["tracker id"] = resp.TrackerID
	}
	peersValue, err := encodePeersHTTP(resp.Peers, compact)
	if err != nil {
		return nil, err
	}
	dict["peers"] = peersValue
	return bencode.Encode(dict)
}

func encodePeersHTTP(peers []PeerAddr, compact bool) (interface{}, error) {
	if compact {
		buf := make([]byte, 0, len(peers)*6)
		for _, p := range peers {
			tuple, err := util.PackIPv4Port(p.IP, p.Port)
			if err != nil {
				// An IPv6 peer can't appear in a compact response;
				// drop it rather than fail the whole answer.
				continue
			}
			buf = append(buf, tuple[:]...)
		}
		return string(buf), nil
	}

	list := make([]interface{}, 0, len(peers))
	for _, p := range peers {
		list = append(list, map[string]interface{}{
			"peer id": string(p.PeerID[:]),
			"ip":      p.IP.String(),
			"port":    int64(p.Port),
		})
	}
	return list, nil
}

// EncodeTrackerErrorHTTP renders a tracker-level failure as a bencoded
// dictionary with a human-readable "failure reason". HTTP status for this
// body is always 200 (spec.md §6).
func EncodeTrackerErrorHTTP(reason string) []byte {
	out, err := bencode.Encode(map[string]interface{}{"failure reason": reason})
	if err != nil {
		// Encoding a string-only dict cannot fail; this is unreachable
		// in practice but keeps the function's signature simple.
		return []byte("d14:failure reason21:internal encode errore")
	}
	return out
}

// DecodeAnnounceResponseHTTP parses a bencoded announce response body, used
// by tests that check the encoder's output is well-formed.
func DecodeAnnounceResponseHTTP(data []byte) (*AnnounceResponse, error) {
	decoded, err := bencode.Decode(data)
	if err != nil {
		return nil, err
	}
	dict, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, trackerr.New(trackerr.KindMalformedBencode, "expected top-level dictionary")
	}
	if reason, ok := dict["failure reason"].(string); ok {
		return nil, &TrackerError{Reason: reason}
	}

	resp := &AnnounceResponse{}
	if interval, ok := dict["interval"].(int64); ok {
		resp.IntervalSeconds = int(interval)
	}
	if complete, ok := dict["complete"].(int64); ok {
		resp.Complete = int(complete)
	}
	if incomplete, ok := dict["incomplete"].(int64); ok {
		resp.Incomplete = int(incomplete)
	}
	if trackerID, ok := dict["tracker id"].(string); ok {
		resp.TrackerID = trackerID
	}

	switch peers := dict["peers"].(type) {
	case string:
		raw := []byte(peers)
		if len(raw)%6 != 0 {
			return nil, trackerr.New(trackerr.KindMalformedBencode, "compact peers length not a multiple of 6")
		}
		for i := 0; i < len(raw); i += 6 {
			var tuple [6]byte
			copy(tuple[:], raw[i:i+6])
			ip, port := util.UnpackIPv4Port(tuple)
			resp.Peers = append(resp.Peers, PeerAddr{IP: ip, Port: port})
		}
	case []interface{}:
		for _, pv := range peers {
			pm, ok := pv.(map[string]interface{})
			if !ok {
				return nil, trackerr.New(trackerr.KindMalformedBencode, "peer entry is not a dictionary")
			}
			var addr PeerAddr
			if ipStr, ok := pm["ip"].(string); ok {
				addr.IP = net.ParseIP(ipStr)
			}
			if port, ok := pm["port"].(int64); ok {
				addr.Port = uint16(port)
			}
			if id, ok := pm["peer id"].(string); ok {
				copy(addr.PeerID[:], id)
			}
			resp.Peers = append(resp.Peers, addr)
		}
	default:
		return nil, fmt.Errorf("trackermsg: unsupported peers encoding %T", peers)
	}

	return resp, nil
}
