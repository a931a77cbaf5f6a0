// Package trackermsg is the tagged union of tracker messages -- announce,
// error, connect, and scrape -- along with their two serializers:
// bencoded-over-HTTP and packed-binary-over-UDP (BEP-15).
package trackermsg

import (
	"net"

	"bttracker/internal/swarm"
)

// AnnounceRequest is the transport-independent shape of an announce,
// populated by either the HTTP query-string parser or the UDP frame parser.
type AnnounceRequest struct {
	InfoHash   [20]byte
	PeerID     [20]byte
	IP         net.IP // overridden IP, if the transport supplied one
	Port       uint16
	Uploaded   int64
	Downloaded int64
	Left       int64
	NumWant    int // <0 means "not specified, use default"
	Event      swarm.Event
	Compact    bool // HTTP only
}

// PeerAddr is one peer entry in an AnnounceResponse.
type PeerAddr struct {
	PeerID [20]byte // empty when the transport omits it (compact forms)
	IP     net.IP
	Port   uint16
}

// AnnounceResponse is the transport-independent shape of a successful
// announce reply.
type AnnounceResponse struct {
	IntervalSeconds int
	Complete        int // seeders
	Incomplete      int // leechers
	Peers           []PeerAddr
	TrackerID       string
}

// TrackerError is a tracker-level failure, reported as HTTP status 200 with
// a failure-reason body, or as a UDP error frame -- never as an HTTP 5xx.
type TrackerError struct {
	Reason string
}

func (e *TrackerError) Error() string { return e.Reason }

// ConnectRequest/ConnectResponse are BEP-15's handshake, establishing a
// connection-id that must prefix subsequent announce/scrape requests.
type ConnectRequest struct {
	TransactionID uint32
}

type ConnectResponse struct {
	TransactionID uint32
	ConnectionID  uint64
}

// ScrapeRequest asks for aggregate stats on one or more torrents.
type ScrapeRequest struct {
	TransactionID uint32
	ConnectionID  uint64 // UDP only
	InfoHashes    [][20]byte
}

// ScrapeStats is one torrent's entry in a ScrapeResponse.
type ScrapeStats struct {
	Complete   int32
	Downloaded int32
	Incomplete int32
}

type ScrapeResponse struct {
	TransactionID uint32
	Stats         []ScrapeStats
}
