// Package trackerctl is the tracker controller: it dispatches parsed
// announce/scrape requests to the swarm registry, builds responses, and
// enforces the validation spec.md assigns to this layer rather than to the
// registry itself.
package trackerctl

import (
	"net"

	"github.com/rs/zerolog"

	"bttracker/internal/swarm"
	"bttracker/internal/torrent"
	"bttracker/internal/trackerr"
	"bttracker/internal/trackermsg"
	"bttracker/internal/trackmetrics"
)

// Controller ties a Registry to the wire-level message types.
type Controller struct {
	Registry *swarm.Registry
	Log      zerolog.Logger
	Metrics  *trackmetrics.Metrics
}

// New returns a Controller over registry.
func New(registry *swarm.Registry, log zerolog.Logger, metrics *trackmetrics.Metrics) *Controller {
	return &Controller{Registry: registry, Log: log, Metrics: metrics}
}

// Announce resolves one AnnounceRequest against the registry and returns
// either a response or a TrackerError -- never a raw Go error, so callers
// can encode whichever they get without a type switch on the error kind.
func (c *Controller) Announce(req *trackermsg.AnnounceRequest, sourceIP net.IP) (*trackermsg.AnnounceResponse, *trackermsg.TrackerError) {
	sw, err := c.Registry.Get(torrent.InfoHash(req.InfoHash))
	if err != nil {
		c.observeFailure(req)
		c.Log.Debug().Str("info_hash", torrent.InfoHash(req.InfoHash).String()).Msg("announce for unknown torrent")
		return nil, &trackermsg.TrackerError{Reason: "unknown torrent"}
	}

	ip := req.IP
	if ip == nil {
		ip = sourceIP
	}

	peer, err := sw.Update(req.Event, req.PeerID, ip, req.Port, req.Uploaded, req.Downloaded, req.Left)
	if err != nil {
		c.observeFailure(req)
		c.Log.Debug().Err(err).Msg("announce update rejected")
		return nil, translateUpdateError(err)
	}

	c.observeSuccess(req)

	numWant := sw.AnswerPeers()
	if req.NumWant >= 0 && req.NumWant < numWant {
		numWant = req.NumWant
	}

	sampled := sw.GetSomePeers(peer)
	if len(sampled) > numWant {
		sampled = sampled[:numWant]
	}

	seeders, leechers := sw.Counts()

	peers := make([]trackermsg.PeerAddr, 0, len(sampled))
	for _, p := range sampled {
		peers = append(peers, trackermsg.PeerAddr{PeerID: p.PeerID, IP: p.IP, Port: p.Port})
	}

	if c.Metrics != nil {
		c.Metrics.SetGauges(c.Registry.Len(), totalPeers(c.Registry))
	}

	return &trackermsg.AnnounceResponse{
		IntervalSeconds: sw.AnnounceIntervalSeconds(),
		Complete:        seeders,
		Incomplete:      leechers,
		Peers:           peers,
		TrackerID:       sw.TrackerID(),
	}, nil
}

// Scrape answers a scrape request for one or more info-hashes. Unknown
// info-hashes are reported as zeroed stats rather than failing the whole
// request, matching how real trackers handle mixed-validity scrape lists.
func (c *Controller) Scrape(infoHashes [][20]byte) []trackermsg.ScrapeStats {
	out := make([]trackermsg.ScrapeStats, 0, len(infoHashes))
	for _, h := range infoHashes {
		sw, err := c.Registry.Get(torrent.InfoHash(h))
		if err != nil {
			out = append(out, trackermsg.ScrapeStats{})
			continue
		}
		seeders, leechers := sw.Counts()
		out = append(out, trackermsg.ScrapeStats{
			Complete:   int32(seeders),
			Incomplete: int32(leechers),
			Downloaded: int32(sw.TotalCompleted()),
		})
	}
	return out
}

func (c *Controller) observeSuccess(req *trackermsg.AnnounceRequest) {
	if c.Metrics == nil {
		return
	}
	c.Metrics.ObserveAnnounce(eventName(req.Event))
}

func (c *Controller) observeFailure(req *trackermsg.AnnounceRequest) {
	if c.Metrics == nil {
		return
	}
	c.Metrics.ObserveAnnounce("error")
}

func eventName(e swarm.Event) string {
	switch e {
	case swarm.EventStarted:
		return "started"
	case swarm.EventCompleted:
		return "completed"
	case swarm.EventStopped:
		return "stopped"
	default:
		return "none"
	}
}

// translateUpdateError maps a registry-level trackerr.Error to the
// human-readable TrackerError a client expects, per spec.md §4.3's edge
// cases and §7's propagation rules.
func translateUpdateError(err error) *trackermsg.TrackerError {
	switch {
	case trackerr.Is(err, trackerr.KindPeerUnknown):
		return &trackermsg.TrackerError{Reason: "Missing 'started' event"}
	case trackerr.Is(err, trackerr.KindInvalidEvent):
		return &trackermsg.TrackerError{Reason: "invalid event"}
	default:
		return &trackermsg.TrackerError{Reason: "internal error"}
	}
}

func totalPeers(r *swarm.Registry) int {
	total := 0
	for _, sw := range r.Swarms() {
		total += sw.Len()
	}
	return total
}
