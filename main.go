// Command bttracker wires the registry, controller, and collector
// together and announces a handful of peers against an in-memory torrent,
// to demonstrate the core end to end. The HTTP and UDP listeners that would
// put this in front of real clients are external collaborators and are not
// implemented here.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"bttracker/internal/collector"
	"bttracker/internal/config"
	"bttracker/internal/swarm"
	"bttracker/internal/torrent"
	"bttracker/internal/trackerctl"
	"bttracker/internal/trackermsg"
	"bttracker/internal/trackmetrics"
)

func demoTorrent() *torrent.Torrent {
	return &torrent.Torrent{
		InfoHash:    torrent.InfoHash{0xde, 0xad, 0xbe, 0xef},
		Name:        "demo.iso",
		PieceLength: 262144,
		PieceHashes: [][20]byte{{}, {}, {}},
		TotalLength: 262144 * 3,
	}
}

func demoPeerID(tag byte) [20]byte {
	var id [20]byte
	copy(id[:8], []byte("-BT0001-"))
	id[19] = tag
	return id
}

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Decode(map[string]interface{}{})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	registry := swarm.NewRegistry(nil)
	metrics := trackmetrics.New(prometheus.DefaultRegisterer)
	ctl := trackerctl.New(registry, log, metrics)

	t := demoTorrent()
	if _, err := registry.Register(t, cfg.AnswerPeers, cfg.AnnounceIntervalSeconds); err != nil {
		log.Fatal().Err(err).Msg("failed to register demo torrent")
	}
	log.Info().Str("info_hash", t.InfoHash.String()).Msg("registered torrent")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sweep := collector.New(registry, time.Duration(cfg.CollectorIntervalSeconds)*time.Second, log, metrics)
	go sweep.Run(ctx)

	runDemoAnnounces(ctl, t, log)

	<-ctx.Done()
	log.Info().Msg("shutting down")
}

func runDemoAnnounces(ctl *trackerctl.Controller, t *torrent.Torrent, log zerolog.Logger) {
	seeder := demoPeerID(1)
	leecher := demoPeerID(2)

	announce(ctl, t, log, "seeder joins", seeder, net.ParseIP("198.51.100.10"), 6881, swarm.EventStarted, 0)
	announce(ctl, t, log, "leecher joins", leecher, net.ParseIP("198.51.100.20"), 6882, swarm.EventStarted, t.TotalLength)
	announce(ctl, t, log, "leecher completes", leecher, net.ParseIP("198.51.100.20"), 6882, swarm.EventCompleted, 0)
}

func announce(ctl *trackerctl.Controller, t *torrent.Torrent, log zerolog.Logger, label string, peerID [20]byte, ip net.IP, port uint16, event swarm.Event, left int64) {
	req := &trackermsg.AnnounceRequest{
		InfoHash: t.InfoHash,
		PeerID:   peerID,
		Port:     port,
		Event:    event,
		Left:     left,
		NumWant:  -1,
	}
	resp, trackerErr := ctl.Announce(req, ip)
	if trackerErr != nil {
		log.Warn().Str("step", label).Str("reason", trackerErr.Reason).Msg("announce failed")
		return
	}
	log.Info().Str("step", label).Int("seeders", resp.Complete).Int("leechers", resp.Incomplete).Int("peers_returned", len(resp.Peers)).Msg("announce ok")
}
