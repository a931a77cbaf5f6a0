package collector

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"bttracker/internal/swarm"
	"bttracker/internal/torrent"
)

func testTorrent(seed byte) *torrent.Torrent {
	return &torrent.Torrent{
		InfoHash:    torrent.InfoHash{seed},
		Name:        "test",
		PieceLength: 16384,
		PieceHashes: [][20]byte{{}},
		TotalLength: 16384,
	}
}

func TestSweepOnceEvictsAcrossAllSwarms(t *testing.T) {
	clock := swarm.NewFixedClock(time.Unix(0, 0))
	registry := swarm.NewRegistry(clock)

	sw1, err := registry.Register(testTorrent(1), swarm.DefaultAnswerPeers, swarm.MinAnnounceIntervalSeconds)
	require.NoError(t, err)
	sw2, err := registry.Register(testTorrent(2), swarm.DefaultAnswerPeers, swarm.MinAnnounceIntervalSeconds)
	require.NoError(t, err)

	var id1, id2 [20]byte
	id1[0], id2[0] = 1, 2
	_, err = sw1.Update(swarm.EventStarted, id1, net.ParseIP("10.0.0.1"), 1, 0, 0, 1)
	require.NoError(t, err)
	_, err = sw2.Update(swarm.EventStarted, id2, net.ParseIP("10.0.0.2"), 2, 0, 0, 1)
	require.NoError(t, err)

	clock.Advance(2*swarm.MinAnnounceIntervalSeconds*time.Second + time.Second)

	c := New(registry, time.Hour, zerolog.Nop(), nil)
	c.sweepOnce()

	require.Equal(t, 0, sw1.Len())
	require.Equal(t, 0, sw2.Len())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	registry := swarm.NewRegistry(nil)
	c := New(registry, time.Millisecond, zerolog.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after context cancellation")
	}
}
