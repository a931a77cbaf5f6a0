package swarm

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bttracker/internal/torrent"
)

func testTorrent() *torrent.Torrent {
	return &torrent.Torrent{
		InfoHash:    torrent.InfoHash{1, 2, 3},
		Name:        "test",
		PieceLength: 16384,
		PieceHashes: [][20]byte{{}},
		TotalLength: 16384,
	}
}

func peerID(b byte) [20]byte {
	var id [20]byte
	for i := range id {
		id[i] = b
	}
	return id
}

func TestNewPeerStarted(t *testing.T) {
	sw, err := NewSwarm(testTorrent(), DefaultAnswerPeers, DefaultAnnounceIntervalSeconds, nil)
	require.NoError(t, err)

	peer, err := sw.Update(EventStarted, peerID(0xAA), net.ParseIP("10.0.0.1"), 6881, 0, 0, 1048576)
	require.NoError(t, err)
	require.Equal(t, StateStarted, peer.snapshot().State)
	require.Equal(t, 1, sw.Len())

	seeders, leechers := sw.Counts()
	require.Equal(t, 0, seeders)
	require.Equal(t, 1, leechers)
}

func TestCompletionTransitionsSeederCount(t *testing.T) {
	sw, err := NewSwarm(testTorrent(), DefaultAnswerPeers, DefaultAnnounceIntervalSeconds, nil)
	require.NoError(t, err)
	id := peerID(0xAA)

	_, err = sw.Update(EventStarted, id, net.ParseIP("10.0.0.1"), 6881, 0, 0, 1048576)
	require.NoError(t, err)

	_, err = sw.Update(EventCompleted, id, net.ParseIP("10.0.0.1"), 6881, 1048576, 1048576, 0)
	require.NoError(t, err)

	require.Equal(t, 1, sw.Len())
	seeders, leechers := sw.Counts()
	require.Equal(t, 1, seeders)
	require.Equal(t, 0, leechers)
	require.EqualValues(t, 1, sw.TotalCompleted())
}

func TestStopRemoves(t *testing.T) {
	sw, err := NewSwarm(testTorrent(), DefaultAnswerPeers, DefaultAnnounceIntervalSeconds, nil)
	require.NoError(t, err)
	id := peerID(0xAA)

	_, err = sw.Update(EventStarted, id, net.ParseIP("10.0.0.1"), 6881, 0, 0, 1048576)
	require.NoError(t, err)
	_, err = sw.Update(EventCompleted, id, net.ParseIP("10.0.0.1"), 6881, 1048576, 1048576, 0)
	require.NoError(t, err)

	_, err = sw.Update(EventStopped, id, net.ParseIP("10.0.0.1"), 6881, 1048576, 1048576, 0)
	require.NoError(t, err)

	require.Equal(t, 0, sw.Len())
	seeders, _ := sw.Counts()
	require.Equal(t, 0, seeders)
}

func TestStopOnUnknownPeerIsNoOpButReturnsSynthetic(t *testing.T) {
	sw, err := NewSwarm(testTorrent(), DefaultAnswerPeers, DefaultAnnounceIntervalSeconds, nil)
	require.NoError(t, err)

	peer, err := sw.Update(EventStopped, peerID(0xBB), net.ParseIP("10.0.0.2"), 6882, 0, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, peer)
	require.Equal(t, 0, sw.Len())
}

func TestCompletedOnUnknownPeerIsError(t *testing.T) {
	sw, err := NewSwarm(testTorrent(), DefaultAnswerPeers, DefaultAnnounceIntervalSeconds, nil)
	require.NoError(t, err)

	_, err = sw.Update(EventCompleted, peerID(0xCC), net.ParseIP("10.0.0.3"), 6883, 0, 0, 0)
	require.Error(t, err)
}

func TestNoneOnUnknownPeerIsError(t *testing.T) {
	sw, err := NewSwarm(testTorrent(), DefaultAnswerPeers, DefaultAnnounceIntervalSeconds, nil)
	require.NoError(t, err)

	_, err = sw.Update(EventNone, peerID(0xDD), net.ParseIP("10.0.0.4"), 6884, 0, 0, 0)
	require.Error(t, err)
}

func TestSelfExclusionFromSample(t *testing.T) {
	clock := NewFixedClock(time.Unix(0, 0))
	sw, err := NewSwarm(testTorrent(), DefaultAnswerPeers, DefaultAnnounceIntervalSeconds, clock)
	require.NoError(t, err)

	requester, err := sw.Update(EventStarted, peerID(0x01), net.ParseIP("10.0.0.1"), 6881, 0, 0, 100)
	require.NoError(t, err)

	result := sw.GetSomePeers(requester)
	require.Empty(t, result)
}

func TestZombieEvictionOnSample(t *testing.T) {
	clock := NewFixedClock(time.Unix(0, 0))
	sw, err := NewSwarm(testTorrent(), DefaultAnswerPeers, DefaultAnnounceIntervalSeconds, clock)
	require.NoError(t, err)

	requester, err := sw.Update(EventStarted, peerID(0x01), net.ParseIP("10.0.0.1"), 6881, 0, 0, 100)
	require.NoError(t, err)

	// A zombie: same endpoint as the requester, different identity.
	_, err = sw.Update(EventStarted, peerID(0x02), net.ParseIP("10.0.0.1"), 6881, 0, 0, 100)
	require.NoError(t, err)
	// A live peer on its own endpoint.
	_, err = sw.Update(EventStarted, peerID(0x03), net.ParseIP("10.0.0.2"), 6882, 0, 0, 100)
	require.NoError(t, err)
	require.Equal(t, 3, sw.Len())

	result := sw.GetSomePeers(requester)
	require.Less(t, sw.Len(), 3)
	for _, p := range result {
		require.NotEqual(t, requester.PeerID, p.PeerID)
	}
}

func TestSampleCapNeverExceedsAnswerPeers(t *testing.T) {
	clock := NewFixedClock(time.Unix(0, 0))
	sw, err := NewSwarm(testTorrent(), 3, DefaultAnnounceIntervalSeconds, clock)
	require.NoError(t, err)

	requester, err := sw.Update(EventStarted, peerID(0x00), net.ParseIP("10.0.0.0"), 6880, 0, 0, 100)
	require.NoError(t, err)

	for i := 1; i <= 10; i++ {
		_, err := sw.Update(EventStarted, peerID(byte(i)), net.ParseIP("10.0.0.1"), uint16(6880+i), 0, 0, 100)
		require.NoError(t, err)
	}

	result := sw.GetSomePeers(requester)
	require.LessOrEqual(t, len(result), 3)
}

func TestCollectUnfreshEvictsStalePeers(t *testing.T) {
	clock := NewFixedClock(time.Unix(0, 0))
	sw, err := NewSwarm(testTorrent(), DefaultAnswerPeers, MinAnnounceIntervalSeconds, clock)
	require.NoError(t, err)

	_, err = sw.Update(EventStarted, peerID(0x01), net.ParseIP("10.0.0.1"), 6881, 0, 0, 100)
	require.NoError(t, err)
	require.Equal(t, 1, sw.Len())

	clock.Advance(2*MinAnnounceIntervalSeconds*time.Second + time.Second)

	evicted := sw.CollectUnfresh()
	require.Equal(t, 1, evicted)
	require.Equal(t, 0, sw.Len())
}

func TestSetAnnounceIntervalRejectsBelowMinimum(t *testing.T) {
	sw, err := NewSwarm(testTorrent(), DefaultAnswerPeers, DefaultAnnounceIntervalSeconds, nil)
	require.NoError(t, err)

	err = sw.SetAnnounceInterval(MinAnnounceIntervalSeconds - 1)
	require.Error(t, err)
	require.Equal(t, DefaultAnnounceIntervalSeconds, sw.AnnounceIntervalSeconds())
}
