package p2p

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/finspan/finspan-server-go/internal/game"
	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newReplica(t *testing.T) *game.Engine {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	e, err := game.NewEngine(cat, []string{"Ava", "Ben"},
		game.WithLogger(zaptest.NewLogger(t)),
		game.WithSeed(21),
	)
	require.NoError(t, err)
	return e
}

// newSessions connects a guest session to a host session.
func newSessions(t *testing.T) (host, guest *Session) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	hostNet := NewNetwork(WithPeerID("host"), WithLogger(logger))
	guestNet := NewNetwork(WithPeerID("guest"), WithLogger(logger))
	srv := httptest.NewServer(hostNet)
	t.Cleanup(func() {
		hostNet.Close()
		guestNet.Close()
		srv.Close()
	})

	host = NewSession(newReplica(t), hostNet, true, logger)
	guest = NewSession(newReplica(t), guestNet, false, logger)

	_, err := guestNet.Connect(context.Background(), wsURL(srv))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(hostNet.ConnectedPeers()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	return host, guest
}

func versionIs(s *Session, v int64) func() bool {
	return func() bool { return s.State().Version == v }
}

func TestSessionBroadcastsLocalActions(t *testing.T) {
	host, guest := newSessions(t)
	updates := make(chan *state.GameState, 8)
	guest.OnUpdate(func(gs *state.GameState) { updates <- gs })

	gs, err := host.Apply(game.Skip{PlayerID: "player_0"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), gs.Version)

	assert.Eventually(t, versionIs(guest, 1), 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, host.State(), guest.State())
	assert.NotEmpty(t, updates)

	// Rejected local actions are not broadcast.
	_, err = host.Apply(game.Skip{PlayerID: "player_0"})
	assert.ErrorIs(t, err, game.ErrActionOutOfPhase)
}

func TestSessionGuestProposesToHost(t *testing.T) {
	host, guest := newSessions(t)

	require.NoError(t, guest.Propose("host", game.Skip{PlayerID: "player_0"}))
	assert.Eventually(t, versionIs(host, 1), 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, versionIs(guest, 1), 2*time.Second, 10*time.Millisecond)

	// Out of turn: the host refuses and nothing moves.
	require.NoError(t, guest.Propose("host", game.Skip{PlayerID: "player_0"}))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), host.State().Version)
}

func TestSessionIgnoresStaleState(t *testing.T) {
	host, guest := newSessions(t)

	_, err := guest.Apply(game.Skip{PlayerID: "player_0"})
	require.NoError(t, err)
	_, err = guest.Apply(game.Skip{PlayerID: "player_1"})
	require.NoError(t, err)
	assert.Eventually(t, versionIs(host, 2), 2*time.Second, 10*time.Millisecond)

	// The host's greeting carried version 0 and must not have rolled the guest back.
	assert.Equal(t, int64(2), guest.State().Version)
}

func TestSessionChat(t *testing.T) {
	host, guest := newSessions(t)
	got := make(chan ChatMessage, 1)
	host.OnChat(func(m ChatMessage) { got <- m })

	require.NoError(t, guest.Chat("anyone seen the anglerfish?"))
	select {
	case m := <-got:
		assert.Equal(t, "guest", m.From)
		assert.Equal(t, "anyone seen the anglerfish?", m.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("chat not delivered")
	}
	assert.Len(t, host.ChatLog(), 1)
	assert.Len(t, guest.ChatLog(), 1)
}

func TestSessionOverManagedMatch(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cat, err := catalog.Default()
	require.NoError(t, err)
	m := game.NewManager(logger, cat, game.WithSeed(21))
	id, err := m.Create([]string{"Ava", "Ben"})
	require.NoError(t, err)

	hostNet := NewNetwork(WithPeerID("host"), WithLogger(logger))
	guestNet := NewNetwork(WithPeerID("guest"), WithLogger(logger))
	srv := httptest.NewServer(hostNet)
	defer srv.Close()
	defer hostNet.Close()
	defer guestNet.Close()

	host := NewSession(ManagedMatch{Manager: m, GameID: id}, hostNet, true, logger)
	guest := NewSession(newReplica(t), guestNet, false, logger)
	assert.Equal(t, id, guest.State().ID, "same seed deals the same match")

	_, err = guestNet.Connect(context.Background(), wsURL(srv))
	require.NoError(t, err)
	require.NoError(t, guest.Propose("host", game.Skip{PlayerID: "player_0"}))

	assert.Eventually(t, versionIs(guest, 1), 2*time.Second, 10*time.Millisecond)
	snap, err := m.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, snap, host.State())
}
