package p2p

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

type inbox struct {
	mu   sync.Mutex
	msgs []string
}

func (b *inbox) handler(payload json.RawMessage, from string) {
	var text string
	_ = json.Unmarshal(payload, &text)
	b.mu.Lock()
	b.msgs = append(b.msgs, from+":"+text)
	b.mu.Unlock()
}

func (b *inbox) all() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.msgs...)
}

func newPair(t *testing.T) (*Network, *Network, *httptest.Server) {
	t.Helper()
	a := NewNetwork(WithPeerID("reef"), WithLogger(zaptest.NewLogger(t)))
	b := NewNetwork(WithPeerID("kelp"), WithLogger(zaptest.NewLogger(t)))
	srv := httptest.NewServer(a)
	t.Cleanup(func() {
		a.Close()
		b.Close()
		srv.Close()
	})
	return a, b, srv
}

func TestEnvelopeKinds(t *testing.T) {
	env, err := NewEnvelope(KindChat, "reef", ChatMessage{Text: "hi"})
	require.NoError(t, err)
	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"chat"`)

	back, err := decodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, KindChat, back.Kind)
	assert.Equal(t, "reef", back.From)
	assert.JSONEq(t, string(env.Payload), string(back.Payload))

	_, err = NewEnvelope("gossip", "reef", nil)
	assert.Error(t, err)
	_, err = decodeEnvelope([]byte(`{"type":"gossip","payload":{}}`))
	assert.Error(t, err)
}

func TestConnectBroadcastSend(t *testing.T) {
	a, b, srv := newPair(t)
	var atA, atB inbox
	a.OnMessage(KindChat, atA.handler)
	b.OnMessage(KindChat, atB.handler)

	connected := make(chan string, 1)
	a.OnConnect(func(id string) { connected <- id })

	id, err := b.Connect(context.Background(), wsURL(srv))
	require.NoError(t, err)
	assert.Equal(t, "reef", id)
	select {
	case got := <-connected:
		assert.Equal(t, "kelp", got)
	case <-time.After(2 * time.Second):
		t.Fatal("host never saw the connection")
	}
	assert.Equal(t, []string{"kelp"}, a.ConnectedPeers())
	assert.Equal(t, []string{"reef"}, b.ConnectedPeers())

	// A second dial to the same peer keeps the first connection.
	id, err = b.Connect(context.Background(), wsURL(srv))
	require.NoError(t, err)
	assert.Equal(t, "reef", id)

	require.NoError(t, b.Broadcast(KindChat, "hello"))
	require.NoError(t, a.Send("kelp", KindChat, "welcome"))

	assert.Eventually(t, func() bool { return len(atA.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return len(atB.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"kelp:hello"}, atA.all())
	assert.Equal(t, []string{"reef:welcome"}, atB.all())

	assert.ErrorIs(t, a.Send("coral", KindChat, "?"), ErrNotConnected)
}

func TestDisconnect(t *testing.T) {
	a, b, srv := newPair(t)
	_, err := b.Connect(context.Background(), wsURL(srv))
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return len(a.ConnectedPeers()) == 1 }, 2*time.Second, 10*time.Millisecond)

	b.Disconnect("reef")
	assert.Empty(t, b.ConnectedPeers())
	assert.Eventually(t, func() bool { return len(a.ConnectedPeers()) == 0 }, 2*time.Second, 10*time.Millisecond)

	b.Close()
	_, err = b.Connect(context.Background(), wsURL(srv))
	assert.Error(t, err)
	assert.ErrorIs(t, b.Broadcast(KindChat, "late"), ErrClosed)
}

func TestConnectFailures(t *testing.T) {
	a, b, srv := newPair(t)

	self := NewNetwork(WithPeerID("reef"), WithDialTimeout(time.Second))
	_, err := self.Connect(context.Background(), wsURL(srv))
	assert.Error(t, err, "same id as the host")

	quick := NewNetwork(WithDialTimeout(50 * time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = quick.Connect(ctx, wsURL(srv))
	assert.Error(t, err)

	_, err = b.Connect(context.Background(), "ws://127.0.0.1:1/p2p")
	assert.Error(t, err)
	assert.Empty(t, a.ConnectedPeers())
}

func TestPeerCountCallback(t *testing.T) {
	var mu sync.Mutex
	var counts []int
	a := NewNetwork(WithPeerID("reef"), WithPeerCount(func(n int) {
		mu.Lock()
		counts = append(counts, n)
		mu.Unlock()
	}))
	b := NewNetwork(WithPeerID("kelp"))
	srv := httptest.NewServer(a)
	defer srv.Close()
	defer a.Close()

	_, err := b.Connect(context.Background(), wsURL(srv))
	require.NoError(t, err)
	b.Close()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(counts) == 2
	}, 2*time.Second, 10*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []int{1, 0}, counts)
	mu.Unlock()
}
