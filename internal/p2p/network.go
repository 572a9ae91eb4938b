package p2p

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// PeerHeader carries the peer id in both directions of the upgrade.
const PeerHeader = "X-Finspan-Peer"

// DefaultDialTimeout bounds Connect.
const DefaultDialTimeout = 10 * time.Second

var (
	// ErrNotConnected is returned by Send for an unknown peer.
	ErrNotConnected = errors.New("peer not connected")
	// ErrClosed is returned once Close was called.
	ErrClosed = errors.New("network closed")
)

// Handler receives the payload of an envelope and the sending peer id.
type Handler func(payload json.RawMessage, from string)

// Option configures a Network.
type Option func(*Network)

// WithPeerID fixes the local peer id. The default is player_ plus a random suffix.
func WithPeerID(id string) Option {
	return func(n *Network) {
		if id != "" {
			n.id = id
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Network) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithDialTimeout bounds each Connect call.
func WithDialTimeout(d time.Duration) Option {
	return func(n *Network) {
		if d > 0 {
			n.dialTimeout = d
		}
	}
}

// WithPeerCount reports the number of open connections after every change.
func WithPeerCount(fn func(n int)) Option {
	return func(n *Network) {
		n.peerCount = fn
	}
}

// Network is a set of direct peer connections. It accepts connections as an
// http.Handler and dials out with Connect.
type Network struct {
	id          string
	logger      *zap.Logger
	dialTimeout time.Duration
	upgrader    websocket.Upgrader
	peerCount   func(n int)

	mu        sync.RWMutex
	peers     map[string]*peer
	handlers  map[Kind]Handler
	onConnect func(peerID string)
	closed    bool
}

// NewNetwork creates a network with no connections.
func NewNetwork(opts ...Option) *Network {
	n := &Network{
		id:          "player_" + uuid.NewString()[:7],
		logger:      zap.NewNop(),
		dialTimeout: DefaultDialTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		peers:    make(map[string]*peer),
		handlers: make(map[Kind]Handler),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With(zap.String("peer_id", n.id))
	return n
}

// ID returns the local peer id.
func (n *Network) ID() string {
	return n.id
}

// OnMessage registers the handler for kind, replacing any previous one.
// Handlers run on the connection's read goroutine.
func (n *Network) OnMessage(kind Kind, handler Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[kind] = handler
}

// OnConnect registers a callback for every new connection.
func (n *Network) OnConnect(fn func(peerID string)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onConnect = fn
}

// ServeHTTP upgrades an incoming peer connection.
func (n *Network) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	remoteID := r.Header.Get(PeerHeader)
	if remoteID == "" {
		http.Error(w, "missing "+PeerHeader+" header", http.StatusBadRequest)
		return
	}
	if remoteID == n.id {
		http.Error(w, "cannot connect to self", http.StatusConflict)
		return
	}

	header := http.Header{}
	header.Set(PeerHeader, n.id)
	conn, err := n.upgrader.Upgrade(w, r, header)
	if err != nil {
		n.logger.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	if err := n.register(remoteID, conn); err != nil {
		n.logger.Warn("rejecting peer", zap.String("remote_peer", remoteID), zap.Error(err))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		conn.Close()
	}
}

// Connect dials a peer at url (ws:// or wss://) and returns its id. An
// existing connection to the same peer is kept.
func (n *Network) Connect(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.dialTimeout)
	defer cancel()

	header := http.Header{}
	header.Set(PeerHeader, n.id)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("connection timeout to %s: %w", url, err)
		}
		return "", fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	remoteID := resp.Header.Get(PeerHeader)
	if remoteID == "" {
		conn.Close()
		return "", fmt.Errorf("peer at %s did not identify itself", url)
	}
	if err := n.register(remoteID, conn); err != nil {
		conn.Close()
		if errors.Is(err, errDuplicate) {
			return remoteID, nil
		}
		return "", err
	}
	return remoteID, nil
}

var errDuplicate = errors.New("already connected")

func (n *Network) register(remoteID string, conn *websocket.Conn) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrClosed
	}
	if _, exists := n.peers[remoteID]; exists {
		n.mu.Unlock()
		return fmt.Errorf("%w: %s", errDuplicate, remoteID)
	}
	p := newPeer(remoteID, conn)
	n.peers[remoteID] = p
	count := len(n.peers)
	onConnect := n.onConnect
	n.mu.Unlock()

	go p.writePump(n)
	go p.readPump(n)

	n.logger.Info("peer connected", zap.String("remote_peer", remoteID), zap.Int("peers", count))
	if n.peerCount != nil {
		n.peerCount(count)
	}
	if onConnect != nil {
		onConnect(remoteID)
	}
	return nil
}

// drop forgets p if it is still the registered connection for its id.
func (n *Network) drop(p *peer) {
	p.close()

	n.mu.Lock()
	current, ok := n.peers[p.id]
	removed := ok && current == p
	if removed {
		delete(n.peers, p.id)
	}
	count := len(n.peers)
	n.mu.Unlock()

	if removed {
		n.logger.Info("peer disconnected", zap.String("remote_peer", p.id), zap.Int("peers", count))
		if n.peerCount != nil {
			n.peerCount(count)
		}
	}
}

func (n *Network) dispatch(from string, env Envelope) {
	n.mu.RLock()
	handler := n.handlers[env.Kind]
	n.mu.RUnlock()

	if handler == nil {
		n.logger.Debug("no handler for message", zap.String("kind", string(env.Kind)), zap.String("remote_peer", from))
		return
	}
	handler(env.Payload, from)
}

func (n *Network) encode(kind Kind, payload any) ([]byte, error) {
	env, err := NewEnvelope(kind, n.id, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Broadcast sends to every connected peer. Slow peers that cannot take the
// message are disconnected.
func (n *Network) Broadcast(kind Kind, payload any) error {
	data, err := n.encode(kind, payload)
	if err != nil {
		return err
	}

	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*peer, 0, len(n.peers))
	for _, p := range n.peers {
		targets = append(targets, p)
	}
	n.mu.RUnlock()

	for _, p := range targets {
		if !p.enqueue(data) {
			n.logger.Warn("peer send buffer full, disconnecting", zap.String("remote_peer", p.id))
			n.drop(p)
		}
	}
	return nil
}

// Send delivers to one peer.
func (n *Network) Send(peerID string, kind Kind, payload any) error {
	data, err := n.encode(kind, payload)
	if err != nil {
		return err
	}

	n.mu.RLock()
	p, ok := n.peers[peerID]
	closed := n.closed
	n.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConnected, peerID)
	}
	if !p.enqueue(data) {
		n.drop(p)
		return fmt.Errorf("%w: %s", ErrNotConnected, peerID)
	}
	return nil
}

// ConnectedPeers returns the ids of open connections, sorted.
func (n *Network) ConnectedPeers() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	ids := make([]string, 0, len(n.peers))
	for id := range n.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Disconnect closes the connection to peerID, if any.
func (n *Network) Disconnect(peerID string) {
	n.mu.RLock()
	p, ok := n.peers[peerID]
	n.mu.RUnlock()
	if ok {
		n.drop(p)
	}
}

// Close disconnects every peer and refuses new connections.
func (n *Network) Close() {
	n.mu.Lock()
	n.closed = true
	peers := make([]*peer, 0, len(n.peers))
	for _, p := range n.peers {
		peers = append(peers, p)
	}
	n.mu.Unlock()

	for _, p := range peers {
		n.drop(p)
	}
}
