package p2p

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/finspan/finspan-server-go/internal/game"
	"github.com/finspan/finspan-server-go/internal/game/state"
	"go.uber.org/zap"
)

// Replica is the local copy of a match. *game.Engine and ManagedMatch
// implement it.
type Replica interface {
	ID() string
	Apply(a game.Action) (*state.GameState, error)
	CurrentState() *state.GameState
	AcceptExternalState(gs *state.GameState) error
}

// ManagedMatch exposes one match of a game.Manager as a Replica.
type ManagedMatch struct {
	Manager *game.Manager
	GameID  string
}

func (m ManagedMatch) ID() string { return m.GameID }

func (m ManagedMatch) Apply(a game.Action) (*state.GameState, error) {
	return m.Manager.Apply(m.GameID, a)
}

func (m ManagedMatch) CurrentState() *state.GameState {
	gs, _ := m.Manager.Get(m.GameID)
	return gs
}

func (m ManagedMatch) AcceptExternalState(gs *state.GameState) error {
	return m.Manager.With(m.GameID, func(e *game.Engine) error {
		return e.AcceptExternalState(gs)
	})
}

// Session binds a local engine replica to a Network. Every local action is
// followed by a full state broadcast; received states replace the local one
// unless they are stale. The host additionally applies actions proposed by
// other peers and greets new peers with its state.
type Session struct {
	logger *zap.Logger
	net    *Network
	host   bool

	mu       sync.Mutex
	replica  Replica
	chat     []ChatMessage
	onChat   func(ChatMessage)
	onUpdate func(*state.GameState)
}

// NewSession wires the replica e to n. Handlers for all three message kinds are installed.
func NewSession(e Replica, n *Network, host bool, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		logger:  logger.With(zap.String("game_id", e.ID()), zap.String("peer_id", n.ID())),
		net:     n,
		host:    host,
		replica: e,
	}
	n.OnMessage(KindGameStateUpdate, s.handleState)
	n.OnMessage(KindPlayerAction, s.handleAction)
	n.OnMessage(KindChat, s.handleChat)
	if host {
		n.OnConnect(s.greet)
	}
	return s
}

// OnChat registers a callback for received chat messages.
func (s *Session) OnChat(fn func(ChatMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChat = fn
}

// OnUpdate registers a callback invoked with every accepted remote state.
func (s *Session) OnUpdate(fn func(*state.GameState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

// State returns a copy of the local state.
func (s *Session) State() *state.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replica.CurrentState()
}

// Apply runs a local action and broadcasts the resulting state.
func (s *Session) Apply(a game.Action) (*state.GameState, error) {
	s.mu.Lock()
	gs, err := s.replica.Apply(a)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := s.broadcastState(gs); err != nil {
		return gs, err
	}
	return gs, nil
}

// Propose sends a to peerID, normally the host, for it to apply.
func (s *Session) Propose(peerID string, a game.Action) error {
	data, err := game.MarshalAction(a)
	if err != nil {
		return err
	}
	return s.net.Send(peerID, KindPlayerAction, json.RawMessage(data))
}

// Chat broadcasts a chat line and records it locally.
func (s *Session) Chat(text string) error {
	msg := ChatMessage{From: s.net.ID(), Text: text, At: time.Now().UTC()}
	s.mu.Lock()
	s.chat = append(s.chat, msg)
	s.mu.Unlock()
	return s.net.Broadcast(KindChat, msg)
}

// ChatLog returns every chat line seen so far.
func (s *Session) ChatLog() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatMessage(nil), s.chat...)
}

func (s *Session) broadcastState(gs *state.GameState) error {
	data, err := game.EncodeState(gs)
	if err != nil {
		return err
	}
	if err := s.net.Broadcast(KindGameStateUpdate, json.RawMessage(data)); err != nil {
		return fmt.Errorf("broadcast state: %w", err)
	}
	return nil
}

func (s *Session) greet(peerID string) {
	data, err := game.EncodeState(s.State())
	if err != nil {
		s.logger.Error("failed to encode state", zap.Error(err))
		return
	}
	if err := s.net.Send(peerID, KindGameStateUpdate, json.RawMessage(data)); err != nil {
		s.logger.Warn("failed to greet peer", zap.String("remote_peer", peerID), zap.Error(err))
	}
}

func (s *Session) handleState(payload json.RawMessage, from string) {
	gs, err := game.DecodeState(payload)
	if err != nil {
		s.logger.Warn("dropping state update", zap.String("remote_peer", from), zap.Error(err))
		return
	}

	s.mu.Lock()
	err = s.replica.AcceptExternalState(gs)
	onUpdate := s.onUpdate
	s.mu.Unlock()

	switch {
	case errors.Is(err, game.ErrStaleState):
		s.logger.Debug("ignoring stale state", zap.String("remote_peer", from), zap.Int64("version", gs.Version))
	case err != nil:
		s.logger.Warn("rejected state update", zap.String("remote_peer", from), zap.Error(err))
	case onUpdate != nil:
		onUpdate(gs)
	}
}

func (s *Session) handleAction(payload json.RawMessage, from string) {
	if !s.host {
		s.logger.Debug("ignoring proposed action on non-host peer", zap.String("remote_peer", from))
		return
	}
	a, err := game.UnmarshalAction(payload)
	if err != nil {
		s.logger.Warn("dropping proposed action", zap.String("remote_peer", from), zap.Error(err))
		return
	}
	if _, err := s.Apply(a); err != nil {
		s.logger.Info("proposed action refused",
			zap.String("remote_peer", from),
			zap.String("kind", string(a.Kind())),
			zap.Error(err),
		)
	}
}

func (s *Session) handleChat(payload json.RawMessage, from string) {
	var msg ChatMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("dropping chat message", zap.String("remote_peer", from), zap.Error(err))
		return
	}
	if msg.From == "" {
		msg.From = from
	}

	s.mu.Lock()
	s.chat = append(s.chat, msg)
	onChat := s.onChat
	s.mu.Unlock()

	if onChat != nil {
		onChat(msg)
	}
}
