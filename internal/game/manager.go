package game

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/state"
	"go.uber.org/zap"
)

// Notification types emitted by Manager.
const (
	NotificationGameCreated = "GAME_CREATED"
	NotificationStateUpdate = "STATE_UPDATE"
	NotificationGameEnded   = "GAME_ENDED"
	NotificationGameRemoved = "GAME_REMOVED"
)

// GameNotification is pushed to UI or transport layers after a match changes.
type GameNotification struct {
	Type      string
	GameID    string
	PlayerID  string
	Timestamp time.Time
	Data      map[string]interface{}
}

// NotificationHandler receives game notifications.
type NotificationHandler func(notification GameNotification)

type match struct {
	mu     sync.Mutex
	engine *Engine
}

// Manager hosts many matches. Each match has its own lock, so at most one
// action is in flight per match while different matches proceed in parallel.
type Manager struct {
	logger  *zap.Logger
	catalog *catalog.Catalog
	opts    []Option

	mu                  sync.RWMutex
	matches             map[string]*match
	notificationHandler NotificationHandler
}

// NewManager creates a manager dealing from cat. opts apply to every match.
func NewManager(logger *zap.Logger, cat *catalog.Catalog, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:  logger,
		catalog: cat,
		opts:    append([]Option{WithLogger(logger)}, opts...),
		matches: make(map[string]*match),
	}
}

// SetNotificationHandler sets the handler for game notifications.
func (m *Manager) SetNotificationHandler(handler NotificationHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notificationHandler = handler
}

// emitNotification runs the handler in its own goroutine so it may call
// back into the manager.
func (m *Manager) emitNotification(n GameNotification) {
	m.mu.RLock()
	handler := m.notificationHandler
	m.mu.RUnlock()

	if handler != nil {
		n.Timestamp = time.Now()
		go handler(n)
	}
}

// Create deals a new match and returns its id. Per-call opts follow the
// manager's defaults.
func (m *Manager) Create(playerNames []string, opts ...Option) (string, error) {
	all := append(append([]Option{}, m.opts...), opts...)
	e, err := NewEngine(m.catalog, playerNames, all...)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	if _, exists := m.matches[e.ID()]; exists {
		m.mu.Unlock()
		return "", fmt.Errorf("game %s already exists", e.ID())
	}
	m.matches[e.ID()] = &match{engine: e}
	m.mu.Unlock()

	m.emitNotification(GameNotification{
		Type:   NotificationGameCreated,
		GameID: e.ID(),
		Data:   map[string]interface{}{"players": playerNames},
	})
	return e.ID(), nil
}

func (m *Manager) lookup(gameID string) (*match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mt, ok := m.matches[gameID]
	if !ok {
		return nil, fmt.Errorf("game %s not found", gameID)
	}
	return mt, nil
}

// Apply runs one action on a match.
func (m *Manager) Apply(gameID string, a Action) (*state.GameState, error) {
	mt, err := m.lookup(gameID)
	if err != nil {
		return nil, err
	}

	mt.mu.Lock()
	gs, err := mt.engine.Apply(a)
	finished := mt.engine.Finished()
	mt.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.emitNotification(GameNotification{
		Type:     NotificationStateUpdate,
		GameID:   gameID,
		PlayerID: a.Actor(),
		Data: map[string]interface{}{
			"action":  string(a.Kind()),
			"round":   gs.Round,
			"turn":    gs.Turn,
			"version": gs.Version,
		},
	})
	if finished {
		scores := make(map[string]interface{}, len(gs.Players))
		for _, p := range gs.Players {
			scores[p.ID] = p.FinalScore
		}
		m.emitNotification(GameNotification{
			Type:   NotificationGameEnded,
			GameID: gameID,
			Data:   scores,
		})
	}
	return gs, nil
}

// Snapshot returns a copy of a match's state.
func (m *Manager) Snapshot(gameID string) (*state.GameState, error) {
	mt, err := m.lookup(gameID)
	if err != nil {
		return nil, err
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return mt.engine.CurrentState(), nil
}

// Get is Snapshot with an existence flag.
func (m *Manager) Get(gameID string) (*state.GameState, bool) {
	gs, err := m.Snapshot(gameID)
	return gs, err == nil
}

// With runs fn while holding the match lock.
func (m *Manager) With(gameID string, fn func(e *Engine) error) error {
	mt, err := m.lookup(gameID)
	if err != nil {
		return err
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return fn(mt.engine)
}

// Remove drops a match.
func (m *Manager) Remove(gameID string) bool {
	m.mu.Lock()
	_, ok := m.matches[gameID]
	delete(m.matches, gameID)
	m.mu.Unlock()

	if ok {
		m.emitNotification(GameNotification{Type: NotificationGameRemoved, GameID: gameID})
	}
	return ok
}

// List returns the ids of all hosted matches, sorted.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.matches))
	for id := range m.matches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of hosted matches.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matches)
}
