package rules

import (
	"fmt"
	"sync"
)

// WatcherScope decides when a watcher's state is cleared.
type WatcherScope int

const (
	// WatcherScopeGame watchers live for the whole match.
	WatcherScopeGame WatcherScope = iota
	// WatcherScopeRound watchers are reset at every week end.
	WatcherScopeRound
)

func (ws WatcherScope) String() string {
	switch ws {
	case WatcherScopeGame:
		return "GAME"
	case WatcherScopeRound:
		return "ROUND"
	default:
		return "UNKNOWN"
	}
}

// Watcher observes events and accumulates state for statistics or conditions.
type Watcher interface {
	// Watch processes an event.
	Watch(event Event)
	// Reset clears accumulated state.
	Reset()
	// ConditionMet reports whether the watcher saw what it was waiting for.
	ConditionMet() bool
	// GetScope returns when the watcher is reset.
	GetScope() WatcherScope
	// GetKey returns the registry key.
	GetKey() string
}

// BaseWatcher carries the bookkeeping shared by all watchers.
type BaseWatcher struct {
	scope     WatcherScope
	condition bool
	key       string
}

// NewBaseWatcher creates a base watcher with the given scope.
func NewBaseWatcher(scope WatcherScope) *BaseWatcher {
	return &BaseWatcher{scope: scope}
}

func (bw *BaseWatcher) GetScope() WatcherScope {
	return bw.scope
}

func (bw *BaseWatcher) ConditionMet() bool {
	return bw.condition
}

func (bw *BaseWatcher) SetCondition(condition bool) {
	bw.condition = condition
}

func (bw *BaseWatcher) Reset() {
	bw.condition = false
}

func (bw *BaseWatcher) GetKey() string {
	return bw.key
}

func (bw *BaseWatcher) SetKey(key string) {
	bw.key = key
}

// WatcherRegistry manages watchers and routes events to them.
type WatcherRegistry struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
	order    []string
}

// NewWatcherRegistry creates an empty registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{
		watchers: make(map[string]Watcher),
	}
}

// AddWatcher registers a watcher under its key. A watcher without a key
// gets one derived from its type.
func (wr *WatcherRegistry) AddWatcher(watcher Watcher) {
	if watcher == nil {
		return
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	key := watcher.GetKey()
	if key == "" {
		key = fmt.Sprintf("%T", watcher)
		if setter, ok := watcher.(interface{ SetKey(string) }); ok {
			setter.SetKey(key)
		}
	}
	if _, exists := wr.watchers[key]; !exists {
		wr.order = append(wr.order, key)
	}
	wr.watchers[key] = watcher
}

// GetWatcher returns the watcher registered under key.
func (wr *WatcherRegistry) GetWatcher(key string) Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.watchers[key]
}

// NotifyWatchers routes an event to every watcher in registration order.
func (wr *WatcherRegistry) NotifyWatchers(event Event) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, key := range wr.order {
		wr.watchers[key].Watch(event)
	}
}

// ResetWatchersByScope resets watchers of the given scope.
func (wr *WatcherRegistry) ResetWatchersByScope(scope WatcherScope) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, key := range wr.order {
		if w := wr.watchers[key]; w.GetScope() == scope {
			w.Reset()
		}
	}
}

// Attach subscribes the registry to bus and returns the subscription
// handles. Round-scoped watchers reset after each WEEK_ENDED event.
func (wr *WatcherRegistry) Attach(bus *EventBus) []int {
	return []int{
		bus.Subscribe(wr.NotifyWatchers),
		bus.SubscribeTyped(EventWeekEnded, func(Event) {
			wr.ResetWatchersByScope(WatcherScopeRound)
		}),
	}
}
