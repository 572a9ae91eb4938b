package watchers

import (
	"github.com/finspan/finspan-server-go/internal/game/rules"
)

// FishPlacedWatcher tracks fish placed by each player during the current week.
type FishPlacedWatcher struct {
	*rules.BaseWatcher
	placed map[string][]string // playerID -> list of card IDs
}

// NewFishPlacedWatcher creates a new fish placed watcher.
func NewFishPlacedWatcher() *FishPlacedWatcher {
	w := &FishPlacedWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeRound),
		placed:      make(map[string][]string),
	}
	w.SetKey("FishPlacedWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *FishPlacedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventFishPlaced || event.PlayerID == "" {
		return
	}
	cardID := event.SourceID
	if cardID == "" {
		cardID = event.TargetID
	}
	w.placed[event.PlayerID] = append(w.placed[event.PlayerID], cardID)
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *FishPlacedWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.placed = make(map[string][]string)
}

// GetPlaced returns the card IDs placed by a player.
func (w *FishPlacedWatcher) GetPlaced(playerID string) []string {
	return w.placed[playerID]
}

// GetCount returns the number of fish placed by a player.
func (w *FishPlacedWatcher) GetCount(playerID string) int {
	return len(w.placed[playerID])
}

// GetTotal returns the number of fish placed by everyone.
func (w *FishPlacedWatcher) GetTotal() int {
	total := 0
	for _, ids := range w.placed {
		total += len(ids)
	}
	return total
}

// DivesWatcher tracks diver usage per player and dive site during the current week.
type DivesWatcher struct {
	*rules.BaseWatcher
	dives map[string]map[string]int // playerID -> site -> count
}

// NewDivesWatcher creates a new dives watcher.
func NewDivesWatcher() *DivesWatcher {
	w := &DivesWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeRound),
		dives:       make(map[string]map[string]int),
	}
	w.SetKey("DivesWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *DivesWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventDiverUsed || event.PlayerID == "" {
		return
	}
	sites, ok := w.dives[event.PlayerID]
	if !ok {
		sites = make(map[string]int)
		w.dives[event.PlayerID] = sites
	}
	sites[event.TargetID]++
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *DivesWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.dives = make(map[string]map[string]int)
}

// GetCount returns the number of dives a player made.
func (w *DivesWatcher) GetCount(playerID string) int {
	total := 0
	for _, n := range w.dives[playerID] {
		total += n
	}
	return total
}

// GetTotal returns the number of dives made by everyone.
func (w *DivesWatcher) GetTotal() int {
	total := 0
	for playerID := range w.dives {
		total += w.GetCount(playerID)
	}
	return total
}

// FishConsumedWatcher tracks predators and the fish they consumed over the whole match.
type FishConsumedWatcher struct {
	*rules.BaseWatcher
	byPlayer map[string]int // playerID -> consumed fish count
}

// NewFishConsumedWatcher creates a new fish consumed watcher.
func NewFishConsumedWatcher() *FishConsumedWatcher {
	w := &FishConsumedWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		byPlayer:    make(map[string]int),
	}
	w.SetKey("FishConsumedWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *FishConsumedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventFishConsumed || event.PlayerID == "" {
		return
	}
	w.byPlayer[event.PlayerID]++
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *FishConsumedWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.byPlayer = make(map[string]int)
}

// GetCount returns the number of fish a player consumed.
func (w *FishConsumedWatcher) GetCount(playerID string) int {
	return w.byPlayer[playerID]
}

// SkipsWatcher counts passed turns during the current week.
type SkipsWatcher struct {
	*rules.BaseWatcher
	skips map[string]int
}

// NewSkipsWatcher creates a new skips watcher.
func NewSkipsWatcher() *SkipsWatcher {
	w := &SkipsWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeRound),
		skips:       make(map[string]int),
	}
	w.SetKey("SkipsWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *SkipsWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventTurnSkipped || event.PlayerID == "" {
		return
	}
	w.skips[event.PlayerID]++
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *SkipsWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.skips = make(map[string]int)
}

// GetCount returns the number of turns a player skipped.
func (w *SkipsWatcher) GetCount(playerID string) int {
	return w.skips[playerID]
}
