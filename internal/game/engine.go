// Package game is the Finspan turn controller: it owns one match's state,
// validates and applies player actions, and advances turns and weeks.
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/cost"
	"github.com/finspan/finspan-server-go/internal/game/effects"
	"github.com/finspan/finspan-server-go/internal/game/rules"
	"github.com/finspan/finspan-server-go/internal/game/scoring"
	"github.com/finspan/finspan-server-go/internal/game/state"
	"github.com/finspan/finspan-server-go/internal/game/watchers"
	"go.uber.org/zap"
)

var (
	// ErrStaleState is returned when an external snapshot is older than the local one.
	ErrStaleState = errors.New("stale game state")
	// ErrGameOver is returned when the match is frozen.
	ErrGameOver = errors.New("game is over")
)

// Observer receives engine activity, typically for metrics.
type Observer interface {
	ActionApplied(kind string, result string, elapsed time.Duration)
	WeekEnded(round int)
	GameEnded(players int)
}

type nopObserver struct{}

func (nopObserver) ActionApplied(string, string, time.Duration) {}
func (nopObserver) WeekEnded(int)                              {}
func (nopObserver) GameEnded(int)                              {}

type engineOptions struct {
	logger       *zap.Logger
	seed         uint64
	seeded       bool
	rewarder     effects.DiveRewarder
	rewardPolicy string
	achievements []catalog.Achievement
	observer     Observer
}

// Option configures an Engine.
type Option func(*engineOptions)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSeed fixes the random source so the deal and game id are reproducible.
func WithSeed(seed uint64) Option {
	return func(o *engineOptions) {
		o.seed = seed
		o.seeded = true
	}
}

// WithDiveRewarder installs a custom dive reward policy.
func WithDiveRewarder(r effects.DiveRewarder) Option {
	return func(o *engineOptions) {
		o.rewarder = r
	}
}

// WithDiveReward selects a built-in dive reward policy by name.
func WithDiveReward(policy string) Option {
	return func(o *engineOptions) {
		o.rewardPolicy = policy
	}
}

// WithAchievements enables end-game achievements.
func WithAchievements(achievements ...catalog.Achievement) Option {
	return func(o *engineOptions) {
		o.achievements = append([]catalog.Achievement{}, achievements...)
	}
}

// WithObserver reports engine activity to obs.
func WithObserver(obs Observer) Option {
	return func(o *engineOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// Engine runs a single match. It is not safe for concurrent use; callers
// serialize access (see Manager).
type Engine struct {
	logger   *zap.Logger
	catalog  *catalog.Catalog
	state    *state.GameState
	bus      *rules.EventBus
	watchers *rules.WatcherRegistry
	ledger   *cost.Ledger
	resolver *effects.Resolver
	rewarder effects.DiveRewarder
	observer Observer
	replay   *Replay

	lastMutations []effects.Mutation
}

// NewEngine deals a new match for playerNames, in turn order.
func NewEngine(cat *catalog.Catalog, playerNames []string, opts ...Option) (*Engine, error) {
	o := engineOptions{
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		o.seed = rand.Uint64()
	}

	gs, err := state.New(cat, playerNames, rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15)))
	if err != nil {
		return nil, err
	}
	gs.Seed = o.seed
	if len(o.achievements) > 0 {
		gs.Achievements = o.achievements
	}

	bus := rules.NewEventBus()
	e := &Engine{
		logger:   o.logger.With(zap.String("game_id", gs.ID)),
		catalog:  cat,
		state:    gs,
		bus:      bus,
		watchers: rules.NewWatcherRegistry(),
		ledger:   cost.NewLedger(bus),
		resolver: effects.NewResolver(bus),
		observer: o.observer,
		replay:   NewReplay(gs.ID, gs.Seed, playerNames),
	}

	e.rewarder = o.rewarder
	if e.rewarder == nil {
		if e.rewarder, err = effects.RewarderByName(o.rewardPolicy, e.resolver); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSetup, err)
		}
	}

	e.watchers.AddWatcher(watchers.NewFishPlacedWatcher())
	e.watchers.AddWatcher(watchers.NewDivesWatcher())
	e.watchers.AddWatcher(watchers.NewFishConsumedWatcher())
	e.watchers.AddWatcher(watchers.NewSkipsWatcher())
	e.watchers.Attach(bus)

	e.replay.RecordState(gs.Clone())
	e.logger.Info("game created",
		zap.Uint64("seed", gs.Seed),
		zap.Strings("players", playerNames),
		zap.Int("deck", len(gs.Deck)),
	)
	return e, nil
}

// ID returns the match id.
func (e *Engine) ID() string {
	return e.state.ID
}

// Catalog returns the card catalog the match was dealt from.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// PlaceCard applies a PlaceCard action.
func (e *Engine) PlaceCard(a PlaceCard) (*state.GameState, error) {
	return e.Apply(a)
}

// Dive applies a Dive action.
func (e *Engine) Dive(a Dive) (*state.GameState, error) {
	return e.Apply(a)
}

// Skip applies a Skip action.
func (e *Engine) Skip(a Skip) (*state.GameState, error) {
	return e.Apply(a)
}

// Apply validates and applies one action, then advances the turn. It
// returns a snapshot of the new state. A rejected action returns an
// *ActionError and leaves the state unchanged. Events raised while applying
// reach subscribers only once the action has succeeded.
func (e *Engine) Apply(a Action) (*state.GameState, error) {
	if a == nil {
		return nil, fmt.Errorf("nil action")
	}
	start := time.Now()
	e.lastMutations = nil

	if rej := a.validate(e); rej != nil {
		e.observer.ActionApplied(string(a.Kind()), "rejected", time.Since(start))
		evt := rules.NewEvent(rules.EventActionRejected, a.Actor(), string(a.Kind()), a.Actor())
		evt.Data = string(rej.Reason)
		e.publish(evt, rej.Error())
		e.logger.Debug("action rejected",
			zap.String("kind", string(a.Kind())),
			zap.String("player_id", a.Actor()),
			zap.String("reason", string(rej.Reason)),
			zap.String("message", rej.Message),
		)
		return nil, rej
	}

	// Restore point in case a validated action still fails half way.
	bookmark := e.state.Clone()
	e.bus.Hold()
	if err := e.applyAndAdvance(a); err != nil {
		e.state = bookmark
		dropped := e.bus.Discard()
		e.observer.ActionApplied(string(a.Kind()), "error", time.Since(start))
		e.logger.Error("action failed and state restored",
			zap.String("kind", string(a.Kind())),
			zap.String("player_id", a.Actor()),
			zap.Int("dropped_events", dropped),
			zap.Error(err),
		)
		return nil, fmt.Errorf("apply %s: %w", a.Kind(), err)
	}
	e.bus.Release()

	e.replay.Record(a, e.state.Clone())
	e.observer.ActionApplied(string(a.Kind()), "ok", time.Since(start))
	e.logger.Debug("action applied",
		zap.String("kind", string(a.Kind())),
		zap.String("player_id", a.Actor()),
		zap.Int("round", e.state.Round),
		zap.Int("turn", e.state.Turn),
		zap.Int("mutations", len(e.lastMutations)),
	)
	return e.state.Clone(), nil
}

func (e *Engine) applyAndAdvance(a Action) error {
	if err := a.apply(e); err != nil {
		return err
	}
	if err := e.advanceTurn(); err != nil {
		return err
	}
	e.state.Version++
	return nil
}

// CurrentState returns a deep copy of the state.
func (e *Engine) CurrentState() *state.GameState {
	return e.state.Clone()
}

// LastMutations returns the ability mutations of the last applied action.
func (e *Engine) LastMutations() []effects.Mutation {
	return append([]effects.Mutation(nil), e.lastMutations...)
}

// Score returns playerID's current score.
func (e *Engine) Score(playerID string) (int, error) {
	idx := e.state.PlayerIndex(playerID)
	if idx < 0 {
		return 0, reject(ReasonUnknownPlayer, playerID, "not seated in game %s", e.state.ID)
	}
	return scoring.Score(e.state, idx), nil
}

// Scores returns every player's score breakdown in seat order.
func (e *Engine) Scores() []scoring.Breakdown {
	return scoring.All(e.state)
}

// Finished reports whether the match reached end_game.
func (e *Engine) Finished() bool {
	return e.state.Phase == rules.PhaseEndGame
}

// AcceptExternalState replaces the local state with a snapshot received from
// a peer. Snapshots of the same match with a lower version are ignored with
// ErrStaleState; a frozen match accepts nothing. Only snapshots taken between
// actions (playing or end_game) are accepted.
func (e *Engine) AcceptExternalState(gs *state.GameState) error {
	if gs == nil {
		return fmt.Errorf("nil game state")
	}
	if e.Finished() {
		return ErrGameOver
	}
	if err := gs.Validate(); err != nil {
		return fmt.Errorf("external state: %w", err)
	}
	if gs.Phase != rules.PhasePlaying && gs.Phase != rules.PhaseEndGame {
		return fmt.Errorf("external state: phase %s is not resumable", gs.Phase)
	}
	if gs.ID == e.state.ID && gs.Version < e.state.Version {
		return fmt.Errorf("%w: version %d < %d", ErrStaleState, gs.Version, e.state.Version)
	}

	prev := e.state
	e.state = gs.Clone()
	e.replay.MarkExternal()

	evt := rules.NewEventWithAmount(rules.EventStateReplaced, gs.ID, prev.ID, "", int(gs.Version))
	e.publish(evt, fmt.Sprintf("state replaced with version %d", gs.Version))
	e.logger.Info("external state accepted",
		zap.String("remote_game_id", gs.ID),
		zap.Int64("version", gs.Version),
		zap.Int("round", gs.Round),
		zap.Int("turn", gs.Turn),
	)
	return nil
}

// Subscribe registers a listener for every engine event.
func (e *Engine) Subscribe(listener rules.Listener) int {
	return e.bus.Subscribe(listener)
}

// Unsubscribe removes a listener registered with Subscribe.
func (e *Engine) Unsubscribe(handle int) {
	e.bus.Unsubscribe(handle)
}

// Watchers returns the activity watchers attached to the event bus.
func (e *Engine) Watchers() *rules.WatcherRegistry {
	return e.watchers
}

// Replay returns the recorded match.
func (e *Engine) Replay() *Replay {
	return e.replay
}

func (e *Engine) publish(evt rules.Event, description string) {
	evt.GameID = e.state.ID
	evt.Description = description
	e.bus.Publish(evt)
}
