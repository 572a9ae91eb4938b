// Package bot provides computer players that pick from the engine's legal
// actions.
package bot

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/finspan/finspan-server-go/internal/game"
	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/state"
	"go.uber.org/zap"
)

// ErrNoMove is returned when a player has nothing to do, which only happens
// outside their turn or after the game ended.
var ErrNoMove = errors.New("no legal move")

// Brain chooses the next action for playerID.
type Brain interface {
	CalculateMove(gs *state.GameState, playerID string) (game.Action, error)
}

// GreedyBot takes the action with the best immediate value: points on the
// table first, then dives that trigger fish, skipping only when nothing else
// is possible.
type GreedyBot struct{}

func (GreedyBot) CalculateMove(gs *state.GameState, playerID string) (game.Action, error) {
	actions := game.LegalActions(gs, playerID)
	if len(actions) == 0 {
		return nil, ErrNoMove
	}
	p := gs.Player(playerID)

	scored := make([]scoredAction, len(actions))
	for i, a := range actions {
		scored[i] = scoredAction{action: a, score: value(a, p)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored[0].action, nil
}

type scoredAction struct {
	action game.Action
	score  int
}

func value(a game.Action, p *state.PlayerMat) int {
	switch act := a.(type) {
	case game.PlaceCard:
		idx := p.HandIndex(act.CardID)
		if idx < 0 {
			return -1
		}
		card := p.Hand[idx]
		return 2*card.Points + 2*len(act.Consume) + len(card.AbilitiesFor(catalog.TriggerOnPlay)) - len(act.Discard)
	case game.Dive:
		n := 0
		for _, f := range p.FishAtSite(act.DiveSite) {
			n += len(f.Card.AbilitiesFor(catalog.TriggerOnActivate))
		}
		return 2 * n
	}
	return -1
}

// RandomBot picks uniformly among legal actions.
type RandomBot struct {
	rng *rand.Rand
}

// NewRandomBot seeds a RandomBot.
func NewRandomBot(seed uint64) *RandomBot {
	return &RandomBot{rng: rand.New(rand.NewPCG(seed, seed+1))}
}

func (b *RandomBot) CalculateMove(gs *state.GameState, playerID string) (game.Action, error) {
	actions := game.LegalActions(gs, playerID)
	if len(actions) == 0 {
		return nil, ErrNoMove
	}
	return actions[b.rng.IntN(len(actions))], nil
}

// Play drives e to the end, asking brains (keyed by player id) for every
// move. Players without a brain use GreedyBot.
func Play(e *game.Engine, brains map[string]Brain, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for steps := 0; !e.Finished(); steps++ {
		gs := e.CurrentState()
		playerID := gs.CurrentPlayer().ID
		brain, ok := brains[playerID]
		if !ok {
			brain = GreedyBot{}
		}

		a, err := brain.CalculateMove(gs, playerID)
		if err != nil {
			return fmt.Errorf("step %d: %s: %w", steps, playerID, err)
		}
		if _, err := e.Apply(a); err != nil {
			return fmt.Errorf("step %d: %s played %s: %w", steps, playerID, a.Kind(), err)
		}
		logger.Debug("bot moved",
			zap.String("player_id", playerID),
			zap.String("kind", string(a.Kind())),
			zap.Int("round", gs.Round),
			zap.Int("turn", gs.Turn),
		)
	}
	return nil
}
