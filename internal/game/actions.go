package game

import (
	"encoding/json"
	"fmt"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/cost"
	"github.com/finspan/finspan-server-go/internal/game/counters"
	"github.com/finspan/finspan-server-go/internal/game/effects"
	"github.com/finspan/finspan-server-go/internal/game/rules"
	"github.com/finspan/finspan-server-go/internal/game/state"
	"github.com/google/uuid"
)

// ActionKind names an action variant on the wire.
type ActionKind string

const (
	ActionPlaceCard ActionKind = "place_card"
	ActionDive      ActionKind = "dive"
	ActionSkip      ActionKind = "skip"
)

// Action is one discrete player move. The set of variants is closed:
// PlaceCard, Dive and Skip.
type Action interface {
	Kind() ActionKind
	Actor() string

	// validate checks every precondition without mutating state.
	validate(e *Engine) *ActionError
	// apply performs the move. Only called after validate succeeded.
	apply(e *Engine) error
}

// PlaceCard puts a card from hand into the tableau.
type PlaceCard struct {
	PlayerID string           `json:"playerId"`
	CardID   string           `json:"cardId"`
	Zone     catalog.Zone     `json:"zone"`
	DiveSite catalog.DiveSite `json:"diveSite"`
	// Discard lists other hand cards paid toward a card cost.
	Discard []string `json:"discard"`
	// Consume lists own fish paid toward a consume cost.
	Consume []string `json:"consume"`
	// Targets lists own fish eaten by on-play consume effects.
	Targets []string `json:"targets"`
}

// Dive spends the player's diver at a dive site.
type Dive struct {
	PlayerID string           `json:"playerId"`
	DiveSite catalog.DiveSite `json:"diveSite"`
}

// Skip passes the turn.
type Skip struct {
	PlayerID string `json:"playerId"`
}

func (PlaceCard) Kind() ActionKind { return ActionPlaceCard }
func (Dive) Kind() ActionKind      { return ActionDive }
func (Skip) Kind() ActionKind      { return ActionSkip }

func (a PlaceCard) Actor() string { return a.PlayerID }
func (a Dive) Actor() string      { return a.PlayerID }
func (a Skip) Actor() string      { return a.PlayerID }

func (a PlaceCard) selection() cost.Selection {
	return cost.Selection{Discard: a.Discard, Consume: a.Consume}
}

// actingSeat checks phase, player and turn order, in that order.
func actingSeat(gs *state.GameState, playerID string) (int, *ActionError) {
	if gs.Phase != rules.PhasePlaying {
		return -1, reject(ReasonActionOutOfPhase, playerID, "game is in phase %s", gs.Phase)
	}
	idx := gs.PlayerIndex(playerID)
	if idx < 0 {
		return -1, reject(ReasonUnknownPlayer, playerID, "not seated in game %s", gs.ID)
	}
	if idx != gs.CurrentPlayerIndex {
		return -1, reject(ReasonActionOutOfPhase, playerID, "it is %s's turn", gs.Players[gs.CurrentPlayerIndex].ID)
	}
	return idx, nil
}

func (a PlaceCard) validate(e *Engine) *ActionError {
	gs := e.state
	idx, rej := actingSeat(gs, a.PlayerID)
	if rej != nil {
		return rej
	}
	p := &gs.Players[idx]

	i := p.HandIndex(a.CardID)
	if i < 0 {
		return reject(ReasonUnknownCard, a.PlayerID, "card %q is not in hand", a.CardID)
	}
	card := p.Hand[i]
	if !a.Zone.Valid() || !card.AllowsZone(a.Zone) {
		return reject(ReasonZoneNotAllowed, a.PlayerID, "%s cannot be placed in zone %q", card.ID, a.Zone)
	}
	if !a.DiveSite.Valid() || !card.AllowsDiveSite(a.DiveSite) {
		return reject(ReasonDiveSiteNotAllowed, a.PlayerID, "%s cannot be placed at dive site %q", card.ID, a.DiveSite)
	}

	res := cost.CalculatePayment(card, p, a.selection())
	if !res.Success {
		if res.Failure == cost.FailureInsufficient {
			return reject(ReasonInsufficientResources, a.PlayerID, "cannot pay %s for %s: %s", card.Cost, card.ID, res.Reason)
		}
		return reject(ReasonInvalidSelection, a.PlayerID, "%s", res.Reason)
	}
	if err := effects.ValidateTargets(card, catalog.TriggerOnPlay, p, a.Targets, a.Consume); err != nil {
		return reject(ReasonInvalidSelection, a.PlayerID, "%v", err)
	}
	return nil
}

func (a PlaceCard) apply(e *Engine) error {
	gs := e.state
	idx := gs.PlayerIndex(a.PlayerID)
	p := &gs.Players[idx]

	card := p.Hand[p.HandIndex(a.CardID)]
	res := cost.CalculatePayment(card, p, a.selection())
	if !res.Success {
		return fmt.Errorf("payment for %s: %s", card.ID, res.Reason)
	}
	p.RemoveFromHand(card.ID)

	fish := state.PlacedFish{
		InstanceID:   fishID(gs.ID, p.ID, card.ID),
		Card:         card,
		Zone:         a.Zone,
		DiveSite:     a.DiveSite,
		Row:          p.NextRow(a.Zone, a.DiveSite),
		Counters:     counters.NewCounters(0, 0, 0),
		ConsumedFish: []string{},
	}
	if err := e.ledger.ExecutePayment(res.Plan, p, &fish); err != nil {
		return fmt.Errorf("payment for %s: %w", card.ID, err)
	}
	p.Tableau = append(p.Tableau, fish)

	evt := rules.NewEvent(rules.EventFishPlaced, fish.InstanceID, card.ID, p.ID)
	evt.Data = fmt.Sprintf("%s/%s/%d", fish.Zone, fish.DiveSite, fish.Row)
	e.publish(evt, fmt.Sprintf("%s placed %s in %s at %s", p.Name, card.Name, fish.Zone, fish.DiveSite))

	mutations, err := e.resolver.Resolve(gs, idx, fish.InstanceID, catalog.TriggerOnPlay, a.Targets)
	e.lastMutations = mutations
	if err != nil {
		return fmt.Errorf("on_play abilities of %s: %w", card.ID, err)
	}
	return nil
}

func (a Dive) validate(e *Engine) *ActionError {
	idx, rej := actingSeat(e.state, a.PlayerID)
	if rej != nil {
		return rej
	}
	diver := e.state.Players[idx].Diver(a.DiveSite)
	if !a.DiveSite.Valid() || diver == nil {
		return reject(ReasonDiveSiteNotAllowed, a.PlayerID, "no diver for dive site %q", a.DiveSite)
	}
	if diver.Used {
		return reject(ReasonDiverAlreadyUsed, a.PlayerID, "diver at %s was already used this week", a.DiveSite)
	}
	return nil
}

func (a Dive) apply(e *Engine) error {
	gs := e.state
	idx := gs.PlayerIndex(a.PlayerID)
	p := &gs.Players[idx]
	p.Diver(a.DiveSite).Used = true
	e.publish(rules.NewEvent(rules.EventDiverUsed, string(a.DiveSite), "", p.ID),
		fmt.Sprintf("%s dived at %s", p.Name, a.DiveSite))

	mutations, err := e.rewarder.Reward(gs, idx, a.DiveSite)
	e.lastMutations = mutations
	if err != nil {
		return fmt.Errorf("dive reward at %s: %w", a.DiveSite, err)
	}
	return nil
}

func (a Skip) validate(e *Engine) *ActionError {
	_, rej := actingSeat(e.state, a.PlayerID)
	return rej
}

func (a Skip) apply(e *Engine) error {
	e.publish(rules.NewEvent(rules.EventTurnSkipped, a.PlayerID, "", a.PlayerID),
		fmt.Sprintf("%s skipped", a.PlayerID))
	return nil
}

// fishID derives a stable instance id. A card occurs once per match, so the
// triple is unique.
func fishID(gameID, playerID, cardID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(gameID+"|"+playerID+"|"+cardID)).String()
}

type actionEnvelope struct {
	Kind    ActionKind      `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalAction encodes an action with its kind tag.
func MarshalAction(a Action) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("nil action")
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.Kind(), err)
	}
	return json.Marshal(actionEnvelope{Kind: a.Kind(), Payload: payload})
}

// UnmarshalAction decodes an action produced by MarshalAction.
func UnmarshalAction(data []byte) (Action, error) {
	var env actionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	switch env.Kind {
	case ActionPlaceCard:
		var a PlaceCard
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
		}
		return a, nil
	case ActionDive:
		var a Dive
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
		}
		return a, nil
	case ActionSkip:
		var a Skip
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
		}
		return a, nil
	}
	return nil, fmt.Errorf("unknown action kind %q", env.Kind)
}
