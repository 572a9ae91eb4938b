// Package effects resolves the structured abilities printed on fish cards.
package effects

import (
	"fmt"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/cost"
	"github.com/finspan/finspan-server-go/internal/game/counters"
	"github.com/finspan/finspan-server-go/internal/game/rules"
	"github.com/finspan/finspan-server-go/internal/game/state"
)

// Resolver turns card abilities into state mutations.
type Resolver struct {
	bus    *rules.EventBus
	ops    *counters.CounterOperations
	ledger *cost.Ledger
}

// NewResolver creates a resolver publishing to bus. bus may be nil.
func NewResolver(bus *rules.EventBus) *Resolver {
	return &Resolver{
		bus:    bus,
		ops:    counters.NewCounterOperations(bus),
		ledger: cost.NewLedger(bus),
	}
}

// ConsumeCapacity returns how many extra fish card's abilities for trigger
// may consume.
func ConsumeCapacity(card catalog.Card, trigger catalog.Trigger) int {
	total := 0
	for _, ability := range card.AbilitiesFor(trigger) {
		for _, effect := range ability.Effects {
			if effect.Kind == catalog.EffectConsumeFish {
				total += effect.Amount
			}
		}
	}
	return total
}

// ValidateTargets checks explicit consume targets for card's trigger
// abilities against p's tableau before anything is mutated. Fish listed in
// exclude are already being spent elsewhere in the same action.
func ValidateTargets(card catalog.Card, trigger catalog.Trigger, p *state.PlayerMat, targets, exclude []string) error {
	capacity := ConsumeCapacity(card, trigger)
	if len(targets) > capacity {
		return fmt.Errorf("%s can consume %d fish on %s, got %d targets", card.ID, capacity, trigger, len(targets))
	}
	taken := make(map[string]bool, len(exclude)+len(targets))
	for _, id := range exclude {
		taken[id] = true
	}
	for _, id := range targets {
		if taken[id] {
			return fmt.Errorf("fish %s selected twice", id)
		}
		taken[id] = true
		prey := p.Fish(id)
		if prey == nil {
			return fmt.Errorf("fish %s is not in %s's tableau", id, p.ID)
		}
		if !cost.Edible(card, prey) {
			return fmt.Errorf("%s cannot consume %s", card.ID, id)
		}
	}
	return nil
}

// Resolve applies every ability of the fish sourceID, owned by seat
// ownerIdx, whose trigger matches. Abilities flagged for all players run for
// the owner first and then for every other seat in turn order. Effects bound
// to the source fish (eggs, schools, bonuses, consumption) only ever apply
// to the owner.
func (r *Resolver) Resolve(gs *state.GameState, ownerIdx int, sourceID string, trigger catalog.Trigger, targets []string) ([]Mutation, error) {
	src := gs.FindFish(ownerIdx, sourceID)
	if src == nil {
		return nil, fmt.Errorf("resolve %s: fish not found for seat %d", sourceID, ownerIdx)
	}

	var mutations []Mutation
	remaining := append([]string(nil), targets...)
	for _, ability := range src.Card.AbilitiesFor(trigger) {
		for _, seat := range recipients(len(gs.Players), ownerIdx, ability.AllPlayers) {
			for _, effect := range ability.Effects {
				m, err := r.apply(gs, ownerIdx, seat, src, effect, &remaining)
				if err != nil {
					return mutations, fmt.Errorf("%s %s: %w", src.Card.ID, effect.Kind, err)
				}
				if m != nil {
					mutations = append(mutations, *m)
				}
			}
		}
		r.publishResolved(gs, ownerIdx, src, ability)
	}
	return mutations, nil
}

// ResolveAll resolves trigger for every placed fish of every player, seat
// by seat in tableau order.
func (r *Resolver) ResolveAll(gs *state.GameState, trigger catalog.Trigger) ([]Mutation, error) {
	var mutations []Mutation
	for seat := range gs.Players {
		ids := make([]string, 0, len(gs.Players[seat].Tableau))
		for _, f := range gs.Players[seat].Tableau {
			ids = append(ids, f.InstanceID)
		}
		for _, id := range ids {
			m, err := r.Resolve(gs, seat, id, trigger, nil)
			mutations = append(mutations, m...)
			if err != nil {
				return mutations, err
			}
		}
	}
	return mutations, nil
}

func recipients(players, owner int, all bool) []int {
	if !all {
		return []int{owner}
	}
	out := make([]int, 0, players)
	for i := 0; i < players; i++ {
		out = append(out, (owner+i)%players)
	}
	return out
}

func (r *Resolver) apply(gs *state.GameState, ownerIdx, seat int, src *state.PlacedFish, effect catalog.Effect, targets *[]string) (*Mutation, error) {
	p := &gs.Players[seat]
	owner := seat == ownerIdx
	m := &Mutation{PlayerID: p.ID, SourceID: src.InstanceID, Effect: effect.Kind}

	switch effect.Kind {
	case catalog.EffectGrantResource:
		ct, ok := counters.FromResource(effect.Resource)
		if !ok {
			return nil, fmt.Errorf("%q is not grantable", effect.Resource)
		}
		m.Amount = r.ops.Gain(p.Resources, ct, effect.Amount, p.ID, src.InstanceID)
		m.Detail = string(ct)

	case catalog.EffectDrawCards:
		m.Amount = gs.Draw(p, effect.Amount)
		m.Detail = fmt.Sprintf("%d left in deck", len(gs.Deck))
		if m.Amount > 0 {
			r.publish(rules.NewEventWithAmount(rules.EventCardsDrawn, p.ID, src.InstanceID, p.ID, m.Amount),
				fmt.Sprintf("%s drew %d card(s)", p.ID, m.Amount))
		}

	case catalog.EffectConsumeFish:
		if !owner {
			return nil, nil
		}
		n := effect.Amount
		if n > len(*targets) {
			n = len(*targets)
		}
		for _, id := range (*targets)[:n] {
			if err := r.ledger.Consume(p, src, id, src.InstanceID); err != nil {
				return nil, err
			}
		}
		m.Amount = n
		m.Detail = fmt.Sprintf("%v", (*targets)[:n])
		*targets = (*targets)[n:]

	case catalog.EffectPlayFromDiscard:
		if len(p.Discard) == 0 {
			m.Detail = "discard empty"
			return m, nil
		}
		top := p.Discard[len(p.Discard)-1]
		p.Discard = p.Discard[:len(p.Discard)-1]
		p.Hand = append(p.Hand, top)
		m.Amount = 1
		m.Detail = top.ID
		r.publish(rules.NewEvent(rules.EventCardReturned, top.ID, src.InstanceID, p.ID),
			fmt.Sprintf("%s took %s back from the discard pile", p.ID, top.Name))

	case catalog.EffectLayEggs:
		if !owner {
			return nil, nil
		}
		m.Amount = r.ops.LayEggs(src.Counters, effect.Amount, p.ID, src.InstanceID)
		m.Detail = src.InstanceID

	case catalog.EffectGainPerFishAtSite:
		ct, ok := counters.FromResource(effect.Resource)
		if !ok {
			return nil, fmt.Errorf("%q is not grantable", effect.Resource)
		}
		count := len(p.FishAtSite(src.DiveSite))
		m.Amount = r.ops.Gain(p.Resources, ct, effect.Amount*count, p.ID, src.InstanceID)
		m.Detail = fmt.Sprintf("%d fish at %s", count, src.DiveSite)

	case catalog.EffectFormSchool:
		if !owner {
			return nil, nil
		}
		src.School = true
		m.Amount = r.ops.Gain(p.Resources, counters.CounterTypeSchool, 1, p.ID, src.InstanceID)
		m.Detail = src.InstanceID
		r.publish(rules.NewEvent(rules.EventSchoolFormed, src.InstanceID, src.InstanceID, p.ID),
			fmt.Sprintf("%s formed a school", src.Card.Name))

	case catalog.EffectBonusPerEgg:
		if !owner {
			return nil, nil
		}
		bonus := effect.Amount * src.Counters.Get(counters.CounterTypeEgg)
		src.BonusPoints += bonus
		m.Amount = bonus
		m.Detail = src.InstanceID
		if bonus > 0 {
			r.publish(rules.NewEventWithAmount(rules.EventBonusScored, src.InstanceID, src.InstanceID, p.ID, bonus),
				fmt.Sprintf("%s scored %d bonus point(s)", src.Card.Name, bonus))
		}

	default:
		return nil, fmt.Errorf("unsupported effect %q", effect.Kind)
	}
	return m, nil
}

func (r *Resolver) publishResolved(gs *state.GameState, ownerIdx int, src *state.PlacedFish, ability catalog.Ability) {
	evt := rules.NewEvent(rules.EventAbilityResolved, src.InstanceID, src.Card.ID, gs.Players[ownerIdx].ID)
	evt.Data = string(ability.Trigger)
	r.publish(evt, ability.Description)
}

func (r *Resolver) publish(evt rules.Event, description string) {
	if r.bus == nil {
		return
	}
	evt.Description = description
	r.bus.Publish(evt)
}
