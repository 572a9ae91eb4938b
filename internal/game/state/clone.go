package state

import (
	"github.com/finspan/finspan-server-go/internal/game/catalog"
)

// Clone returns a deep copy. Card definitions are immutable and their inner
// slices are shared; every slice and map owned by the state is copied.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	out := *gs
	out.Deck = cloneCards(gs.Deck)
	if gs.Achievements != nil {
		out.Achievements = append([]catalog.Achievement{}, gs.Achievements...)
	}
	if gs.Players != nil {
		out.Players = make([]PlayerMat, len(gs.Players))
		for i := range gs.Players {
			out.Players[i] = gs.Players[i].clone()
		}
	}
	return &out
}

func (p PlayerMat) clone() PlayerMat {
	out := p
	out.Hand = cloneCards(p.Hand)
	out.Discard = cloneCards(p.Discard)
	out.Resources = p.Resources.Copy()
	if p.Divers != nil {
		out.Divers = append([]Diver{}, p.Divers...)
	}
	if p.Tableau != nil {
		out.Tableau = make([]PlacedFish, len(p.Tableau))
		for i := range p.Tableau {
			out.Tableau[i] = p.Tableau[i].clone()
		}
	}
	return out
}

func (f PlacedFish) clone() PlacedFish {
	out := f
	out.Counters = f.Counters.Copy()
	if f.ConsumedFish != nil {
		out.ConsumedFish = append([]string{}, f.ConsumedFish...)
	}
	return out
}

func cloneCards(cards []catalog.Card) []catalog.Card {
	if cards == nil {
		return nil
	}
	return append([]catalog.Card{}, cards...)
}
