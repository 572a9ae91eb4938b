package game

import (
	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/cost"
	"github.com/finspan/finspan-server-go/internal/game/rules"
	"github.com/finspan/finspan-server-go/internal/game/state"
)

// LegalActions lists actions playerID could submit right now. Costs are
// paid with the first cards and fish that qualify and on-play consume
// targets are left empty; callers wanting other choices build their own
// PlaceCard. Skip is always last when it is the player's turn.
func LegalActions(gs *state.GameState, playerID string) []Action {
	if gs.Phase != rules.PhasePlaying {
		return nil
	}
	idx := gs.PlayerIndex(playerID)
	if idx < 0 || idx != gs.CurrentPlayerIndex {
		return nil
	}
	p := &gs.Players[idx]

	var out []Action
	for _, card := range p.Hand {
		if !cost.CanAfford(card, p) {
			continue
		}
		sel := autoSelection(card, p)
		for _, zone := range catalog.Zones {
			if !card.AllowsZone(zone) {
				continue
			}
			for _, site := range catalog.DiveSites {
				if !card.AllowsDiveSite(site) {
					continue
				}
				out = append(out, PlaceCard{
					PlayerID: playerID,
					CardID:   card.ID,
					Zone:     zone,
					DiveSite: site,
					Discard:  sel.Discard,
					Consume:  sel.Consume,
				})
			}
		}
	}
	for _, d := range p.Divers {
		if !d.Used {
			out = append(out, Dive{PlayerID: playerID, DiveSite: d.Site})
		}
	}
	return append(out, Skip{PlayerID: playerID})
}

func autoSelection(card catalog.Card, p *state.PlayerMat) cost.Selection {
	sel := cost.Selection{Discard: []string{}, Consume: []string{}}
	need := cost.DiscardCount(card)
	for _, c := range p.Hand {
		if len(sel.Discard) == need {
			break
		}
		if c.ID != card.ID {
			sel.Discard = append(sel.Discard, c.ID)
		}
	}
	prey := cost.EligiblePrey(card, p)
	for i := 0; i < card.Cost.Amount(catalog.ResourceConsume) && i < len(prey); i++ {
		sel.Consume = append(sel.Consume, prey[i].InstanceID)
	}
	return sel
}

// LegalActions lists what playerID may do in the current state.
func (e *Engine) LegalActions(playerID string) []Action {
	return LegalActions(e.state, playerID)
}
