package state

import (
	"fmt"
	"sort"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/rules"
)

// Validate checks the structural invariants of a snapshot: seats, turn
// bounds, counters, divers, slot uniqueness, and that no card is in two
// places at once.
func (gs *GameState) Validate() error {
	if gs == nil {
		return fmt.Errorf("nil game state")
	}
	if gs.ID == "" {
		return fmt.Errorf("missing game id")
	}
	if _, err := gs.Phase.MarshalText(); err != nil {
		return err
	}
	if err := rules.NewTurnManager(len(gs.Players), gs.TurnPosition()).Validate(); err != nil {
		return err
	}

	ids := make(map[string]bool, len(gs.Players))
	cards := make(map[string]string)
	track := func(where string, list []catalog.Card) error {
		for _, c := range list {
			if prev, dup := cards[c.ID]; dup {
				return fmt.Errorf("card %s is in %s and %s", c.ID, prev, where)
			}
			cards[c.ID] = where
		}
		return nil
	}

	if err := track("deck", gs.Deck); err != nil {
		return err
	}
	for i := range gs.Players {
		p := &gs.Players[i]
		if p.ID == "" || ids[p.ID] {
			return fmt.Errorf("seat %d has a missing or duplicate player id %q", i, p.ID)
		}
		ids[p.ID] = true

		if err := p.Resources.Validate(); err != nil {
			return fmt.Errorf("player %s: %w", p.ID, err)
		}
		if err := validateDivers(p.Divers); err != nil {
			return fmt.Errorf("player %s: %w", p.ID, err)
		}
		if err := track(p.ID+" hand", p.Hand); err != nil {
			return err
		}
		if err := track(p.ID+" discard", p.Discard); err != nil {
			return err
		}

		slots := make(map[string]bool, len(p.Tableau))
		fishIDs := make(map[string]bool, len(p.Tableau))
		for j := range p.Tableau {
			f := &p.Tableau[j]
			if err := track(p.ID+" tableau", []catalog.Card{f.Card}); err != nil {
				return err
			}
			if f.InstanceID == "" || fishIDs[f.InstanceID] {
				return fmt.Errorf("player %s: missing or duplicate fish id %q", p.ID, f.InstanceID)
			}
			fishIDs[f.InstanceID] = true
			slot := fmt.Sprintf("%s/%s/%d", f.Zone, f.DiveSite, f.Row)
			if slots[slot] {
				return fmt.Errorf("player %s: two fish at %s", p.ID, slot)
			}
			slots[slot] = true
			if err := f.Counters.Validate(); err != nil {
				return fmt.Errorf("fish %s: %w", f.InstanceID, err)
			}
		}
	}
	return nil
}

func validateDivers(divers []Diver) error {
	if len(divers) != rules.DiversPerPlayer {
		return fmt.Errorf("expected %d divers, have %d", rules.DiversPerPlayer, len(divers))
	}
	seen := make(map[catalog.DiveSite]bool, len(divers))
	for _, d := range divers {
		if !d.Site.Valid() || seen[d.Site] {
			return fmt.Errorf("invalid or duplicate diver site %q", d.Site)
		}
		seen[d.Site] = true
	}
	return nil
}

// CardPool returns the sorted ids of every card in the match, wherever it is.
func (gs *GameState) CardPool() []string {
	var ids []string
	for _, c := range gs.Deck {
		ids = append(ids, c.ID)
	}
	for i := range gs.Players {
		p := &gs.Players[i]
		for _, c := range p.Hand {
			ids = append(ids, c.ID)
		}
		for _, c := range p.Discard {
			ids = append(ids, c.ID)
		}
		for j := range p.Tableau {
			ids = append(ids, p.Tableau[j].Card.ID)
		}
	}
	sort.Strings(ids)
	return ids
}
