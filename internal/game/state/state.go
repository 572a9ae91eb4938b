// Package state defines the canonical, serializable snapshot of a match.
package state

import (
	"sort"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/counters"
	"github.com/finspan/finspan-server-go/internal/game/rules"
)

// PlacedFish is a card instance occupying one (zone, dive site, row) slot.
type PlacedFish struct {
	InstanceID   string            `json:"instanceId"`
	Card         catalog.Card      `json:"card"`
	Zone         catalog.Zone      `json:"zone"`
	DiveSite     catalog.DiveSite  `json:"diveSite"`
	Row          int               `json:"row"`
	Counters     counters.Counters `json:"counters"`
	School       bool              `json:"school"`
	ConsumedFish []string          `json:"consumedFish"`
	ConsumedBy   string            `json:"consumedBy,omitempty"`
	BonusPoints  int               `json:"bonusPoints,omitempty"`
}

// Consumed reports whether another fish already absorbed this one.
func (f *PlacedFish) Consumed() bool {
	return f.ConsumedBy != ""
}

// Diver is a once-per-week token bound to a dive site.
type Diver struct {
	Site catalog.DiveSite `json:"site"`
	Used bool             `json:"used"`
}

// PlayerMat is one participant's board.
type PlayerMat struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Hand       []catalog.Card    `json:"hand"`
	Tableau    []PlacedFish      `json:"tableau"`
	Discard    []catalog.Card    `json:"discard"`
	Divers     []Diver           `json:"divers"`
	Resources  counters.Counters `json:"resources"`
	FinalScore int               `json:"finalScore"`
}

// GameState is the whole match. It is the synchronization payload exchanged
// between peers.
type GameState struct {
	ID                 string                `json:"id"`
	Seed               uint64                `json:"seed"`
	Players            []PlayerMat           `json:"players"`
	CurrentPlayerIndex int                   `json:"currentPlayerIndex"`
	Round              int                   `json:"round"`
	Turn               int                   `json:"turn"`
	Deck               []catalog.Card        `json:"deck"`
	Phase              rules.Phase           `json:"phase"`
	Achievements       []catalog.Achievement `json:"achievements"`
	// Version counts applied mutations; peers ignore snapshots older than theirs.
	Version int64 `json:"version"`
}

// PlayerIndex returns the seat of playerID, or -1.
func (gs *GameState) PlayerIndex(playerID string) int {
	for i := range gs.Players {
		if gs.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// Player returns the mat for playerID, or nil.
func (gs *GameState) Player(playerID string) *PlayerMat {
	if i := gs.PlayerIndex(playerID); i >= 0 {
		return &gs.Players[i]
	}
	return nil
}

// FindFish returns the fish with instanceID in the tableau of seat playerIdx.
func (gs *GameState) FindFish(playerIdx int, instanceID string) *PlacedFish {
	if playerIdx < 0 || playerIdx >= len(gs.Players) {
		return nil
	}
	return gs.Players[playerIdx].Fish(instanceID)
}

// CurrentPlayer returns the mat of the player whose turn it is.
func (gs *GameState) CurrentPlayer() *PlayerMat {
	if gs.CurrentPlayerIndex < 0 || gs.CurrentPlayerIndex >= len(gs.Players) {
		return nil
	}
	return &gs.Players[gs.CurrentPlayerIndex]
}

// TurnPosition returns the round/turn/seat triple.
func (gs *GameState) TurnPosition() rules.TurnPosition {
	return rules.TurnPosition{
		Round:         gs.Round,
		Turn:          gs.Turn,
		CurrentPlayer: gs.CurrentPlayerIndex,
	}
}

// SetTurnPosition stores a triple produced by a rules.TurnManager.
func (gs *GameState) SetTurnPosition(pos rules.TurnPosition) {
	gs.Round = pos.Round
	gs.Turn = pos.Turn
	gs.CurrentPlayerIndex = pos.CurrentPlayer
}

// Draw moves up to n cards from the top of the deck into the player's hand
// and returns how many moved.
func (gs *GameState) Draw(p *PlayerMat, n int) int {
	if n > len(gs.Deck) {
		n = len(gs.Deck)
	}
	if n <= 0 {
		return 0
	}
	p.Hand = append(p.Hand, gs.Deck[:n]...)
	gs.Deck = append([]catalog.Card(nil), gs.Deck[n:]...)
	return n
}

// HandIndex returns the position of cardID in the hand, or -1.
func (p *PlayerMat) HandIndex(cardID string) int {
	for i := range p.Hand {
		if p.Hand[i].ID == cardID {
			return i
		}
	}
	return -1
}

// RemoveFromHand takes cardID out of the hand and returns it.
func (p *PlayerMat) RemoveFromHand(cardID string) (catalog.Card, bool) {
	i := p.HandIndex(cardID)
	if i < 0 {
		return catalog.Card{}, false
	}
	card := p.Hand[i]
	p.Hand = append(p.Hand[:i:i], p.Hand[i+1:]...)
	return card, true
}

// Fish returns the placed fish with instanceID, or nil.
func (p *PlayerMat) Fish(instanceID string) *PlacedFish {
	for i := range p.Tableau {
		if p.Tableau[i].InstanceID == instanceID {
			return &p.Tableau[i]
		}
	}
	return nil
}

// NextRow returns the row the next fish placed at (zone, site) will occupy.
// Rows are never reused because fish never leave the tableau.
func (p *PlayerMat) NextRow(zone catalog.Zone, site catalog.DiveSite) int {
	row := 0
	for i := range p.Tableau {
		if p.Tableau[i].Zone == zone && p.Tableau[i].DiveSite == site && p.Tableau[i].Row >= row {
			row = p.Tableau[i].Row + 1
		}
	}
	return row
}

// FishAtSite returns the fish at site ordered by zone depth, then row.
func (p *PlayerMat) FishAtSite(site catalog.DiveSite) []*PlacedFish {
	var out []*PlacedFish
	for i := range p.Tableau {
		if p.Tableau[i].DiveSite == site {
			out = append(out, &p.Tableau[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if zi, zj := zoneRank(out[i].Zone), zoneRank(out[j].Zone); zi != zj {
			return zi < zj
		}
		return out[i].Row < out[j].Row
	})
	return out
}

func zoneRank(z catalog.Zone) int {
	for i, zone := range catalog.Zones {
		if zone == z {
			return i
		}
	}
	return len(catalog.Zones)
}

// Diver returns the diver for site, or nil.
func (p *PlayerMat) Diver(site catalog.DiveSite) *Diver {
	for i := range p.Divers {
		if p.Divers[i].Site == site {
			return &p.Divers[i]
		}
	}
	return nil
}

// ResetDivers marks every diver unused.
func (p *PlayerMat) ResetDivers() {
	for i := range p.Divers {
		p.Divers[i].Used = false
	}
}

// ConsumedCount returns the number of consumed-fish references on the tableau.
func (p *PlayerMat) ConsumedCount() int {
	n := 0
	for i := range p.Tableau {
		n += len(p.Tableau[i].ConsumedFish)
	}
	return n
}

// FreshDivers returns one unused diver per dive site.
func FreshDivers() []Diver {
	divers := make([]Diver, 0, len(catalog.DiveSites))
	for _, site := range catalog.DiveSites {
		divers = append(divers, Diver{Site: site})
	}
	return divers
}
