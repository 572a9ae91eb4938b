// Package scoring computes player scores from a game state.
package scoring

import (
	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/state"
)

// Breakdown is a player's score split by source.
type Breakdown struct {
	PlayerID     string         `json:"playerId"`
	FishPoints   int            `json:"fishPoints"`
	Consumed     int            `json:"consumed"`
	Bonus        int            `json:"bonus"`
	Achievements map[string]int `json:"achievements"`
	Total        int            `json:"total"`
}

// Score returns the total score of the player in seat playerIdx.
func Score(gs *state.GameState, playerIdx int) int {
	return Compute(gs, playerIdx).Total
}

// Compute returns the score breakdown of the player in seat playerIdx.
// An out of range seat scores zero.
func Compute(gs *state.GameState, playerIdx int) Breakdown {
	if playerIdx < 0 || playerIdx >= len(gs.Players) {
		return Breakdown{Achievements: map[string]int{}}
	}
	p := &gs.Players[playerIdx]
	b := Breakdown{
		PlayerID:     p.ID,
		Achievements: make(map[string]int, len(gs.Achievements)),
	}
	for i := range p.Tableau {
		f := &p.Tableau[i]
		b.FishPoints += f.Card.Points
		b.Consumed += len(f.ConsumedFish)
		b.Bonus += f.BonusPoints
	}
	b.Total = b.FishPoints + b.Consumed + b.Bonus

	for _, a := range gs.Achievements {
		pts := achievementPoints(gs, playerIdx, a)
		b.Achievements[a.ID] = pts
		b.Total += pts
	}
	return b
}

// All returns the breakdown of every player in seat order.
func All(gs *state.GameState) []Breakdown {
	out := make([]Breakdown, len(gs.Players))
	for i := range gs.Players {
		out[i] = Compute(gs, i)
	}
	return out
}

// Leaders returns the seats holding the highest total.
func Leaders(gs *state.GameState) []int {
	var leaders []int
	best := 0
	for i, b := range All(gs) {
		switch {
		case len(leaders) == 0 || b.Total > best:
			best = b.Total
			leaders = []int{i}
		case b.Total == best:
			leaders = append(leaders, i)
		}
	}
	return leaders
}

// CountMatching returns how many of the player's fish pass filter.
func CountMatching(p *state.PlayerMat, filter catalog.FishFilter) int {
	n := 0
	for i := range p.Tableau {
		f := &p.Tableau[i]
		if filter.Matches(f.Card, f.Zone, f.DiveSite) {
			n++
		}
	}
	return n
}

func achievementPoints(gs *state.GameState, playerIdx int, a catalog.Achievement) int {
	count := CountMatching(&gs.Players[playerIdx], a.Filter)

	switch a.ScoringType {
	case catalog.ScoringPointsPerTag:
		return a.Points * count

	case catalog.ScoringBonusCondition:
		need := a.Filter.MinCount
		if need < 1 {
			need = 1
		}
		if count >= need {
			return a.Points
		}

	case catalog.ScoringComparison:
		if count == 0 {
			return 0
		}
		for i := range gs.Players {
			if CountMatching(&gs.Players[i], a.Filter) > count {
				return 0
			}
		}
		return a.Points
	}
	return 0
}
