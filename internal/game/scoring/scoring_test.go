package scoring

import (
	"testing"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fish(id string, points int, zone catalog.Zone, tags ...string) state.PlacedFish {
	return state.PlacedFish{
		InstanceID: id,
		Card:       catalog.Card{ID: id, Points: points, Zones: []catalog.Zone{zone}, Tags: tags},
		Zone:       zone,
		DiveSite:   catalog.DiveSiteRed,
	}
}

func game(tableaus ...[]state.PlacedFish) *state.GameState {
	gs := &state.GameState{}
	for i, tab := range tableaus {
		gs.Players = append(gs.Players, state.PlayerMat{ID: state.PlayerID(i), Tableau: tab})
	}
	return gs
}

func TestScoreFormula(t *testing.T) {
	eel := fish("eel", 3, catalog.ZoneSunlight, "predator")
	eel.ConsumedFish = []string{"a", "b"}
	turtle := fish("turtle", 4, catalog.ZoneSunlight)
	turtle.BonusPoints = 2

	gs := game([]state.PlacedFish{eel, turtle, fish("a", 1, catalog.ZoneSunlight)}, nil)

	b := Compute(gs, 0)
	assert.Equal(t, 8, b.FishPoints)
	assert.Equal(t, 2, b.Consumed)
	assert.Equal(t, 2, b.Bonus)
	assert.Equal(t, 12, b.Total)
	assert.Equal(t, 12, Score(gs, 0))
	assert.Equal(t, 0, Score(gs, 1))
	assert.Equal(t, 0, Score(gs, 7))
}

func TestScoreIsMonotonic(t *testing.T) {
	gs := game(nil, nil)
	prev := Score(gs, 0)
	for i := 0; i < 5; i++ {
		gs.Players[0].Tableau = append(gs.Players[0].Tableau, fish(string(rune('a'+i)), i, catalog.ZoneTwilight))
		cur := Score(gs, 0)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestAchievements(t *testing.T) {
	gs := game(
		[]state.PlacedFish{
			fish("a", 0, catalog.ZoneMidnight, "reef", "predator"),
			fish("b", 0, catalog.ZoneMidnight, "reef"),
			fish("c", 0, catalog.ZoneMidnight, "predator"),
		},
		[]state.PlacedFish{
			fish("d", 0, catalog.ZoneSunlight, "predator"),
			fish("e", 0, catalog.ZoneSunlight, "predator"),
		},
		nil,
	)
	gs.Achievements = []catalog.Achievement{
		{ID: "reef", ScoringType: catalog.ScoringPointsPerTag, Points: 1, Filter: catalog.FishFilter{Tag: "reef"}},
		{ID: "deep", ScoringType: catalog.ScoringBonusCondition, Points: 4, Filter: catalog.FishFilter{Zone: catalog.ZoneMidnight, MinCount: 3}},
		{ID: "apex", ScoringType: catalog.ScoringComparison, Points: 5, Filter: catalog.FishFilter{Tag: "predator"}},
	}

	all := All(gs)
	require.Len(t, all, 3)
	assert.Equal(t, map[string]int{"reef": 2, "deep": 4, "apex": 5}, all[0].Achievements)
	assert.Equal(t, map[string]int{"reef": 0, "deep": 0, "apex": 5}, all[1].Achievements)
	assert.Equal(t, map[string]int{"reef": 0, "deep": 0, "apex": 0}, all[2].Achievements)
	assert.Equal(t, 11, all[0].Total)
	assert.Equal(t, []int{0}, Leaders(gs))
}

func TestLeadersTie(t *testing.T) {
	gs := game(
		[]state.PlacedFish{fish("a", 3, catalog.ZoneSunlight)},
		[]state.PlacedFish{fish("b", 3, catalog.ZoneSunlight)},
	)
	assert.Equal(t, []int{0, 1}, Leaders(gs))
}
