package cost

import (
	"testing"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/counters"
	"github.com/finspan/finspan-server-go/internal/game/rules"
	"github.com/finspan/finspan-server-go/internal/game/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(id string, length int, cost catalog.Cost, tags ...string) catalog.Card {
	return catalog.Card{
		ID:     id,
		Name:   id,
		Length: length,
		Zones:  []catalog.Zone{catalog.ZoneSunlight},
		Cost:   cost,
		Tags:   tags,
	}
}

func fish(id string, c catalog.Card) state.PlacedFish {
	return state.PlacedFish{
		InstanceID: id,
		Card:       c,
		Zone:       catalog.ZoneSunlight,
		DiveSite:   catalog.DiveSiteRed,
		Counters:   counters.Counters{},
	}
}

func newPlayer(hand ...catalog.Card) *state.PlayerMat {
	return &state.PlayerMat{
		ID:        "player_0",
		Hand:      hand,
		Resources: counters.NewCounters(2, 1, 0),
	}
}

func TestDiscardCountIncludesPlayedCard(t *testing.T) {
	assert.Equal(t, 0, DiscardCount(card("a", 1, nil)))
	assert.Equal(t, 0, DiscardCount(card("a", 1, catalog.Cost{{Kind: catalog.ResourceCard, Amount: 1}})))
	assert.Equal(t, 2, DiscardCount(card("a", 1, catalog.Cost{{Kind: catalog.ResourceCard, Amount: 3}})))
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		cost catalog.Cost
		ok   bool
	}{
		{name: "free", cost: nil, ok: true},
		{name: "two eggs", cost: catalog.Cost{{Kind: catalog.ResourceEgg, Amount: 2}}, ok: true},
		{name: "three eggs", cost: catalog.Cost{{Kind: catalog.ResourceEgg, Amount: 3}}, ok: false},
		{name: "two young", cost: catalog.Cost{{Kind: catalog.ResourceYoung, Amount: 2}}, ok: false},
		{name: "three cards", cost: catalog.Cost{{Kind: catalog.ResourceCard, Amount: 3}}, ok: true},
		{name: "four cards", cost: catalog.Cost{{Kind: catalog.ResourceCard, Amount: 4}}, ok: false},
		{name: "one consume", cost: catalog.Cost{{Kind: catalog.ResourceConsume, Amount: 1}}, ok: true},
		{name: "two consume", cost: catalog.Cost{{Kind: catalog.ResourceConsume, Amount: 2}}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			played := card("played", 10, tt.cost)
			p := newPlayer(played, card("x", 1, nil), card("y", 1, nil))
			p.Tableau = []state.PlacedFish{fish("f1", card("small", 2, nil))}

			res := Check(played, p)
			assert.Equal(t, tt.ok, res.Success, res.Reason)
			assert.Equal(t, tt.ok, CanAfford(played, p))
			if !tt.ok {
				assert.Equal(t, FailureInsufficient, res.Failure)
			}
		})
	}
}

func TestEdible(t *testing.T) {
	predator := card("eel", 10, nil)
	picky := predator
	picky.Consume = &catalog.ConsumeRule{MaxLength: 4, Tags: []string{"reef"}}

	small := fish("s", card("small", 3, nil, "reef"))
	equal := fish("e", card("equal", 10, nil, "reef"))
	mid := fish("m", card("mid", 6, nil, "reef"))
	pelagic := fish("p", card("pelagic", 2, nil, "open"))
	gone := fish("g", card("gone", 1, nil, "reef"))
	gone.ConsumedBy = "other"

	assert.True(t, Edible(predator, &small))
	assert.False(t, Edible(predator, &equal))
	assert.False(t, Edible(predator, &gone))
	assert.False(t, Edible(predator, nil))

	assert.True(t, Edible(picky, &small))
	assert.False(t, Edible(picky, &mid))
	assert.False(t, Edible(picky, &pelagic))

	// A rule may admit prey longer than the predator.
	glutton := card("moray", 30, nil)
	glutton.Consume = &catalog.ConsumeRule{MaxLength: 40, Tags: []string{"reef"}}
	grouper := fish("gr", card("grouper", 35, nil, "reef"))
	whale := fish("wh", card("whale", 45, nil, "reef"))
	tuna := fish("tu", card("tuna", 35, nil, "open"))
	assert.True(t, Edible(glutton, &grouper))
	assert.False(t, Edible(glutton, &whale))
	assert.False(t, Edible(glutton, &tuna))

	// Without MaxLength the rule keeps the length test and adds the tag filter.
	tagged := card("eel", 10, nil)
	tagged.Consume = &catalog.ConsumeRule{Tags: []string{"reef"}}
	assert.True(t, Edible(tagged, &small))
	assert.False(t, Edible(tagged, &equal))
	assert.False(t, Edible(tagged, &pelagic))
}

func TestConsumeRuleWidensAffordability(t *testing.T) {
	moray := card("moray", 30, catalog.Cost{{Kind: catalog.ResourceConsume, Amount: 1}})
	moray.Consume = &catalog.ConsumeRule{MaxLength: 40, Tags: []string{"reef"}}
	p := newPlayer(moray)
	p.Tableau = []state.PlacedFish{fish("gr", card("grouper", 35, nil, "reef"))}

	assert.True(t, CanAfford(moray, p))
	res := CalculatePayment(moray, p, Selection{Consume: []string{"gr"}})
	require.True(t, res.Success, res.Reason)
	assert.Equal(t, []string{"gr"}, res.Plan.Consume)
}

func TestCalculatePaymentSelection(t *testing.T) {
	played := card("shark", 10, catalog.Cost{
		{Kind: catalog.ResourceCard, Amount: 2},
		{Kind: catalog.ResourceEgg, Amount: 1},
		{Kind: catalog.ResourceConsume, Amount: 1},
	})
	p := newPlayer(played, card("x", 1, nil), card("y", 1, nil))
	p.Tableau = []state.PlacedFish{
		fish("f1", card("small", 2, nil)),
		fish("f2", card("big", 12, nil)),
	}

	tests := []struct {
		name string
		sel  Selection
		ok   bool
	}{
		{name: "valid", sel: Selection{Discard: []string{"x"}, Consume: []string{"f1"}}, ok: true},
		{name: "missing discard", sel: Selection{Consume: []string{"f1"}}},
		{name: "too many discards", sel: Selection{Discard: []string{"x", "y"}, Consume: []string{"f1"}}},
		{name: "discard played card", sel: Selection{Discard: []string{"shark"}, Consume: []string{"f1"}}},
		{name: "discard not in hand", sel: Selection{Discard: []string{"z"}, Consume: []string{"f1"}}},
		{name: "missing consume", sel: Selection{Discard: []string{"x"}}},
		{name: "prey too long", sel: Selection{Discard: []string{"x"}, Consume: []string{"f2"}}},
		{name: "unknown prey", sel: Selection{Discard: []string{"x"}, Consume: []string{"nope"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CalculatePayment(played, p, tt.sel)
			assert.Equal(t, tt.ok, res.Success, res.Reason)
			if tt.ok {
				require.NotNil(t, res.Plan)
				assert.Equal(t, 1, res.Plan.Eggs)
				assert.NoError(t, ValidateSelection(played, p, tt.sel))
			} else {
				assert.Equal(t, FailureSelection, res.Failure)
				assert.Error(t, ValidateSelection(played, p, tt.sel))
			}
		})
	}
}

func TestExecutePayment(t *testing.T) {
	bus := rules.NewEventBus()
	var seen []rules.EventType
	bus.Subscribe(func(e rules.Event) { seen = append(seen, e.Type) })

	played := card("shark", 10, catalog.Cost{
		{Kind: catalog.ResourceCard, Amount: 2},
		{Kind: catalog.ResourceEgg, Amount: 2},
		{Kind: catalog.ResourceYoung, Amount: 1},
		{Kind: catalog.ResourceConsume, Amount: 1},
	})
	p := newPlayer(played, card("x", 1, nil), card("y", 1, nil))
	p.Tableau = []state.PlacedFish{fish("f1", card("small", 2, nil))}

	res := CalculatePayment(played, p, Selection{Discard: []string{"y"}, Consume: []string{"f1"}})
	require.True(t, res.Success, res.Reason)

	predator := fish("f2", played)
	require.NoError(t, NewLedger(bus).ExecutePayment(res.Plan, p, &predator))

	assert.Len(t, p.Hand, 2)
	require.Len(t, p.Discard, 1)
	assert.Equal(t, "y", p.Discard[0].ID)
	assert.Equal(t, 0, p.Resources.Get(counters.CounterTypeEgg))
	assert.Equal(t, 0, p.Resources.Get(counters.CounterTypeYoung))
	assert.Equal(t, "f2", p.Fish("f1").ConsumedBy)
	assert.Equal(t, []string{"f1"}, predator.ConsumedFish)
	assert.Equal(t, []rules.EventType{
		rules.EventCardDiscarded,
		rules.EventResourcePaid,
		rules.EventResourcePaid,
		rules.EventFishConsumed,
	}, seen)
}

func TestConsumeTwiceFails(t *testing.T) {
	p := newPlayer()
	p.Tableau = []state.PlacedFish{fish("f1", card("small", 2, nil))}
	a := fish("a", card("a", 10, nil))
	b := fish("b", card("b", 10, nil))

	l := NewLedger(nil)
	require.NoError(t, l.Consume(p, &a, "f1", "a"))
	assert.Error(t, l.Consume(p, &b, "f1", "b"))
	assert.Error(t, l.Consume(p, &b, "missing", "b"))
}
