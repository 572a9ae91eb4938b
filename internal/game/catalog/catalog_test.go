package catalog

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)
	require.Equal(t, 24, cat.Len())

	squid, ok := cat.Lookup("giant_squid")
	require.True(t, ok)
	assert.Equal(t, 6, squid.Points)
	assert.Equal(t, 45, squid.Length)
	assert.Equal(t, Cost{{Kind: ResourceCard, Amount: 4}, {Kind: ResourceConsume, Amount: 2}}, squid.Cost)
	assert.True(t, squid.AllowsZone(ZoneMidnight))
	assert.False(t, squid.AllowsZone(ZoneSunlight))

	whale, ok := cat.Lookup("whale_shark")
	require.True(t, ok)
	assert.True(t, whale.AllowsDiveSite(DiveSiteRed))
	assert.False(t, whale.AllowsDiveSite(DiveSiteGreen))
	require.Len(t, whale.Abilities, 1)
	assert.True(t, whale.Abilities[0].AllPlayers)

	eel, ok := cat.Lookup("moray_eel")
	require.True(t, ok)
	require.NotNil(t, eel.Consume)
	assert.Equal(t, []string{"reef", "forage"}, eel.Consume.Tags)

	_, ok = cat.Lookup("kraken")
	assert.False(t, ok)

	assert.Len(t, cat.Achievements(), 3)
}

func TestParseCost(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Cost
		wantErr bool
	}{
		{name: "empty", input: "", want: Cost{}},
		{name: "single card", input: "{C}", want: Cost{{Kind: ResourceCard, Amount: 1}}},
		{name: "repeated symbols merge", input: "{C}{C}{E}", want: Cost{{Kind: ResourceCard, Amount: 2}, {Kind: ResourceEgg, Amount: 1}}},
		{name: "multiplier", input: "{3C}{2X}", want: Cost{{Kind: ResourceCard, Amount: 3}, {Kind: ResourceConsume, Amount: 2}}},
		{name: "lowercase", input: "{y}", want: Cost{{Kind: ResourceYoung, Amount: 1}}},
		{name: "unknown symbol", input: "{G}", wantErr: true},
		{name: "no symbols", input: "two cards", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCost(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCostStringParsesBack(t *testing.T) {
	cost := Cost{{Kind: ResourceCard, Amount: 2}, {Kind: ResourceYoung, Amount: 1}}
	parsed, err := ParseCost(cost.String())
	require.NoError(t, err)
	assert.Equal(t, cost, parsed)
}

func TestLoadAcceptsCostList(t *testing.T) {
	doc := `
cards:
  - id: krill
    name: Krill
    points: 0
    length: 1
    zones: [sunlight]
    cost:
      - {kind: egg, amount: 2}
`
	cat, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	krill := cat.MustLookup("krill")
	assert.Equal(t, 2, krill.Cost.Amount(ResourceEgg))
	assert.Equal(t, 0, krill.Cost.Amount(ResourceCard))
}

func TestNewRejectsInvalidCards(t *testing.T) {
	base := Card{ID: "a", Name: "A", Zones: []Zone{ZoneSunlight}}

	tests := []struct {
		name  string
		cards []Card
	}{
		{name: "duplicate id", cards: []Card{base, base}},
		{name: "no zones", cards: []Card{{ID: "b"}}},
		{name: "bad zone", cards: []Card{{ID: "b", Zones: []Zone{"abyss"}}}},
		{name: "bad site", cards: []Card{{ID: "b", Zones: []Zone{ZoneSunlight}, DiveSites: []DiveSite{"purple"}}}},
		{name: "school cost", cards: []Card{{ID: "b", Zones: []Zone{ZoneSunlight}, Cost: Cost{{Kind: ResourceSchool, Amount: 1}}}}},
		{name: "unknown effect", cards: []Card{{ID: "b", Zones: []Zone{ZoneSunlight}, Abilities: []Ability{{
			Trigger: TriggerOnPlay,
			Effects: []Effect{{Kind: "teleport"}},
		}}}}},
		{name: "grant card", cards: []Card{{ID: "b", Zones: []Zone{ZoneSunlight}, Abilities: []Ability{{
			Trigger: TriggerOnPlay,
			Effects: []Effect{{Kind: EffectGrantResource, Resource: ResourceCard, Amount: 1}},
		}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cards, nil)
			assert.Error(t, err)
		})
	}
}

func TestSample(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(7, 11))
	cards, err := cat.Sample(5, rng)
	require.NoError(t, err)
	require.Len(t, cards, 5)

	seen := make(map[string]bool)
	for _, c := range cards {
		assert.False(t, seen[c.ID], "duplicate card %s", c.ID)
		seen[c.ID] = true
	}

	again, err := cat.Sample(5, rand.New(rand.NewPCG(7, 11)))
	require.NoError(t, err)
	assert.Equal(t, cards, again, "same seed should sample the same cards")

	_, err = cat.Sample(cat.Len()+1, rng)
	assert.Error(t, err)
}

func TestShuffledIsPermutation(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	shuffled := cat.Shuffled(rand.New(rand.NewPCG(1, 2)))
	require.Len(t, shuffled, cat.Len())

	ids := make(map[string]int)
	for _, c := range shuffled {
		ids[c.ID]++
	}
	for _, c := range cat.All() {
		assert.Equal(t, 1, ids[c.ID], c.ID)
	}
}
