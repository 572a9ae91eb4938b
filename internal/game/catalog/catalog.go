// Package catalog holds the static card registry: definitions, lookup and
// seeded sampling.
package catalog

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrUnknownCard is returned when a card id is not in the catalog.
var ErrUnknownCard = errors.New("unknown card")

// Catalog is an immutable registry of card definitions.
// All methods are safe for concurrent use.
type Catalog struct {
	cards        []Card
	byID         map[string]int
	achievements []Achievement
}

// New validates the definitions and builds a catalog.
func New(cards []Card, achievements []Achievement) (*Catalog, error) {
	c := &Catalog{
		cards:        make([]Card, 0, len(cards)),
		byID:         make(map[string]int, len(cards)),
		achievements: make([]Achievement, 0, len(achievements)),
	}

	for i, card := range cards {
		if err := validateCard(card); err != nil {
			return nil, fmt.Errorf("card %d (%s): %w", i, card.ID, err)
		}
		if _, dup := c.byID[card.ID]; dup {
			return nil, fmt.Errorf("duplicate card id %q", card.ID)
		}
		c.byID[card.ID] = len(c.cards)
		c.cards = append(c.cards, card)
	}

	seen := make(map[string]bool, len(achievements))
	for _, a := range achievements {
		if err := validateAchievement(a); err != nil {
			return nil, fmt.Errorf("achievement %s: %w", a.ID, err)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("duplicate achievement id %q", a.ID)
		}
		seen[a.ID] = true
		c.achievements = append(c.achievements, a)
	}

	return c, nil
}

// Lookup returns the definition for id.
func (c *Catalog) Lookup(id string) (Card, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Card{}, false
	}
	return c.cards[i], true
}

// MustLookup is Lookup for callers holding ids that came from this catalog.
func (c *Catalog) MustLookup(id string) Card {
	card, ok := c.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("catalog: %v: %s", ErrUnknownCard, id))
	}
	return card
}

// Len returns the number of cards.
func (c *Catalog) Len() int {
	return len(c.cards)
}

// All returns every card in catalog order.
func (c *Catalog) All() []Card {
	out := make([]Card, len(c.cards))
	copy(out, c.cards)
	return out
}

// Achievements returns the achievement definitions bundled with the catalog.
func (c *Catalog) Achievements() []Achievement {
	out := make([]Achievement, len(c.achievements))
	copy(out, c.achievements)
	return out
}

// Sample draws n distinct cards without replacement.
func (c *Catalog) Sample(n int, rng *rand.Rand) ([]Card, error) {
	if n < 0 || n > len(c.cards) {
		return nil, fmt.Errorf("cannot sample %d cards from a catalog of %d", n, len(c.cards))
	}
	if rng == nil {
		return nil, errors.New("sample requires a random source")
	}
	perm := rng.Perm(len(c.cards))
	out := make([]Card, n)
	for i := 0; i < n; i++ {
		out[i] = c.cards[perm[i]]
	}
	return out, nil
}

// Shuffled returns the whole catalog in a random order.
func (c *Catalog) Shuffled(rng *rand.Rand) []Card {
	out := c.All()
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func validateCard(card Card) error {
	if card.ID == "" {
		return errors.New("missing id")
	}
	if card.Points < 0 || card.Length < 0 {
		return errors.New("points and length must be non-negative")
	}
	if len(card.Zones) == 0 {
		return errors.New("at least one zone is required")
	}
	for _, z := range card.Zones {
		if !z.Valid() {
			return fmt.Errorf("unknown zone %q", z)
		}
	}
	for _, s := range card.DiveSites {
		if !s.Valid() {
			return fmt.Errorf("unknown dive site %q", s)
		}
	}
	for _, entry := range card.Cost {
		if !entry.Kind.IsCostKind() {
			return fmt.Errorf("%q is not a cost kind", entry.Kind)
		}
		if entry.Amount < 0 {
			return fmt.Errorf("negative %s cost", entry.Kind)
		}
	}
	for _, ability := range card.Abilities {
		if !ability.Trigger.Valid() {
			return fmt.Errorf("unknown trigger %q", ability.Trigger)
		}
		for _, effect := range ability.Effects {
			if err := validateEffect(effect); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateEffect(effect Effect) error {
	if effect.Amount < 0 {
		return fmt.Errorf("%s: negative amount", effect.Kind)
	}
	switch effect.Kind {
	case EffectGrantResource, EffectGainPerFishAtSite:
		if !effect.Resource.IsCounter() {
			return fmt.Errorf("%s: %q is not a grantable resource", effect.Kind, effect.Resource)
		}
	case EffectDrawCards, EffectConsumeFish, EffectPlayFromDiscard,
		EffectLayEggs, EffectFormSchool, EffectBonusPerEgg:
	default:
		return fmt.Errorf("unknown effect kind %q", effect.Kind)
	}
	return nil
}

func validateAchievement(a Achievement) error {
	if a.ID == "" {
		return errors.New("missing id")
	}
	switch a.ScoringType {
	case ScoringPointsPerTag:
		if a.Filter.Tag == "" {
			return errors.New("points_per_tag needs a tag")
		}
	case ScoringBonusCondition, ScoringComparison:
	default:
		return fmt.Errorf("unknown scoring type %q", a.ScoringType)
	}
	if a.Filter.Zone != "" && !a.Filter.Zone.Valid() {
		return fmt.Errorf("unknown zone %q", a.Filter.Zone)
	}
	if a.Filter.DiveSite != "" && !a.Filter.DiveSite.Valid() {
		return fmt.Errorf("unknown dive site %q", a.Filter.DiveSite)
	}
	return nil
}
