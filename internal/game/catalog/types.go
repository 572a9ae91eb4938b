package catalog

import "fmt"

// Zone is one of the three depth bands of a tableau.
type Zone string

const (
	ZoneSunlight Zone = "sunlight"
	ZoneTwilight Zone = "twilight"
	ZoneMidnight Zone = "midnight"
)

// Zones lists every zone in depth order.
var Zones = []Zone{ZoneSunlight, ZoneTwilight, ZoneMidnight}

// Valid reports whether z is a known zone.
func (z Zone) Valid() bool {
	return z == ZoneSunlight || z == ZoneTwilight || z == ZoneMidnight
}

// DiveSite is one of the three columns of a tableau.
type DiveSite string

const (
	DiveSiteRed   DiveSite = "red"
	DiveSiteBlue  DiveSite = "blue"
	DiveSiteGreen DiveSite = "green"
)

// DiveSites lists every dive site in mat order.
var DiveSites = []DiveSite{DiveSiteRed, DiveSiteBlue, DiveSiteGreen}

// Valid reports whether s is a known dive site.
func (s DiveSite) Valid() bool {
	return s == DiveSiteRed || s == DiveSiteBlue || s == DiveSiteGreen
}

// Resource names a cost kind or a grantable counter.
type Resource string

const (
	ResourceCard    Resource = "card"
	ResourceEgg     Resource = "egg"
	ResourceYoung   Resource = "young"
	ResourceConsume Resource = "consume"
	// ResourceSchool can be granted by abilities but never appears in a cost.
	ResourceSchool Resource = "school"
)

// IsCostKind reports whether r may appear in a cost bundle.
func (r Resource) IsCostKind() bool {
	switch r {
	case ResourceCard, ResourceEgg, ResourceYoung, ResourceConsume:
		return true
	}
	return false
}

// IsCounter reports whether r is one of the fungible player counters.
func (r Resource) IsCounter() bool {
	return r == ResourceEgg || r == ResourceYoung || r == ResourceSchool
}

// CostEntry is one (kind, amount) pair of a cost bundle.
type CostEntry struct {
	Kind   Resource `json:"kind" yaml:"kind"`
	Amount int      `json:"amount" yaml:"amount"`
}

// Cost is an ordered cost bundle.
type Cost []CostEntry

// Amount returns the total amount required for kind.
func (c Cost) Amount(kind Resource) int {
	total := 0
	for _, entry := range c {
		if entry.Kind == kind {
			total += entry.Amount
		}
	}
	return total
}

func (c Cost) String() string {
	if len(c) == 0 {
		return "{}"
	}
	out := ""
	for _, entry := range c {
		out += fmt.Sprintf("{%d%s}", entry.Amount, costSymbols[entry.Kind])
	}
	return out
}

// Trigger is when an ability fires.
type Trigger string

const (
	TriggerOnPlay     Trigger = "on_play"
	TriggerOnActivate Trigger = "on_activate"
	TriggerOnGameEnd  Trigger = "on_game_end"
)

// Valid reports whether t is a known trigger kind.
func (t Trigger) Valid() bool {
	return t == TriggerOnPlay || t == TriggerOnActivate || t == TriggerOnGameEnd
}

// EffectKind tags the structured operation an ability performs.
type EffectKind string

const (
	EffectGrantResource     EffectKind = "grant_resource"
	EffectDrawCards         EffectKind = "draw_cards"
	EffectConsumeFish       EffectKind = "consume_fish"
	EffectPlayFromDiscard   EffectKind = "play_from_discard"
	EffectLayEggs           EffectKind = "lay_eggs"
	EffectGainPerFishAtSite EffectKind = "gain_per_fish_at_site"
	EffectFormSchool        EffectKind = "form_school"
	EffectBonusPerEgg       EffectKind = "bonus_per_egg"
)

// Effect is a tagged variant. Only the fields relevant to Kind are read.
type Effect struct {
	Kind     EffectKind `json:"kind" yaml:"kind"`
	Resource Resource   `json:"resource,omitempty" yaml:"resource,omitempty"`
	Amount   int        `json:"amount,omitempty" yaml:"amount,omitempty"`
}

// Ability is a triggered effect list printed on a card.
type Ability struct {
	Trigger     Trigger  `json:"trigger" yaml:"trigger"`
	Description string   `json:"description" yaml:"description"`
	AllPlayers  bool     `json:"allPlayers,omitempty" yaml:"all_players,omitempty"`
	Effects     []Effect `json:"effects" yaml:"effects"`
}

// ConsumeRule replaces the default "strictly shorter than the predator" test
// for consumable fish. MaxLength may exceed the predator's own length; zero
// keeps the default length test. Tags, when set, require one shared tag.
type ConsumeRule struct {
	MaxLength int      `json:"maxLength,omitempty" yaml:"max_length,omitempty"`
	Tags      []string `json:"tags" yaml:"tags,omitempty"`
}

// Card is an immutable card definition.
type Card struct {
	ID        string       `json:"id" yaml:"id"`
	Name      string       `json:"name" yaml:"name"`
	Points    int          `json:"points" yaml:"points"`
	Length    int          `json:"length" yaml:"length"`
	Zones     []Zone       `json:"zones" yaml:"zones"`
	DiveSites []DiveSite   `json:"diveSites" yaml:"dive_sites,omitempty"`
	Abilities []Ability    `json:"abilities" yaml:"abilities,omitempty"`
	Tags      []string     `json:"tags" yaml:"tags,omitempty"`
	Cost      Cost         `json:"cost" yaml:"cost,omitempty"`
	Consume   *ConsumeRule `json:"consume,omitempty" yaml:"consume,omitempty"`
}

// AllowsZone reports whether the card may be placed in z.
func (c Card) AllowsZone(z Zone) bool {
	for _, allowed := range c.Zones {
		if allowed == z {
			return true
		}
	}
	return false
}

// AllowsDiveSite reports whether the card may be placed at s.
// Cards without a site restriction accept every site.
func (c Card) AllowsDiveSite(s DiveSite) bool {
	if len(c.DiveSites) == 0 {
		return true
	}
	for _, allowed := range c.DiveSites {
		if allowed == s {
			return true
		}
	}
	return false
}

// HasTag reports whether the card carries tag.
func (c Card) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AbilitiesFor returns the abilities fired by trigger, in printed order.
func (c Card) AbilitiesFor(trigger Trigger) []Ability {
	var out []Ability
	for _, ability := range c.Abilities {
		if ability.Trigger == trigger {
			out = append(out, ability)
		}
	}
	return out
}

// ScoringType selects how an achievement is evaluated.
type ScoringType string

const (
	ScoringPointsPerTag   ScoringType = "points_per_tag"
	ScoringBonusCondition ScoringType = "bonus_condition"
	ScoringComparison     ScoringType = "comparison"
)

// FishFilter selects tableau fish. Empty fields match everything.
type FishFilter struct {
	Tag      string   `json:"tag,omitempty" yaml:"tag,omitempty"`
	Zone     Zone     `json:"zone,omitempty" yaml:"zone,omitempty"`
	DiveSite DiveSite `json:"diveSite,omitempty" yaml:"dive_site,omitempty"`
	MinCount int      `json:"minCount,omitempty" yaml:"min_count,omitempty"`
}

// Matches reports whether a fish with the given card and slot passes the filter.
func (f FishFilter) Matches(card Card, zone Zone, site DiveSite) bool {
	if f.Tag != "" && !card.HasTag(f.Tag) {
		return false
	}
	if f.Zone != "" && f.Zone != zone {
		return false
	}
	if f.DiveSite != "" && f.DiveSite != site {
		return false
	}
	return true
}

// Achievement is an end-game bonus goal.
type Achievement struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	ScoringType ScoringType `json:"scoringType" yaml:"scoring_type"`
	Points      int         `json:"points" yaml:"points"`
	Filter      FishFilter  `json:"filter" yaml:"filter"`
}
