// Package cost checks and pays card costs: discards from hand, egg and young
// counters, and consumed fish.
package cost

import (
	"fmt"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/counters"
	"github.com/finspan/finspan-server-go/internal/game/state"
)

// Selection is the player's choice of what to give up for a card.
type Selection struct {
	// Discard lists hand cards other than the one being played.
	Discard []string `json:"discard"`
	// Consume lists fish instance ids from the player's own tableau.
	Consume []string `json:"consume"`
}

// FailureKind classifies a failed payment.
type FailureKind int

const (
	// FailureNone means the payment succeeded.
	FailureNone FailureKind = iota
	// FailureInsufficient means the player cannot cover the cost at all.
	FailureInsufficient
	// FailureSelection means the cost is coverable but the selection is wrong.
	FailureSelection
)

// PaymentPlan is a validated payment ready to execute.
type PaymentPlan struct {
	CardID  string
	Discard []string
	Eggs    int
	Young   int
	Consume []string
}

// PaymentResult represents the result of a payment attempt.
type PaymentResult struct {
	Success bool
	Plan    *PaymentPlan
	Failure FailureKind
	Reason  string
}

func insufficient(format string, args ...any) *PaymentResult {
	return &PaymentResult{Failure: FailureInsufficient, Reason: fmt.Sprintf(format, args...)}
}

func badSelection(format string, args ...any) *PaymentResult {
	return &PaymentResult{Failure: FailureSelection, Reason: fmt.Sprintf(format, args...)}
}

// DiscardCount returns how many other hand cards must be discarded to play
// card. A card cost of N counts the played card itself.
func DiscardCount(card catalog.Card) int {
	n := card.Cost.Amount(catalog.ResourceCard)
	if n <= 1 {
		return 0
	}
	return n - 1
}

// Edible reports whether predator may consume prey from the same tableau.
// Without a ConsumeRule prey must be strictly shorter than predator. A rule
// replaces that test: prey up to MaxLength (or shorter than predator when
// MaxLength is zero) that shares one of the rule's tags, if any are listed.
func Edible(predator catalog.Card, prey *state.PlacedFish) bool {
	if prey == nil || prey.Consumed() {
		return false
	}
	rule := predator.Consume
	if rule == nil {
		return prey.Card.Length < predator.Length
	}
	if rule.MaxLength > 0 {
		if prey.Card.Length > rule.MaxLength {
			return false
		}
	} else if prey.Card.Length >= predator.Length {
		return false
	}
	if len(rule.Tags) == 0 {
		return true
	}
	for _, tag := range rule.Tags {
		if prey.Card.HasTag(tag) {
			return true
		}
	}
	return false
}

// EligiblePrey returns the fish in p's tableau that predator may consume.
func EligiblePrey(predator catalog.Card, p *state.PlayerMat) []*state.PlacedFish {
	var out []*state.PlacedFish
	for i := range p.Tableau {
		if Edible(predator, &p.Tableau[i]) {
			out = append(out, &p.Tableau[i])
		}
	}
	return out
}

// CanAfford reports whether p holds enough of every cost kind to play card,
// ignoring which specific cards or fish would be chosen. card must still be
// in p's hand.
func CanAfford(card catalog.Card, p *state.PlayerMat) bool {
	return check(card, p).Success
}

// Check is CanAfford with a reason on failure.
func Check(card catalog.Card, p *state.PlayerMat) *PaymentResult {
	return check(card, p)
}

func check(card catalog.Card, p *state.PlayerMat) *PaymentResult {
	if p == nil {
		return insufficient("no player")
	}
	if need := card.Cost.Amount(catalog.ResourceCard); need > 0 && len(p.Hand) < need {
		return insufficient("insufficient cards (need %d, have %d)", need, len(p.Hand))
	}
	if need := card.Cost.Amount(catalog.ResourceEgg); !p.Resources.Has(counters.CounterTypeEgg, need) {
		return insufficient("insufficient eggs (need %d, have %d)", need, p.Resources.Get(counters.CounterTypeEgg))
	}
	if need := card.Cost.Amount(catalog.ResourceYoung); !p.Resources.Has(counters.CounterTypeYoung, need) {
		return insufficient("insufficient young (need %d, have %d)", need, p.Resources.Get(counters.CounterTypeYoung))
	}
	if need := card.Cost.Amount(catalog.ResourceConsume); need > 0 {
		if have := len(EligiblePrey(card, p)); have < need {
			return insufficient("insufficient prey (need %d, have %d)", need, have)
		}
	}
	return &PaymentResult{Success: true}
}

// CalculatePayment checks affordability and then validates sel against
// the cost. Nothing is mutated.
func CalculatePayment(card catalog.Card, p *state.PlayerMat, sel Selection) *PaymentResult {
	if res := check(card, p); !res.Success {
		return res
	}
	if res := validateSelection(card, p, sel); res != nil {
		return res
	}
	return &PaymentResult{
		Success: true,
		Plan: &PaymentPlan{
			CardID:  card.ID,
			Discard: append([]string(nil), sel.Discard...),
			Eggs:    card.Cost.Amount(catalog.ResourceEgg),
			Young:   card.Cost.Amount(catalog.ResourceYoung),
			Consume: append([]string(nil), sel.Consume...),
		},
	}
}

// ValidateSelection reports a selection that does not match card's cost,
// or nil when it does.
func ValidateSelection(card catalog.Card, p *state.PlayerMat, sel Selection) error {
	if res := validateSelection(card, p, sel); res != nil {
		return fmt.Errorf("%s", res.Reason)
	}
	return nil
}

func validateSelection(card catalog.Card, p *state.PlayerMat, sel Selection) *PaymentResult {
	if want := DiscardCount(card); len(sel.Discard) != want {
		return badSelection("%s needs %d discard(s), got %d", card.ID, want, len(sel.Discard))
	}
	seen := make(map[string]bool, len(sel.Discard))
	for _, id := range sel.Discard {
		if id == card.ID {
			return badSelection("cannot discard the card being played")
		}
		if seen[id] {
			return badSelection("card %s selected twice", id)
		}
		seen[id] = true
		if p.HandIndex(id) < 0 {
			return badSelection("card %s is not in hand", id)
		}
	}

	if want := card.Cost.Amount(catalog.ResourceConsume); len(sel.Consume) != want {
		return badSelection("%s needs %d fish to consume, got %d", card.ID, want, len(sel.Consume))
	}
	eaten := make(map[string]bool, len(sel.Consume))
	for _, id := range sel.Consume {
		if eaten[id] {
			return badSelection("fish %s selected twice", id)
		}
		eaten[id] = true
		prey := p.Fish(id)
		if prey == nil {
			return badSelection("fish %s is not in %s's tableau", id, p.ID)
		}
		if !Edible(card, prey) {
			return badSelection("%s cannot consume %s", card.ID, id)
		}
	}
	return nil
}
