package cost

import (
	"fmt"

	"github.com/finspan/finspan-server-go/internal/game/counters"
	"github.com/finspan/finspan-server-go/internal/game/rules"
	"github.com/finspan/finspan-server-go/internal/game/state"
)

// Ledger executes payment plans and reports every movement on the event bus.
type Ledger struct {
	bus *rules.EventBus
	ops *counters.CounterOperations
}

// NewLedger creates a ledger. bus may be nil.
func NewLedger(bus *rules.EventBus) *Ledger {
	return &Ledger{
		bus: bus,
		ops: counters.NewCounterOperations(bus),
	}
}

// ExecutePayment applies plan to p. Discarded cards move to p's discard
// pile, counters are spent, and each consumed fish is marked as absorbed by
// predator, which has not been placed yet.
// The plan must come from CalculatePayment against the same state.
func (l *Ledger) ExecutePayment(plan *PaymentPlan, p *state.PlayerMat, predator *state.PlacedFish) error {
	if plan == nil {
		return nil
	}

	for _, id := range plan.Discard {
		card, ok := p.RemoveFromHand(id)
		if !ok {
			return fmt.Errorf("discard %s: not in hand", id)
		}
		p.Discard = append(p.Discard, card)
		l.publish(rules.NewEvent(rules.EventCardDiscarded, id, plan.CardID, p.ID),
			fmt.Sprintf("%s discarded %s", p.ID, card.Name))
	}

	if plan.Eggs > 0 && l.ops.Pay(p.Resources, counters.CounterTypeEgg, plan.Eggs, p.ID, plan.CardID) != plan.Eggs {
		return fmt.Errorf("pay %d eggs: short", plan.Eggs)
	}
	if plan.Young > 0 && l.ops.Pay(p.Resources, counters.CounterTypeYoung, plan.Young, p.ID, plan.CardID) != plan.Young {
		return fmt.Errorf("pay %d young: short", plan.Young)
	}

	for _, id := range plan.Consume {
		if err := l.Consume(p, predator, id, plan.CardID); err != nil {
			return err
		}
	}
	return nil
}

// Consume marks preyID as absorbed by predator.
func (l *Ledger) Consume(p *state.PlayerMat, predator *state.PlacedFish, preyID, sourceID string) error {
	prey := p.Fish(preyID)
	if prey == nil {
		return fmt.Errorf("consume %s: no such fish", preyID)
	}
	if prey.Consumed() {
		return fmt.Errorf("consume %s: already consumed by %s", preyID, prey.ConsumedBy)
	}
	prey.ConsumedBy = predator.InstanceID
	predator.ConsumedFish = append(predator.ConsumedFish, preyID)
	evt := rules.NewEvent(rules.EventFishConsumed, preyID, predator.InstanceID, p.ID)
	evt.Data = sourceID
	l.publish(evt, fmt.Sprintf("%s consumed %s", predator.Card.Name, prey.Card.Name))
	return nil
}

func (l *Ledger) publish(evt rules.Event, description string) {
	if l.bus == nil {
		return
	}
	evt.Description = description
	l.bus.Publish(evt)
}
