package counters

import (
	"fmt"

	"github.com/finspan/finspan-server-go/internal/game/rules"
)

// CounterOperations applies counter changes and emits the matching events.
// A nil event bus is allowed; changes are then applied silently.
type CounterOperations struct {
	eventBus *rules.EventBus
}

// NewCounterOperations creates a new CounterOperations instance.
func NewCounterOperations(eventBus *rules.EventBus) *CounterOperations {
	return &CounterOperations{
		eventBus: eventBus,
	}
}

// Gain adds amount of ct to target on behalf of playerID.
func (co *CounterOperations) Gain(target Counters, ct CounterType, amount int, playerID, sourceID string) int {
	if amount <= 0 {
		return 0
	}
	target.Add(ct, amount)
	co.publish(rules.EventResourceGained, playerID, sourceID, ct, amount,
		fmt.Sprintf("%s gained %d %s", playerID, amount, ct))
	return amount
}

// Pay removes up to amount of ct from target, flooring at zero.
func (co *CounterOperations) Pay(target Counters, ct CounterType, amount int, playerID, sourceID string) int {
	removed := target.Remove(ct, amount)
	if removed > 0 {
		co.publish(rules.EventResourcePaid, playerID, sourceID, ct, removed,
			fmt.Sprintf("%s paid %d %s", playerID, removed, ct))
	}
	return removed
}

// LayEggs puts egg counters on a placed fish.
func (co *CounterOperations) LayEggs(fish Counters, amount int, playerID, fishID string) int {
	if amount <= 0 {
		return 0
	}
	fish.Add(CounterTypeEgg, amount)
	co.publish(rules.EventEggsLaid, playerID, fishID, CounterTypeEgg, amount,
		fmt.Sprintf("Laid %d egg(s) on %s", amount, fishID))
	return amount
}

func (co *CounterOperations) publish(eventType rules.EventType, playerID, sourceID string, ct CounterType, amount int, description string) {
	if co == nil || co.eventBus == nil {
		return
	}
	evt := rules.NewEventWithAmount(eventType, playerID, sourceID, playerID, amount)
	evt.Data = string(ct)
	evt.Metadata["counter_name"] = string(ct)
	evt.Metadata["counter_count"] = fmt.Sprintf("%d", amount)
	evt.Description = description
	co.eventBus.Publish(evt)
}
