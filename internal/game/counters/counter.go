package counters

import (
	"fmt"
	"strings"
)

// Counters is a collection of non-negative counts keyed by counter type.
// Used for a player's fungible resources and for the counters sitting on a
// placed fish.
type Counters map[CounterType]int

// NewCounters creates a collection with the given starting counts.
func NewCounters(eggs, young, schools int) Counters {
	cs := make(Counters, len(AllCounterTypes))
	for _, ct := range AllCounterTypes {
		cs[ct] = 0
	}
	cs.Add(CounterTypeEgg, eggs)
	cs.Add(CounterTypeYoung, young)
	cs.Add(CounterTypeSchool, schools)
	return cs
}

// Add adds the specified amount. Non-positive amounts are ignored.
func (cs Counters) Add(ct CounterType, amount int) {
	if amount > 0 {
		cs[ct] += amount
	}
}

// Remove removes the specified amount.
// Will not allow the count to go below 0. Returns the amount actually removed.
func (cs Counters) Remove(ct CounterType, amount int) int {
	if amount <= 0 {
		return 0
	}
	current := cs[ct]
	if current >= amount {
		cs[ct] = current - amount
		return amount
	}
	cs[ct] = 0
	return current
}

// Get returns the count for ct (zero when absent).
func (cs Counters) Get(ct CounterType) int {
	return cs[ct]
}

// Has reports whether there is at least amount of ct.
func (cs Counters) Has(ct CounterType, amount int) bool {
	return cs[ct] >= amount
}

// Total returns the sum of all counts.
func (cs Counters) Total() int {
	total := 0
	for _, n := range cs {
		total += n
	}
	return total
}

// Copy creates a deep copy of the collection.
func (cs Counters) Copy() Counters {
	if cs == nil {
		return nil
	}
	out := make(Counters, len(cs))
	for k, v := range cs {
		out[k] = v
	}
	return out
}

// Validate reports any negative or unknown counter.
func (cs Counters) Validate() error {
	for ct, n := range cs {
		if !ct.Valid() {
			return fmt.Errorf("unknown counter type %q", ct)
		}
		if n < 0 {
			return fmt.Errorf("%s counter is negative (%d)", ct, n)
		}
	}
	return nil
}

func (cs Counters) String() string {
	parts := make([]string, 0, len(AllCounterTypes))
	for _, ct := range AllCounterTypes {
		parts = append(parts, fmt.Sprintf("%s=%d", ct, cs[ct]))
	}
	return strings.Join(parts, " ")
}
