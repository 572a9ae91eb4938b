package counters

import "github.com/finspan/finspan-server-go/internal/game/catalog"

// CounterType represents a type of counter.
type CounterType string

const (
	CounterTypeEgg    CounterType = "egg"
	CounterTypeYoung  CounterType = "young"
	CounterTypeSchool CounterType = "school"
)

// AllCounterTypes lists the counter types in display order.
var AllCounterTypes = []CounterType{CounterTypeEgg, CounterTypeYoung, CounterTypeSchool}

// Valid reports whether ct is a known counter type.
func (ct CounterType) Valid() bool {
	return ct == CounterTypeEgg || ct == CounterTypeYoung || ct == CounterTypeSchool
}

// FromResource maps a grantable catalog resource to its counter type.
func FromResource(r catalog.Resource) (CounterType, bool) {
	switch r {
	case catalog.ResourceEgg:
		return CounterTypeEgg, true
	case catalog.ResourceYoung:
		return CounterTypeYoung, true
	case catalog.ResourceSchool:
		return CounterTypeSchool, true
	}
	return "", false
}
