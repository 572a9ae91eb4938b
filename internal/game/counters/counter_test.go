package counters

import (
	"testing"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersRemoveFloorsAtZero(t *testing.T) {
	cs := NewCounters(2, 1, 0)

	assert.Equal(t, 1, cs.Remove(CounterTypeEgg, 1))
	assert.Equal(t, 1, cs.Get(CounterTypeEgg))

	assert.Equal(t, 1, cs.Remove(CounterTypeEgg, 5))
	assert.Equal(t, 0, cs.Get(CounterTypeEgg))

	assert.Equal(t, 0, cs.Remove(CounterTypeYoung, -3))
	assert.Equal(t, 1, cs.Get(CounterTypeYoung))
	require.NoError(t, cs.Validate())
}

func TestCountersCopyIsIndependent(t *testing.T) {
	cs := NewCounters(2, 1, 0)
	cp := cs.Copy()
	cp.Add(CounterTypeSchool, 3)

	assert.Equal(t, 0, cs.Get(CounterTypeSchool))
	assert.Equal(t, 3, cp.Get(CounterTypeSchool))
	assert.Equal(t, 6, cp.Total())
	assert.True(t, cp.Has(CounterTypeSchool, 3))
	assert.False(t, cp.Has(CounterTypeSchool, 4))
}

func TestCountersValidate(t *testing.T) {
	assert.Error(t, Counters{CounterTypeEgg: -1}.Validate())
	assert.Error(t, Counters{"pearl": 1}.Validate())
	assert.NoError(t, Counters{}.Validate())
}

func TestFromResource(t *testing.T) {
	ct, ok := FromResource(catalog.ResourceYoung)
	require.True(t, ok)
	assert.Equal(t, CounterTypeYoung, ct)

	_, ok = FromResource(catalog.ResourceCard)
	assert.False(t, ok)
}

func TestCounterOperationsPublishEvents(t *testing.T) {
	bus := rules.NewEventBus()
	var events []rules.Event
	bus.Subscribe(func(e rules.Event) { events = append(events, e) })

	ops := NewCounterOperations(bus)
	mat := NewCounters(1, 0, 0)

	ops.Gain(mat, CounterTypeYoung, 2, "player_0", "fish-1")
	ops.Pay(mat, CounterTypeEgg, 3, "player_0", "")
	ops.Pay(mat, CounterTypeEgg, 1, "player_0", "") // nothing left, no event

	fish := Counters{}
	ops.LayEggs(fish, 2, "player_0", "fish-1")

	require.Len(t, events, 3)
	assert.Equal(t, rules.EventResourceGained, events[0].Type)
	assert.Equal(t, 2, events[0].Amount)
	assert.Equal(t, "young", events[0].Data)
	assert.Equal(t, rules.EventResourcePaid, events[1].Type)
	assert.Equal(t, 1, events[1].Amount, "payment reports the floored amount")
	assert.Equal(t, rules.EventEggsLaid, events[2].Type)
	assert.Equal(t, 2, fish.Get(CounterTypeEgg))
}

func TestCounterOperationsWithoutBus(t *testing.T) {
	ops := NewCounterOperations(nil)
	mat := NewCounters(0, 0, 0)
	assert.Equal(t, 4, ops.Gain(mat, CounterTypeEgg, 4, "player_0", ""))
	assert.Equal(t, 4, mat.Get(CounterTypeEgg))
}
