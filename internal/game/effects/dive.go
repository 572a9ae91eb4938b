package effects

import (
	"fmt"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/state"
)

// DiveRewarder decides what a diver earns at a dive site. It sees the whole
// game state and reports its changes as mutations.
type DiveRewarder interface {
	Reward(gs *state.GameState, playerIdx int, site catalog.DiveSite) ([]Mutation, error)
}

// Dive reward policies selectable by name.
const (
	RewardActivate = "activate"
	RewardNone     = "none"
)

// ActivationRewarder activates every unconsumed fish the diver's owner has at
// the site, shallowest zone first and then by row.
type ActivationRewarder struct {
	resolver *Resolver
}

// NewActivationRewarder creates a rewarder that resolves on_activate abilities.
func NewActivationRewarder(resolver *Resolver) *ActivationRewarder {
	return &ActivationRewarder{resolver: resolver}
}

// Reward implements DiveRewarder.
func (a *ActivationRewarder) Reward(gs *state.GameState, playerIdx int, site catalog.DiveSite) ([]Mutation, error) {
	if playerIdx < 0 || playerIdx >= len(gs.Players) {
		return nil, fmt.Errorf("no seat %d", playerIdx)
	}
	var ids []string
	for _, f := range gs.Players[playerIdx].FishAtSite(site) {
		if !f.Consumed() {
			ids = append(ids, f.InstanceID)
		}
	}

	var mutations []Mutation
	for _, id := range ids {
		m, err := a.resolver.Resolve(gs, playerIdx, id, catalog.TriggerOnActivate, nil)
		mutations = append(mutations, m...)
		if err != nil {
			return mutations, err
		}
	}
	return mutations, nil
}

// NoReward is a DiveRewarder that grants nothing.
type NoReward struct{}

// Reward implements DiveRewarder.
func (NoReward) Reward(*state.GameState, int, catalog.DiveSite) ([]Mutation, error) {
	return nil, nil
}

// RewarderByName returns the dive reward policy called name.
func RewarderByName(name string, resolver *Resolver) (DiveRewarder, error) {
	switch name {
	case "", RewardActivate:
		return NewActivationRewarder(resolver), nil
	case RewardNone:
		return NoReward{}, nil
	}
	return nil, fmt.Errorf("unknown dive reward policy %q", name)
}
