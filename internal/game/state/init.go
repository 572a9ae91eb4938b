package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/counters"
	"github.com/finspan/finspan-server-go/internal/game/rules"
	"github.com/google/uuid"
)

// ErrInvalidSetup reports a match that cannot be started.
var ErrInvalidSetup = errors.New("invalid setup")

const (
	startingEggs    = 2
	startingYoung   = 1
	startingSchools = 0
)

// PlayerID returns the id assigned to the player in seat index.
func PlayerID(index int) string {
	return fmt.Sprintf("player_%d", index)
}

// New builds the initial state for the given players, in turn order.
// The whole catalog is shuffled into the deck with rng and five cards are
// dealt to every player.
func New(cat *catalog.Catalog, playerNames []string, rng *rand.Rand) (*GameState, error) {
	if cat == nil {
		return nil, fmt.Errorf("%w: no card catalog", ErrInvalidSetup)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: no random source", ErrInvalidSetup)
	}
	if len(playerNames) < 2 {
		return nil, fmt.Errorf("%w: at least 2 players required, got %d", ErrInvalidSetup, len(playerNames))
	}

	seen := make(map[string]bool, len(playerNames))
	for _, name := range playerNames {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: player names must not be empty", ErrInvalidSetup)
		}
		if seen[trimmed] {
			return nil, fmt.Errorf("%w: duplicate player name %q", ErrInvalidSetup, trimmed)
		}
		seen[trimmed] = true
	}

	needed := rules.HandSize * len(playerNames)
	if cat.Len() < needed {
		return nil, fmt.Errorf("%w: catalog has %d cards, %d players need %d",
			ErrInvalidSetup, cat.Len(), len(playerNames), needed)
	}

	gs := &GameState{
		ID:           newGameID(rng),
		Players:      make([]PlayerMat, 0, len(playerNames)),
		Round:        1,
		Turn:         0,
		Deck:         cat.Shuffled(rng),
		Phase:        rules.PhaseSetup,
		Achievements: []catalog.Achievement{},
	}

	for i, name := range playerNames {
		gs.Players = append(gs.Players, PlayerMat{
			ID:        PlayerID(i),
			Name:      strings.TrimSpace(name),
			Hand:      []catalog.Card{},
			Tableau:   []PlacedFish{},
			Discard:   []catalog.Card{},
			Divers:    FreshDivers(),
			Resources: counters.NewCounters(startingEggs, startingYoung, startingSchools),
		})
	}
	for i := range gs.Players {
		gs.Draw(&gs.Players[i], rules.HandSize)
	}

	gs.Phase = rules.PhasePlaying
	return gs, nil
}

// newGameID derives a version 4 UUID from rng so seeded matches are reproducible.
func newGameID(rng *rand.Rand) string {
	var seed [16]byte
	binary.BigEndian.PutUint64(seed[:8], rng.Uint64())
	binary.BigEndian.PutUint64(seed[8:], rng.Uint64())
	id, err := uuid.NewRandomFromReader(bytes.NewReader(seed[:]))
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
