package rules

import (
	"fmt"
	"strings"
)

const (
	// MaxRounds is the number of weeks in a match.
	MaxRounds = 4
	// TurnsPerPlayer is how many actions each player takes per week.
	TurnsPerPlayer = 6
	// HandSize is the steady-state hand size restored at every week end.
	HandSize = 5
	// DiversPerPlayer is one diver per dive site.
	DiversPerPlayer = 3
)

// Phase represents the lifecycle phase of a match.
type Phase int

const (
	PhaseSetup Phase = iota
	PhasePlaying
	PhaseEndOfWeek
	PhaseEndGame
)

var phaseNames = map[Phase]string{
	PhaseSetup:     "setup",
	PhasePlaying:   "playing",
	PhaseEndOfWeek: "end_of_week",
	PhaseEndGame:   "end_game",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase_%d", int(p))
}

// MarshalText encodes the phase by name so snapshots stay readable on the wire.
func (p Phase) MarshalText() ([]byte, error) {
	if _, ok := phaseNames[p]; !ok {
		return nil, fmt.Errorf("unknown phase %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for phase, n := range phaseNames {
		if n == name {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(text))
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to Phase) bool {
	switch from {
	case PhaseSetup:
		return to == PhasePlaying
	case PhasePlaying:
		return to == PhaseEndOfWeek
	case PhaseEndOfWeek:
		return to == PhasePlaying || to == PhaseEndGame
	}
	return false
}

// TurnsPerRound returns the length of a week for playerCount players.
func TurnsPerRound(playerCount int) int {
	return TurnsPerPlayer * playerCount
}

// Advance describes what a successful action did to the turn position.
type Advance int

const (
	// AdvanceNextPlayer passed the turn to the next seat.
	AdvanceNextPlayer Advance = iota
	// AdvanceWeekEnd finished a week and started the next round.
	AdvanceWeekEnd
	// AdvanceGameEnd finished the final week.
	AdvanceGameEnd
)

var advanceNames = map[Advance]string{
	AdvanceNextPlayer: "NEXT_PLAYER",
	AdvanceWeekEnd:    "WEEK_END",
	AdvanceGameEnd:    "GAME_END",
}

func (a Advance) String() string {
	if name, ok := advanceNames[a]; ok {
		return name
	}
	return fmt.Sprintf("ADVANCE_%d", int(a))
}

// TurnPosition is the round/turn/seat triple stored in the game state.
type TurnPosition struct {
	Round         int
	Turn          int
	CurrentPlayer int
}

// TurnManager advances a TurnPosition for a fixed number of seats.
type TurnManager struct {
	playerCount int
	pos         TurnPosition
}

// NewTurnManager resumes turn tracking from pos.
func NewTurnManager(playerCount int, pos TurnPosition) *TurnManager {
	return &TurnManager{
		playerCount: playerCount,
		pos:         pos,
	}
}

// Position returns the current position.
func (tm *TurnManager) Position() TurnPosition {
	return tm.pos
}

// Validate checks that the position satisfies the round and turn bounds.
func (tm *TurnManager) Validate() error {
	if tm.playerCount < 2 {
		return fmt.Errorf("need at least 2 players, have %d", tm.playerCount)
	}
	if tm.pos.Round < 1 || tm.pos.Round > MaxRounds {
		return fmt.Errorf("round %d out of range [1,%d]", tm.pos.Round, MaxRounds)
	}
	if tm.pos.Turn < 0 || tm.pos.Turn >= TurnsPerRound(tm.playerCount) {
		return fmt.Errorf("turn %d out of range [0,%d)", tm.pos.Turn, TurnsPerRound(tm.playerCount))
	}
	if tm.pos.CurrentPlayer < 0 || tm.pos.CurrentPlayer >= tm.playerCount {
		return fmt.Errorf("current player %d out of range", tm.pos.CurrentPlayer)
	}
	return nil
}

// AdvanceTurn counts one successful action.
// Exactly one of week rollover or seat rotation happens. The round stays at
// MaxRounds when the last week closes.
func (tm *TurnManager) AdvanceTurn() Advance {
	tm.pos.Turn++
	if tm.pos.Turn < TurnsPerRound(tm.playerCount) {
		tm.pos.CurrentPlayer = (tm.pos.CurrentPlayer + 1) % tm.playerCount
		return AdvanceNextPlayer
	}

	tm.pos.Turn = 0
	if tm.pos.Round >= MaxRounds {
		return AdvanceGameEnd
	}
	tm.pos.Round++
	return AdvanceWeekEnd
}
