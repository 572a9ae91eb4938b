package rules

import (
	"encoding/json"
	"testing"
)

func TestTurnManagerRotatesSeats(t *testing.T) {
	tm := NewTurnManager(2, TurnPosition{Round: 1})

	for i := 1; i < 6; i++ {
		if adv := tm.AdvanceTurn(); adv != AdvanceNextPlayer {
			t.Fatalf("action %d: expected %s, got %s", i, AdvanceNextPlayer, adv)
		}
		pos := tm.Position()
		if pos.Turn != i {
			t.Fatalf("action %d: expected turn %d, got %d", i, i, pos.Turn)
		}
		if pos.CurrentPlayer != i%2 {
			t.Fatalf("action %d: expected seat %d, got %d", i, i%2, pos.CurrentPlayer)
		}
	}
}

func TestTurnManagerWeekRollover(t *testing.T) {
	tm := NewTurnManager(2, TurnPosition{Round: 1})

	var last Advance
	for i := 0; i < TurnsPerRound(2); i++ {
		last = tm.AdvanceTurn()
	}
	if last != AdvanceWeekEnd {
		t.Fatalf("expected %s after 12 actions, got %s", AdvanceWeekEnd, last)
	}
	pos := tm.Position()
	if pos.Round != 2 || pos.Turn != 0 {
		t.Fatalf("expected round 2 turn 0, got round %d turn %d", pos.Round, pos.Turn)
	}
	// The seat does not rotate on the rollover action.
	if pos.CurrentPlayer != 1 {
		t.Fatalf("expected seat 1 to keep the turn, got %d", pos.CurrentPlayer)
	}
}

func TestTurnManagerGameEndKeepsFinalRound(t *testing.T) {
	tm := NewTurnManager(3, TurnPosition{Round: MaxRounds, Turn: TurnsPerRound(3) - 1, CurrentPlayer: 2})

	if adv := tm.AdvanceTurn(); adv != AdvanceGameEnd {
		t.Fatalf("expected %s, got %s", AdvanceGameEnd, adv)
	}
	pos := tm.Position()
	if pos.Round != MaxRounds || pos.Turn != 0 {
		t.Fatalf("expected round %d turn 0, got round %d turn %d", MaxRounds, pos.Round, pos.Turn)
	}
	if err := tm.Validate(); err != nil {
		t.Fatalf("final position should be valid: %v", err)
	}
}

func TestTurnManagerValidate(t *testing.T) {
	cases := []struct {
		name    string
		players int
		pos     TurnPosition
		wantErr bool
	}{
		{"start", 2, TurnPosition{Round: 1}, false},
		{"one player", 1, TurnPosition{Round: 1}, true},
		{"round zero", 2, TurnPosition{Round: 0}, true},
		{"round five", 2, TurnPosition{Round: 5}, true},
		{"turn overflow", 2, TurnPosition{Round: 1, Turn: 12}, true},
		{"seat overflow", 2, TurnPosition{Round: 1, CurrentPlayer: 2}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewTurnManager(tc.players, tc.pos).Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestPhaseTransitions(t *testing.T) {
	if !CanTransition(PhaseSetup, PhasePlaying) {
		t.Fatalf("setup should move to playing")
	}
	if !CanTransition(PhaseEndOfWeek, PhaseEndGame) {
		t.Fatalf("end of week should move to end game")
	}
	if CanTransition(PhaseEndGame, PhasePlaying) {
		t.Fatalf("end game is terminal")
	}
	if CanTransition(PhasePlaying, PhaseEndGame) {
		t.Fatalf("playing must pass through end of week")
	}
}

func TestPhaseJSON(t *testing.T) {
	data, err := json.Marshal(PhaseEndOfWeek)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"end_of_week"` {
		t.Fatalf("unexpected encoding %s", data)
	}
	var p Phase
	if err := json.Unmarshal([]byte(`"end_game"`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p != PhaseEndGame {
		t.Fatalf("expected %s, got %s", PhaseEndGame, p)
	}
	if err := json.Unmarshal([]byte(`"overtime"`), &p); err == nil {
		t.Fatalf("expected error for unknown phase")
	}
}
