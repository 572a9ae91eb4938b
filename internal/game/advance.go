package game

import (
	"fmt"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/rules"
	"github.com/finspan/finspan-server-go/internal/game/scoring"
	"go.uber.org/zap"
)

// advanceTurn counts one successful action. Either the seat rotates or the
// week closes, never both.
func (e *Engine) advanceTurn() error {
	gs := e.state
	tm := rules.NewTurnManager(len(gs.Players), gs.TurnPosition())
	adv := tm.AdvanceTurn()
	gs.SetTurnPosition(tm.Position())

	switch adv {
	case rules.AdvanceNextPlayer:
		next := gs.CurrentPlayer()
		evt := rules.NewEventWithAmount(rules.EventTurnAdvanced, next.ID, "", next.ID, gs.Turn)
		e.publish(evt, fmt.Sprintf("turn %d: %s to act", gs.Turn, next.Name))
		return nil
	case rules.AdvanceWeekEnd:
		return e.endWeek(false)
	case rules.AdvanceGameEnd:
		return e.endWeek(true)
	}
	return fmt.Errorf("unexpected turn advance %s", adv)
}

func (e *Engine) setPhase(to rules.Phase) error {
	from := e.state.Phase
	if !rules.CanTransition(from, to) {
		return fmt.Errorf("illegal phase change %s -> %s", from, to)
	}
	e.state.Phase = to
	evt := rules.NewEvent(rules.EventPhaseChanged, e.state.ID, "", "")
	evt.Data = to.String()
	evt.Metadata["from"] = from.String()
	e.publish(evt, fmt.Sprintf("phase %s -> %s", from, to))
	return nil
}

// endWeek refills hands, then either starts the next week or ends the game.
func (e *Engine) endWeek(final bool) error {
	gs := e.state
	if err := e.setPhase(rules.PhaseEndOfWeek); err != nil {
		return err
	}

	for i := range gs.Players {
		p := &gs.Players[i]
		if missing := rules.HandSize - len(p.Hand); missing > 0 {
			if drawn := gs.Draw(p, missing); drawn > 0 {
				e.publish(rules.NewEventWithAmount(rules.EventHandRefilled, p.ID, "", p.ID, drawn),
					fmt.Sprintf("%s drew %d card(s) at week end", p.Name, drawn))
			}
		}
	}

	week := gs.Round
	if !final {
		week = gs.Round - 1
	}
	e.publish(rules.NewEventWithAmount(rules.EventWeekEnded, gs.ID, "", "", week),
		fmt.Sprintf("week %d ended", week))
	e.observer.WeekEnded(week)

	if final {
		return e.endGame()
	}

	for i := range gs.Players {
		gs.Players[i].ResetDivers()
	}
	e.publish(rules.NewEventWithAmount(rules.EventDiversReset, gs.ID, "", "", gs.Round),
		fmt.Sprintf("divers reset for week %d", gs.Round))
	e.logger.Info("week ended",
		zap.Int("week", week),
		zap.Int("next_round", gs.Round),
		zap.Int("deck", len(gs.Deck)),
	)
	return e.setPhase(rules.PhasePlaying)
}

// endGame resolves game-end abilities, stores final scores and freezes the match.
func (e *Engine) endGame() error {
	gs := e.state
	mutations, err := e.resolver.ResolveAll(gs, catalog.TriggerOnGameEnd)
	e.lastMutations = append(e.lastMutations, mutations...)
	if err != nil {
		return fmt.Errorf("on_game_end abilities: %w", err)
	}

	fields := make([]zap.Field, 0, len(gs.Players))
	for i := range gs.Players {
		gs.Players[i].FinalScore = scoring.Score(gs, i)
		fields = append(fields, zap.Int(gs.Players[i].ID, gs.Players[i].FinalScore))
	}
	if err := e.setPhase(rules.PhaseEndGame); err != nil {
		return err
	}

	e.publish(rules.NewEvent(rules.EventGameEnded, gs.ID, "", ""), "game over")
	e.observer.GameEnded(len(gs.Players))
	e.logger.Info("game ended", zap.Dict("final_scores", fields...))
	return nil
}
