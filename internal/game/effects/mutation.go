package effects

import (
	"fmt"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
)

// Mutation records one change an ability made to the game state.
type Mutation struct {
	PlayerID string             `json:"playerId"`
	SourceID string             `json:"sourceId"`
	Effect   catalog.EffectKind `json:"effect"`
	Amount   int                `json:"amount"`
	Detail   string             `json:"detail"`
}

func (m Mutation) String() string {
	return fmt.Sprintf("%s %s x%d (%s)", m.PlayerID, m.Effect, m.Amount, m.Detail)
}
