package game

import (
	"testing"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/counters"
	"github.com/finspan/finspan-server-go/internal/game/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// playedState returns a state with placements, a consume and a dive.
func playedState(t *testing.T) *state.GameState {
	t.Helper()
	e := newTestEngine(t, defaultCatalog(t))
	rig(t, e, func(gs *state.GameState) {
		giveCard(t, gs, 0, "sardine")
		giveCard(t, gs, 0, "moray_eel")
	})
	_, err := e.PlaceCard(PlaceCard{PlayerID: "player_0", CardID: "sardine", Zone: catalog.ZoneTwilight, DiveSite: catalog.DiveSiteGreen})
	require.NoError(t, err)
	_, err = e.Dive(Dive{PlayerID: "player_1", DiveSite: catalog.DiveSiteRed})
	require.NoError(t, err)

	sardine := e.CurrentState().Players[0].Tableau[0]
	gs, err := e.PlaceCard(PlaceCard{
		PlayerID: "player_0",
		CardID:   "moray_eel",
		Zone:     catalog.ZoneTwilight,
		DiveSite: catalog.DiveSiteGreen,
		Consume:  []string{sardine.InstanceID},
	})
	require.NoError(t, err)
	return gs
}

func TestComputeChecksum(t *testing.T) {
	gs := playedState(t)

	checksum, err := ComputeChecksum(gs)
	require.NoError(t, err)
	assert.Len(t, checksum.Hash, 64)
	assert.Equal(t, 1, checksum.Version)

	_, err = ComputeChecksum(nil)
	assert.Error(t, err)
}

func TestDeterministicChecksum(t *testing.T) {
	gs := playedState(t)
	want, err := ComputeChecksum(gs)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		got, err := ComputeChecksum(gs.Clone())
		require.NoError(t, err)
		assert.Equal(t, want.Hash, got.Hash)
	}
}

func TestChecksumDetectsChanges(t *testing.T) {
	base := playedState(t)
	want, err := ComputeChecksum(base)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(gs *state.GameState)
	}{
		{"turn", func(gs *state.GameState) { gs.Turn++ }},
		{"version", func(gs *state.GameState) { gs.Version++ }},
		{"deck order", func(gs *state.GameState) { gs.Deck[0], gs.Deck[1] = gs.Deck[1], gs.Deck[0] }},
		{"resources", func(gs *state.GameState) { gs.Players[1].Resources.Add(counters.CounterTypeEgg, 1) }},
		{"diver", func(gs *state.GameState) { gs.Players[0].Divers[2].Used = true }},
		{"consumed by", func(gs *state.GameState) { gs.Players[0].Tableau[0].ConsumedBy = "" }},
		{"fish counters", func(gs *state.GameState) { gs.Players[0].Tableau[1].Counters.Add(counters.CounterTypeEgg, 1) }},
		{"final score", func(gs *state.GameState) { gs.Players[0].FinalScore = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := base.Clone()
			tt.mutate(gs)
			ok, err := VerifyChecksum(gs, want)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	ok, err := VerifyChecksum(base.Clone(), want)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEncodeDecodeState(t *testing.T) {
	gs := playedState(t)

	data, err := EncodeState(gs)
	require.NoError(t, err)
	decoded, err := DecodeState(data)
	require.NoError(t, err)

	assert.Equal(t, gs, decoded)
	require.NoError(t, decoded.Validate())
	require.NoError(t, ValidateRoundtrip(gs))

	_, err = DecodeState([]byte("{not json"))
	assert.Error(t, err)
	_, err = EncodeState(nil)
	assert.Error(t, err)
}

func TestDecodedStateCanBeAccepted(t *testing.T) {
	gs := playedState(t)
	data, err := EncodeState(gs)
	require.NoError(t, err)
	decoded, err := DecodeState(data)
	require.NoError(t, err)

	// A second engine dealt from the same seed is a peer of the first.
	peer := newTestEngine(t, defaultCatalog(t))
	require.NoError(t, peer.AcceptExternalState(decoded))
	assert.Equal(t, gs, peer.CurrentState())

	score, err := peer.Score("player_0")
	require.NoError(t, err)
	assert.Equal(t, 1+3+1, score)
}
