package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/counters"
	"github.com/finspan/finspan-server-go/internal/game/state"
)

// SerializationChecksum is a deterministic digest of a game state, used to
// detect divergent states across replays or peers.
type SerializationChecksum struct {
	Hash    string // SHA-256 of the canonical representation
	Version int    // Canonical format version
}

// EncodeState serializes a snapshot as JSON. This is the network payload.
func EncodeState(gs *state.GameState) ([]byte, error) {
	if gs == nil {
		return nil, fmt.Errorf("nil game state")
	}
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// DecodeState parses a snapshot produced by EncodeState.
func DecodeState(data []byte) (*state.GameState, error) {
	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &gs, nil
}

// ComputeChecksum hashes the canonical representation of gs.
func ComputeChecksum(gs *state.GameState) (*SerializationChecksum, error) {
	if gs == nil {
		return nil, fmt.Errorf("nil game state")
	}
	hash := sha256.New()
	if _, err := hash.Write([]byte(buildDeterministicRepresentation(gs))); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &SerializationChecksum{
		Hash:    hex.EncodeToString(hash.Sum(nil)),
		Version: 1,
	}, nil
}

// buildDeterministicRepresentation renders every rule-relevant field in a
// fixed order. Card definitions are identified by id only. Ordered
// collections keep their order; map-like data is sorted.
func buildDeterministicRepresentation(gs *state.GameState) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("GAME:%s|%d|%s|%d|%d|%d|%d\n",
		gs.ID,
		gs.Seed,
		gs.Phase,
		gs.Round,
		gs.Turn,
		gs.CurrentPlayerIndex,
		gs.Version,
	))
	buf.WriteString("DECK:" + cardIDs(gs.Deck) + "\n")

	achievementIDs := make([]string, len(gs.Achievements))
	for i, a := range gs.Achievements {
		achievementIDs[i] = a.ID
	}
	sort.Strings(achievementIDs)
	buf.WriteString("ACHIEVEMENTS:" + strings.Join(achievementIDs, ",") + "\n")

	// Seat order matters
	for _, p := range gs.Players {
		buf.WriteString(fmt.Sprintf("PLAYER:%s|%s|%s|%d\n", p.ID, p.Name, countersString(p.Resources), p.FinalScore))
		buf.WriteString("  HAND:" + cardIDs(p.Hand) + "\n")
		buf.WriteString("  DISCARD:" + cardIDs(p.Discard) + "\n")
		for _, d := range p.Divers {
			buf.WriteString(fmt.Sprintf("  DIVER:%s=%t\n", d.Site, d.Used))
		}
		for _, f := range p.Tableau {
			buf.WriteString(fmt.Sprintf("  FISH:%s|%s|%s|%s|%d|%s|%t|%s|%d\n",
				f.InstanceID,
				f.Card.ID,
				f.Zone,
				f.DiveSite,
				f.Row,
				countersString(f.Counters),
				f.School,
				f.ConsumedBy,
				f.BonusPoints,
			))
			buf.WriteString("    CONSUMED:" + strings.Join(f.ConsumedFish, ",") + "\n")
		}
	}

	return buf.String()
}

func cardIDs(cards []catalog.Card) string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return strings.Join(ids, ",")
}

// countersString lists non-zero counters in a fixed order.
func countersString(cs counters.Counters) string {
	parts := make([]string, 0, len(counters.AllCounterTypes))
	for _, ct := range counters.AllCounterTypes {
		if n := cs.Get(ct); n != 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", ct, n))
		}
	}
	return strings.Join(parts, ",")
}

// VerifyChecksum reports whether gs matches expected.
func VerifyChecksum(gs *state.GameState, expected *SerializationChecksum) (bool, error) {
	computed, err := ComputeChecksum(gs)
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash, nil
}

// ValidateRoundtrip checks that gs survives EncodeState and DecodeState
// without changing its checksum.
func ValidateRoundtrip(gs *state.GameState) error {
	originalChecksum, err := ComputeChecksum(gs)
	if err != nil {
		return fmt.Errorf("failed to compute original checksum: %w", err)
	}

	data, err := EncodeState(gs)
	if err != nil {
		return err
	}
	decoded, err := DecodeState(data)
	if err != nil {
		return err
	}

	decodedChecksum, err := ComputeChecksum(decoded)
	if err != nil {
		return fmt.Errorf("failed to compute decoded checksum: %w", err)
	}
	if originalChecksum.Hash != decodedChecksum.Hash {
		return fmt.Errorf("checksum mismatch: original=%s, decoded=%s",
			originalChecksum.Hash, decodedChecksum.Hash)
	}
	return nil
}
