package game

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/game/state"
)

// ErrReplayDiverged is returned by Verify when the recorded match accepted
// a snapshot from a peer and can no longer be re-executed locally.
var ErrReplayDiverged = errors.New("replay contains external state")

const replayFormatVersion = 1

// Replay is a recorded match: the seed and players needed to deal it again,
// every applied action, and the state after each one. States[0] is the deal.
type Replay struct {
	GameID       string
	Seed         uint64
	Players      []string
	Actions      []Action
	States       []*state.GameState
	CurrentIndex int

	external bool
	mu       sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(gameID string, seed uint64, players []string) *Replay {
	return &Replay{
		GameID:  gameID,
		Seed:    seed,
		Players: append([]string(nil), players...),
		States:  make([]*state.GameState, 0),
	}
}

// RecordState appends a snapshot with no action, used for the initial deal.
func (r *Replay) RecordState(snapshot *state.GameState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.States = append(r.States, snapshot)
}

// Record appends an applied action and the state it produced.
func (r *Replay) Record(a Action, snapshot *state.GameState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Actions = append(r.Actions, a)
	r.States = append(r.States, snapshot)
}

// MarkExternal flags that a peer's state replaced the local one.
func (r *Replay) MarkExternal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.external = true
}

// Start resets the replay to the beginning.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the state at the cursor and moves forward.
func (r *Replay) Next() *state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.States) {
		gs := r.States[r.CurrentIndex]
		r.CurrentIndex++
		return gs
	}
	return nil
}

// Previous moves back one state and returns it.
func (r *Replay) Previous() *state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.States[r.CurrentIndex]
	}
	return nil
}

// Skip moves the cursor by count states, clamped to the recording.
func (r *Replay) Skip(count int) *state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	newIndex := r.CurrentIndex + count
	if newIndex >= len(r.States) {
		newIndex = len(r.States) - 1
	}
	if newIndex < 0 {
		newIndex = 0
	}

	r.CurrentIndex = newIndex
	if r.CurrentIndex < len(r.States) {
		return r.States[r.CurrentIndex]
	}
	return nil
}

// Size returns the number of recorded states.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.States)
}

// GetStateAt returns the state at index, or nil.
func (r *Replay) GetStateAt(index int) *state.GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.States) {
		return r.States[index]
	}
	return nil
}

// Verify deals the match again from the recorded seed, re-applies every
// action and compares checksums after each step. opts must reproduce the
// original engine configuration apart from the seed.
func (r *Replay) Verify(cat *catalog.Catalog, opts ...Option) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.external {
		return ErrReplayDiverged
	}
	if len(r.States) != len(r.Actions)+1 {
		return fmt.Errorf("replay has %d states for %d actions", len(r.States), len(r.Actions))
	}

	e, err := NewEngine(cat, r.Players, append(opts, WithSeed(r.Seed))...)
	if err != nil {
		return fmt.Errorf("deal: %w", err)
	}
	if e.ID() != r.GameID {
		return fmt.Errorf("deal produced game %s, recorded %s", e.ID(), r.GameID)
	}
	if err := sameChecksum(e.CurrentState(), r.States[0]); err != nil {
		return fmt.Errorf("initial state: %w", err)
	}

	for i, a := range r.Actions {
		got, err := e.Apply(a)
		if err != nil {
			return fmt.Errorf("action %d (%s): %w", i, a.Kind(), err)
		}
		if err := sameChecksum(got, r.States[i+1]); err != nil {
			return fmt.Errorf("after action %d (%s): %w", i, a.Kind(), err)
		}
	}
	return nil
}

func sameChecksum(got, want *state.GameState) error {
	a, err := ComputeChecksum(got)
	if err != nil {
		return err
	}
	b, err := ComputeChecksum(want)
	if err != nil {
		return err
	}
	if a.Hash != b.Hash {
		return fmt.Errorf("checksum mismatch: replayed=%s recorded=%s", a.Hash, b.Hash)
	}
	return nil
}

// replayFile is the on-disk form of a replay.
type replayFile struct {
	Version   int                `json:"version"`
	GameID    string             `json:"gameId"`
	Seed      uint64             `json:"seed"`
	Players   []string           `json:"players"`
	Timestamp time.Time          `json:"timestamp"`
	External  bool               `json:"external"`
	Actions   []json.RawMessage  `json:"actions"`
	States    []*state.GameState `json:"states"`
}

// Save writes the replay to w as gzipped JSON.
func (r *Replay) Save(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file := replayFile{
		Version:   replayFormatVersion,
		GameID:    r.GameID,
		Seed:      r.Seed,
		Players:   r.Players,
		Timestamp: time.Now().UTC(),
		External:  r.external,
		Actions:   make([]json.RawMessage, 0, len(r.Actions)),
		States:    r.States,
	}
	for i, a := range r.Actions {
		raw, err := MarshalAction(a)
		if err != nil {
			return fmt.Errorf("failed to encode action %d: %w", i, err)
		}
		file.Actions = append(file.Actions, raw)
	}

	gzipWriter := gzip.NewWriter(w)
	if err := json.NewEncoder(gzipWriter).Encode(&file); err != nil {
		gzipWriter.Close()
		return fmt.Errorf("failed to encode replay: %w", err)
	}
	return gzipWriter.Close()
}

// LoadReplay reads a replay written by Save.
func LoadReplay(rd io.Reader) (*Replay, error) {
	gzipReader, err := gzip.NewReader(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	var file replayFile
	if err := json.NewDecoder(gzipReader).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode replay: %w", err)
	}
	if file.Version != replayFormatVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", file.Version)
	}

	replay := NewReplay(file.GameID, file.Seed, file.Players)
	replay.external = file.External
	replay.States = file.States
	for i, raw := range file.Actions {
		a, err := UnmarshalAction(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode action %d: %w", i, err)
		}
		replay.Actions = append(replay.Actions, a)
	}
	return replay, nil
}
