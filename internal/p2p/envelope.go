// Package p2p relays game messages between peers over WebSocket. It never
// enforces rules; Session hands everything to the game engine.
package p2p

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind names an envelope payload.
type Kind string

const (
	KindGameStateUpdate Kind = "game_state_update"
	KindPlayerAction    Kind = "player_action"
	KindChat            Kind = "chat"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindGameStateUpdate, KindPlayerAction, KindChat:
		return true
	}
	return false
}

// Envelope is the unit sent over a peer connection.
type Envelope struct {
	Kind    Kind            `json:"type"`
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sentAt"`
}

// ChatMessage is the payload of a chat envelope.
type ChatMessage struct {
	From string    `json:"from"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// NewEnvelope marshals payload unless it is already raw JSON.
func NewEnvelope(kind Kind, from string, payload any) (Envelope, error) {
	if !kind.Valid() {
		return Envelope{}, fmt.Errorf("unknown message kind %q", kind)
	}
	var raw json.RawMessage
	switch p := payload.(type) {
	case json.RawMessage:
		raw = p
	case []byte:
		raw = json.RawMessage(p)
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode %s payload: %w", kind, err)
		}
		raw = data
	}
	return Envelope{
		Kind:    kind,
		From:    from,
		Payload: raw,
		SentAt:  time.Now().UTC(),
	}, nil
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if !env.Kind.Valid() {
		return Envelope{}, fmt.Errorf("unknown message kind %q", env.Kind)
	}
	return env, nil
}
