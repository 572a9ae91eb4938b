package game

import (
	"errors"
	"fmt"

	"github.com/finspan/finspan-server-go/internal/game/state"
)

// Reason identifies which precondition an action failed.
type Reason string

const (
	ReasonUnknownPlayer         Reason = "UnknownPlayer"
	ReasonUnknownCard           Reason = "UnknownCard"
	ReasonZoneNotAllowed        Reason = "ZoneNotAllowed"
	ReasonDiveSiteNotAllowed    Reason = "DiveSiteNotAllowed"
	ReasonInsufficientResources Reason = "InsufficientResources"
	ReasonDiverAlreadyUsed      Reason = "DiverAlreadyUsed"
	ReasonInvalidSetup          Reason = "InvalidSetup"
	ReasonActionOutOfPhase      Reason = "ActionOutOfPhase"
	ReasonInvalidSelection      Reason = "InvalidSelection"
)

// Sentinel errors matched by errors.Is against an *ActionError.
var (
	ErrUnknownPlayer         = errors.New("unknown player")
	ErrUnknownCard           = errors.New("unknown card")
	ErrZoneNotAllowed        = errors.New("zone not allowed")
	ErrDiveSiteNotAllowed    = errors.New("dive site not allowed")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrDiverAlreadyUsed      = errors.New("diver already used")
	ErrActionOutOfPhase      = errors.New("action out of phase")
	ErrInvalidSelection      = errors.New("invalid selection")

	// ErrInvalidSetup is returned when a match cannot be created.
	ErrInvalidSetup = state.ErrInvalidSetup
)

var reasonErrors = map[Reason]error{
	ReasonUnknownPlayer:         ErrUnknownPlayer,
	ReasonUnknownCard:           ErrUnknownCard,
	ReasonZoneNotAllowed:        ErrZoneNotAllowed,
	ReasonDiveSiteNotAllowed:    ErrDiveSiteNotAllowed,
	ReasonInsufficientResources: ErrInsufficientResources,
	ReasonDiverAlreadyUsed:      ErrDiverAlreadyUsed,
	ReasonInvalidSetup:          ErrInvalidSetup,
	ReasonActionOutOfPhase:      ErrActionOutOfPhase,
	ReasonInvalidSelection:      ErrInvalidSelection,
}

// ActionError is a rejected action. The game state is untouched.
type ActionError struct {
	Reason   Reason
	PlayerID string
	Message  string
}

func (e *ActionError) Error() string {
	if e.PlayerID == "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: player %s: %s", e.Reason, e.PlayerID, e.Message)
}

// Is matches the sentinel error for the reason.
func (e *ActionError) Is(target error) bool {
	sentinel, ok := reasonErrors[e.Reason]
	return ok && sentinel == target
}

func reject(reason Reason, playerID, format string, args ...any) *ActionError {
	return &ActionError{
		Reason:   reason,
		PlayerID: playerID,
		Message:  fmt.Sprintf(format, args...),
	}
}

// ReasonOf returns the rejection reason carried by err, if any.
func ReasonOf(err error) (Reason, bool) {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Reason, true
	}
	return "", false
}
