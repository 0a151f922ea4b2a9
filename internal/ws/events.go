package ws

import (
	"encoding/json"
	"errors"

	"github.com/ncruz/tablero/internal/models"
)

// Server push types.
const (
	EventConnectionSuccess  = "connection_success"
	EventPlayerJoined       = "player_joined"
	EventPlayerConnected    = "player_connected"
	EventPlayerDisconnected = "player_disconnected"
	EventGameStarted        = "game_started"
	EventStateUpdate        = "state_update"
	EventError              = "error"
)

// Client action types.
const (
	ActionStartGame      = "start_game"
	ActionMakeMove       = "make_move"
	ActionReadyNextRound = "ready_for_next_round"
	ActionReadyNextHand  = "ready_for_next_hand"
)

// event is the envelope for every server push. Fields not relevant to the
// push type are omitted from the wire form.
type event struct {
	Type    string            `json:"type"`
	Session string            `json:"session,omitempty"`
	Seat    string            `json:"seat,omitempty"`
	Kind    models.GameKind   `json:"kind,omitempty"`
	Mode    string            `json:"mode,omitempty"`
	Status  models.Status     `json:"status,omitempty"`
	State   json.RawMessage   `json:"state,omitempty"`
	Roster  []models.SeatInfo `json:"roster,omitempty"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
}

// ClientAction is one inbound frame from a seated player.
type ClientAction struct {
	Type string          `json:"type"`
	Move json.RawMessage `json:"move,omitempty"`
}

// errorCode classifies a rule violation for the error push, so clients can
// branch without parsing the human-readable message.
func errorCode(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidTurn):
		return "invalid_turn"
	case errors.Is(err, models.ErrInvalidMove):
		return "invalid_move"
	case errors.Is(err, models.ErrInvalidAction):
		return "invalid_action"
	case errors.Is(err, models.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, models.ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	}
	return "internal"
}
