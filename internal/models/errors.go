package models

import "errors"

// Rule-violation taxonomy. Engine operations either produce a fully advanced
// valid next state or return one of these without partial mutation; the
// orchestrator wraps them with context and callers classify via errors.Is.
var (
	// ErrInvalidTurn: the acting seat is not the seat at the turn pointer.
	ErrInvalidTurn = errors.New("not your turn")

	// ErrInvalidState: the seat or session is in a status that disallows the
	// operation (already resolved, game not started, session full, ...).
	ErrInvalidState = errors.New("invalid state for action")

	// ErrInvalidAction: the action tag is unknown or not usable right now
	// (passing while the boneyard is non-empty, drawing from an empty one).
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvalidMove: the move payload violates the rules (tile not held,
	// pip mismatch against the target end).
	ErrInvalidMove = errors.New("invalid move")

	// ErrInvalidConfig: game creation with an unsupported seat count or mode.
	ErrInvalidConfig = errors.New("invalid game configuration")

	// ErrNotFound: a session or seat reference does not resolve.
	ErrNotFound = errors.New("not found")
)
