// Package models holds the session document shared by the store, the
// orchestrator and the gateway, plus the rule-violation error taxonomy.
package models

import (
	"encoding/json"
	"math/rand"
	"time"
)

// GameKind identifies which rules engine drives a session.
type GameKind string

const (
	KindBlackjack GameKind = "blackjack"
	KindDominoes  GameKind = "dominoes"
)

// Valid reports whether the kind names a known rules engine.
func (k GameKind) Valid() bool {
	return k == KindBlackjack || k == KindDominoes
}

// Status is the lifecycle state of a session. Sessions are never deleted;
// they only transition terminally to StatusFinished.
type Status string

const (
	StatusWaiting       Status = "waiting"
	StatusInProgress    Status = "in_progress"
	StatusRoundFinished Status = "round_finished" // blackjack, between rounds
	StatusHandFinished  Status = "hand_finished"  // dominoes, between hands
	StatusFinished      Status = "finished"
)

// Terminal reports whether the session can never change again.
func (s Status) Terminal() bool { return s == StatusFinished }

// Session is one instance of a game, identified by a short code and owning
// one authoritative GameState payload. Mutated exclusively through the
// orchestrator; persisted as a whole document with last-write-wins semantics.
type Session struct {
	Code      string          `json:"code"`
	Kind      GameKind        `json:"kind"`
	Mode      string          `json:"mode"`
	Host      string          `json:"host"`
	Seats     []string        `json:"seats"`
	Status    Status          `json:"status"`
	State     json.RawMessage `json:"state,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// HasSeat reports whether the seat code belongs to this session.
func (s *Session) HasSeat(seat string) bool {
	for _, id := range s.Seats {
		if id == seat {
			return true
		}
	}
	return false
}

// SeatInfo is one roster entry pushed to viewers: the seat code plus whether
// the seat is driven by the automated-move policy instead of a human.
type SeatInfo struct {
	ID        string `json:"id"`
	Automated bool   `json:"automated"`
}

const codeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewCode mints a short random alphanumeric code for sessions and seats.
// Collision probability is treated as negligible; there is no uniqueness retry.
func NewCode(n int, rng *rand.Rand) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rng.Intn(len(codeAlphabet))]
	}
	return string(b)
}
