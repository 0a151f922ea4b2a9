// Package auth mints and verifies seat tokens. A token binds one player id to
// one session code so reconnecting clients can prove seat ownership.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SeatClaims are the claims carried by a seat token.
type SeatClaims struct {
	SessionCode string `json:"sessionCode"`
	Seat        string `json:"seat"`
	jwt.RegisteredClaims
}

// Mint signs a seat token for the given session and seat.
func Mint(secret, code, seat string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SeatClaims{
		SessionCode: code,
		Seat:        seat,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(secret))
}

// Verify parses a seat token and returns its claims.
func Verify(secret, token string) (*SeatClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &SeatClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse seat token: %w", err)
	}
	claims, ok := parsed.Claims.(*SeatClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid seat token")
	}
	return claims, nil
}
