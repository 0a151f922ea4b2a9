package game

import "sync"

// AutoRegistry tracks which seats of which sessions are driven by the
// automated-move policy. Kept in memory only: automated seats are re-created
// with the session on restart, never persisted.
type AutoRegistry struct {
	mu    sync.RWMutex
	seats map[string]map[string]bool // code -> seat -> automated
}

func NewAutoRegistry() *AutoRegistry {
	return &AutoRegistry{seats: make(map[string]map[string]bool)}
}

// MarkAutomated flags a seat as policy-driven.
func (r *AutoRegistry) MarkAutomated(code, seat string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.seats[code]
	if !ok {
		m = make(map[string]bool)
		r.seats[code] = m
	}
	m[seat] = true
}

// IsAutomated reports whether the seat is policy-driven.
func (r *AutoRegistry) IsAutomated(code, seat string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seats[code][seat]
}

// Forget drops all automated-seat records for a session.
func (r *AutoRegistry) Forget(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seats, code)
}
