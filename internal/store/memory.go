package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/ncruz/tablero/internal/models"
)

// Memory is an in-process SessionStore for tests and single-node runs.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*models.Session)}
}

func (m *Memory) Find(_ context.Context, code string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[code]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", code, models.ErrNotFound)
	}
	return copySession(sess), nil
}

func (m *Memory) Insert(_ context.Context, sess *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sess.Code]; ok {
		return fmt.Errorf("session %s already exists: %w", sess.Code, models.ErrInvalidState)
	}
	m.sessions[sess.Code] = copySession(sess)
	return nil
}

func (m *Memory) Update(_ context.Context, sess *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sess.Code]; !ok {
		return fmt.Errorf("session %s: %w", sess.Code, models.ErrNotFound)
	}
	// Last write wins, whole document.
	m.sessions[sess.Code] = copySession(sess)
	return nil
}

// copySession keeps callers from aliasing stored documents.
func copySession(sess *models.Session) *models.Session {
	out := *sess
	out.Seats = append([]string(nil), sess.Seats...)
	out.State = append([]byte(nil), sess.State...)
	return &out
}
