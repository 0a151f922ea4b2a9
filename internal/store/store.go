// Package store persists session documents. Sessions are whole documents
// with last-write-wins update semantics; the orchestrator is the only writer.
package store

import (
	"context"

	"github.com/ncruz/tablero/internal/models"
)

// SessionStore is the document-level persistence boundary.
// Find returns models.ErrNotFound when the code does not resolve.
type SessionStore interface {
	Find(ctx context.Context, code string) (*models.Session, error)
	Insert(ctx context.Context, sess *models.Session) error
	Update(ctx context.Context, sess *models.Session) error
}
