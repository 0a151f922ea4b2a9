package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ncruz/tablero/internal/models"
)

// Postgres stores sessions as JSONB documents in a single table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool and ensures the sessions table exists.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	p := &Postgres{pool: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			code       TEXT PRIMARY KEY,
			kind       TEXT NOT NULL,
			mode       TEXT NOT NULL,
			host       TEXT NOT NULL,
			seats      JSONB NOT NULL,
			status     TEXT NOT NULL,
			state      JSONB,
			created_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate sessions table: %w", err)
	}
	return nil
}

func (p *Postgres) Find(ctx context.Context, code string) (*models.Session, error) {
	sess := &models.Session{}
	row := p.pool.QueryRow(ctx,
		`SELECT code, kind, mode, host, seats, status, state, created_at
		 FROM sessions WHERE code = $1`, code)
	err := row.Scan(&sess.Code, &sess.Kind, &sess.Mode, &sess.Host,
		&sess.Seats, &sess.Status, &sess.State, &sess.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", code, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", code, err)
	}
	return sess, nil
}

func (p *Postgres) Insert(ctx context.Context, sess *models.Session) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO sessions (code, kind, mode, host, seats, status, state, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sess.Code, sess.Kind, sess.Mode, sess.Host, sess.Seats,
		sess.Status, sess.State, sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sess.Code, err)
	}
	return nil
}

func (p *Postgres) Update(ctx context.Context, sess *models.Session) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE sessions SET seats = $2, status = $3, state = $4 WHERE code = $1`,
		sess.Code, sess.Seats, sess.Status, sess.State)
	if err != nil {
		return fmt.Errorf("update session %s: %w", sess.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", sess.Code, models.ErrNotFound)
	}
	return nil
}

// Close releases the underlying pool.
func (p *Postgres) Close() { p.pool.Close() }
