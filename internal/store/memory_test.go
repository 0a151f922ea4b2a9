package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncruz/tablero/internal/models"
)

func testSession(code string) *models.Session {
	return &models.Session{
		Code:      code,
		Kind:      models.KindDominoes,
		Mode:      "classic",
		Host:      "seat1",
		Seats:     []string{"seat1"},
		Status:    models.StatusWaiting,
		State:     json.RawMessage(`{"handNum":1}`),
		CreatedAt: time.Now(),
	}
}

func TestMemoryFindMissing(t *testing.T) {
	m := NewMemory()
	_, err := m.Find(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryInsertFindUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Insert(ctx, testSession("abc123")))

	got, err := m.Find(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, got.Status)

	assert.ErrorIs(t, m.Insert(ctx, testSession("abc123")), models.ErrInvalidState)

	got.Status = models.StatusInProgress
	got.Seats = append(got.Seats, "seat2")
	require.NoError(t, m.Update(ctx, got))

	again, err := m.Find(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, again.Status)
	assert.Len(t, again.Seats, 2)
}

func TestMemoryUpdateMissing(t *testing.T) {
	m := NewMemory()
	err := m.Update(context.Background(), testSession("ghost"))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryFindReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Insert(ctx, testSession("abc123")))

	first, err := m.Find(ctx, "abc123")
	require.NoError(t, err)
	first.Seats[0] = "tampered"
	first.State[2] = 'x'

	second, err := m.Find(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "seat1", second.Seats[0])
	assert.JSONEq(t, `{"handNum":1}`, string(second.State))
}
