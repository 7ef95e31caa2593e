package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadradar/leadradar-cli/internal/model"
)

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemory(time.Hour)
	ctx := context.Background()

	leads := []model.Lead{{Company: "Müller GmbH", City: "Arnsberg"}}
	require.NoError(t, s.Put(ctx, "shk", "Arnsberg", leads))

	got, err := s.Get(ctx, "shk", "Arnsberg")
	require.NoError(t, err)
	assert.Equal(t, leads, got)

	// Stored copy is isolated from later caller mutation.
	got[0].Company = "geändert"
	again, err := s.Get(ctx, "shk", "Arnsberg")
	require.NoError(t, err)
	assert.Equal(t, "Müller GmbH", again[0].Company)
}

func TestMemoryStore_MissReturnsNil(t *testing.T) {
	s := NewMemory(time.Hour)
	got, err := s.Get(context.Background(), "shk", "Nirgendwo")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_EmptyListIsAHit(t *testing.T) {
	s := NewMemory(time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "shk", "Arnsberg", []model.Lead{}))

	got, err := s.Get(ctx, "shk", "Arnsberg")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := NewMemory(time.Hour)
	ctx := context.Background()

	now := time.Now()
	s.SetClock(func() time.Time { return now })
	require.NoError(t, s.Put(ctx, "shk", "Arnsberg", []model.Lead{{Company: "Alt"}}))

	// Just inside the TTL: still a hit.
	s.SetClock(func() time.Time { return now.Add(time.Hour - time.Second) })
	got, err := s.Get(ctx, "shk", "Arnsberg")
	require.NoError(t, err)
	assert.NotNil(t, got)

	// Past the TTL: miss, and the entry is gone even after the clock rolls back.
	s.SetClock(func() time.Time { return now.Add(time.Hour + time.Second) })
	got, err = s.Get(ctx, "shk", "Arnsberg")
	require.NoError(t, err)
	assert.Nil(t, got)

	s.SetClock(func() time.Time { return now })
	got, err = s.Get(ctx, "shk", "Arnsberg")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	s := NewMemory(time.Hour)
	ctx := context.Background()

	now := time.Now()
	s.SetClock(func() time.Time { return now.Add(-2 * time.Hour) })
	require.NoError(t, s.Put(ctx, "shk", "Arnsberg", nil))
	s.SetClock(func() time.Time { return now })
	require.NoError(t, s.Put(ctx, "elektro", "Soest", nil))

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	fresh, err := s.Get(ctx, "elektro", "Soest")
	require.NoError(t, err)
	assert.NotNil(t, fresh)
}

func TestMemoryStore_Clear(t *testing.T) {
	s := NewMemory(time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "shk", "Arnsberg", nil))
	require.NoError(t, s.Clear(ctx))

	got, err := s.Get(ctx, "shk", "Arnsberg")
	require.NoError(t, err)
	assert.Nil(t, got)
}
