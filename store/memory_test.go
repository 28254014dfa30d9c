package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/itemsim/core"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithCleanupInterval(0))
	defer s.Close()

	_, err := s.Get(ctx, "missing")
	assert.True(t, core.IsStoreNotFound(err))

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(WithCleanupInterval(0), WithClock(func() time.Time { return now }))
	defer s.Close()

	require.NoError(t, s.Set(ctx, "short", []byte("a"), 10))
	require.NoError(t, s.Set(ctx, "forever", []byte("b")))
	assert.Equal(t, 2, s.Len())

	now = now.Add(11 * time.Second)
	_, err := s.Get(ctx, "short")
	assert.True(t, core.IsStoreNotFound(err))
	_, err = s.Get(ctx, "forever")
	assert.NoError(t, err)

	s.evictExpired()
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_CopiesValue(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithCleanupInterval(0))
	defer s.Close()

	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestMemoryStore_CloseIdempotent(t *testing.T) {
	s := NewMemoryStore(WithCleanupInterval(time.Millisecond))
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, "memory", s.Name())
}
