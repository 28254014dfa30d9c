package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/itemsim/core"
	"github.com/rushteam/itemsim/store"
)

func newTestCache(t *testing.T, opts ...Option) (*ResultCache, *store.MemoryStore) {
	t.Helper()
	ms := store.NewMemoryStore(store.WithCleanupInterval(0))
	t.Cleanup(func() { _ = ms.Close() })
	return NewResultCache(ms, opts...), ms
}

func TestResultCache_Key(t *testing.T) {
	c, _ := newTestCache(t)
	assert.Equal(t, "similar:42:4", c.Key(42, 4))

	c, _ = newTestCache(t, WithKeyPrefix("shop"))
	assert.Equal(t, "shop:42:10", c.Key(42, 10))
}

func TestResultCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	list := []core.CandidateScore{
		{ItemID: 7, Overall: 0.912, Category: 1.2, Tag: 0.5, Brand: 1},
		{ItemID: 3, Overall: 0.4, Price: 0.264},
	}
	require.NoError(t, c.Set(ctx, 1, 4, list, 0))

	got, hit, err := c.Get(ctx, 1, 4)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, list, got)

	// 不同 limit 独立缓存
	_, hit, err = c.Get(ctx, 1, 5)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestResultCache_EmptyListIsAHit(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	require.NoError(t, c.Set(ctx, 9, 4, nil, time.Minute))
	got, hit, err := c.Get(ctx, 9, 4)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Empty(t, got)
}

func TestResultCache_Expired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c, _ := newTestCache(t, WithClock(func() time.Time { return now }))

	require.NoError(t, c.Set(ctx, 1, 4, []core.CandidateScore{{ItemID: 2}}, time.Hour))
	now = now.Add(2 * time.Hour)

	_, hit, err := c.Get(ctx, 1, 4)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestResultCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	require.NoError(t, c.Set(ctx, 1, 4, []core.CandidateScore{{ItemID: 2}}, 0))
	require.NoError(t, c.Set(ctx, 1, 8, []core.CandidateScore{{ItemID: 2}}, 0))
	require.NoError(t, c.Invalidate(ctx, 1, 4, 8))

	for _, limit := range []int{4, 8} {
		_, hit, err := c.Get(ctx, 1, limit)
		require.NoError(t, err)
		assert.False(t, hit)
	}
}

func TestResultCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, ms := newTestCache(t)
	require.NoError(t, ms.Set(ctx, c.Key(1, 4), []byte("{not json")))

	_, hit, err := c.Get(ctx, 1, 4)
	assert.Error(t, err)
	assert.False(t, hit)
}

type brokenStore struct{}

func (brokenStore) Name() string                                     { return "broken" }
func (brokenStore) Get(context.Context, string) ([]byte, error)      { return nil, errors.New("down") }
func (brokenStore) Set(context.Context, string, []byte, ...int) error { return errors.New("down") }
func (brokenStore) Delete(context.Context, string) error             { return errors.New("down") }
func (brokenStore) Close() error                                     { return nil }

func TestResultCache_BackendFailure(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(brokenStore{})

	_, hit, err := c.Get(ctx, 1, 4)
	assert.False(t, hit)
	assert.True(t, core.IsUnavailable(err))

	err = c.Set(ctx, 1, 4, nil, 0)
	assert.True(t, core.IsUnavailable(err))
}
