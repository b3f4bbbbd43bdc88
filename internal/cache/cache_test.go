package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

// Both providers must satisfy the domain contract.
var (
	_ domain.CacheStore = (*Memory)(nil)
	_ domain.CacheStore = (*Redis)(nil)
)

func TestMemoryGetAddInvalidate(t *testing.T) {
	m := NewMemory(64, 0)
	ctx := context.Background()

	_, found, err := m.Get(ctx, "uamPostTreeMap")
	require.NoError(t, err)
	assert.False(t, found, "miss before add")

	require.NoError(t, m.Add(ctx, "uamPostTreeMap", []byte(`{"a":1}`)))

	value, found, err := m.Get(ctx, "uamPostTreeMap")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte(`{"a":1}`), value)

	require.NoError(t, m.Invalidate(ctx, "uamPostTreeMap"))
	_, found, err = m.Get(ctx, "uamPostTreeMap")
	require.NoError(t, err)
	assert.False(t, found, "miss after invalidate")
}

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	r, err := NewRedis("redis://"+mr.Addr(), "uam", time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	return r, mr
}

func TestRedisGetAddInvalidate(t *testing.T) {
	r, mr := setupRedis(t)
	ctx := context.Background()

	_, found, err := r.Get(ctx, "uamTermTreeMap")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, r.Add(ctx, "uamTermTreeMap", []byte("payload")))
	assert.True(t, mr.Exists("uam:uamTermTreeMap"), "keys are namespaced under the prefix")

	value, found, err := r.Get(ctx, "uamTermTreeMap")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("payload"), value)

	require.NoError(t, r.Invalidate(ctx, "uamTermTreeMap"))
	_, found, err = r.Get(ctx, "uamTermTreeMap")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisExpiry(t *testing.T) {
	r, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, "uamPostTermMap", []byte("x")))
	mr.FastForward(2 * time.Hour)

	_, found, err := r.Get(ctx, "uamPostTermMap")
	require.NoError(t, err)
	assert.False(t, found, "entry expired after TTL")
}
