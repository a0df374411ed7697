package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAdapter_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter()

	require.NoError(t, a.Set(ctx, "k", []byte("v"), 60))

	got, err := a.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	exists, err := a.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, a.Delete(ctx, "k"))
	_, err = a.Get(ctx, "k")
	assert.Error(t, err)
}

func TestMemoryAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter()

	require.NoError(t, a.Set(ctx, "k", []byte("v"), -1))

	// expirationSeconds <= 0 means no expiry
	got, err := a.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryAdapter_LockIsExclusive(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter()

	ok, err := a.AcquireLock(ctx, "lock:reprocess:c1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.AcquireLock(ctx, "lock:reprocess:c1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// A different key is independent.
	ok, err = a.AcquireLock(ctx, "lock:reprocess:c2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryAdapter_ReleaseLockAllowsReacquire(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter()

	ok, err := a.AcquireLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, a.ReleaseLock(ctx, "lock"))

	ok, err = a.AcquireLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryAdapter_ExpiredLockReacquirable(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter()

	ok, err := a.AcquireLock(ctx, "lock", -time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.AcquireLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
