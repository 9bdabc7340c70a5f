package memory

import (
	"context"
	"testing"
	"time"

	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRepository_SetGet(t *testing.T) {
	ctx := context.Background()
	cache, err := NewCacheRepository(8)
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "recipe:1", []byte(`{"title":"Soup"}`), time.Minute))

	got, err := cache.Get(ctx, "recipe:1")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Soup"}`, string(got))

	exists, err := cache.Exists(ctx, "recipe:1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCacheRepository_Miss(t *testing.T) {
	cache, err := NewCacheRepository(8)
	require.NoError(t, err)

	_, err = cache.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
}

func TestCacheRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	cache, err := NewCacheRepository(8)
	require.NoError(t, err)

	now := time.Now()
	cache.now = func() time.Time { return now }
	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Second))

	now = now.Add(2 * time.Second)

	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
	assert.Equal(t, 0, cache.Len())
}

func TestCacheRepository_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	cache, err := NewCacheRepository(2)
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, cache.Set(ctx, "b", []byte("2"), time.Minute))
	_, err = cache.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "c", []byte("3"), time.Minute))

	_, err = cache.Get(ctx, "b")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
	_, err = cache.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestCacheRepository_Delete(t *testing.T) {
	ctx := context.Background()
	cache, err := NewCacheRepository(2)
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, "a", []byte("1"), time.Minute))

	require.NoError(t, cache.Delete(ctx, "a"))

	exists, err := cache.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCacheRepository_StoresCopies(t *testing.T) {
	ctx := context.Background()
	cache, err := NewCacheRepository(2)
	require.NoError(t, err)

	value := []byte("abc")
	require.NoError(t, cache.Set(ctx, "a", value, time.Minute))
	value[0] = 'z'

	got, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
