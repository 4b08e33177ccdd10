package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bookflix/internal/config"
	"github.com/magabrotheeeer/bookflix/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache, err := InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := []*models.Tier{
		{ID: 1, Name: "FREE", Duration: "7D"},
		{ID: 2, Name: "BOOKWORM", PriceUSD: 9.99, PaymentRequired: true, Duration: "30D"},
	}
	require.NoError(t, cache.Set(ctx, TiersKey, expected, time.Minute))

	var actual []*models.Tier
	found, err := cache.Get(ctx, TiersKey, &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out []*models.Book
	found, err := cache.Get(context.Background(), TrendingKey, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExpiration(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, NewReleasesKey, []string{"a"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var out []string
	found, err := cache.Get(ctx, NewReleasesKey, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, TrendingKey, "value", time.Minute))
	require.NoError(t, cache.Set(ctx, NewReleasesKey, "value", time.Minute))
	require.NoError(t, cache.Invalidate(ctx, TrendingKey, NewReleasesKey))

	var out string
	found, err := cache.Get(ctx, TrendingKey, &out)
	require.NoError(t, err)
	assert.False(t, found)
	found, err = cache.Get(ctx, NewReleasesKey, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, mr := setupTestCache(t)
	require.NoError(t, mr.Set("bad", "not-json"))

	var out []string
	found, err := cache.Get(context.Background(), "bad", &out)
	require.Error(t, err)
	assert.False(t, found)
}

func TestInitServer_Unreachable(t *testing.T) {
	_, err := InitServer(context.Background(), config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
	})
	require.Error(t, err)
}
