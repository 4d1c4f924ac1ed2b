package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingCacheRepo struct{}

func (failingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("redis unavailable")
}

func (failingCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("redis unavailable")
}

func (failingCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	return errors.New("redis unavailable")
}

func TestCacheServiceRoundTripAndInvalidate(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, cacheCampaignList+"page=1", []string{"c1"}, 0))
	require.NoError(t, cache.Set(ctx, cacheDashboardKey, map[string]int{"totalCampaigns": 1}, 0))

	var ids []string
	hit, err := cache.Get(ctx, cacheCampaignList+"page=1", &ids)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"c1"}, ids)

	require.NoError(t, cache.Invalidate(ctx, cacheCampaignPattern))
	hit, err = cache.Get(ctx, cacheCampaignList+"page=1", &ids)
	require.NoError(t, err)
	assert.False(t, hit)

	var stats map[string]int
	hit, err = cache.Get(ctx, cacheDashboardKey, &stats)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestCacheServiceDisabledAndNil(t *testing.T) {
	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	assert.NoError(t, nilCache.Invalidate(context.Background(), cacheCampaignPattern))

	disabled := NewCacheService(newMemoryCacheRepo(), nil, 0, nil, false)
	hit, err := disabled.Get(context.Background(), "k", &struct{}{})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	cache := NewCacheService(failingCacheRepo{}, nil, time.Minute, zap.NewNop(), true)

	_, err := cache.Get(context.Background(), "k", &struct{}{})
	assert.Error(t, err)
	assert.Error(t, cache.Set(context.Background(), "k", 1, 0))
	assert.Error(t, cache.Invalidate(context.Background(), "k*"))
}
