package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/models"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
)

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if key == pattern || (strings.HasSuffix(pattern, "*") && strings.HasPrefix(key, prefix)) {
			delete(m.entries, key)
		}
	}
	return nil
}

type mockDashboardRepo struct {
	stats      models.DashboardStats
	recent     []models.Campaign
	statsCalls int
	err        error
}

func (m *mockDashboardRepo) Stats(ctx context.Context) (*models.DashboardStats, error) {
	m.statsCalls++
	if m.err != nil {
		return nil, m.err
	}
	cp := m.stats
	return &cp, nil
}

func (m *mockDashboardRepo) RecentCampaigns(ctx context.Context, limit int) ([]models.Campaign, error) {
	if len(m.recent) > limit {
		return m.recent[:limit], nil
	}
	return m.recent, nil
}

func TestDashboardStatsCachedUntilInvalidated(t *testing.T) {
	repo := &mockDashboardRepo{
		stats:  models.DashboardStats{TotalCampaigns: 3, TotalDonations: 2, TotalAmount: 150, PendingCampaigns: 1},
		recent: []models.Campaign{{ID: "c1"}, {ID: "c2"}},
	}
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(repo, cache, zap.NewNop(), DashboardServiceConfig{})

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 150.0, stats.TotalAmount)
	assert.Len(t, stats.RecentCampaigns, 2)

	repo.stats.TotalAmount = 200
	stats, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 150.0, stats.TotalAmount)
	assert.Equal(t, 1, repo.statsCalls)

	require.NoError(t, cache.Invalidate(context.Background(), cacheDashboardKey))
	stats, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200.0, stats.TotalAmount)
	assert.Equal(t, 2, repo.statsCalls)
}

func TestDashboardStatsWithoutCache(t *testing.T) {
	repo := &mockDashboardRepo{err: errors.New("db down")}
	svc := NewDashboardService(repo, nil, nil, DashboardServiceConfig{})

	_, err := svc.Stats(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	repo.err = nil
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, stats.RecentCampaigns)
}
