package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/pkg/jobs"
)

type driftStub struct {
	drift      []models.TotalsDrift
	moved      map[string]bool
	recomputed []string
}

func (d *driftStub) FindTotalsDrift(ctx context.Context) ([]models.TotalsDrift, error) {
	return d.drift, nil
}

func (d *driftStub) RecomputeTotal(ctx context.Context, campaignID string, expected float64) (bool, error) {
	if d.moved[campaignID] {
		return false, nil
	}
	d.recomputed = append(d.recomputed, campaignID)
	return true, nil
}

func TestReconcileCorrectsDriftAndInvalidatesCache(t *testing.T) {
	repo := &driftStub{
		drift: []models.TotalsDrift{
			{CampaignID: "c1", Stored: 100, Computed: 150},
			{CampaignID: "c2", Stored: 80, Computed: 30},
		},
		moved: map[string]bool{"c2": true},
	}
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	require.NoError(t, cache.Set(context.Background(), cacheCampaignDetail+"c1", map[string]string{"id": "c1"}, 0))

	svc := NewReconcileService(repo, cache, NewMetricsService(), zap.NewNop())
	fixed, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)
	assert.Equal(t, []string{"c1"}, repo.recomputed)

	var cached map[string]string
	hit, err := cache.Get(context.Background(), cacheCampaignDetail+"c1", &cached)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestReconcileNoDrift(t *testing.T) {
	svc := NewReconcileService(&driftStub{}, nil, nil, nil)

	require.NoError(t, svc.Handle(context.Background(), jobs.Job{Type: JobReconcileTotals}))
}
