package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/models"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
)

type dashboardRepository interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
	RecentCampaigns(ctx context.Context, limit int) ([]models.Campaign, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL    time.Duration
	RecentLimit int
}

// DashboardService composes the admin overview.
type DashboardService struct {
	repo   dashboardRepository
	cache  *CacheService
	logger *zap.Logger
	cfg    DashboardServiceConfig
}

// NewDashboardService constructs the service.
func NewDashboardService(repo dashboardRepository, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	return &DashboardService{repo: repo, cache: cache, logger: logger, cfg: cfg}
}

// Stats returns the headline counters and the newest campaigns. The
// result is cached briefly and dropped on any campaign or donation write.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var cached models.DashboardStats
	if hit, _ := s.cache.Get(ctx, cacheDashboardKey, &cached); hit {
		return &cached, nil
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard stats")
	}
	recent, err := s.repo.RecentCampaigns(ctx, s.cfg.RecentLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent campaigns")
	}
	if recent == nil {
		recent = []models.Campaign{}
	}
	stats.RecentCampaigns = recent

	if err := s.cache.Set(ctx, cacheDashboardKey, stats, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("dashboard cache write skipped", zap.Error(err))
	}
	return stats, nil
}
