package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/pkg/jobs"
)

// JobReconcileTotals is the queue job type for campaign total reconciliation.
const JobReconcileTotals = "campaigns.reconcile"

type totalsAuditor interface {
	FindTotalsDrift(ctx context.Context) ([]models.TotalsDrift, error)
	RecomputeTotal(ctx context.Context, campaignID string, expected float64) (bool, error)
}

// ReconcileService corrects campaign totals that disagree with their completed donations.
type ReconcileService struct {
	repo    totalsAuditor
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewReconcileService constructs the service.
func NewReconcileService(repo totalsAuditor, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Reconcile recomputes drifted totals and returns the number corrected. A campaign whose total
// moved since the scan is skipped until the next run.
func (s *ReconcileService) Reconcile(ctx context.Context) (int, error) {
	drift, err := s.repo.FindTotalsDrift(ctx)
	if err != nil {
		return 0, err
	}
	fixed := 0
	for _, d := range drift {
		ok, err := s.repo.RecomputeTotal(ctx, d.CampaignID, d.Stored)
		if err != nil {
			return fixed, err
		}
		if !ok {
			continue
		}
		fixed++
		s.logger.Warn("campaign total corrected",
			zap.String("campaign_id", d.CampaignID),
			zap.Float64("stored", d.Stored),
			zap.Float64("computed", d.Computed),
		)
	}
	if fixed > 0 {
		s.metrics.RecordReconcileCorrections(fixed)
		_ = s.cache.Invalidate(ctx, cacheCampaignPattern)
		_ = s.cache.Invalidate(ctx, cacheDashboardKey)
	}
	return fixed, nil
}

// Handle is the queue handler for JobReconcileTotals.
func (s *ReconcileService) Handle(ctx context.Context, job jobs.Job) error {
	_, err := s.Reconcile(ctx)
	return err
}
