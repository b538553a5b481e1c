package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campussports/sportsdesk-api/internal/models"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:overview"

type dashboardTransactionRepository interface {
	SweepOverdue(ctx context.Context, studentID string, now time.Time) (int64, error)
	StatusCounts(ctx context.Context) (map[models.TransactionStatus]int, error)
	Count(ctx context.Context) (int, error)
	SportActivity(ctx context.Context) ([]models.SportActivity, error)
	ActivityTrends(ctx context.Context, since time.Time) ([]models.ActivityTrend, error)
	Recent(ctx context.Context, limit int) ([]models.LogbookEntry, error)
}

type dashboardStudentRepository interface {
	Count(ctx context.Context) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// DashboardService aggregates the admin overview, caching the composed
// payload in Redis for a short TTL.
type DashboardService struct {
	transactions dashboardTransactionRepository
	students     dashboardStudentRepository
	cache        dashboardCache
	cacheTTL     time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(transactions dashboardTransactionRepository, students dashboardStudentRepository, cache dashboardCache, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		transactions: transactions,
		students:     students,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       logger,
		now:          time.Now,
	}
}

// Overview returns the dashboard payload, serving from cache when fresh.
// The second return value reports whether the payload came from cache.
func (s *DashboardService) Overview(ctx context.Context) (*models.DashboardResponse, bool, error) {
	if s.cache != nil {
		var cached models.DashboardResponse
		hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		if hit {
			return &cached, true, nil
		}
	}

	response, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, response, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return response, false, nil
}

// Invalidate drops the cached dashboard payload so the next read recomputes.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) compose(ctx context.Context) (*models.DashboardResponse, error) {
	now := s.now().UTC()
	if _, err := s.transactions.SweepOverdue(ctx, "", now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh overdue state")
	}

	counts, err := s.transactions.StatusCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate transaction counts")
	}
	totalTxns, err := s.transactions.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count transactions")
	}
	totalStudents, err := s.students.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	bySport, err := s.transactions.SportActivity(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate sport activity")
	}
	trends, err := s.transactions.ActivityTrends(ctx, now.AddDate(0, 0, -6))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate activity trends")
	}
	recent, err := s.transactions.Recent(ctx, 10)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent transactions")
	}

	return &models.DashboardResponse{
		Stats: models.DashboardStats{
			ActiveBorrowings:  counts[models.StatusTaken],
			PendingReturns:    counts[models.StatusReturnedPendingApproval],
			OverdueEquipment:  counts[models.StatusOverdue],
			TotalStudents:     totalStudents,
			TotalTransactions: totalTxns,
		},
		EquipmentBySport:   bySport,
		ActivityTrends:     trends,
		RecentTransactions: recent,
	}, nil
}
