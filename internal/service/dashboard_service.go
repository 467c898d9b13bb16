package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/labdesk/lab-ledger-api/internal/models"
	appErrors "github.com/labdesk/lab-ledger-api/pkg/errors"
)

// recentEntriesLimit caps the activity feed on the dashboard.
const recentEntriesLimit = 10

type dashboardEntryRepository interface {
	CountByDate(ctx context.Context, date string) (int, error)
	CountOpenByDate(ctx context.Context, date string) (int, error)
	List(ctx context.Context, filter models.EntryFilter) ([]models.EntryDetail, error)
}

type dashboardStudentRepository interface {
	Count(ctx context.Context) (int, error)
}

// DashboardService composes the admin dashboard summary for the current
// day, serving from cache when a fresh copy exists.
type DashboardService struct {
	entries  dashboardEntryRepository
	students dashboardStudentRepository
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
	cacheTTL time.Duration
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(entries dashboardEntryRepository, students dashboardStudentRepository, cache *CacheService, logger *zap.Logger, cacheTTL time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &DashboardService{
		entries:  entries,
		students: students,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
		cacheTTL: cacheTTL,
	}
}

// Summary returns the dashboard payload and indicates cache utilisation.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, bool, error) {
	date := s.now().Format("2006-01-02")
	cacheKey := fmt.Sprintf("dash:summary:%s", date)
	if summary, hit, err := s.tryCache(ctx, cacheKey); err != nil {
		return nil, false, err
	} else if hit {
		return summary, true, nil
	}

	summary, err := s.compose(ctx, date)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, cacheKey, summary)
	return summary, false, nil
}

func (s *DashboardService) tryCache(ctx context.Context, key string) (*models.DashboardSummary, bool, error) {
	if s.cache == nil {
		return nil, false, nil
	}
	var cached models.DashboardSummary
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		return nil, false, err
	}
	if hit {
		return &cached, true, nil
	}
	return nil, false, nil
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *DashboardService) compose(ctx context.Context, date string) (*models.DashboardSummary, error) {
	todayCount, err := s.entries.CountByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count today's entries")
	}
	openCount, err := s.entries.CountOpenByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count open entries")
	}
	studentCount, err := s.students.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	recent, err := s.entries.List(ctx, models.EntryFilter{Date: date, Limit: recentEntriesLimit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent entries")
	}

	return &models.DashboardSummary{
		Date:         date,
		TodayCount:   todayCount,
		OpenCount:    openCount,
		StudentCount: studentCount,
		Recent:       recent,
	}, nil
}
