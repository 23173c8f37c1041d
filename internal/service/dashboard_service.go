package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uniboard/uniboard-api/internal/models"
	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
)

type dashboardNoticeCounter interface {
	CountActive(ctx context.Context) (int, error)
	CountAll(ctx context.Context) (int, error)
}

type dashboardApplicationCounter interface {
	CountByStudent(ctx context.Context, studentID string, status *models.ApplicationStatus) (int, error)
	CountAll(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status models.ApplicationStatus) (int, error)
}

// DashboardService composes the per-role dashboard summaries. Payloads are
// cached; writes to notices and applications invalidate them.
type DashboardService struct {
	notices      dashboardNoticeCounter
	applications dashboardApplicationCounter
	cache        *CacheService
	cacheTTL     time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(notices dashboardNoticeCounter, applications dashboardApplicationCounter, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		notices:      notices,
		applications: applications,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       logger,
		now:          time.Now,
	}
}

// StudentDashboard returns the student's personal summary.
func (s *DashboardService) StudentDashboard(ctx context.Context, studentID string) (*models.StudentDashboard, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%s", studentID)
	var cached models.StudentDashboard
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	activeNotices, err := s.notices.CountActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notices")
	}

	totalApps, err := s.applications.CountByStudent(ctx, studentID, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count applications")
	}

	approved := models.ApplicationApproved
	approvedApps, err := s.applications.CountByStudent(ctx, studentID, &approved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count approved applications")
	}

	dashboard := &models.StudentDashboard{
		ActiveNotices:        activeNotices,
		TotalApplications:    totalApps,
		ApprovedApplications: approvedApps,
	}
	if err := s.cache.Set(ctx, cacheKey, dashboard, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache student dashboard", zap.Error(err))
	}
	return dashboard, nil
}

// AdminDashboard returns the board-wide summary for admins.
func (s *DashboardService) AdminDashboard(ctx context.Context) (*models.AdminDashboard, error) {
	const cacheKey = "dashboard:admin"
	var cached models.AdminDashboard
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	totalNotices, err := s.notices.CountAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notices")
	}

	totalApps, err := s.applications.CountAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count applications")
	}

	pending, err := s.applications.CountByStatus(ctx, models.ApplicationPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending applications")
	}

	approved, err := s.applications.CountByStatus(ctx, models.ApplicationApproved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count approved applications")
	}

	dashboard := &models.AdminDashboard{
		TotalNotices:         totalNotices,
		TotalApplications:    totalApps,
		PendingApplications:  pending,
		ApprovedApplications: approved,
	}
	if err := s.cache.Set(ctx, cacheKey, dashboard, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache admin dashboard", zap.Error(err))
	}
	return dashboard, nil
}
