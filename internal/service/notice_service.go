package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniboard/uniboard-api/internal/models"
	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
)

type noticeRepository interface {
	List(ctx context.Context, filter models.NoticeFilter) ([]models.NoticeWithAuthor, int, error)
	FindByID(ctx context.Context, id string) (*models.NoticeWithAuthor, error)
	Create(ctx context.Context, notice *models.Notice) error
	Update(ctx context.Context, id string, req models.UpdateNoticeRequest) error
	Delete(ctx context.Context, id string) error
	HasApplications(ctx context.Context, noticeID string) (bool, error)
}

// NoticeService handles board notice workflows. Students get a filtered view;
// admins operate on the full board.
type NoticeService struct {
	repo      noticeRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNoticeService constructs the service.
func NewNoticeService(repo noticeRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *NoticeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoticeService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns notices visible to the caller's role. Students never see
// inactive or expired notices regardless of the requested filter.
func (s *NoticeService) List(ctx context.Context, filter models.NoticeFilter, role models.UserRole) ([]models.NoticeWithAuthor, *models.Pagination, error) {
	if !models.HasPermission(role, models.RoleAdmin) {
		active := true
		filter.IsActive = &active
		filter.IncludeExpired = false
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 50 {
		filter.PageSize = 10
	}

	notices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}
	return notices, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single notice. Students cannot fetch notices they would not
// see in a listing.
func (s *NoticeService) Get(ctx context.Context, id string, role models.UserRole) (*models.NoticeWithAuthor, error) {
	notice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
	}
	if !models.HasPermission(role, models.RoleAdmin) && !notice.AvailableAt(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Notice not found")
	}
	return notice, nil
}

// Create posts a new notice authored by the given admin.
func (s *NoticeService) Create(ctx context.Context, authorID string, req models.CreateNoticeRequest) (*models.NoticeWithAuthor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Expiration date must be in the future")
	}

	notice := &models.Notice{
		Title:     req.Title,
		Content:   req.Content,
		Category:  req.Category,
		CreatedBy: authorID,
		ExpiresAt: req.ExpiresAt,
	}
	if err := s.repo.Create(ctx, notice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notice")
	}

	s.invalidateDashboards(ctx)
	s.logger.Info("notice created", zap.String("notice_id", notice.ID), zap.String("author_id", authorID))
	return s.repo.FindByID(ctx, notice.ID)
}

// Update applies a partial update to a notice.
func (s *NoticeService) Update(ctx context.Context, id string, req models.UpdateNoticeRequest) (*models.NoticeWithAuthor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}

	if err := s.repo.Update(ctx, id, req); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notice")
	}

	s.invalidateDashboards(ctx)
	notice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload notice")
	}
	return notice, nil
}

// Delete removes a notice. Notices that already collected applications are
// deactivated instead so the application history stays intact.
func (s *NoticeService) Delete(ctx context.Context, id string) error {
	hasApps, err := s.repo.HasApplications(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check notice applications")
	}

	if hasApps {
		inactive := false
		err = s.repo.Update(ctx, id, models.UpdateNoticeRequest{IsActive: &inactive})
	} else {
		err = s.repo.Delete(ctx, id)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Notice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notice")
	}

	s.invalidateDashboards(ctx)
	s.logger.Info("notice removed", zap.String("notice_id", id), zap.Bool("deactivated", hasApps))
	return nil
}

func (s *NoticeService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
