package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniboard/uniboard-api/internal/models"
	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
	"github.com/uniboard/uniboard-api/pkg/export"
)

type applicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	FindByNoticeAndStudent(ctx context.Context, noticeID, studentID string) (*models.Application, error)
	FindByID(ctx context.Context, id string) (*models.ApplicationWithRelations, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationWithRelations, int, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, reviewerID string, adminNotes *string) error
}

type applicationNoticeRepository interface {
	FindByID(ctx context.Context, id string) (*models.NoticeWithAuthor, error)
}

// ExportFormat names a supported applications export encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered applications export ready to stream to a client.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ApplicationService handles student submissions and admin reviews.
type ApplicationService struct {
	repo      applicationRepository
	notices   applicationNoticeRepository
	cache     *CacheService
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApplicationService constructs the service.
func NewApplicationService(repo applicationRepository, notices applicationNoticeRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{
		repo:      repo,
		notices:   notices,
		cache:     cache,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// Submit creates a pending application for the student. The notice must be
// active and unexpired, and a student applies at most once per notice.
func (s *ApplicationService) Submit(ctx context.Context, studentID string, req models.CreateApplicationRequest) (*models.ApplicationWithRelations, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	notice, err := s.notices.FindByID(ctx, req.NoticeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
	}
	if !notice.AvailableAt(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Notice is no longer accepting applications")
	}

	if _, err := s.repo.FindByNoticeAndStudent(ctx, req.NoticeID, studentID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "You have already applied to this notice")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing application")
	}

	app := &models.Application{
		NoticeID:  req.NoticeID,
		StudentID: studentID,
		Data:      req.Data,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}

	s.invalidateDashboards(ctx)
	s.logger.Info("application submitted",
		zap.String("application_id", app.ID),
		zap.String("notice_id", req.NoticeID),
		zap.String("student_id", studentID))
	return s.repo.FindByID(ctx, app.ID)
}

// List returns applications visible to the caller. Students only ever see
// their own; admins see everything the filter matches.
func (s *ApplicationService) List(ctx context.Context, caller *models.AuthUser, filter models.ApplicationFilter) ([]models.ApplicationWithRelations, *models.Pagination, error) {
	if !models.HasPermission(caller.Role, models.RoleAdmin) {
		filter.StudentID = caller.ID
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	apps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one application. Students may only read their own.
func (s *ApplicationService) Get(ctx context.Context, caller *models.AuthUser, id string) (*models.ApplicationWithRelations, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if !models.HasPermission(caller.Role, models.RoleAdmin) && app.StudentID != caller.ID {
		return nil, appErrors.ErrForbidden
	}
	return app, nil
}

// Review records an approve or reject decision. Pending applications only;
// a decision is final.
func (s *ApplicationService) Review(ctx context.Context, reviewerID, id string, status models.ApplicationStatus, req models.ReviewApplicationRequest) (*models.ApplicationWithRelations, error) {
	if status != models.ApplicationApproved && status != models.ApplicationRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Status must be approved or rejected")
	}

	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app.Status != models.ApplicationPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Application has already been reviewed")
	}

	var notes *string
	if trimmed := strings.TrimSpace(req.AdminNotes); trimmed != "" {
		notes = &trimmed
	}
	if err := s.repo.UpdateStatus(ctx, id, status, reviewerID, notes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application")
	}

	s.invalidateDashboards(ctx)
	s.logger.Info("application reviewed",
		zap.String("application_id", id),
		zap.String("status", string(status)),
		zap.String("reviewer_id", reviewerID))
	return s.repo.FindByID(ctx, id)
}

// Export renders the applications matching the filter as CSV or PDF.
func (s *ApplicationService) Export(ctx context.Context, filter models.ApplicationFilter, format ExportFormat) (*ExportFile, error) {
	filter.Page = 1
	filter.PageSize = 1000

	apps, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load applications for export")
	}

	dataset := buildApplicationDataset(apps)
	stamp := time.Now().UTC().Format("20060102-150405")

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("applications-%s.csv", stamp),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Applications Report")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("applications-%s.pdf", stamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "Format must be csv or pdf")
	}
}

func buildApplicationDataset(apps []models.ApplicationWithRelations) export.Dataset {
	headers := []string{"Notice", "Category", "Student", "Email", "Student ID", "Status", "Submitted", "Reviewed By"}
	rows := make([]map[string]string, 0, len(apps))
	for _, app := range apps {
		studentNumber := ""
		if app.Student.StudentID != nil {
			studentNumber = *app.Student.StudentID
		}
		reviewer := ""
		if app.Reviewer != nil && app.Reviewer.FirstName != nil && app.Reviewer.LastName != nil {
			reviewer = fmt.Sprintf("%s %s", *app.Reviewer.FirstName, *app.Reviewer.LastName)
		}
		rows = append(rows, map[string]string{
			"Notice":      app.Notice.Title,
			"Category":    app.Notice.Category,
			"Student":     fmt.Sprintf("%s %s", app.Student.FirstName, app.Student.LastName),
			"Email":       app.Student.Email,
			"Student ID":  studentNumber,
			"Status":      string(app.Status),
			"Submitted":   app.CreatedAt.UTC().Format(time.RFC3339),
			"Reviewed By": reviewer,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func (s *ApplicationService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
