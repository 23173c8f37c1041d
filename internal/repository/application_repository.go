package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniboard/uniboard-api/internal/models"
)

const applicationColumns = `a.id, a.notice_id, a.student_id, a.status, a.application_data, a.admin_notes, a.reviewed_by, a.reviewed_at, a.created_at, a.updated_at,
	n.title AS notice_title, n.category AS notice_category, n.expires_at AS notice_expires_at,
	s.first_name AS student_first_name, s.last_name AS student_last_name, s.email AS student_email, s.student_id AS student_number,
	r.first_name AS reviewer_first_name, r.last_name AS reviewer_last_name, r.email AS reviewer_email`

const applicationJoins = `FROM applications a
	JOIN notices n ON a.notice_id = n.id
	JOIN users s ON a.student_id = s.id
	LEFT JOIN users r ON a.reviewed_by = r.id`

// applicationRow flattens an application join for sqlx scanning.
type applicationRow struct {
	models.Application
	models.ApplicationNotice
	models.ApplicationStudent
	models.ApplicationReviewer
}

func (row applicationRow) toModel() models.ApplicationWithRelations {
	app := models.ApplicationWithRelations{
		Application: row.Application,
		Notice:      row.ApplicationNotice,
		Student:     row.ApplicationStudent,
	}
	if row.ApplicationReviewer.Email != nil {
		reviewer := row.ApplicationReviewer
		app.Reviewer = &reviewer
	}
	return app
}

// ApplicationRepository provides database access for notice applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository creates a new instance of ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new pending application.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	app.Status = models.ApplicationPending
	app.CreatedAt = now
	app.UpdatedAt = now

	const query = `INSERT INTO applications (id, notice_id, student_id, status, application_data, created_at, updated_at)
		VALUES (:id, :notice_id, :student_id, :status, :application_data, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// FindByNoticeAndStudent returns the student's application for a notice, if
// one exists.
func (r *ApplicationRepository) FindByNoticeAndStudent(ctx context.Context, noticeID, studentID string) (*models.Application, error) {
	const query = `SELECT id, notice_id, student_id, status, application_data, admin_notes, reviewed_by, reviewed_at, created_at, updated_at
		FROM applications WHERE notice_id = $1 AND student_id = $2`
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, noticeID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return &app, nil
}

// FindByID returns an application with its notice, student and reviewer.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.ApplicationWithRelations, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE a.id = $1`, applicationColumns, applicationJoins)
	var row applicationRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find application by id: %w", err)
	}
	app := row.toModel()
	return &app, nil
}

// List returns applications matching the filter with relations and the total
// count.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationWithRelations, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.NoticeID != "" {
		conditions = append(conditions, fmt.Sprintf("a.notice_id = $%d", len(args)+1))
		args = append(args, filter.NoticeID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM applications a %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT %s %s %s ORDER BY a.created_at DESC LIMIT %d OFFSET %d`,
		applicationColumns, applicationJoins, whereClause, pageSize, offset)

	var rows []applicationRow
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	apps := make([]models.ApplicationWithRelations, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, row.toModel())
	}
	return apps, total, nil
}

// UpdateStatus records a review decision on an application.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, reviewerID string, adminNotes *string) error {
	const query = `UPDATE applications
		SET status = $1, reviewed_by = $2, reviewed_at = $3, admin_notes = $4, updated_at = $3
		WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, status, reviewerID, time.Now().UTC(), adminNotes, id)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStudent counts a student's applications, optionally by status.
func (r *ApplicationRepository) CountByStudent(ctx context.Context, studentID string, status *models.ApplicationStatus) (int, error) {
	query := `SELECT COUNT(*) FROM applications WHERE student_id = $1`
	args := []interface{}{studentID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, *status)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count student applications: %w", err)
	}
	return count, nil
}

// CountAll counts every application.
func (r *ApplicationRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM applications`); err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return count, nil
}

// CountByStatus counts applications in the given status.
func (r *ApplicationRepository) CountByStatus(ctx context.Context, status models.ApplicationStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM applications WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("count applications by status: %w", err)
	}
	return count, nil
}
