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

const noticeColumns = `n.id, n.title, n.content, n.category, n.created_by, n.expires_at, n.is_active, n.created_at, n.updated_at,
	u.first_name AS author_first_name, u.last_name AS author_last_name, u.email AS author_email`

// noticeRow flattens the notice and author join for sqlx scanning.
type noticeRow struct {
	models.Notice
	models.NoticeAuthor
}

func (row noticeRow) toModel() models.NoticeWithAuthor {
	return models.NoticeWithAuthor{Notice: row.Notice, Author: row.NoticeAuthor}
}

// NoticeRepository provides database access for board notices.
type NoticeRepository struct {
	db *sqlx.DB
}

// NewNoticeRepository creates a new instance of NoticeRepository.
func NewNoticeRepository(db *sqlx.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// List returns notices matching the filter with their authors and the total
// count.
func (r *NoticeRepository) List(ctx context.Context, filter models.NoticeFilter) ([]models.NoticeWithAuthor, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("n.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("n.is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("n.created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(n.title ILIKE $%d OR n.content ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if !filter.IncludeExpired {
		conditions = append(conditions, "(n.expires_at IS NULL OR n.expires_at > NOW())")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM notices n %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notices: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 50 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT %s FROM notices n LEFT JOIN users u ON n.created_by = u.id %s ORDER BY n.created_at DESC LIMIT %d OFFSET %d`,
		noticeColumns, whereClause, pageSize, offset)

	var rows []noticeRow
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list notices: %w", err)
	}

	notices := make([]models.NoticeWithAuthor, 0, len(rows))
	for _, row := range rows {
		notices = append(notices, row.toModel())
	}
	return notices, total, nil
}

// FindByID returns a single notice with its author.
func (r *NoticeRepository) FindByID(ctx context.Context, id string) (*models.NoticeWithAuthor, error) {
	query := fmt.Sprintf(`SELECT %s FROM notices n LEFT JOIN users u ON n.created_by = u.id WHERE n.id = $1`, noticeColumns)
	var row noticeRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find notice by id: %w", err)
	}
	notice := row.toModel()
	return &notice, nil
}

// Create inserts a new notice.
func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	if notice.ID == "" {
		notice.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	notice.CreatedAt = now
	notice.UpdatedAt = now
	notice.IsActive = true

	const query = `INSERT INTO notices (id, title, content, category, created_by, expires_at, is_active, created_at, updated_at)
		VALUES (:id, :title, :content, :category, :created_by, :expires_at, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notice); err != nil {
		return fmt.Errorf("create notice: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of the request to the notice.
func (r *NoticeRepository) Update(ctx context.Context, id string, req models.UpdateNoticeRequest) error {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if req.Title != nil {
		add("title", *req.Title)
	}
	if req.Content != nil {
		add("content", *req.Content)
	}
	if req.Category != nil {
		add("category", *req.Category)
	}
	if req.ExpiresAt != nil {
		add("expires_at", *req.ExpiresAt)
	}
	if req.IsActive != nil {
		add("is_active", *req.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE notices SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)+1)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update notice: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a notice permanently.
func (r *NoticeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HasApplications reports whether any applications reference the notice.
func (r *NoticeRepository) HasApplications(ctx context.Context, noticeID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM applications WHERE notice_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, noticeID); err != nil {
		return false, fmt.Errorf("count notice applications: %w", err)
	}
	return count > 0, nil
}

// CountActive counts notices students can currently see.
func (r *NoticeRepository) CountActive(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM notices WHERE is_active = TRUE AND (expires_at IS NULL OR expires_at > NOW())`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count active notices: %w", err)
	}
	return count, nil
}

// CountAll counts every notice on the board.
func (r *NoticeRepository) CountAll(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM notices`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count notices: %w", err)
	}
	return count, nil
}
