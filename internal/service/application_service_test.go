package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniboard/uniboard-api/internal/models"
	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
)

const testNoticeID = "0b938222-9e39-45ad-8cdf-cf3f5572059b"

type mockApplicationRepo struct {
	apps       map[string]*models.ApplicationWithRelations
	byPair     map[string]string
	lastFilter models.ApplicationFilter
	reviewed   []string
}

func newMockApplicationRepo() *mockApplicationRepo {
	return &mockApplicationRepo{
		apps:   map[string]*models.ApplicationWithRelations{},
		byPair: map[string]string{},
	}
}

func pairKey(noticeID, studentID string) string {
	return noticeID + "|" + studentID
}

func (m *mockApplicationRepo) Create(_ context.Context, app *models.Application) error {
	app.ID = fmt.Sprintf("app-%d", len(m.apps)+1)
	app.Status = models.ApplicationPending
	app.CreatedAt = time.Now().UTC()
	m.apps[app.ID] = &models.ApplicationWithRelations{
		Application: *app,
		Notice:      models.ApplicationNotice{Title: "Library assistant", Category: "jobs"},
		Student:     models.ApplicationStudent{FirstName: "Ana", LastName: "Silva", Email: "ana@example.com"},
	}
	m.byPair[pairKey(app.NoticeID, app.StudentID)] = app.ID
	return nil
}

func (m *mockApplicationRepo) FindByNoticeAndStudent(_ context.Context, noticeID, studentID string) (*models.Application, error) {
	id, ok := m.byPair[pairKey(noticeID, studentID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	app := m.apps[id].Application
	return &app, nil
}

func (m *mockApplicationRepo) FindByID(_ context.Context, id string) (*models.ApplicationWithRelations, error) {
	app, ok := m.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return app, nil
}

func (m *mockApplicationRepo) List(_ context.Context, filter models.ApplicationFilter) ([]models.ApplicationWithRelations, int, error) {
	m.lastFilter = filter
	var out []models.ApplicationWithRelations
	for _, app := range m.apps {
		if filter.StudentID != "" && app.StudentID != filter.StudentID {
			continue
		}
		out = append(out, *app)
	}
	return out, len(out), nil
}

func (m *mockApplicationRepo) UpdateStatus(_ context.Context, id string, status models.ApplicationStatus, reviewerID string, adminNotes *string) error {
	app, ok := m.apps[id]
	if !ok {
		return sql.ErrNoRows
	}
	now := time.Now().UTC()
	app.Status = status
	app.ReviewedBy = &reviewerID
	app.ReviewedAt = &now
	app.AdminNotes = adminNotes
	m.reviewed = append(m.reviewed, id)
	return nil
}

type mockApplicationNotices struct {
	notice *models.NoticeWithAuthor
}

func (m *mockApplicationNotices) FindByID(_ context.Context, id string) (*models.NoticeWithAuthor, error) {
	if m.notice == nil || m.notice.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.notice, nil
}

func openNotice() *mockApplicationNotices {
	return &mockApplicationNotices{notice: &models.NoticeWithAuthor{
		Notice: models.Notice{
			ID:       testNoticeID,
			Title:    "Library assistant",
			Category: "jobs",
			IsActive: true,
		},
	}}
}

func studentCaller(id string) *models.AuthUser {
	return &models.AuthUser{ID: id, Role: models.RoleStudent}
}

func adminCaller() *models.AuthUser {
	return &models.AuthUser{ID: "admin-1", Role: models.RoleAdmin}
}

func TestApplicationSubmitHappyPath(t *testing.T) {
	repo := newMockApplicationRepo()
	svc := NewApplicationService(repo, openNotice(), nil, nil, nil)

	app, err := svc.Submit(context.Background(), "student-1", models.CreateApplicationRequest{NoticeID: testNoticeID})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, app.Status)
	assert.Equal(t, "student-1", app.StudentID)
}

func TestApplicationSubmitRejectsDuplicate(t *testing.T) {
	repo := newMockApplicationRepo()
	svc := NewApplicationService(repo, openNotice(), nil, nil, nil)

	_, err := svc.Submit(context.Background(), "student-1", models.CreateApplicationRequest{NoticeID: testNoticeID})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), "student-1", models.CreateApplicationRequest{NoticeID: testNoticeID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestApplicationSubmitRejectsClosedNotice(t *testing.T) {
	repo := newMockApplicationRepo()
	notices := openNotice()
	expired := time.Now().Add(-time.Hour)
	notices.notice.ExpiresAt = &expired
	svc := NewApplicationService(repo, notices, nil, nil, nil)

	_, err := svc.Submit(context.Background(), "student-1", models.CreateApplicationRequest{NoticeID: testNoticeID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Contains(t, appErrors.FromError(err).Message, "no longer accepting")
}

func TestApplicationListScopesStudents(t *testing.T) {
	repo := newMockApplicationRepo()
	svc := NewApplicationService(repo, openNotice(), nil, nil, nil)

	_, _, err := svc.List(context.Background(), studentCaller("student-1"), models.ApplicationFilter{StudentID: "student-2"})
	require.NoError(t, err)
	assert.Equal(t, "student-1", repo.lastFilter.StudentID)

	_, _, err = svc.List(context.Background(), adminCaller(), models.ApplicationFilter{StudentID: "student-2"})
	require.NoError(t, err)
	assert.Equal(t, "student-2", repo.lastFilter.StudentID)
}

func TestApplicationGetGuardsOwnership(t *testing.T) {
	repo := newMockApplicationRepo()
	svc := NewApplicationService(repo, openNotice(), nil, nil, nil)

	created, err := svc.Submit(context.Background(), "student-1", models.CreateApplicationRequest{NoticeID: testNoticeID})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), studentCaller("student-2"), created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	got, err := svc.Get(context.Background(), studentCaller("student-1"), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(context.Background(), adminCaller(), created.ID)
	assert.NoError(t, err)
}

func TestApplicationReviewIsFinal(t *testing.T) {
	repo := newMockApplicationRepo()
	svc := NewApplicationService(repo, openNotice(), nil, nil, nil)

	created, err := svc.Submit(context.Background(), "student-1", models.CreateApplicationRequest{NoticeID: testNoticeID})
	require.NoError(t, err)

	reviewed, err := svc.Review(context.Background(), "admin-1", created.ID, models.ApplicationApproved, models.ReviewApplicationRequest{AdminNotes: "  looks good  "})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApproved, reviewed.Status)
	require.NotNil(t, reviewed.AdminNotes)
	assert.Equal(t, "looks good", *reviewed.AdminNotes)

	_, err = svc.Review(context.Background(), "admin-1", created.ID, models.ApplicationRejected, models.ReviewApplicationRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestApplicationReviewRejectsPendingStatus(t *testing.T) {
	repo := newMockApplicationRepo()
	svc := NewApplicationService(repo, openNotice(), nil, nil, nil)

	_, err := svc.Review(context.Background(), "admin-1", "app-1", models.ApplicationPending, models.ReviewApplicationRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApplicationExportCSV(t *testing.T) {
	repo := newMockApplicationRepo()
	svc := NewApplicationService(repo, openNotice(), nil, nil, nil)

	_, err := svc.Submit(context.Background(), "student-1", models.CreateApplicationRequest{NoticeID: testNoticeID})
	require.NoError(t, err)

	file, err := svc.Export(context.Background(), models.ApplicationFilter{}, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(file.Filename, "applications-"))

	content := string(file.Payload)
	assert.Contains(t, content, "Notice,Category,Student,Email,Student ID,Status,Submitted,Reviewed By")
	assert.Contains(t, content, "Library assistant")
	assert.Contains(t, content, "pending")
}

func TestApplicationExportPDF(t *testing.T) {
	repo := newMockApplicationRepo()
	svc := NewApplicationService(repo, openNotice(), nil, nil, nil)

	file, err := svc.Export(context.Background(), models.ApplicationFilter{}, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Payload), "%PDF"))
}

func TestApplicationExportUnknownFormat(t *testing.T) {
	repo := newMockApplicationRepo()
	svc := NewApplicationService(repo, openNotice(), nil, nil, nil)

	_, err := svc.Export(context.Background(), models.ApplicationFilter{}, ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
