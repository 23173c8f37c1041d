package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniboard/uniboard-api/internal/models"
	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
)

type mockNoticeRepo struct {
	notices    map[string]*models.NoticeWithAuthor
	lastFilter models.NoticeFilter
	hasApps    bool
	deleted    []string
	updated    []models.UpdateNoticeRequest
}

func newMockNoticeRepo() *mockNoticeRepo {
	return &mockNoticeRepo{notices: map[string]*models.NoticeWithAuthor{}}
}

func (m *mockNoticeRepo) List(_ context.Context, filter models.NoticeFilter) ([]models.NoticeWithAuthor, int, error) {
	m.lastFilter = filter
	var out []models.NoticeWithAuthor
	for _, notice := range m.notices {
		out = append(out, *notice)
	}
	return out, len(out), nil
}

func (m *mockNoticeRepo) FindByID(_ context.Context, id string) (*models.NoticeWithAuthor, error) {
	notice, ok := m.notices[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return notice, nil
}

func (m *mockNoticeRepo) Create(_ context.Context, notice *models.Notice) error {
	notice.ID = "notice-new"
	notice.IsActive = true
	m.notices[notice.ID] = &models.NoticeWithAuthor{Notice: *notice}
	return nil
}

func (m *mockNoticeRepo) Update(_ context.Context, id string, req models.UpdateNoticeRequest) error {
	if _, ok := m.notices[id]; !ok {
		return sql.ErrNoRows
	}
	m.updated = append(m.updated, req)
	return nil
}

func (m *mockNoticeRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.notices[id]; !ok {
		return sql.ErrNoRows
	}
	m.deleted = append(m.deleted, id)
	delete(m.notices, id)
	return nil
}

func (m *mockNoticeRepo) HasApplications(_ context.Context, _ string) (bool, error) {
	return m.hasApps, nil
}

func seedNotice(repo *mockNoticeRepo, id string, active bool, expiresAt *time.Time) {
	repo.notices[id] = &models.NoticeWithAuthor{
		Notice: models.Notice{
			ID:       id,
			Title:    "Library assistant",
			Content:  "Part-time position at the main library.",
			Category: "jobs",
			IsActive: active,
			ExpiresAt: expiresAt,
		},
		Author: models.NoticeAuthor{FirstName: "Bea", LastName: "Costa", Email: "bea@example.com"},
	}
}

func TestNoticeListForcesStudentVisibility(t *testing.T) {
	repo := newMockNoticeRepo()
	svc := NewNoticeService(repo, nil, nil, nil)

	includeAll := false
	_, _, err := svc.List(context.Background(), models.NoticeFilter{IsActive: &includeAll, IncludeExpired: true}, models.RoleStudent)
	require.NoError(t, err)

	require.NotNil(t, repo.lastFilter.IsActive)
	assert.True(t, *repo.lastFilter.IsActive)
	assert.False(t, repo.lastFilter.IncludeExpired)
}

func TestNoticeListKeepsAdminFilter(t *testing.T) {
	repo := newMockNoticeRepo()
	svc := NewNoticeService(repo, nil, nil, nil)

	inactive := false
	_, _, err := svc.List(context.Background(), models.NoticeFilter{IsActive: &inactive, IncludeExpired: true}, models.RoleAdmin)
	require.NoError(t, err)

	require.NotNil(t, repo.lastFilter.IsActive)
	assert.False(t, *repo.lastFilter.IsActive)
	assert.True(t, repo.lastFilter.IncludeExpired)
}

func TestNoticeGetHidesUnavailableFromStudents(t *testing.T) {
	repo := newMockNoticeRepo()
	svc := NewNoticeService(repo, nil, nil, nil)

	expired := time.Now().Add(-time.Hour)
	seedNotice(repo, "notice-1", true, &expired)
	seedNotice(repo, "notice-2", false, nil)
	seedNotice(repo, "notice-3", true, nil)

	for _, id := range []string{"notice-1", "notice-2"} {
		_, err := svc.Get(context.Background(), id, models.RoleStudent)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

		// Admins still see it.
		_, err = svc.Get(context.Background(), id, models.RoleAdmin)
		assert.NoError(t, err)
	}

	notice, err := svc.Get(context.Background(), "notice-3", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "notice-3", notice.ID)
}

func TestNoticeCreateRejectsPastExpiry(t *testing.T) {
	repo := newMockNoticeRepo()
	svc := NewNoticeService(repo, nil, nil, nil)

	past := time.Now().Add(-time.Minute)
	_, err := svc.Create(context.Background(), "admin-1", models.CreateNoticeRequest{
		Title:     "Stale",
		Content:   "Already over.",
		Category:  "events",
		ExpiresAt: &past,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNoticeCreateHappyPath(t *testing.T) {
	repo := newMockNoticeRepo()
	svc := NewNoticeService(repo, nil, nil, nil)

	future := time.Now().Add(24 * time.Hour)
	notice, err := svc.Create(context.Background(), "admin-1", models.CreateNoticeRequest{
		Title:     "Job fair",
		Content:   "Annual career event.",
		Category:  "events",
		ExpiresAt: &future,
	})
	require.NoError(t, err)
	assert.Equal(t, "admin-1", notice.CreatedBy)
	assert.True(t, notice.IsActive)
}

func TestNoticeDeleteDeactivatesWhenApplied(t *testing.T) {
	repo := newMockNoticeRepo()
	svc := NewNoticeService(repo, nil, nil, nil)
	seedNotice(repo, "notice-1", true, nil)

	repo.hasApps = true
	require.NoError(t, svc.Delete(context.Background(), "notice-1"))
	assert.Empty(t, repo.deleted)
	require.Len(t, repo.updated, 1)
	require.NotNil(t, repo.updated[0].IsActive)
	assert.False(t, *repo.updated[0].IsActive)

	repo.hasApps = false
	require.NoError(t, svc.Delete(context.Background(), "notice-1"))
	assert.Equal(t, []string{"notice-1"}, repo.deleted)
}

func TestNoticeDeleteMissing(t *testing.T) {
	repo := newMockNoticeRepo()
	svc := NewNoticeService(repo, nil, nil, nil)

	err := svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
