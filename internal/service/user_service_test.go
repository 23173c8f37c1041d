package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniboard/uniboard-api/internal/models"
	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
)

type mockAdminUserRepo struct {
	users      map[string]*models.User
	roleLogs   []models.RoleChangeLog
	createErr  error
	superCount int
}

func newMockAdminUserRepo() *mockAdminUserRepo {
	return &mockAdminUserRepo{users: map[string]*models.User{}, superCount: 1}
}

func (m *mockAdminUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAdminUserRepo) Create(_ context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "user-created"
	m.users[user.ID] = user
	return nil
}

func (m *mockAdminUserRepo) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, user := range m.users {
		out = append(out, *user)
	}
	return out, len(out), nil
}

func (m *mockAdminUserRepo) UpdateRole(_ context.Context, id string, role models.UserRole) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Role = role
	return nil
}

func (m *mockAdminUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func (m *mockAdminUserRepo) CountByRole(_ context.Context, role models.UserRole) (int, error) {
	if role == models.RoleSuperAdmin {
		return m.superCount, nil
	}
	count := 0
	for _, user := range m.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func (m *mockAdminUserRepo) CreateRoleChangeLog(_ context.Context, log *models.RoleChangeLog) error {
	m.roleLogs = append(m.roleLogs, *log)
	return nil
}

func newTestUserService(repo *mockAdminUserRepo) *UserService {
	return NewUserService(repo, NewPasswordHasher(4), nil, nil)
}

func TestCreateAdminAssignsAdminRole(t *testing.T) {
	repo := newMockAdminUserRepo()
	svc := newTestUserService(repo)

	created, err := svc.CreateAdmin(context.Background(), "super-1", models.CreateAdminRequest{
		Email:     "  Bea@Example.com ",
		Password:  "Sup3rSecret!",
		FirstName: "Bea",
		LastName:  "Costa",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, created.Role)
	assert.Equal(t, "bea@example.com", created.Email)
}

func TestCreateAdminRejectsWeakPassword(t *testing.T) {
	repo := newMockAdminUserRepo()
	svc := newTestUserService(repo)

	_, err := svc.CreateAdmin(context.Background(), "super-1", models.CreateAdminRequest{
		Email:     "bea@example.com",
		Password:  "short",
		FirstName: "Bea",
		LastName:  "Costa",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWeakPassword.Code, appErrors.FromError(err).Code)
}

func TestUpdateRoleRecordsChange(t *testing.T) {
	repo := newMockAdminUserRepo()
	repo.users["user-1"] = &models.User{ID: "user-1", Role: models.RoleStudent}
	svc := newTestUserService(repo)

	updated, err := svc.UpdateRole(context.Background(), "super-1", "user-1", models.UpdateRoleRequest{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	require.Len(t, repo.roleLogs, 1)
	assert.Equal(t, models.RoleStudent, repo.roleLogs[0].OldRole)
	assert.Equal(t, models.RoleAdmin, repo.roleLogs[0].NewRole)
	assert.Equal(t, "super-1", repo.roleLogs[0].ChangedBy)
}

func TestUpdateRoleSameRoleIsNoOp(t *testing.T) {
	repo := newMockAdminUserRepo()
	repo.users["user-1"] = &models.User{ID: "user-1", Role: models.RoleAdmin}
	svc := newTestUserService(repo)

	_, err := svc.UpdateRole(context.Background(), "super-1", "user-1", models.UpdateRoleRequest{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Empty(t, repo.roleLogs)
}

func TestUpdateRoleRejectsUnknownRole(t *testing.T) {
	repo := newMockAdminUserRepo()
	svc := newTestUserService(repo)

	_, err := svc.UpdateRole(context.Background(), "super-1", "user-1", models.UpdateRoleRequest{Role: "owner"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateRoleProtectsLastSuperAdmin(t *testing.T) {
	repo := newMockAdminUserRepo()
	repo.users["super-1"] = &models.User{ID: "super-1", Role: models.RoleSuperAdmin}
	repo.superCount = 1
	svc := newTestUserService(repo)

	_, err := svc.UpdateRole(context.Background(), "super-1", "super-1", models.UpdateRoleRequest{Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// With a second super admin the demotion goes through.
	repo.superCount = 2
	updated, err := svc.UpdateRole(context.Background(), "super-2", "super-1", models.UpdateRoleRequest{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
}

func TestDeleteRefusesSelfDeletion(t *testing.T) {
	repo := newMockAdminUserRepo()
	repo.users["super-1"] = &models.User{ID: "super-1", Role: models.RoleSuperAdmin}
	svc := newTestUserService(repo)

	err := svc.Delete(context.Background(), "super-1", "super-1")
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "own account")
}

func TestDeleteProtectsLastSuperAdmin(t *testing.T) {
	repo := newMockAdminUserRepo()
	repo.users["super-1"] = &models.User{ID: "super-1", Role: models.RoleSuperAdmin}
	repo.superCount = 1
	svc := newTestUserService(repo)

	err := svc.Delete(context.Background(), "admin-1", "super-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestDeleteRemovesUser(t *testing.T) {
	repo := newMockAdminUserRepo()
	repo.users["user-1"] = &models.User{ID: "user-1", Role: models.RoleStudent}
	svc := newTestUserService(repo)

	require.NoError(t, svc.Delete(context.Background(), "super-1", "user-1"))
	assert.NotContains(t, repo.users, "user-1")

	err := svc.Delete(context.Background(), "super-1", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
