package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	cases := []struct {
		name     string
		caller   UserRole
		required UserRole
		want     bool
	}{
		{"student meets student", RoleStudent, RoleStudent, true},
		{"student denied admin", RoleStudent, RoleAdmin, false},
		{"student denied super admin", RoleStudent, RoleSuperAdmin, false},
		{"admin meets student", RoleAdmin, RoleStudent, true},
		{"admin meets admin", RoleAdmin, RoleAdmin, true},
		{"admin denied super admin", RoleAdmin, RoleSuperAdmin, false},
		{"super admin meets everything", RoleSuperAdmin, RoleSuperAdmin, true},
		{"super admin meets admin", RoleSuperAdmin, RoleAdmin, true},
		{"unknown caller never passes", UserRole("root"), RoleStudent, false},
		{"unknown requirement never passes", RoleSuperAdmin, UserRole("owner"), false},
		{"empty roles never pass", UserRole(""), UserRole(""), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasPermission(tc.caller, tc.required))
		})
	}
}

func TestHasAnyRole(t *testing.T) {
	assert.True(t, HasAnyRole(RoleAdmin, []UserRole{RoleStudent}))
	assert.True(t, HasAnyRole(RoleStudent, []UserRole{RoleStudent, RoleAdmin}))
	assert.False(t, HasAnyRole(RoleStudent, []UserRole{RoleAdmin, RoleSuperAdmin}))
	assert.False(t, HasAnyRole(RoleAdmin, nil))
	assert.False(t, HasAnyRole(UserRole("root"), []UserRole{RoleAdmin}))
}

func TestCanManageUser(t *testing.T) {
	assert.True(t, CanManageUser(RoleSuperAdmin, RoleSuperAdmin))
	assert.True(t, CanManageUser(RoleSuperAdmin, RoleAdmin))
	assert.True(t, CanManageUser(RoleAdmin, RoleStudent))
	assert.False(t, CanManageUser(RoleAdmin, RoleAdmin))
	assert.False(t, CanManageUser(RoleAdmin, RoleSuperAdmin))
	assert.False(t, CanManageUser(RoleStudent, RoleStudent))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole("student"))
	assert.True(t, IsValidRole("admin"))
	assert.True(t, IsValidRole("super_admin"))
	assert.False(t, IsValidRole("superadmin"))
	assert.False(t, IsValidRole("Student"))
	assert.False(t, IsValidRole(""))
}

func TestPublicStripsCredentials(t *testing.T) {
	studentID := "STU123456"
	user := User{
		ID:           "user-1",
		Email:        "ada@university.edu",
		PasswordHash: "$2a$12$secret",
		Role:         RoleStudent,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		StudentID:    &studentID,
	}

	public := user.Public()
	assert.Equal(t, user.ID, public.ID)
	assert.Equal(t, user.Email, public.Email)
	assert.Equal(t, &studentID, public.StudentID)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 35)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 10, p.PageSize)
	assert.Equal(t, 35, p.TotalCount)
	assert.Equal(t, 4, p.TotalPages)

	empty := NewPagination(1, 10, 0)
	assert.Equal(t, 0, empty.TotalPages)
}
