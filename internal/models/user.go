package models

import "time"

// UserRole represents the available roles in the role hierarchy.
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "super_admin"
)

// roleRank orders roles by privilege. Higher rank dominates lower.
var roleRank = map[UserRole]int{
	RoleStudent:    1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// IsValidRole reports whether the string names a known role.
func IsValidRole(role string) bool {
	_, ok := roleRank[UserRole(role)]
	return ok
}

// HasPermission reports whether the caller's role is at least as privileged
// as the required role. Unknown roles never pass.
func HasPermission(callerRole, requiredRole UserRole) bool {
	caller, ok := roleRank[callerRole]
	if !ok {
		return false
	}
	required, ok := roleRank[requiredRole]
	if !ok {
		return false
	}
	return caller >= required
}

// HasAnyRole reports whether the caller's role matches or dominates any of
// the allowed roles.
func HasAnyRole(callerRole UserRole, allowed []UserRole) bool {
	for _, role := range allowed {
		if callerRole == role || HasPermission(callerRole, role) {
			return true
		}
	}
	return false
}

// CanManageUser reports whether the current role may administer the target
// role's account. Super admins manage everyone, admins manage students.
func CanManageUser(currentRole, targetRole UserRole) bool {
	if currentRole == RoleSuperAdmin {
		return true
	}
	return currentRole == RoleAdmin && targetRole == RoleStudent
}

// User represents an account stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	FirstName    string    `db:"first_name" json:"firstName"`
	LastName     string    `db:"last_name" json:"lastName"`
	StudentID    *string   `db:"student_id" json:"studentId,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Public strips credential material for API responses.
func (u *User) Public() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		StudentID: u.StudentID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserPublic is the externally visible user shape.
type UserPublic struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	StudentID *string   `json:"studentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthUser is the identity the authentication middleware resolves and
// attaches to the request context for downstream handlers.
type AuthUser struct {
	ID        string
	Email     string
	Role      UserRole
	FirstName string
	LastName  string
	StudentID *string
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes page metadata from a total row count.
func NewPagination(page, pageSize, total int) *Pagination {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return &Pagination{Page: page, PageSize: pageSize, TotalCount: total, TotalPages: pages}
}

// RoleChangeLog records a role assignment for the audit trail.
type RoleChangeLog struct {
	ID           string    `db:"id" json:"id"`
	ChangedBy    string    `db:"changed_by" json:"changedBy"`
	TargetUserID string    `db:"target_user_id" json:"targetUserId"`
	OldRole      UserRole  `db:"old_role" json:"oldRole"`
	NewRole      UserRole  `db:"new_role" json:"newRole"`
	ChangedAt    time.Time `db:"changed_at" json:"changedAt"`
}
