package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniboard/uniboard-api/internal/models"
	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
)

type userAdminRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
	CreateRoleChangeLog(ctx context.Context, log *models.RoleChangeLog) error
}

// UserService covers the super-admin user management surface.
type UserService struct {
	repo      userAdminRepository
	hasher    *PasswordHasher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(repo userAdminRepository, hasher *PasswordHasher, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, hasher: hasher, validator: validate, logger: logger}
}

// List returns users matching the filter with pagination.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.UserPublic, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	public := make([]models.UserPublic, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	return public, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// CreateAdmin provisions an admin account. Only super admins reach this.
func (s *UserService) CreateAdmin(ctx context.Context, creatorID string, req models.CreateAdminRequest) (*models.UserPublic, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, mapRegistrationValidation(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin")
	}

	s.logger.Info("admin account created",
		zap.String("user_id", user.ID),
		zap.String("created_by", creatorID))
	public := user.Public()
	return &public, nil
}

// UpdateRole reassigns a user's role and records the change. Demoting the
// last super admin is refused so the system cannot lock itself out.
func (s *UserService) UpdateRole(ctx context.Context, actorID, targetID string, req models.UpdateRoleRequest) (*models.UserPublic, error) {
	if !models.IsValidRole(string(req.Role)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Role must be student, admin, or super_admin")
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if target.Role == req.Role {
		public := target.Public()
		return &public, nil
	}

	if target.Role == models.RoleSuperAdmin && req.Role != models.RoleSuperAdmin {
		count, err := s.repo.CountByRole(ctx, models.RoleSuperAdmin)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count super admins")
		}
		if count <= 1 {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Cannot demote the last super admin")
		}
	}

	if err := s.repo.UpdateRole(ctx, targetID, req.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}

	if err := s.repo.CreateRoleChangeLog(ctx, &models.RoleChangeLog{
		ChangedBy:    actorID,
		TargetUserID: targetID,
		OldRole:      target.Role,
		NewRole:      req.Role,
	}); err != nil {
		s.logger.Warn("failed to record role change", zap.Error(err))
	}

	s.logger.Info("user role updated",
		zap.String("target_id", targetID),
		zap.String("old_role", string(target.Role)),
		zap.String("new_role", string(req.Role)),
		zap.String("changed_by", actorID))

	target.Role = req.Role
	public := target.Public()
	return &public, nil
}

// Delete removes a user account. Self-deletion is refused, as is removing
// the last super admin.
func (s *UserService) Delete(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return appErrors.Clone(appErrors.ErrValidation, "Cannot delete your own account")
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if target.Role == models.RoleSuperAdmin {
		count, err := s.repo.CountByRole(ctx, models.RoleSuperAdmin)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count super admins")
		}
		if count <= 1 {
			return appErrors.Clone(appErrors.ErrConflict, "Cannot delete the last super admin")
		}
	}

	if err := s.repo.Delete(ctx, targetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.logger.Info("user deleted",
		zap.String("target_id", targetID),
		zap.String("deleted_by", actorID))
	return nil
}
