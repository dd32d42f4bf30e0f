package auth

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/audit"
	"github.com/frahmantamala/gym-management/internal/core/common/validation"
	"github.com/frahmantamala/gym-management/internal/core/datamodel/user"
	"github.com/frahmantamala/gym-management/internal/tenant"
)

var ErrProtectedRole = internal.NewForbiddenError("this role is protected and cannot be modified", internal.ErrCodeProtectedRole)

type RoleService struct {
	repo    RoleRepositoryAPI
	catalog *Catalog
	logger  *slog.Logger
}

func NewRoleService(repo RoleRepositoryAPI, catalog *Catalog, lg *slog.Logger) *RoleService {
	if lg == nil {
		lg = slog.Default()
	}
	return &RoleService{repo: repo, catalog: catalog, logger: lg}
}

func (s *RoleService) Catalog() *Catalog {
	return s.catalog
}

func (s *RoleService) List(ctx context.Context) ([]RoleView, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, wrapRepoError(err, "failed to list roles")
	}
	for i := range roles {
		if IsAdminRoleName(roles[i].Name) {
			roles[i].Permissions = s.catalog.Names()
			continue
		}
		roles[i].Permissions = s.catalog.Known(roles[i].Permissions)
	}
	return roles, nil
}

func (s *RoleService) Create(ctx context.Context, dto RoleDTO) (*RoleView, error) {
	name := strings.TrimSpace(dto.Name)
	v := validation.NewValidator()
	v.Field("name", name).Required().MaxLength(64)
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if IsProtectedRole(name, false) {
		return nil, internal.NewConflictError("role name is reserved", internal.ErrCodeProtectedRole)
	}

	perms, err := s.checkPermissions(dto.Permissions)
	if err != nil {
		return nil, err
	}

	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	role := &user.Role{CompanyID: companyID, Name: name}

	entry, err := audit.NewEntry(ctx, "role.created", audit.EntityRole, 0, map[string]interface{}{
		"name":        name,
		"permissions": perms,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateRole(ctx, role, perms, entry); err != nil {
		if internal.IsUniqueViolation(err) {
			return nil, internal.NewConflictError("a role with this name already exists", internal.ErrCodeValidationFailed)
		}
		return nil, wrapRepoError(err, "failed to create role")
	}

	return &RoleView{ID: role.ID, Name: role.Name, Permissions: perms}, nil
}

// SetPermissions replaces the permission set of a non-protected role.
func (s *RoleService) SetPermissions(ctx context.Context, roleID int64, dto RolePermissionsDTO) (*RoleView, error) {
	role, err := s.mutableRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	perms, err := s.checkPermissions(dto.Permissions)
	if err != nil {
		return nil, err
	}

	entry, err := audit.NewEntry(ctx, "role.permissions_updated", audit.EntityRole, role.ID, map[string]interface{}{
		"name":        role.Name,
		"permissions": perms,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplacePermissions(ctx, role, perms, entry); err != nil {
		return nil, wrapRepoError(err, "failed to update role permissions")
	}

	s.logger.InfoContext(ctx, "role permissions updated", "role_id", role.ID, "count", len(perms))
	return &RoleView{ID: role.ID, Name: role.Name, Permissions: perms}, nil
}

func (s *RoleService) Delete(ctx context.Context, roleID int64) error {
	role, err := s.mutableRole(ctx, roleID)
	if err != nil {
		return err
	}

	entry, err := audit.NewEntry(ctx, "role.deleted", audit.EntityRole, role.ID, map[string]interface{}{
		"name": role.Name,
	})
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRole(ctx, role, entry); err != nil {
		return wrapRepoError(err, "failed to delete role")
	}
	return nil
}

// mutableRole loads a role in the current company and rejects protected ones,
// whoever the caller is.
func (s *RoleService) mutableRole(ctx context.Context, roleID int64) (*user.Role, error) {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return nil, wrapRepoError(err, "failed to load role")
	}
	if IsProtectedRole(role.Name, role.IsProtected) {
		s.logger.WarnContext(ctx, "attempt to modify protected role", "role_id", role.ID, "role", role.Name)
		return nil, ErrProtectedRole
	}
	return role, nil
}

func (s *RoleService) checkPermissions(names []string) ([]string, error) {
	var unknown []string
	for _, n := range names {
		if !s.catalog.IsValidPermission(n) {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, internal.NewValidationError("unknown permissions: "+strings.Join(unknown, ", "), internal.ErrCodeUnknownPermission)
	}
	return s.catalog.Known(names), nil
}

func wrapRepoError(err error, message string) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	return internal.NewInternalError(message, err)
}
