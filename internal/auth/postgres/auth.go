package postgres

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/frahmantamala/gym-management/internal"
	auditpg "github.com/frahmantamala/gym-management/internal/audit/postgres"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/gym-management/internal/core/datamodel/user"
	"github.com/frahmantamala/gym-management/internal/tenant"
)

// PermissionRepository loads role permissions through the tenant guard.
type PermissionRepository struct {
	guard *tenant.Guard
}

func NewPermissionRepository(db *sqlx.DB) *PermissionRepository {
	return &PermissionRepository{guard: tenant.NewGuard(db)}
}

func (r *PermissionRepository) RolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	names := []string{}
	err := r.guard.Select(ctx, &names, "rp.company_id",
		`SELECT p.name FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id WHERE rp.role_id = ?`,
		roleID)
	if err != nil {
		return nil, err
	}
	return names, nil
}

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) ListRoles(ctx context.Context) ([]auth.RoleView, error) {
	var roles []user.Role
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(ctx)).Order("name").Find(&roles).Error; err != nil {
		return nil, err
	}

	type grant struct {
		RoleID int64
		Name   string
	}
	var grants []grant
	err := r.db.WithContext(ctx).
		Table("role_permissions AS rp").
		Select("rp.role_id, p.name").
		Joins("JOIN permissions p ON p.id = rp.permission_id").
		Scopes(tenant.ScopeColumn(ctx, "rp.company_id")).
		Order("p.name").
		Scan(&grants).Error
	if err != nil {
		return nil, err
	}

	byRole := make(map[int64][]string)
	for _, g := range grants {
		byRole[g.RoleID] = append(byRole[g.RoleID], g.Name)
	}

	views := make([]auth.RoleView, 0, len(roles))
	for _, role := range roles {
		views = append(views, auth.RoleView{
			ID:          role.ID,
			Name:        role.Name,
			IsProtected: role.IsProtected,
			Permissions: byRole[role.ID],
		})
	}
	return views, nil
}

func (r *RoleRepository) GetRole(ctx context.Context, roleID int64) (*user.Role, error) {
	var role user.Role
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(ctx)).Where("id = ?", roleID).Take(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
		}
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) CreateRole(ctx context.Context, role *user.Role, permissions []string, entry *audit.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(role).Error; err != nil {
			return err
		}
		if err := insertGrants(tx, role, permissions); err != nil {
			return err
		}
		entry.EntityID = role.ID
		return auditpg.NewRepository(tx).Append(ctx, entry)
	})
}

func (r *RoleRepository) ReplacePermissions(ctx context.Context, role *user.Role, permissions []string, entry *audit.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ? AND company_id = ?", role.ID, role.CompanyID).
			Delete(&user.RolePermission{}).Error; err != nil {
			return err
		}
		if err := insertGrants(tx, role, permissions); err != nil {
			return err
		}
		return auditpg.NewRepository(tx).Append(ctx, entry)
	})
}

func (r *RoleRepository) DeleteRole(ctx context.Context, role *user.Role, entry *audit.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assigned int64
		if err := tx.Model(&user.User{}).Where("role_id = ?", role.ID).Count(&assigned).Error; err != nil {
			return err
		}
		if assigned > 0 {
			return internal.NewConflictError("role is still assigned to staff", internal.ErrCodeValidationFailed)
		}
		if err := tx.Where("role_id = ? AND company_id = ?", role.ID, role.CompanyID).
			Delete(&user.RolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ? AND company_id = ?", role.ID, role.CompanyID).Delete(&user.Role{}).Error; err != nil {
			return err
		}
		return auditpg.NewRepository(tx).Append(ctx, entry)
	})
}

func insertGrants(tx *gorm.DB, role *user.Role, permissions []string) error {
	if len(permissions) == 0 {
		return nil
	}
	var perms []user.Permission
	if err := tx.Where("name IN ?", permissions).Find(&perms).Error; err != nil {
		return err
	}
	grants := make([]user.RolePermission, 0, len(perms))
	for _, p := range perms {
		grants = append(grants, user.RolePermission{
			CompanyID:    role.CompanyID,
			RoleID:       role.ID,
			PermissionID: p.ID,
		})
	}
	if len(grants) == 0 {
		return nil
	}
	return tx.Create(&grants).Error
}
