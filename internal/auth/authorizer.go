package auth

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/internal/tenant"
	"github.com/frahmantamala/gym-management/pkg/metrics"
)

// PermissionLoader returns the permission names granted to a role within the
// company in ctx.
type PermissionLoader interface {
	RolePermissions(ctx context.Context, roleID int64) ([]string, error)
}

type Decision struct {
	Allowed              bool     `json:"allowed"`
	EffectivePermissions []string `json:"effective_permissions"`
}

type Authorizer struct {
	catalog *Catalog
	loader  PermissionLoader
	logger  *slog.Logger
}

func NewAuthorizer(catalog *Catalog, loader PermissionLoader, lg *slog.Logger) *Authorizer {
	if lg == nil {
		lg = slog.Default()
	}
	return &Authorizer{catalog: catalog, loader: loader, logger: lg}
}

func (a *Authorizer) Catalog() *Catalog {
	return a.catalog
}

// RoleOf resolves the identity's role variant, loading staff permissions.
func (a *Authorizer) RoleOf(ctx context.Context, id *identity.Identity) (Role, error) {
	if id == nil {
		return nil, internal.ErrUnauthenticated
	}
	if id.IsAdmin() {
		return AdminRole{}, nil
	}
	if !id.HasTenant() {
		return StaffRole{RoleName: id.RoleName}, nil
	}

	scoped := tenant.WithCompany(ctx, id.TenantID)
	names, err := a.loader.RolePermissions(scoped, id.RoleID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load role permissions", err)
	}
	return StaffRole{RoleName: id.RoleName, Permissions: a.catalog.Known(names)}, nil
}

// EffectivePermissions is the full catalog for admin, otherwise the role's
// permissions that still exist in the catalog.
func (a *Authorizer) EffectivePermissions(ctx context.Context, id *identity.Identity) ([]string, error) {
	role, err := a.RoleOf(ctx, id)
	if err != nil {
		return nil, err
	}
	switch r := role.(type) {
	case AdminRole:
		return a.catalog.Names(), nil
	case StaffRole:
		if r.Permissions == nil {
			return []string{}, nil
		}
		return r.Permissions, nil
	}
	return []string{}, nil
}

func (a *Authorizer) Authorize(ctx context.Context, id *identity.Identity, required string) (Decision, error) {
	return a.AuthorizeAny(ctx, id, required)
}

// AuthorizeAny allows when any of the alternatives is granted.
func (a *Authorizer) AuthorizeAny(ctx context.Context, id *identity.Identity, required ...string) (Decision, error) {
	effective, err := a.EffectivePermissions(ctx, id)
	if err != nil {
		metrics.AuthorizationDecisions.WithLabelValues("error").Inc()
		return Decision{}, err
	}

	allowed := HasAnyPermission(effective, required, id.RoleName)
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	metrics.AuthorizationDecisions.WithLabelValues(outcome).Inc()

	return Decision{Allowed: allowed, EffectivePermissions: effective}, nil
}

// AuthorizeAll allows only when every permission is granted.
func (a *Authorizer) AuthorizeAll(ctx context.Context, id *identity.Identity, required ...string) (Decision, error) {
	effective, err := a.EffectivePermissions(ctx, id)
	if err != nil {
		metrics.AuthorizationDecisions.WithLabelValues("error").Inc()
		return Decision{}, err
	}
	allowed := HasAllPermissions(effective, required, id.RoleName)
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	metrics.AuthorizationDecisions.WithLabelValues(outcome).Inc()
	return Decision{Allowed: allowed, EffectivePermissions: effective}, nil
}
