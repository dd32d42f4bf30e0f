package auth

import (
	"strings"

	"github.com/frahmantamala/gym-management/internal/core/identity"
)

// Role is either AdminRole or StaffRole.
type Role interface {
	Name() string
	sealed()
}

// AdminRole holds every permission and is never stored as a list.
type AdminRole struct{}

func (AdminRole) Name() string { return identity.AdminRoleName }
func (AdminRole) sealed()      {}

type StaffRole struct {
	RoleName    string
	Permissions []string
}

func (r StaffRole) Name() string { return r.RoleName }
func (StaffRole) sealed()        {}

func IsAdminRoleName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), identity.AdminRoleName)
}

// RoleFor builds the variant for a role name. Permissions are ignored for admin.
func RoleFor(name string, permissions []string) Role {
	if IsAdminRoleName(name) {
		return AdminRole{}
	}
	return StaffRole{RoleName: name, Permissions: permissions}
}

var protectedRoleNames = map[string]bool{
	identity.AdminRoleName: true,
}

// IsProtectedRole reports whether a role may not be edited or deleted.
func IsProtectedRole(name string, flagged bool) bool {
	return flagged || protectedRoleNames[strings.ToLower(strings.TrimSpace(name))]
}
