package auth

import (
	"fmt"
	"sort"
)

const (
	CategoryRead   = "read"
	CategoryWrite  = "write"
	CategoryDelete = "delete"
	CategoryManage = "manage"
)

const (
	PermViewMembers       = "view_members"
	PermCreateMembers     = "create_members"
	PermEditMembers       = "edit_members"
	PermDeleteMembers     = "delete_members"
	PermViewMemberships   = "view_memberships"
	PermCreateMemberships = "create_memberships"
	PermHoldMemberships   = "hold_memberships"
	PermResumeMemberships = "resume_memberships"
	PermViewPlans         = "view_plans"
	PermManagePlans       = "manage_plans"
	PermViewPayments      = "view_payments"
	PermCollectPayments   = "collect_payments"
	PermEditPayments      = "edit_payments"
	PermViewStaff         = "view_staff"
	PermManageStaff       = "manage_staff"
	PermViewRoles         = "view_roles"
	PermManageRoles       = "manage_roles"
	PermViewReports       = "view_reports"
	PermExportReports     = "export_reports"
	PermViewSettings      = "view_settings"
	PermEditSettings      = "edit_settings"
	PermViewAuditLogs     = "view_audit_logs"
)

// Permission is an immutable catalog entry.
type Permission struct {
	Name     string `json:"name"`
	Module   string `json:"module"`
	Category string `json:"category"`
}

var defaultPermissions = []Permission{
	{PermViewMembers, "members", CategoryRead},
	{PermCreateMembers, "members", CategoryWrite},
	{PermEditMembers, "members", CategoryWrite},
	{PermDeleteMembers, "members", CategoryDelete},
	{PermViewMemberships, "memberships", CategoryRead},
	{PermCreateMemberships, "memberships", CategoryWrite},
	{PermHoldMemberships, "memberships", CategoryManage},
	{PermResumeMemberships, "memberships", CategoryManage},
	{PermViewPlans, "plans", CategoryRead},
	{PermManagePlans, "plans", CategoryManage},
	{PermViewPayments, "payments", CategoryRead},
	{PermCollectPayments, "payments", CategoryWrite},
	{PermEditPayments, "payments", CategoryManage},
	{PermViewStaff, "staff", CategoryRead},
	{PermManageStaff, "staff", CategoryManage},
	{PermViewRoles, "roles", CategoryRead},
	{PermManageRoles, "roles", CategoryManage},
	{PermViewReports, "reports", CategoryRead},
	{PermExportReports, "reports", CategoryRead},
	{PermViewSettings, "settings", CategoryRead},
	{PermEditSettings, "settings", CategoryManage},
	{PermViewAuditLogs, "audit", CategoryRead},
}

// Catalog is built once at startup and shared read-only.
type Catalog struct {
	ordered  []Permission
	byName   map[string]Permission
	byModule map[string][]Permission
}

func NewCatalog(perms []Permission) (*Catalog, error) {
	c := &Catalog{
		ordered:  make([]Permission, 0, len(perms)),
		byName:   make(map[string]Permission, len(perms)),
		byModule: make(map[string][]Permission),
	}
	for _, p := range perms {
		if p.Name == "" || p.Module == "" {
			return nil, fmt.Errorf("permission %q needs a name and a module", p.Name)
		}
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate permission %q", p.Name)
		}
		c.ordered = append(c.ordered, p)
		c.byName[p.Name] = p
		c.byModule[p.Module] = append(c.byModule[p.Module], p)
	}
	return c, nil
}

func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultPermissions)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) IsValidPermission(name string) bool {
	_, ok := c.byName[name]
	return ok
}

func (c *Catalog) PermissionsForModule(module string) []Permission {
	perms := c.byModule[module]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

func (c *Catalog) Modules() []string {
	modules := make([]string, 0, len(c.byModule))
	for m := range c.byModule {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules
}

func (c *Catalog) All() []Permission {
	out := make([]Permission, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func (c *Catalog) Names() []string {
	names := make([]string, len(c.ordered))
	for i, p := range c.ordered {
		names[i] = p.Name
	}
	return names
}

// Known drops names the catalog doesn't define and removes duplicates.
func (c *Catalog) Known(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] || !c.IsValidPermission(n) {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
