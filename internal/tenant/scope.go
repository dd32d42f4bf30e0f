package tenant

import (
	"context"

	"gorm.io/gorm"
)

const DefaultColumn = "company_id"

// Scope restricts a gorm statement to the company in ctx. Without one the
// statement carries ErrNoTenantContext and is never executed.
func Scope(ctx context.Context) func(*gorm.DB) *gorm.DB {
	return ScopeColumn(ctx, DefaultColumn)
}

// ScopeColumn is Scope for joined queries where the tenant column needs a
// table qualifier, e.g. "memberships.company_id".
func ScopeColumn(ctx context.Context, column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		companyID, err := Require(ctx)
		if err != nil {
			_ = db.AddError(err)
			return db
		}
		return db.Where(column+" = ?", companyID)
	}
}
