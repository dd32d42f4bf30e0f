// Package tenant scopes data access to the company a request belongs to.
package tenant

import (
	"context"

	"github.com/frahmantamala/gym-management/internal"
)

type ctxKey struct{}

func WithCompany(ctx context.Context, companyID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, companyID)
}

func CompanyID(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(ctxKey{}).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// Require returns the company in ctx or ErrNoTenantContext. Callers must not
// fall back to an unscoped query on error.
func Require(ctx context.Context) (int64, error) {
	id, ok := CompanyID(ctx)
	if !ok {
		return 0, internal.ErrNoTenantContext
	}
	return id, nil
}
