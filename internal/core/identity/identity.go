// Package identity carries the authenticated principal through a request.
package identity

import (
	"context"
	"strings"
)

const AdminRoleName = "admin"

// Identity is the resolved principal behind a session token. Platform
// identities act above the tenant boundary and carry no TenantID.
type Identity struct {
	UserID      int64
	TenantID    int64
	RoleID      int64
	RoleName    string
	DisplayName string
	SessionID   string
	Platform    bool
}

func (i *Identity) IsAdmin() bool {
	return i != nil && strings.EqualFold(strings.TrimSpace(i.RoleName), AdminRoleName)
}

func (i *Identity) HasTenant() bool {
	return i != nil && i.TenantID > 0
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}
