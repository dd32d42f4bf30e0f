package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/internal/transport"
)

type PermissionAuthorizer interface {
	AuthorizeAny(ctx context.Context, id *identity.Identity, required ...string) (Decision, error)
	AuthorizeAll(ctx context.Context, id *identity.Identity, required ...string) (Decision, error)
}

type RBACAuthorization struct {
	*transport.BaseHandler
	authorizer PermissionAuthorizer
}

func NewRBACAuthorization(authorizer PermissionAuthorizer, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		authorizer:  authorizer,
	}
}

type decideFunc func(ctx context.Context, id *identity.Identity) (Decision, error)

func (ra *RBACAuthorization) check(next http.Handler, decide decideFunc, required []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.FromContext(r.Context())
		if !ok {
			ra.Logger.WarnContext(r.Context(), "authorization check failed: no identity in context")
			ra.HandleError(w, r, internal.ErrUnauthenticated)
			return
		}

		decision, err := decide(r.Context(), id)
		if err != nil {
			ra.Logger.ErrorContext(r.Context(), "authorization check failed", "error", err, "user_id", id.UserID, "required", required)
			ra.HandleError(w, r, err)
			return
		}

		if !decision.Allowed {
			ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"user_id", id.UserID,
				"role", id.RoleName,
				"required", required,
				"user_permissions", decision.EffectivePermissions)
			ra.HandleError(w, r, internal.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Middleware requires a single permission.
func (ra *RBACAuthorization) Middleware(permission string) func(http.Handler) http.Handler {
	return ra.RequireAny(permission)
}

func (ra *RBACAuthorization) RequireAny(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.check(next, func(ctx context.Context, id *identity.Identity) (Decision, error) {
			return ra.authorizer.AuthorizeAny(ctx, id, permissions...)
		}, permissions)
	}
}

func (ra *RBACAuthorization) RequireAll(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.check(next, func(ctx context.Context, id *identity.Identity) (Decision, error) {
			return ra.authorizer.AuthorizeAll(ctx, id, permissions...)
		}, permissions)
	}
}
