package middleware

import (
	"context"
	"net/http"

	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/pkg/logger"
)

// IdentityResolver turns a request's session token into an identity.
type IdentityResolver interface {
	TokenFromRequest(r *http.Request) string
	Resolve(ctx context.Context, token string) *identity.Identity
}

// Authenticate attaches the resolved identity, if any. Requests without a
// valid session pass through anonymous; RequireIdentity rejects them.
func Authenticate(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := resolver.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			id := resolver.Resolve(r.Context(), token)
			if id == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := identity.WithIdentity(r.Context(), id)
			if id.Platform {
				ctx = logger.With(ctx, "platform", true, "subject", id.DisplayName)
			} else {
				ctx = logger.With(ctx, "user_id", id.UserID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
