package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/internal/tenant"
	"github.com/frahmantamala/gym-management/internal/transport"
)

// RequireIdentity answers 401 unless Authenticate attached an identity.
func RequireIdentity(lg *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := identity.FromContext(r.Context()); !ok {
				base.HandleError(w, r, internal.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenant answers 403 when no company could be resolved for the
// request, e.g. a platform token without X-Company-ID.
func RequireTenant(lg *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := tenant.Require(r.Context()); err != nil {
				base.HandleError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePlatform admits only platform identities.
func RequirePlatform(lg *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromContext(r.Context())
			if !ok {
				base.HandleError(w, r, internal.ErrUnauthenticated)
				return
			}
			if !id.Platform {
				base.HandleError(w, r, internal.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
