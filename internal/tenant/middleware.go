package tenant

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/pkg/logger"
)

const HeaderCompanyID = "X-Company-ID"

// Middleware resolves the request company. The session's company always wins;
// the header is only consulted for identities without one (platform tokens,
// anonymous requests).
func Middleware(lg *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			header := strings.TrimSpace(r.Header.Get(HeaderCompanyID))

			id, ok := identity.FromContext(ctx)
			if ok && id.HasTenant() {
				if header != "" && header != strconv.FormatInt(id.TenantID, 10) {
					lg.WarnContext(ctx, "company header disagrees with session, using session company",
						"session_company_id", id.TenantID,
						"header_company_id", header,
						"user_id", id.UserID)
				}
				ctx = WithCompany(ctx, id.TenantID)
				ctx = logger.With(ctx, "company_id", id.TenantID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if header != "" {
				companyID, err := strconv.ParseInt(header, 10, 64)
				if err != nil || companyID <= 0 {
					lg.WarnContext(ctx, "ignoring malformed company header", "header_company_id", header)
				} else {
					ctx = WithCompany(ctx, companyID)
					ctx = logger.With(ctx, "company_id", companyID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
