package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/frahmantamala/gym-management/api"
	"github.com/frahmantamala/gym-management/internal/audit"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/member"
	"github.com/frahmantamala/gym-management/internal/membership"
	"github.com/frahmantamala/gym-management/internal/payment"
	"github.com/frahmantamala/gym-management/internal/tenant"
	"github.com/frahmantamala/gym-management/internal/transport/middleware"
	"github.com/frahmantamala/gym-management/pkg/metrics"
)

// Handlers groups the HTTP handlers mounted under /api/v1. A nil handler
// leaves its routes unmounted.
type Handlers struct {
	Auth        *auth.Handler
	Roles       *auth.RoleHandler
	Members     *member.Handler
	Memberships *membership.Handler
	Payments    *payment.Handler
	Audit       *audit.Handler
}

type Dependencies struct {
	DB             Pinger
	Sessions       middleware.IdentityResolver
	RBAC           *auth.RBACAuthorization
	OpenAPI        *middleware.OpenAPIValidator
	AuthLimiter    *middleware.RateLimiter
	AllowedOrigins string
	TrustProxy     bool
	MetricsPath    string
	Logger         *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies, h Handlers) {
	logger := deps.Logger
	healthHandler := NewHealthHandler(deps.DB, logger)
	rbac := deps.RBAC

	router.Use(middleware.RecoveryMiddleware(logger))
	if deps.TrustProxy {
		router.Use(chiMiddleware.RealIP)
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(metrics.Instrument)
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPI)
	})
	router.Handle("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yml")))

	if deps.MetricsPath != "" {
		router.Handle(deps.MetricsPath, metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Get("/ping", healthHandler.Ping)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(deps.Sessions))
			r.Use(tenant.Middleware(logger))
			if deps.OpenAPI != nil {
				r.Use(deps.OpenAPI.Middleware)
			}

			if h.Auth != nil {
				r.Route("/auth", func(ar chi.Router) {
					ar.Group(func(lr chi.Router) {
						if deps.AuthLimiter != nil {
							lr.Use(deps.AuthLimiter.Middleware)
						}
						lr.Post("/login", h.Auth.Login)
					})
					ar.Post("/logout", h.Auth.Logout)

					ar.Group(func(pr chi.Router) {
						pr.Use(middleware.RequireIdentity(logger))
						pr.Post("/logout-all", h.Auth.LogoutAll)
						pr.Get("/me", h.Auth.Me)
						pr.Put("/password", h.Auth.ChangePassword)

						pr.Group(func(cr chi.Router) {
							if deps.AuthLimiter != nil {
								cr.Use(deps.AuthLimiter.Middleware)
							}
							cr.Post("/codes", h.Auth.RequestCode)
							cr.Post("/codes/verify", h.Auth.ConfirmCode)
						})
					})
				})
			}

			// Company-scoped routes.
			r.Group(func(pr chi.Router) {
				pr.Use(middleware.RequireIdentity(logger))
				pr.Use(middleware.RequireTenant(logger))

				if h.Roles != nil {
					pr.With(rbac.Middleware(auth.PermViewRoles)).Get("/permissions", h.Roles.Permissions)
					pr.With(rbac.Middleware(auth.PermViewRoles)).Get("/roles", h.Roles.List)
					pr.With(rbac.Middleware(auth.PermManageRoles)).Post("/roles", h.Roles.Create)
					pr.With(rbac.Middleware(auth.PermManageRoles)).Put("/roles/{roleID}/permissions", h.Roles.SetPermissions)
					pr.With(rbac.Middleware(auth.PermManageRoles)).Delete("/roles/{roleID}", h.Roles.Delete)
				}

				if h.Members != nil {
					pr.Route("/members", func(mr chi.Router) {
						mr.With(rbac.Middleware(auth.PermViewMembers)).Get("/", h.Members.List)
						mr.With(rbac.Middleware(auth.PermCreateMembers)).Post("/", h.Members.Create)
						mr.With(rbac.Middleware(auth.PermViewMembers)).Get("/{memberID}", h.Members.Get)
						mr.With(rbac.Middleware(auth.PermEditMembers)).Patch("/{memberID}", h.Members.Update)
						mr.With(rbac.Middleware(auth.PermDeleteMembers)).Delete("/{memberID}", h.Members.Delete)
						if h.Memberships != nil {
							mr.With(rbac.Middleware(auth.PermViewMemberships)).Get("/{memberID}/memberships", h.Memberships.ListByMember)
						}
					})
				}

				if h.Memberships != nil {
					pr.With(rbac.Middleware(auth.PermViewPlans)).Get("/plans", h.Memberships.Plans)
					pr.With(rbac.Middleware(auth.PermManagePlans)).Post("/plans", h.Memberships.CreatePlan)

					pr.Route("/memberships", func(mr chi.Router) {
						mr.With(rbac.Middleware(auth.PermCreateMemberships)).Post("/", h.Memberships.Create)
						mr.With(rbac.Middleware(auth.PermViewMemberships)).Get("/{membershipID}", h.Memberships.Get)
						mr.With(rbac.Middleware(auth.PermViewMemberships)).Get("/{membershipID}/holds", h.Memberships.Holds)
						// The handler narrows this to the permission of the requested action.
						mr.With(rbac.RequireAny(auth.PermHoldMemberships, auth.PermResumeMemberships)).
							Post("/{membershipID}/lifecycle", h.Memberships.Lifecycle)
						if h.Payments != nil {
							mr.With(rbac.Middleware(auth.PermViewPayments)).Get("/{membershipID}/payments", h.Payments.ListByMembership)
						}
					})
				}

				if h.Payments != nil {
					pr.With(rbac.Middleware(auth.PermViewPayments)).Get("/payment-modes", h.Payments.Modes)
					pr.Route("/payments", func(pmr chi.Router) {
						pmr.With(rbac.Middleware(auth.PermCollectPayments)).Post("/", h.Payments.Create)
						pmr.With(rbac.Middleware(auth.PermViewPayments)).Get("/{paymentID}", h.Payments.Get)
						pmr.With(rbac.Middleware(auth.PermCollectPayments)).Post("/{paymentID}/collect", h.Payments.Collect)
						pmr.With(rbac.Middleware(auth.PermEditPayments)).Put("/{paymentID}/mode", h.Payments.ChangeMode)
					})
				}

				if h.Audit != nil {
					pr.With(rbac.Middleware(auth.PermViewAuditLogs)).Get("/audit-logs", h.Audit.List)
				}
			})
		})
	})
}
