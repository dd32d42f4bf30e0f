package rest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gym-management/api"
	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/internal/member"
	"github.com/frahmantamala/gym-management/internal/tenant"
	"github.com/frahmantamala/gym-management/internal/transport/middleware"
	"github.com/frahmantamala/gym-management/internal/transport/rest"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type fakeSessions struct{}

func (fakeSessions) TokenFromRequest(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (fakeSessions) Resolve(_ context.Context, token string) *identity.Identity {
	switch token {
	case "front-desk":
		return &identity.Identity{UserID: 7, TenantID: 3, RoleID: 2, RoleName: "front_desk"}
	case "trainer":
		return &identity.Identity{UserID: 8, TenantID: 3, RoleID: 4, RoleName: "trainer"}
	case "platform":
		return &identity.Identity{DisplayName: "ops", Platform: true, RoleName: identity.AdminRoleName}
	}
	return nil
}

// grants maps a role to its permissions.
type fakeAuthorizer struct {
	grants map[string][]string
}

func (f *fakeAuthorizer) AuthorizeAny(_ context.Context, id *identity.Identity, required ...string) (auth.Decision, error) {
	if id.IsAdmin() {
		return auth.Decision{Allowed: true}, nil
	}
	granted := f.grants[id.RoleName]
	for _, need := range required {
		for _, have := range granted {
			if need == have {
				return auth.Decision{Allowed: true, EffectivePermissions: granted}, nil
			}
		}
	}
	return auth.Decision{Allowed: false, EffectivePermissions: granted}, nil
}

func (f *fakeAuthorizer) AuthorizeAll(ctx context.Context, id *identity.Identity, required ...string) (auth.Decision, error) {
	for _, need := range required {
		d, err := f.AuthorizeAny(ctx, id, need)
		if err != nil || !d.Allowed {
			return d, err
		}
	}
	return auth.Decision{Allowed: true}, nil
}

type fakeMembers struct {
	companies []int64
}

func (f *fakeMembers) Create(ctx context.Context, dto member.CreateMemberDTO) (*member.Member, error) {
	return &member.Member{ID: 1, Name: dto.Name, IsActive: true}, nil
}

func (f *fakeMembers) Get(ctx context.Context, id int64) (*member.Member, error) {
	return nil, internal.NewNotFoundError("member", internal.ErrCodeMemberNotFound)
}

func (f *fakeMembers) List(ctx context.Context) ([]*member.Member, error) {
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	f.companies = append(f.companies, companyID)
	return []*member.Member{{ID: 1, Name: "Ana", IsActive: true}}, nil
}

func (f *fakeMembers) Update(ctx context.Context, id int64, dto member.UpdateMemberDTO) (*member.Member, error) {
	return nil, errors.New("not used")
}

func (f *fakeMembers) Delete(ctx context.Context, id int64) error {
	return nil
}

var _ = Describe("RegisterAllRoutes", func() {
	var (
		router  *chi.Mux
		members *fakeMembers
		pinger  fakePinger
	)

	build := func() {
		validator, err := middleware.NewOpenAPIValidator(context.Background(), api.OpenAPI, quietLogger)
		Expect(err).NotTo(HaveOccurred())

		authorizer := &fakeAuthorizer{grants: map[string][]string{
			"front_desk": {auth.PermViewMembers, auth.PermCreateMembers},
		}}

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Dependencies{
			DB:             pinger,
			Sessions:       fakeSessions{},
			RBAC:           auth.NewRBACAuthorization(authorizer, quietLogger),
			OpenAPI:        validator,
			AuthLimiter:    middleware.NewRateLimiter(5, 1, quietLogger),
			AllowedOrigins: "*",
			MetricsPath:    "/metrics",
			Logger:         quietLogger,
		}, rest.Handlers{
			Members: member.NewHandler(members, quietLogger),
		})
	}

	BeforeEach(func() {
		members = &fakeMembers{}
		pinger = fakePinger{}
		build()
	})

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("answers ping without a session", func() {
		rec := do(http.MethodGet, "/api/v1/ping", "", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get(middleware.HeaderTraceID)).NotTo(BeEmpty())
	})

	It("reports an unreachable database as unhealthy", func() {
		pinger = fakePinger{err: errors.New("dial tcp: refused")}
		build()

		rec := do(http.MethodGet, "/api/v1/health", "", "")
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(rec.Body.String()).NotTo(ContainSubstring("refused"))
	})

	It("serves the OpenAPI document", func() {
		rec := do(http.MethodGet, "/openapi.yml", "", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("openapi: 3"))
	})

	It("exposes metrics", func() {
		do(http.MethodGet, "/api/v1/ping", "", "")
		rec := do(http.MethodGet, "/metrics", "", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("rejects anonymous calls to company routes", func() {
		Expect(do(http.MethodGet, "/api/v1/members", "", "").Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects callers without the route permission", func() {
		Expect(do(http.MethodGet, "/api/v1/members", "trainer", "").Code).To(Equal(http.StatusForbidden))
	})

	It("serves permitted callers inside their own company", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
		req.Header.Set("Authorization", "Bearer front-desk")
		req.Header.Set(tenant.HeaderCompanyID, "4")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(members.companies).To(Equal([]int64{3}))
	})

	It("validates bodies before the handler runs", func() {
		rec := do(http.MethodPost, "/api/v1/members", "front-desk", `{"name":""}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("creates through the handler when the body is valid", func() {
		rec := do(http.MethodPost, "/api/v1/members", "front-desk", `{"name":"Ana"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
	})

	It("needs a company for platform tokens", func() {
		Expect(do(http.MethodGet, "/api/v1/members", "platform", "").Code).To(Equal(http.StatusForbidden))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
		req.Header.Set("Authorization", "Bearer platform")
		req.Header.Set(tenant.HeaderCompanyID, "4")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(members.companies).To(Equal([]int64{4}))
	})

	It("does not mount routes for missing handlers", func() {
		Expect(do(http.MethodGet, "/api/v1/plans", "front-desk", "").Code).To(Equal(http.StatusNotFound))
	})
})
