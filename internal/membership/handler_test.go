package membership_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/membership"
)

var _ = Describe("Handler", func() {
	var (
		store      *memoryStore
		authorizer *grantAuthorizer
		router     chi.Router
		id         int64
	)

	BeforeEach(func() {
		store = newMemoryStore()
		svc := membership.NewService(store, testModes, &recordingBus{}, quietLogger)
		svc.SetClock(func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) })
		authorizer = &grantAuthorizer{grants: map[string]bool{auth.PermHoldMemberships: true}}
		h := membership.NewHandler(svc, authorizer, quietLogger)

		router = chi.NewRouter()
		router.Post("/memberships", h.Create)
		router.Get("/memberships/{membershipID}", h.Get)
		router.Get("/memberships/{membershipID}/holds", h.Holds)
		router.Post("/memberships/{membershipID}/lifecycle", h.Lifecycle)
		router.Get("/members/{memberID}/memberships", h.ListByMember)
		router.Get("/plans", h.Plans)
		router.Post("/plans", h.CreatePlan)

		created, err := svc.Create(staffContext(3), membership.CreateMembershipDTO{MemberID: 10, PlanID: 20})
		Expect(err).ToNot(HaveOccurred())
		id = created.ID
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		req = req.WithContext(staffContext(3))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	lifecyclePath := func() string {
		return "/memberships/" + itoa(id) + "/lifecycle"
	}

	It("creates a membership", func() {
		rec := do(http.MethodPost, "/memberships", `{"member_id":10,"plan_id":20,"start_date":"2024-03-05T00:00:00Z"}`)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		var body membership.Membership
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		Expect(body.EndDate).To(BeTemporally("==", day(2024, 4, 5)))
	})

	It("rejects unknown fields", func() {
		rec := do(http.MethodPost, "/memberships", `{"member_id":10,"plan_id":20,"discount":5}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns a membership", func() {
		rec := do(http.MethodGet, "/memberships/"+itoa(id), "")
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("answers 404 for a missing membership", func() {
		rec := do(http.MethodGet, "/memberships/9999", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("answers 400 for a malformed id", func() {
		rec := do(http.MethodGet, "/memberships/abc", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("holds through the lifecycle endpoint", func() {
		rec := do(http.MethodPost, lifecyclePath(), `{"action":"hold","hold_reason":"surgery","hold_duration":10,"hold_unit":"days"}`)

		Expect(rec.Code).To(Equal(http.StatusOK))
		var body membership.LifecycleResult
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		Expect(body.Success).To(BeTrue())
		Expect(body.Message).To(Equal("Membership put on hold"))

		rec = do(http.MethodGet, "/memberships/"+itoa(id)+"/holds", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var holds []membership.Hold
		Expect(json.NewDecoder(rec.Body).Decode(&holds)).To(Succeed())
		Expect(holds).To(HaveLen(1))
	})

	It("surfaces rejections as a message", func() {
		authorizer.grants[auth.PermResumeMemberships] = true
		rec := do(http.MethodPost, lifecyclePath(), `{"action":"resume"}`)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		var body membership.LifecycleResult
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		Expect(body.Success).To(BeFalse())
		Expect(body.Message).To(ContainSubstring("membership is not on hold"))
	})

	It("checks the permission of the specific action", func() {
		rec := do(http.MethodPost, lifecyclePath(), `{"action":"resume"}`)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("rejects unknown actions", func() {
		rec := do(http.MethodPost, lifecyclePath(), `{"action":"freeze"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("requires an identity", func() {
		req := httptest.NewRequest(http.MethodPost, lifecyclePath(), strings.NewReader(`{"action":"hold"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("lists memberships for a member", func() {
		rec := do(http.MethodGet, "/members/10/memberships", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var list []membership.Membership
		Expect(json.NewDecoder(rec.Body).Decode(&list)).To(Succeed())
		Expect(list).To(HaveLen(1))
	})

	It("creates and lists plans", func() {
		rec := do(http.MethodPost, "/plans", `{"name":"Annual","duration_months":12,"price":"9000"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		rec = do(http.MethodGet, "/plans", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var plans []membership.Plan
		Expect(json.NewDecoder(rec.Body).Decode(&plans)).To(Succeed())
		Expect(plans).To(HaveLen(3))
	})
})

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
