package member_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gym-management/internal/member"
)

var _ = Describe("Handler", func() {
	var (
		repo   *mockRepository
		router chi.Router
	)

	BeforeEach(func() {
		repo = newMockRepository()
		h := member.NewHandler(member.NewService(repo, quietLogger), quietLogger)

		router = chi.NewRouter()
		router.Get("/members", h.List)
		router.Post("/members", h.Create)
		router.Get("/members/{memberID}", h.Get)
		router.Patch("/members/{memberID}", h.Update)
		router.Delete("/members/{memberID}", h.Delete)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(staffContext(3))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("creates a member", func() {
		rec := do(http.MethodPost, "/members", `{"name":"Cleo","email":"cleo@gym.test"}`)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		var body member.Member
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		Expect(body.Name).To(Equal("Cleo"))
	})

	It("answers 409 for a duplicate email", func() {
		rec := do(http.MethodPost, "/members", `{"name":"Copy","email":"ana@gym.test"}`)
		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(rec.Body.String()).To(ContainSubstring("DUPLICATE_MEMBER"))
	})

	It("answers 404 for another company's member", func() {
		rec := do(http.MethodGet, "/members/2", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("updates a member", func() {
		rec := do(http.MethodPatch, "/members/1", `{"is_active":false}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(repo.members[1].IsActive).To(BeFalse())
	})

	It("deletes a member", func() {
		rec := do(http.MethodDelete, "/members/1", "")
		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(repo.members).ToNot(HaveKey(int64(1)))
	})

	It("lists members", func() {
		rec := do(http.MethodGet, "/members", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var list []member.Member
		Expect(json.NewDecoder(rec.Body).Decode(&list)).To(Succeed())
		Expect(list).To(HaveLen(1))
	})
})
