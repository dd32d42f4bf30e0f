package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gym-management/internal/core/datamodel/user"
	"github.com/frahmantamala/gym-management/internal/session"
)

type mockSessionRepository struct {
	rows      map[string]*user.Session
	users     map[int64]session.Resolved
	findErr   error
	createErr error
	lookups   int
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{
		rows: make(map[string]*user.Session),
		users: map[int64]session.Resolved{
			7: {UserID: 7, CompanyID: 3, RoleID: 11, RoleName: "front_desk", UserName: "Rin", UserActive: true, CompanyActive: true},
		},
	}
}

func (m *mockSessionRepository) Create(_ context.Context, s *user.Session) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.rows[s.TokenHash] = s
	return nil
}

func (m *mockSessionRepository) FindActive(_ context.Context, sessionID, tokenHash string, now time.Time) (*session.Resolved, error) {
	m.lookups++
	if m.findErr != nil {
		return nil, m.findErr
	}
	row, ok := m.rows[tokenHash]
	if !ok || row.ID != sessionID || !row.ExpiresAt.After(now) {
		return nil, session.ErrSessionNotFound
	}
	u, ok := m.users[row.UserID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	u.SessionID = row.ID
	return &u, nil
}

func (m *mockSessionRepository) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	delete(m.rows, tokenHash)
	return nil
}

func (m *mockSessionRepository) DeleteByUserID(_ context.Context, userID int64) (int64, error) {
	var n int64
	for k, row := range m.rows {
		if row.UserID == userID {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

var _ = Describe("Manager", func() {
	var (
		repo    *mockSessionRepository
		manager *session.Manager
		clock   time.Time
		ctx     context.Context
	)

	newManager := func(secret string) *session.Manager {
		return session.NewManager(repo, session.Config{
			Secret:       []byte(secret),
			TTL:          7 * 24 * time.Hour,
			CookieName:   "gym_session",
			SecureCookie: true,
		}, slog.New(slog.NewTextHandler(io.Discard, nil)), session.WithClock(func() time.Time { return clock }))
	}

	BeforeEach(func() {
		repo = newMockSessionRepository()
		clock = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		ctx = context.Background()
		manager = newManager("a-very-long-session-secret-for-tests")
	})

	Describe("Create and Resolve", func() {
		It("round-trips a session to its identity", func() {
			issued, err := manager.Create(ctx, 7, 3, "front_desk")
			Expect(err).ToNot(HaveOccurred())
			Expect(issued.ExpiresAt).To(Equal(clock.Add(7 * 24 * time.Hour)))

			id := manager.Resolve(ctx, issued.Token)
			Expect(id).ToNot(BeNil())
			Expect(id.UserID).To(Equal(int64(7)))
			Expect(id.TenantID).To(Equal(int64(3)))
			Expect(id.RoleName).To(Equal("front_desk"))
			Expect(id.DisplayName).To(Equal("Rin"))
			Expect(id.SessionID).To(Equal(issued.SessionID))
		})

		It("uses the stored role rather than the one in the token", func() {
			issued, err := manager.Create(ctx, 7, 3, "admin")
			Expect(err).ToNot(HaveOccurred())

			id := manager.Resolve(ctx, issued.Token)
			Expect(id).ToNot(BeNil())
			Expect(id.IsAdmin()).To(BeFalse())
		})

		It("returns nil once the token has expired", func() {
			issued, err := manager.Create(ctx, 7, 3, "front_desk")
			Expect(err).ToNot(HaveOccurred())

			clock = clock.Add(7*24*time.Hour + time.Second)
			Expect(manager.Resolve(ctx, issued.Token)).To(BeNil())
		})

		It("returns nil for a token signed with another secret", func() {
			other := newManager("another-secret-that-is-long-enough!!")
			issued, err := other.Create(ctx, 7, 3, "front_desk")
			Expect(err).ToNot(HaveOccurred())

			Expect(manager.Resolve(ctx, issued.Token)).To(BeNil())
		})

		It("returns nil for garbage and empty tokens", func() {
			Expect(manager.Resolve(ctx, "")).To(BeNil())
			Expect(manager.Resolve(ctx, "not.a.jwt")).To(BeNil())
		})

		It("fails closed when storage errors", func() {
			issued, err := manager.Create(ctx, 7, 3, "front_desk")
			Expect(err).ToNot(HaveOccurred())

			repo.findErr = errors.New("connection reset")
			Expect(manager.Resolve(ctx, issued.Token)).To(BeNil())
		})

		It("returns nil when the user has been deactivated", func() {
			issued, err := manager.Create(ctx, 7, 3, "front_desk")
			Expect(err).ToNot(HaveOccurred())

			u := repo.users[7]
			u.UserActive = false
			repo.users[7] = u
			Expect(manager.Resolve(ctx, issued.Token)).To(BeNil())
		})

		It("surfaces storage failures on create", func() {
			repo.createErr = errors.New("disk full")
			_, err := manager.Create(ctx, 7, 3, "front_desk")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("platform tokens", func() {
		It("resolve to a tenantless admin identity without a lookup", func() {
			issued, err := manager.IssuePlatformToken("ops@platform")
			Expect(err).ToNot(HaveOccurred())

			id := manager.Resolve(ctx, issued.Token)
			Expect(id).ToNot(BeNil())
			Expect(id.Platform).To(BeTrue())
			Expect(id.IsAdmin()).To(BeTrue())
			Expect(id.HasTenant()).To(BeFalse())
			Expect(repo.lookups).To(Equal(0))
		})
	})

	Describe("Destroy", func() {
		It("revokes the session and is idempotent", func() {
			issued, err := manager.Create(ctx, 7, 3, "front_desk")
			Expect(err).ToNot(HaveOccurred())

			Expect(manager.Destroy(ctx, issued.Token)).To(Succeed())
			Expect(manager.Resolve(ctx, issued.Token)).To(BeNil())
			Expect(manager.Destroy(ctx, issued.Token)).To(Succeed())
		})
	})

	Describe("DestroyAll", func() {
		It("revokes every session of the user", func() {
			first, err := manager.Create(ctx, 7, 3, "front_desk")
			Expect(err).ToNot(HaveOccurred())
			clock = clock.Add(time.Minute)
			second, err := manager.Create(ctx, 7, 3, "front_desk")
			Expect(err).ToNot(HaveOccurred())

			Expect(manager.DestroyAll(ctx, 7)).To(Succeed())
			Expect(manager.Resolve(ctx, first.Token)).To(BeNil())
			Expect(manager.Resolve(ctx, second.Token)).To(BeNil())
		})
	})

	Describe("cookies", func() {
		It("sets an http-only lax cookie that expires with the session", func() {
			rec := httptest.NewRecorder()
			expires := time.Now().Add(time.Hour)
			manager.SetCookie(rec, "tok", expires)

			cookies := rec.Result().Cookies()
			Expect(cookies).To(HaveLen(1))
			Expect(cookies[0].Name).To(Equal("gym_session"))
			Expect(cookies[0].HttpOnly).To(BeTrue())
			Expect(cookies[0].Secure).To(BeTrue())
			Expect(cookies[0].SameSite).To(Equal(http.SameSiteLaxMode))
			Expect(cookies[0].Path).To(Equal("/"))
		})

		It("reads the cookie before the bearer header", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer header-token")
			Expect(manager.TokenFromRequest(req)).To(Equal("header-token"))

			req.AddCookie(&http.Cookie{Name: "gym_session", Value: "cookie-token"})
			Expect(manager.TokenFromRequest(req)).To(Equal("cookie-token"))
		})
	})
})
