package membership_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	auditmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/audit"
	membershipmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/membership"
	paymentmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/payment"
	"github.com/frahmantamala/gym-management/internal/core/events"
	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/internal/membership"
	"github.com/frahmantamala/gym-management/internal/tenant"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var errBoom = errors.New("connection reset")

// memoryStore keeps committed state. Transactions work on a copy that is
// swapped in only when fn succeeds.
type memoryStore struct {
	mu          sync.Mutex
	members     map[int64]membershipmodel.Member
	plans       map[int64]membershipmodel.Plan
	memberships map[int64]membershipmodel.Membership
	holds       []membershipmodel.Hold
	payments    []paymentmodel.Payment
	audits      []auditmodel.Entry
	nextID      int64

	failAudit bool
	txCount   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		members: map[int64]membershipmodel.Member{
			10: {ID: 10, CompanyID: 3, Name: "Ana", IsActive: true},
			11: {ID: 11, CompanyID: 4, Name: "Other gym member", IsActive: true},
		},
		plans: map[int64]membershipmodel.Plan{
			20: {ID: 20, CompanyID: 3, Name: "Monthly", DurationMonths: 1, Price: dec("1000"), IsActive: true},
			21: {ID: 21, CompanyID: 3, Name: "Retired", DurationMonths: 6, Price: dec("5000"), IsActive: false},
		},
		memberships: map[int64]membershipmodel.Membership{},
		nextID:      100,
	}
}

func (s *memoryStore) clone() *memoryStore {
	c := &memoryStore{
		members:     make(map[int64]membershipmodel.Member, len(s.members)),
		plans:       make(map[int64]membershipmodel.Plan, len(s.plans)),
		memberships: make(map[int64]membershipmodel.Membership, len(s.memberships)),
		holds:       append([]membershipmodel.Hold(nil), s.holds...),
		payments:    append([]paymentmodel.Payment(nil), s.payments...),
		audits:      append([]auditmodel.Entry(nil), s.audits...),
		nextID:      s.nextID,
		failAudit:   s.failAudit,
	}
	for k, v := range s.members {
		c.members[k] = v
	}
	for k, v := range s.plans {
		c.plans[k] = v
	}
	for k, v := range s.memberships {
		c.memberships[k] = v
	}
	return c
}

func (s *memoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memoryStore) Transaction(ctx context.Context, fn func(tx membership.TxRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++
	work := s.clone()
	if err := fn(&memoryTx{store: work}); err != nil {
		return err
	}
	s.members, s.plans, s.memberships = work.members, work.plans, work.memberships
	s.holds, s.payments, s.audits, s.nextID = work.holds, work.payments, work.audits, work.nextID
	return nil
}

func (s *memoryStore) GetMembership(ctx context.Context, id int64) (*membershipmodel.Membership, error) {
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	m, ok := s.memberships[id]
	if !ok || m.CompanyID != companyID {
		return nil, internal.NewNotFoundError("membership not found", internal.ErrCodeMembershipNotFound)
	}
	return &m, nil
}

func (s *memoryStore) ListByMember(ctx context.Context, memberID int64) ([]membershipmodel.Membership, error) {
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	var out []membershipmodel.Membership
	for _, m := range s.memberships {
		if m.CompanyID == companyID && m.MemberID == memberID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memoryStore) ListHolds(ctx context.Context, membershipID int64) ([]membershipmodel.Hold, error) {
	var out []membershipmodel.Hold
	for _, h := range s.holds {
		if h.MembershipID == membershipID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *memoryStore) ListPlans(ctx context.Context) ([]membershipmodel.Plan, error) {
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	var out []membershipmodel.Plan
	for _, p := range s.plans {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memoryStore) CreatePlan(ctx context.Context, plan *membershipmodel.Plan, entry *auditmodel.Entry) error {
	plan.ID = s.id()
	s.plans[plan.ID] = *plan
	entry.EntityID = plan.ID
	s.audits = append(s.audits, *entry)
	return nil
}

func (s *memoryStore) openHolds(membershipID int64) int {
	n := 0
	for _, h := range s.holds {
		if h.MembershipID == membershipID && h.ResumedAt == nil {
			n++
		}
	}
	return n
}

type memoryTx struct {
	store *memoryStore
}

func (t *memoryTx) LockMembership(ctx context.Context, id int64) (*membershipmodel.Membership, error) {
	return t.store.GetMembership(ctx, id)
}

func (t *memoryTx) OpenHold(ctx context.Context, membershipID int64) (*membershipmodel.Hold, error) {
	for i := len(t.store.holds) - 1; i >= 0; i-- {
		h := t.store.holds[i]
		if h.MembershipID == membershipID && h.ResumedAt == nil {
			return &h, nil
		}
	}
	return nil, nil
}

func (t *memoryTx) GetMember(ctx context.Context, memberID int64) (*membershipmodel.Member, error) {
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	m, ok := t.store.members[memberID]
	if !ok || m.CompanyID != companyID {
		return nil, internal.NewNotFoundError("member not found", internal.ErrCodeMemberNotFound)
	}
	return &m, nil
}

func (t *memoryTx) GetPlan(ctx context.Context, planID int64) (*membershipmodel.Plan, error) {
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := t.store.plans[planID]
	if !ok || p.CompanyID != companyID {
		return nil, internal.NewNotFoundError("plan not found", internal.ErrCodePlanNotFound)
	}
	return &p, nil
}

func (t *memoryTx) CreateMembership(ctx context.Context, m *membershipmodel.Membership) error {
	m.ID = t.store.id()
	t.store.memberships[m.ID] = *m
	return nil
}

func (t *memoryTx) UpdateLifecycle(ctx context.Context, m *membershipmodel.Membership) error {
	t.store.memberships[m.ID] = *m
	return nil
}

func (t *memoryTx) InsertHold(ctx context.Context, h *membershipmodel.Hold) error {
	h.ID = t.store.id()
	t.store.holds = append(t.store.holds, *h)
	return nil
}

func (t *memoryTx) CloseHold(ctx context.Context, h *membershipmodel.Hold) error {
	for i := range t.store.holds {
		if t.store.holds[i].ID == h.ID {
			t.store.holds[i] = *h
			return nil
		}
	}
	return errBoom
}

func (t *memoryTx) CreatePayment(ctx context.Context, p *paymentmodel.Payment) error {
	p.ID = t.store.id()
	t.store.payments = append(t.store.payments, *p)
	return nil
}

func (t *memoryTx) AppendAudit(ctx context.Context, entry *auditmodel.Entry) error {
	if t.store.failAudit {
		return errBoom
	}
	t.store.audits = append(t.store.audits, *entry)
	return nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.EventType()
	}
	return out
}

// grantAuthorizer allows exactly the listed permissions.
type grantAuthorizer struct {
	grants map[string]bool
}

func (a *grantAuthorizer) Authorize(_ context.Context, _ *identity.Identity, required string) (auth.Decision, error) {
	return auth.Decision{Allowed: a.grants[required]}, nil
}

func staffContext(companyID int64) context.Context {
	ctx := identity.WithIdentity(context.Background(), &identity.Identity{
		UserID:      7,
		TenantID:    companyID,
		RoleID:      2,
		RoleName:    "front_desk",
		DisplayName: "Desk",
	})
	return tenant.WithCompany(ctx, companyID)
}
