package payment_test

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/frahmantamala/gym-management/internal"
	auditmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/audit"
	paymentmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/payment"
	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/internal/payment"
	"github.com/frahmantamala/gym-management/internal/tenant"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var errBoom = errors.New("deadlock detected")

type membershipRef struct {
	companyID int64
	memberID  int64
}

// mockRepository commits a transaction's writes only when fn succeeds.
type mockRepository struct {
	memberships map[int64]membershipRef
	payments    map[int64]paymentmodel.Payment
	audits      []auditmodel.Entry
	nextID      int64
	saveErr     error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		memberships: map[int64]membershipRef{
			50: {companyID: 3, memberID: 10},
			51: {companyID: 4, memberID: 11},
		},
		payments: map[int64]paymentmodel.Payment{},
		nextID:   200,
	}
}

func (m *mockRepository) Transaction(ctx context.Context, fn func(tx payment.TxRepository) error) error {
	tx := &mockTx{repo: m, payments: map[int64]paymentmodel.Payment{}}
	if err := fn(tx); err != nil {
		return err
	}
	for id, p := range tx.payments {
		m.payments[id] = p
	}
	m.audits = append(m.audits, tx.audits...)
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*paymentmodel.Payment, error) {
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := m.payments[id]
	if !ok || p.CompanyID != companyID {
		return nil, internal.NewNotFoundError("payment not found", internal.ErrCodePaymentNotFound)
	}
	return &p, nil
}

func (m *mockRepository) ListByMembership(ctx context.Context, membershipID int64) ([]paymentmodel.Payment, error) {
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	var out []paymentmodel.Payment
	for _, p := range m.payments {
		if p.CompanyID == companyID && p.MembershipID == membershipID {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockTx struct {
	repo     *mockRepository
	payments map[int64]paymentmodel.Payment
	audits   []auditmodel.Entry
}

func (t *mockTx) LockPayment(ctx context.Context, id int64) (*paymentmodel.Payment, error) {
	return t.repo.Get(ctx, id)
}

func (t *mockTx) MembershipMemberID(ctx context.Context, membershipID int64) (int64, error) {
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return 0, err
	}
	ref, ok := t.repo.memberships[membershipID]
	if !ok || ref.companyID != companyID {
		return 0, internal.NewNotFoundError("membership not found", internal.ErrCodeMembershipNotFound)
	}
	return ref.memberID, nil
}

func (t *mockTx) Create(ctx context.Context, p *paymentmodel.Payment) error {
	t.repo.nextID++
	p.ID = t.repo.nextID
	t.payments[p.ID] = *p
	return nil
}

func (t *mockTx) Save(ctx context.Context, p *paymentmodel.Payment) error {
	if t.repo.saveErr != nil {
		return t.repo.saveErr
	}
	t.payments[p.ID] = *p
	return nil
}

func (t *mockTx) AppendAudit(ctx context.Context, entry *auditmodel.Entry) error {
	t.audits = append(t.audits, *entry)
	return nil
}

func staffContext(companyID int64) context.Context {
	ctx := identity.WithIdentity(context.Background(), &identity.Identity{UserID: 7, TenantID: companyID, RoleID: 2, RoleName: "front_desk"})
	return tenant.WithCompany(ctx, companyID)
}
