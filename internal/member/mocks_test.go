package member_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/frahmantamala/gym-management/internal"
	auditmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/audit"
	membershipmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/membership"
	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/internal/member"
	"github.com/frahmantamala/gym-management/internal/tenant"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func strPtr(s string) *string { return &s }

// mockRepository applies a transaction's writes only when fn succeeds.
type mockRepository struct {
	members   map[int64]membershipmodel.Member
	audits    []auditmodel.Entry
	deleted   []int64
	nextID    int64
	createErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		members: map[int64]membershipmodel.Member{
			1: {ID: 1, CompanyID: 3, Name: "Ana", Email: strPtr("ana@gym.test"), Phone: strPtr("+15550001"), IsActive: true},
			2: {ID: 2, CompanyID: 4, Name: "Ben", Email: strPtr("ben@gym.test"), IsActive: true},
		},
		nextID: 10,
	}
}

func (m *mockRepository) Transaction(ctx context.Context, fn func(tx member.TxRepository) error) error {
	tx := &mockTx{repo: m, writes: map[int64]membershipmodel.Member{}}
	if err := fn(tx); err != nil {
		return err
	}
	for id, row := range tx.writes {
		m.members[id] = row
	}
	for _, id := range tx.deleted {
		delete(m.members, id)
	}
	m.deleted = append(m.deleted, tx.deleted...)
	m.audits = append(m.audits, tx.audits...)
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*membershipmodel.Member, error) {
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	row, ok := m.members[id]
	if !ok || row.CompanyID != companyID {
		return nil, internal.NewNotFoundError("member not found", internal.ErrCodeMemberNotFound)
	}
	return &row, nil
}

func (m *mockRepository) List(ctx context.Context) ([]membershipmodel.Member, error) {
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	var out []membershipmodel.Member
	for _, row := range m.members {
		if row.CompanyID == companyID {
			out = append(out, row)
		}
	}
	return out, nil
}

type mockTx struct {
	repo    *mockRepository
	writes  map[int64]membershipmodel.Member
	deleted []int64
	audits  []auditmodel.Entry
}

func (t *mockTx) LockMember(ctx context.Context, id int64) (*membershipmodel.Member, error) {
	return t.repo.Get(ctx, id)
}

func (t *mockTx) DuplicateField(ctx context.Context, email, phone *string, excludeID int64) (string, error) {
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return "", err
	}
	for _, row := range t.repo.members {
		if row.CompanyID != companyID || row.ID == excludeID {
			continue
		}
		if email != nil && row.Email != nil && *row.Email == *email {
			return "email", nil
		}
		if phone != nil && row.Phone != nil && *row.Phone == *phone {
			return "phone", nil
		}
	}
	return "", nil
}

func (t *mockTx) Create(ctx context.Context, m *membershipmodel.Member) error {
	if t.repo.createErr != nil {
		return t.repo.createErr
	}
	t.repo.nextID++
	m.ID = t.repo.nextID
	t.writes[m.ID] = *m
	return nil
}

func (t *mockTx) Save(ctx context.Context, m *membershipmodel.Member) error {
	t.writes[m.ID] = *m
	return nil
}

func (t *mockTx) Delete(ctx context.Context, id int64) (member.Removed, error) {
	t.deleted = append(t.deleted, id)
	return member.Removed{Memberships: 1, Payments: 1}, nil
}

func (t *mockTx) AppendAudit(ctx context.Context, entry *auditmodel.Entry) error {
	t.audits = append(t.audits, *entry)
	return nil
}

func staffContext(companyID int64) context.Context {
	ctx := identity.WithIdentity(context.Background(), &identity.Identity{UserID: 7, TenantID: companyID, RoleID: 2, RoleName: "front_desk"})
	return tenant.WithCompany(ctx, companyID)
}
