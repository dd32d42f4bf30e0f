package member

import (
	"context"
	"strings"
	"time"

	auditmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/audit"
	membershipmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/membership"
)

type Member struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromDataModel(m *membershipmodel.Member) *Member {
	return &Member{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func FromDataModelSlice(members []membershipmodel.Member) []*Member {
	result := make([]*Member, len(members))
	for i := range members {
		result[i] = FromDataModel(&members[i])
	}
	return result
}

// Removed counts the rows deleted together with a member.
type Removed struct {
	Memberships int64
	Holds       int64
	Payments    int64
}

type RepositoryAPI interface {
	Transaction(ctx context.Context, fn func(tx TxRepository) error) error
	Get(ctx context.Context, id int64) (*membershipmodel.Member, error)
	List(ctx context.Context) ([]membershipmodel.Member, error)
}

// TxRepository is the member store inside one transaction, scoped to the
// company in ctx.
type TxRepository interface {
	LockMember(ctx context.Context, id int64) (*membershipmodel.Member, error)
	// DuplicateField returns "email" or "phone" when another member of the
	// company already uses the value, or "" when both are free.
	DuplicateField(ctx context.Context, email, phone *string, excludeID int64) (string, error)
	Create(ctx context.Context, m *membershipmodel.Member) error
	Save(ctx context.Context, m *membershipmodel.Member) error
	Delete(ctx context.Context, id int64) (Removed, error)
	AppendAudit(ctx context.Context, entry *auditmodel.Entry) error
}

// normalizeEmail lowercases and trims; blank becomes nil.
func normalizeEmail(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*s))
	if v == "" {
		return nil
	}
	return &v
}

// normalizePhone keeps digits and a leading plus.
func normalizePhone(s *string) *string {
	if s == nil {
		return nil
	}
	var b strings.Builder
	for i, r := range strings.TrimSpace(*s) {
		if r >= '0' && r <= '9' || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	v := b.String()
	return &v
}
