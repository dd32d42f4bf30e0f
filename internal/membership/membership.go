package membership

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	auditmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/audit"
	membershipmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/membership"
	paymentmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/payment"
)

// Membership is the API view. Status is the effective status at read time.
type Membership struct {
	ID            int64      `json:"id"`
	MemberID      int64      `json:"member_id"`
	PlanID        int64      `json:"plan_id"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	Status        string     `json:"status"`
	IsOnHold      bool       `json:"is_on_hold"`
	HoldStartDate *time.Time `json:"hold_start_date,omitempty"`
	HoldEndDate   *time.Time `json:"hold_end_date,omitempty"`
	HoldReason    *string    `json:"hold_reason,omitempty"`
	CreatedBy     int64      `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Hold struct {
	ID            int64      `json:"id"`
	HoldStartDate time.Time  `json:"hold_start_date"`
	HoldEndDate   *time.Time `json:"hold_end_date,omitempty"`
	HoldReason    string     `json:"hold_reason"`
	DaysOnHold    int        `json:"days_on_hold"`
	ResumedAt     *time.Time `json:"resumed_at,omitempty"`
}

type Plan struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	DurationMonths int             `json:"duration_months"`
	Price          decimal.Decimal `json:"price"`
	IsActive       bool            `json:"is_active"`
}

func FromDataModel(m *membershipmodel.Membership, now time.Time) *Membership {
	return &Membership{
		ID:            m.ID,
		MemberID:      m.MemberID,
		PlanID:        m.PlanID,
		StartDate:     m.StartDate,
		EndDate:       m.EndDate,
		Status:        SnapshotOf(m, nil).EffectiveStatus(now),
		IsOnHold:      m.IsOnHold,
		HoldStartDate: m.HoldStartDate,
		HoldEndDate:   m.HoldEndDate,
		HoldReason:    m.HoldReason,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

func HoldFromDataModel(h *membershipmodel.Hold) Hold {
	return Hold{
		ID:            h.ID,
		HoldStartDate: h.HoldStartDate,
		HoldEndDate:   h.HoldEndDate,
		HoldReason:    h.HoldReason,
		DaysOnHold:    h.DaysOnHold,
		ResumedAt:     h.ResumedAt,
	}
}

func PlanFromDataModel(p *membershipmodel.Plan) Plan {
	return Plan{
		ID:             p.ID,
		Name:           p.Name,
		DurationMonths: p.DurationMonths,
		Price:          p.Price,
		IsActive:       p.IsActive,
	}
}

// SnapshotOf reads the lifecycle state out of a stored row and its open hold.
func SnapshotOf(m *membershipmodel.Membership, open *membershipmodel.Hold) Snapshot {
	s := Snapshot{
		Status:     m.Status,
		StartDate:  m.StartDate,
		EndDate:    m.EndDate,
		IsOnHold:   m.IsOnHold,
		HoldStart:  m.HoldStartDate,
		HoldEnd:    m.HoldEndDate,
		HoldReason: m.HoldReason,
	}
	if open != nil {
		s.OpenHold = &OpenHold{StartDate: open.HoldStartDate, EndDate: open.HoldEndDate}
	}
	return s
}

// applySnapshot writes the lifecycle fields back onto the row.
func applySnapshot(m *membershipmodel.Membership, s Snapshot) {
	m.Status = s.Status
	m.EndDate = s.EndDate
	m.IsOnHold = s.IsOnHold
	m.HoldStartDate = s.HoldStart
	m.HoldEndDate = s.HoldEnd
	m.HoldReason = s.HoldReason
}

type Repository interface {
	Transaction(ctx context.Context, fn func(tx TxRepository) error) error
	GetMembership(ctx context.Context, id int64) (*membershipmodel.Membership, error)
	ListByMember(ctx context.Context, memberID int64) ([]membershipmodel.Membership, error)
	ListHolds(ctx context.Context, membershipID int64) ([]membershipmodel.Hold, error)
	ListPlans(ctx context.Context) ([]membershipmodel.Plan, error)
	CreatePlan(ctx context.Context, plan *membershipmodel.Plan, entry *auditmodel.Entry) error
}

// TxRepository is the store inside one transaction. Reads are scoped to the
// company in ctx and report other companies' rows as not found.
type TxRepository interface {
	LockMembership(ctx context.Context, id int64) (*membershipmodel.Membership, error)
	OpenHold(ctx context.Context, membershipID int64) (*membershipmodel.Hold, error)
	GetMember(ctx context.Context, memberID int64) (*membershipmodel.Member, error)
	GetPlan(ctx context.Context, planID int64) (*membershipmodel.Plan, error)
	CreateMembership(ctx context.Context, m *membershipmodel.Membership) error
	UpdateLifecycle(ctx context.Context, m *membershipmodel.Membership) error
	InsertHold(ctx context.Context, h *membershipmodel.Hold) error
	CloseHold(ctx context.Context, h *membershipmodel.Hold) error
	CreatePayment(ctx context.Context, p *paymentmodel.Payment) error
	AppendAudit(ctx context.Context, entry *auditmodel.Entry) error
}
