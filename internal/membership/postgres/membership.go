package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/gym-management/internal"
	auditpg "github.com/frahmantamala/gym-management/internal/audit/postgres"
	auditmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/audit"
	membershipmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/membership"
	paymentmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/payment"
	"github.com/frahmantamala/gym-management/internal/membership"
	"github.com/frahmantamala/gym-management/internal/tenant"
)

var (
	errMembershipNotFound = internal.NewNotFoundError("membership not found", internal.ErrCodeMembershipNotFound)
	errMemberNotFound     = internal.NewNotFoundError("member not found", internal.ErrCodeMemberNotFound)
	errPlanNotFound       = internal.NewNotFoundError("plan not found", internal.ErrCodePlanNotFound)
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Transaction(ctx context.Context, fn func(tx membership.TxRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepository{db: tx})
	})
}

func (r *MembershipRepository) GetMembership(ctx context.Context, id int64) (*membershipmodel.Membership, error) {
	return findMembership(ctx, r.db.WithContext(ctx), id)
}

func (r *MembershipRepository) ListByMember(ctx context.Context, memberID int64) ([]membershipmodel.Membership, error) {
	var rows []membershipmodel.Membership
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(ctx)).
		Where("member_id = ?", memberID).
		Order("start_date DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *MembershipRepository) ListHolds(ctx context.Context, membershipID int64) ([]membershipmodel.Hold, error) {
	var rows []membershipmodel.Hold
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(ctx)).
		Where("membership_id = ?", membershipID).
		Order("hold_start_date DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *MembershipRepository) ListPlans(ctx context.Context) ([]membershipmodel.Plan, error) {
	var rows []membershipmodel.Plan
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(ctx)).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *MembershipRepository) CreatePlan(ctx context.Context, plan *membershipmodel.Plan, entry *auditmodel.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(plan).Error; err != nil {
			return err
		}
		entry.EntityID = plan.ID
		return auditpg.NewRepository(tx).Append(ctx, entry)
	})
}

type txRepository struct {
	db *gorm.DB
}

func (t *txRepository) LockMembership(ctx context.Context, id int64) (*membershipmodel.Membership, error) {
	q := t.db
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return findMembership(ctx, q, id)
}

func (t *txRepository) OpenHold(ctx context.Context, membershipID int64) (*membershipmodel.Hold, error) {
	var h membershipmodel.Hold
	err := t.db.WithContext(ctx).
		Scopes(tenant.Scope(ctx)).
		Where("membership_id = ? AND resumed_at IS NULL", membershipID).
		Order("id DESC").
		Take(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

func (t *txRepository) GetMember(ctx context.Context, memberID int64) (*membershipmodel.Member, error) {
	var m membershipmodel.Member
	err := t.db.WithContext(ctx).Scopes(tenant.Scope(ctx)).Where("id = ?", memberID).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (t *txRepository) GetPlan(ctx context.Context, planID int64) (*membershipmodel.Plan, error) {
	var p membershipmodel.Plan
	err := t.db.WithContext(ctx).Scopes(tenant.Scope(ctx)).Where("id = ?", planID).Take(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (t *txRepository) CreateMembership(ctx context.Context, m *membershipmodel.Membership) error {
	return t.db.WithContext(ctx).Create(m).Error
}

// UpdateLifecycle writes only the lifecycle columns. Booleans and nil
// pointers are written explicitly through Select.
func (t *txRepository) UpdateLifecycle(ctx context.Context, m *membershipmodel.Membership) error {
	res := t.db.WithContext(ctx).
		Model(m).
		Scopes(tenant.Scope(ctx)).
		Select("status", "end_date", "is_on_hold", "hold_start_date", "hold_end_date", "hold_reason", "updated_at").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errMembershipNotFound
	}
	return nil
}

func (t *txRepository) InsertHold(ctx context.Context, h *membershipmodel.Hold) error {
	return t.db.WithContext(ctx).Create(h).Error
}

func (t *txRepository) CloseHold(ctx context.Context, h *membershipmodel.Hold) error {
	return t.db.WithContext(ctx).
		Model(h).
		Select("hold_end_date", "days_on_hold", "resumed_at").
		Updates(h).Error
}

func (t *txRepository) CreatePayment(ctx context.Context, p *paymentmodel.Payment) error {
	return t.db.WithContext(ctx).Create(p).Error
}

func (t *txRepository) AppendAudit(ctx context.Context, entry *auditmodel.Entry) error {
	return auditpg.NewRepository(t.db).Append(ctx, entry)
}

func findMembership(ctx context.Context, db *gorm.DB, id int64) (*membershipmodel.Membership, error) {
	var m membershipmodel.Membership
	err := db.WithContext(ctx).Scopes(tenant.Scope(ctx)).Where("id = ?", id).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errMembershipNotFound
		}
		return nil, err
	}
	return &m, nil
}
