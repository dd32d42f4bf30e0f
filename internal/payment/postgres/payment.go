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
	"github.com/frahmantamala/gym-management/internal/payment"
	"github.com/frahmantamala/gym-management/internal/tenant"
)

var errPaymentNotFound = internal.NewNotFoundError("payment not found", internal.ErrCodePaymentNotFound)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Transaction(ctx context.Context, fn func(tx payment.TxRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepository{db: tx})
	})
}

func (r *PaymentRepository) Get(ctx context.Context, id int64) (*paymentmodel.Payment, error) {
	return findPayment(ctx, r.db.WithContext(ctx), id)
}

func (r *PaymentRepository) ListByMembership(ctx context.Context, membershipID int64) ([]paymentmodel.Payment, error) {
	var payments []paymentmodel.Payment
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(ctx)).
		Where("membership_id = ?", membershipID).
		Order("created_at DESC, id DESC").
		Find(&payments).Error
	return payments, err
}

type txRepository struct {
	db *gorm.DB
}

func (t *txRepository) LockPayment(ctx context.Context, id int64) (*paymentmodel.Payment, error) {
	q := t.db
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return findPayment(ctx, q, id)
}

func (t *txRepository) MembershipMemberID(ctx context.Context, membershipID int64) (int64, error) {
	var m membershipmodel.Membership
	err := t.db.WithContext(ctx).
		Scopes(tenant.Scope(ctx)).
		Select("id", "member_id").
		Where("id = ?", membershipID).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, internal.NewNotFoundError("membership not found", internal.ErrCodeMembershipNotFound)
		}
		return 0, err
	}
	return m.MemberID, nil
}

func (t *txRepository) Create(ctx context.Context, p *paymentmodel.Payment) error {
	return t.db.WithContext(ctx).Create(p).Error
}

func (t *txRepository) Save(ctx context.Context, p *paymentmodel.Payment) error {
	return t.db.WithContext(ctx).
		Model(p).
		Select("base_amount", "payment_mode", "fee_percent", "total_amount", "paid_amount", "status", "updated_at").
		Updates(p).Error
}

func (t *txRepository) AppendAudit(ctx context.Context, entry *auditmodel.Entry) error {
	return auditpg.NewRepository(t.db).Append(ctx, entry)
}

func findPayment(ctx context.Context, db *gorm.DB, id int64) (*paymentmodel.Payment, error) {
	var p paymentmodel.Payment
	err := db.WithContext(ctx).Scopes(tenant.Scope(ctx)).Where("id = ?", id).Take(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}
