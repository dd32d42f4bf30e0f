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
	"github.com/frahmantamala/gym-management/internal/member"
	"github.com/frahmantamala/gym-management/internal/tenant"
)

var errMemberNotFound = internal.NewNotFoundError("member not found", internal.ErrCodeMemberNotFound)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Transaction(ctx context.Context, fn func(tx member.TxRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepository{db: tx})
	})
}

func (r *MemberRepository) Get(ctx context.Context, id int64) (*membershipmodel.Member, error) {
	return findMember(ctx, r.db.WithContext(ctx), id)
}

func (r *MemberRepository) List(ctx context.Context) ([]membershipmodel.Member, error) {
	var members []membershipmodel.Member
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(ctx)).
		Order("name ASC, id ASC").
		Find(&members).Error
	return members, err
}

type txRepository struct {
	db *gorm.DB
}

func (t *txRepository) LockMember(ctx context.Context, id int64) (*membershipmodel.Member, error) {
	q := t.db
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return findMember(ctx, q, id)
}

func (t *txRepository) DuplicateField(ctx context.Context, email, phone *string, excludeID int64) (string, error) {
	check := func(column string, value *string) (bool, error) {
		if value == nil {
			return false, nil
		}
		var count int64
		err := t.db.WithContext(ctx).
			Model(&membershipmodel.Member{}).
			Scopes(tenant.Scope(ctx)).
			Where(column+" = ? AND id <> ?", *value, excludeID).
			Count(&count).Error
		return count > 0, err
	}

	if taken, err := check("email", email); err != nil || taken {
		return "email", err
	}
	if taken, err := check("phone", phone); err != nil || taken {
		return "phone", err
	}
	return "", nil
}

func (t *txRepository) Create(ctx context.Context, m *membershipmodel.Member) error {
	return t.db.WithContext(ctx).Create(m).Error
}

func (t *txRepository) Save(ctx context.Context, m *membershipmodel.Member) error {
	return t.db.WithContext(ctx).
		Model(m).
		Select("name", "email", "phone", "is_active", "updated_at").
		Updates(m).Error
}

func (t *txRepository) Delete(ctx context.Context, id int64) (member.Removed, error) {
	var removed member.Removed
	db := t.db.WithContext(ctx)

	memberships := db.Model(&membershipmodel.Membership{}).
		Scopes(tenant.Scope(ctx)).
		Select("id").
		Where("member_id = ?", id)

	res := db.Scopes(tenant.Scope(ctx)).Where("membership_id IN (?)", memberships).Delete(&membershipmodel.Hold{})
	if res.Error != nil {
		return removed, res.Error
	}
	removed.Holds = res.RowsAffected

	res = db.Scopes(tenant.Scope(ctx)).Where("member_id = ?", id).Delete(&paymentmodel.Payment{})
	if res.Error != nil {
		return removed, res.Error
	}
	removed.Payments = res.RowsAffected

	res = db.Scopes(tenant.Scope(ctx)).Where("member_id = ?", id).Delete(&membershipmodel.Membership{})
	if res.Error != nil {
		return removed, res.Error
	}
	removed.Memberships = res.RowsAffected

	res = db.Scopes(tenant.Scope(ctx)).Where("id = ?", id).Delete(&membershipmodel.Member{})
	if res.Error != nil {
		return removed, res.Error
	}
	if res.RowsAffected == 0 {
		return removed, errMemberNotFound
	}
	return removed, nil
}

func (t *txRepository) AppendAudit(ctx context.Context, entry *auditmodel.Entry) error {
	return auditpg.NewRepository(t.db).Append(ctx, entry)
}

func findMember(ctx context.Context, db *gorm.DB, id int64) (*membershipmodel.Member, error) {
	var m membershipmodel.Member
	err := db.WithContext(ctx).Scopes(tenant.Scope(ctx)).Where("id = ?", id).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}
