package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/gym-management/internal/core/datamodel/user"
	"github.com/frahmantamala/gym-management/internal/credential"
)

type CredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) GetAccountByEmail(ctx context.Context, email string) (*credential.Account, error) {
	var acc credential.Account
	err := r.db.WithContext(ctx).
		Table("users AS u").
		Select(`u.id AS user_id, u.company_id, u.role_id, r.name AS role_name, u.name, u.email,
			u.password_hash, u.is_active AS user_active, c.is_active AS company_active`).
		Joins("JOIN companies c ON c.id = u.company_id").
		Joins("JOIN roles r ON r.id = u.role_id AND r.company_id = u.company_id").
		Where("LOWER(u.email) = ?", email).
		Take(&acc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, credential.ErrAccountNotFound
		}
		return nil, err
	}
	return &acc, nil
}

func (r *CredentialRepository) GetPasswordHash(ctx context.Context, userID int64) (string, error) {
	var u user.User
	err := r.db.WithContext(ctx).Select("id", "password_hash").Where("id = ?", userID).Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", credential.ErrAccountNotFound
		}
		return "", err
	}
	return u.PasswordHash, nil
}

func (r *CredentialRepository) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	res := r.db.WithContext(ctx).Model(&user.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"password_hash": hash, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return credential.ErrAccountNotFound
	}
	return nil
}

func (r *CredentialRepository) CreateCode(ctx context.Context, code *user.VerificationCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *CredentialRepository) LatestActiveCode(ctx context.Context, userID int64, purpose string) (*user.VerificationCode, error) {
	var code user.VerificationCode
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ? AND consumed_at IS NULL", userID, purpose).
		Order("created_at DESC, id DESC").
		Take(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, credential.ErrCodeNotFound
		}
		return nil, err
	}
	return &code, nil
}

func (r *CredentialRepository) IncrementAttempts(ctx context.Context, codeID int64) error {
	return r.db.WithContext(ctx).Model(&user.VerificationCode{}).Where("id = ?", codeID).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

// ConsumeCode only succeeds once per code.
func (r *CredentialRepository) ConsumeCode(ctx context.Context, codeID int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&user.VerificationCode{}).
		Where("id = ? AND consumed_at IS NULL", codeID).
		UpdateColumn("consumed_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return credential.ErrCodeNotFound
	}
	return nil
}
