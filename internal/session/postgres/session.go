package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/gym-management/internal/core/datamodel/user"
	"github.com/frahmantamala/gym-management/internal/session"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *user.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SessionRepository) FindActive(ctx context.Context, sessionID, tokenHash string, now time.Time) (*session.Resolved, error) {
	var row session.Resolved
	err := r.db.WithContext(ctx).
		Table("sessions AS s").
		Select(`s.id AS session_id, s.user_id, s.company_id, u.role_id, r.name AS role_name,
			u.name AS user_name, u.is_active AS user_active, c.is_active AS company_active`).
		Joins("JOIN users u ON u.id = s.user_id AND u.company_id = s.company_id").
		Joins("JOIN companies c ON c.id = s.company_id").
		Joins("JOIN roles r ON r.id = u.role_id AND r.company_id = s.company_id").
		Where("s.id = ? AND s.token_hash = ? AND s.expires_at > ?", sessionID, tokenHash, now).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, session.ErrSessionNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&user.Session{}).Error
}

func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&user.Session{})
	return res.RowsAffected, res.Error
}

// DeleteExpired removes rows past their expiry.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&user.Session{})
	return res.RowsAffected, res.Error
}
