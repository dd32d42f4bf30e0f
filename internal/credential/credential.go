// Package credential hashes and checks passwords and manages one-time
// verification codes.
package credential

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/gym-management/internal/core/datamodel/user"
)

const (
	PurposePasswordReset     = "password_reset"
	PurposeEmailVerification = "email_verification"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrCodeNotFound    = errors.New("verification code not found")
)

// Account is a user joined with the role and company needed to open a session.
type Account struct {
	UserID        int64
	CompanyID     int64
	RoleID        int64
	RoleName      string
	Name          string
	Email         string
	PasswordHash  string
	UserActive    bool
	CompanyActive bool
}

type RepositoryAPI interface {
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetPasswordHash(ctx context.Context, userID int64) (string, error)
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
	CreateCode(ctx context.Context, code *user.VerificationCode) error
	LatestActiveCode(ctx context.Context, userID int64, purpose string) (*user.VerificationCode, error)
	IncrementAttempts(ctx context.Context, codeID int64) error
	ConsumeCode(ctx context.Context, codeID int64, at time.Time) error
}

// Notifier delivers a verification code out of band.
type Notifier interface {
	SendVerificationCode(ctx context.Context, userID int64, purpose, code string, expiresAt time.Time) error
}

// LogNotifier stands in for email delivery; the code is only logged at debug.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) SendVerificationCode(ctx context.Context, userID int64, purpose, code string, expiresAt time.Time) error {
	n.Logger.InfoContext(ctx, "verification code issued", "user_id", userID, "purpose", purpose, "expires_at", expiresAt)
	n.Logger.DebugContext(ctx, "verification code", "user_id", userID, "code", code)
	return nil
}

func validPurpose(purpose string) bool {
	return purpose == PurposePasswordReset || purpose == PurposeEmailVerification
}
