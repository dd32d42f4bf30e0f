package credential

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/core/common/validation"
	"github.com/frahmantamala/gym-management/internal/core/datamodel/user"
)

type Config struct {
	BCryptCost  int
	CodeTTL     time.Duration
	MaxAttempts int
	// IssueEvery and IssueBurst bound how often codes are sent per user.
	IssueEvery time.Duration
	IssueBurst int
}

type Service struct {
	repo      RepositoryAPI
	notifier  Notifier
	cfg       Config
	now       func() time.Time
	logger    *slog.Logger
	dummyHash []byte

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

func NewService(repo RepositoryAPI, notifier Notifier, cfg Config, lg *slog.Logger) *Service {
	if cfg.BCryptCost < bcrypt.MinCost || cfg.BCryptCost > bcrypt.MaxCost {
		cfg.BCryptCost = bcrypt.DefaultCost
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = internal.DefaultVerificationCodeTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.IssueEvery <= 0 {
		cfg.IssueEvery = time.Minute
	}
	if cfg.IssueBurst <= 0 {
		cfg.IssueBurst = 3
	}
	if lg == nil {
		lg = slog.Default()
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: lg}
	}

	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cfg.BCryptCost)

	return &Service{
		repo:      repo,
		notifier:  notifier,
		cfg:       cfg,
		now:       time.Now,
		logger:    lg,
		dummyHash: dummy,
		limiters:  make(map[int64]*rate.Limiter),
	}
}

// SetClock replaces time.Now; used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BCryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Authenticate checks email and password. Unknown emails still pay for a
// bcrypt comparison.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	v := validation.NewValidator()
	v.Field("email", email).Required().Email()
	v.Field("password", password).Required()
	if err := v.Validate(); err != nil {
		return nil, err
	}

	acc, err := s.repo.GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, internal.ErrInvalidCredentials
		}
		return nil, internal.NewInternalError("failed to load account", err)
	}

	if !s.VerifyPassword(acc.PasswordHash, password) {
		return nil, internal.ErrInvalidCredentials
	}
	if !acc.UserActive || !acc.CompanyActive {
		return nil, internal.ErrUserInactive
	}
	return acc, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	v := validation.NewValidator()
	v.Field("current_password", current).Required()
	v.Field("new_password", next).Required().MinLength(8).MaxLength(72)
	if err := v.Validate(); err != nil {
		return err
	}

	hash, err := s.repo.GetPasswordHash(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return internal.ErrInvalidCredentials
		}
		return internal.NewInternalError("failed to load password", err)
	}
	if !s.VerifyPassword(hash, current) {
		return internal.ErrInvalidCredentials
	}

	newHash, err := s.HashPassword(next)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		return internal.NewInternalError("failed to update password", err)
	}
	return nil
}

// IssueCode creates a single-use six digit code and hands it to the notifier.
func (s *Service) IssueCode(ctx context.Context, userID int64, purpose string) (time.Time, error) {
	if !validPurpose(purpose) {
		return time.Time{}, internal.NewValidationFieldError("purpose", "unknown verification purpose", internal.ErrCodeValidationFailed)
	}
	if !s.limiter(userID).Allow() {
		return time.Time{}, internal.NewRateLimitedError("too many verification codes requested, try again later")
	}

	code, err := generateCode()
	if err != nil {
		return time.Time{}, internal.NewInternalError("failed to generate verification code", err)
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	if err != nil {
		return time.Time{}, internal.NewInternalError("failed to hash verification code", err)
	}

	now := s.now()
	row := &user.VerificationCode{
		UserID:    userID,
		Purpose:   purpose,
		CodeHash:  string(codeHash),
		ExpiresAt: now.Add(s.cfg.CodeTTL),
		CreatedAt: now,
	}
	if err := s.repo.CreateCode(ctx, row); err != nil {
		return time.Time{}, internal.NewInternalError("failed to store verification code", err)
	}

	if err := s.notifier.SendVerificationCode(ctx, userID, purpose, code, row.ExpiresAt); err != nil {
		return time.Time{}, internal.NewInternalError("failed to deliver verification code", err)
	}
	return row.ExpiresAt, nil
}

// VerifyCode consumes the latest outstanding code for (user, purpose).
func (s *Service) VerifyCode(ctx context.Context, userID int64, purpose, code string) error {
	invalid := internal.NewValidationError("invalid or expired verification code", internal.ErrCodeInvalidCode)

	if !validPurpose(purpose) || len(code) != 6 {
		return invalid
	}

	row, err := s.repo.LatestActiveCode(ctx, userID, purpose)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return invalid
		}
		return internal.NewInternalError("failed to load verification code", err)
	}

	now := s.now()
	if !row.ExpiresAt.After(now) {
		return invalid
	}
	if row.Attempts >= s.cfg.MaxAttempts {
		return internal.NewRateLimitedError("too many attempts for this verification code")
	}

	if bcrypt.CompareHashAndPassword([]byte(row.CodeHash), []byte(code)) != nil {
		if err := s.repo.IncrementAttempts(ctx, row.ID); err != nil {
			s.logger.ErrorContext(ctx, "failed to record verification attempt", "error", err, "code_id", row.ID)
		}
		return invalid
	}

	if err := s.repo.ConsumeCode(ctx, row.ID, now); err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return invalid
		}
		return internal.NewInternalError("failed to consume verification code", err)
	}
	return nil
}

func (s *Service) limiter(userID int64) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	lim, ok := s.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(s.cfg.IssueEvery), s.cfg.IssueBurst)
		s.limiters[userID] = lim
	}
	return lim
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
