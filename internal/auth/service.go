package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/core/identity"
)

// Service is the login and account-security flow on top of the credential
// store and session manager.
type Service struct {
	creds      Credentials
	sessions   Sessions
	authorizer *Authorizer
	logger     *slog.Logger
}

func NewService(creds Credentials, sessions Sessions, authorizer *Authorizer, lg *slog.Logger) *Service {
	if lg == nil {
		lg = slog.Default()
	}
	return &Service{
		creds:      creds,
		sessions:   sessions,
		authorizer: authorizer,
		logger:     lg,
	}
}

func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	acc, err := s.creds.Authenticate(ctx, dto.Email, dto.Password)
	if err != nil {
		return nil, err
	}

	issued, err := s.sessions.Create(ctx, acc.UserID, acc.CompanyID, acc.RoleName)
	if err != nil {
		return nil, err
	}

	id := &identity.Identity{
		UserID:      acc.UserID,
		TenantID:    acc.CompanyID,
		RoleID:      acc.RoleID,
		RoleName:    acc.RoleName,
		DisplayName: acc.Name,
		SessionID:   issued.SessionID,
	}
	perms, err := s.authorizer.EffectivePermissions(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", acc.UserID, "company_id", acc.CompanyID)

	return &LoginResult{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		Profile: Profile{
			UserID:      acc.UserID,
			CompanyID:   acc.CompanyID,
			Name:        acc.Name,
			Email:       acc.Email,
			Role:        acc.RoleName,
			Permissions: perms,
		},
	}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

func (s *Service) LogoutAll(ctx context.Context, id *identity.Identity) error {
	if id == nil {
		return internal.ErrUnauthenticated
	}
	if id.Platform {
		return internal.NewForbiddenError("platform tokens have no stored sessions", internal.ErrCodeInsufficientAccess)
	}
	return s.sessions.DestroyAll(ctx, id.UserID)
}

func (s *Service) Me(ctx context.Context, id *identity.Identity) (*Profile, error) {
	if id == nil {
		return nil, internal.ErrUnauthenticated
	}
	perms, err := s.authorizer.EffectivePermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Profile{
		UserID:      id.UserID,
		CompanyID:   id.TenantID,
		Name:        id.DisplayName,
		Role:        id.RoleName,
		Platform:    id.Platform,
		Permissions: perms,
	}, nil
}

// ChangePassword replaces the password and logs the user out everywhere.
func (s *Service) ChangePassword(ctx context.Context, id *identity.Identity, dto ChangePasswordDTO) error {
	if id == nil {
		return internal.ErrUnauthenticated
	}
	if id.Platform {
		return internal.NewForbiddenError("platform identities have no password", internal.ErrCodeInsufficientAccess)
	}
	if err := s.creds.ChangePassword(ctx, id.UserID, dto.CurrentPassword, dto.NewPassword); err != nil {
		return err
	}
	if err := s.sessions.DestroyAll(ctx, id.UserID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "password changed, sessions revoked", "user_id", id.UserID)
	return nil
}

func (s *Service) RequestCode(ctx context.Context, id *identity.Identity, purpose string) (time.Time, error) {
	if id == nil || id.Platform {
		return time.Time{}, internal.ErrUnauthenticated
	}
	return s.creds.IssueCode(ctx, id.UserID, purpose)
}

func (s *Service) ConfirmCode(ctx context.Context, id *identity.Identity, dto VerifyCodeDTO) error {
	if id == nil || id.Platform {
		return internal.ErrUnauthenticated
	}
	return s.creds.VerifyCode(ctx, id.UserID, dto.Purpose, dto.Code)
}
