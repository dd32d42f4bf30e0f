package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/core/datamodel/user"
	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/internal/ids"
	"github.com/frahmantamala/gym-management/pkg/metrics"
)

type Config struct {
	Secret       []byte
	TTL          time.Duration
	PlatformTTL  time.Duration
	CookieName   string
	SecureCookie bool
}

type Manager struct {
	repo   Repository
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Manager)

// WithClock overrides time.Now for signing and verification.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(repo Repository, cfg Config, lg *slog.Logger, opts ...Option) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = internal.DefaultSessionTTL
	}
	if cfg.PlatformTTL <= 0 {
		cfg.PlatformTTL = internal.DefaultPlatformTokenTTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = internal.DefaultCookieName
	}
	if lg == nil {
		lg = slog.Default()
	}
	m := &Manager{
		repo:   repo,
		cfg:    cfg,
		now:    time.Now,
		logger: lg,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) TTL() time.Duration {
	return m.cfg.TTL
}

// Create signs a token for (user, tenant, role) and stores its revocation row.
func (m *Manager) Create(ctx context.Context, userID, tenantID int64, role string) (*Issued, error) {
	now := m.now()
	expiresAt := now.Add(m.cfg.TTL)
	sessionID := ids.New()

	claims := &Claims{
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := m.sign(claims)
	if err != nil {
		return nil, internal.NewInternalError("failed to sign session token", err)
	}

	row := &user.Session{
		ID:        sessionID,
		UserID:    userID,
		CompanyID: tenantID,
		TokenHash: hashToken(token),
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := m.repo.Create(ctx, row); err != nil {
		return nil, internal.NewInternalError("failed to store session", err)
	}

	return &Issued{Token: token, SessionID: sessionID, ExpiresAt: expiresAt}, nil
}

// IssuePlatformToken signs a super-admin token that resolves without a
// database lookup and without a company.
func (m *Manager) IssuePlatformToken(subject string) (*Issued, error) {
	now := m.now()
	expiresAt := now.Add(m.cfg.PlatformTTL)
	sessionID := ids.New()

	token, err := m.sign(&Claims{
		Scope: ScopePlatform,
		Role:  identity.AdminRoleName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	if err != nil {
		return nil, err
	}
	return &Issued{Token: token, SessionID: sessionID, ExpiresAt: expiresAt}, nil
}

// Resolve returns the identity behind token, or nil when the token is
// missing, malformed, expired, revoked or cannot be checked.
func (m *Manager) Resolve(ctx context.Context, token string) *identity.Identity {
	if token == "" {
		return nil
	}

	claims, err := m.parse(token)
	if err != nil {
		metrics.SessionResolutions.WithLabelValues("invalid").Inc()
		m.logger.DebugContext(ctx, "session token rejected", "error", err)
		return nil
	}

	if claims.Scope == ScopePlatform {
		metrics.SessionResolutions.WithLabelValues("platform").Inc()
		return &identity.Identity{
			RoleName:    identity.AdminRoleName,
			DisplayName: claims.Subject,
			SessionID:   claims.ID,
			Platform:    true,
		}
	}

	lookupCtx, cancel := internal.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resolved, err := m.repo.FindActive(lookupCtx, claims.ID, hashToken(token), m.now())
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			metrics.SessionResolutions.WithLabelValues("revoked").Inc()
			return nil
		}
		metrics.SessionResolutions.WithLabelValues("error").Inc()
		m.logger.ErrorContext(ctx, "session lookup failed", "error", err, "session_id", claims.ID)
		return nil
	}

	if resolved.UserID != claims.UserID || resolved.CompanyID != claims.TenantID {
		metrics.SessionResolutions.WithLabelValues("mismatch").Inc()
		m.logger.WarnContext(ctx, "session row does not match token claims", "session_id", claims.ID)
		return nil
	}
	if !resolved.UserActive || !resolved.CompanyActive {
		metrics.SessionResolutions.WithLabelValues("inactive").Inc()
		return nil
	}

	metrics.SessionResolutions.WithLabelValues("ok").Inc()
	return &identity.Identity{
		UserID:      resolved.UserID,
		TenantID:    resolved.CompanyID,
		RoleID:      resolved.RoleID,
		RoleName:    resolved.RoleName,
		DisplayName: resolved.UserName,
		SessionID:   resolved.SessionID,
	}
}

// Destroy revokes a single session. Unknown tokens are not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.repo.DeleteByTokenHash(ctx, hashToken(token)); err != nil {
		return internal.NewInternalError("failed to destroy session", err)
	}
	return nil
}

// DestroyAll revokes every session of a user.
func (m *Manager) DestroyAll(ctx context.Context, userID int64) error {
	n, err := m.repo.DeleteByUserID(ctx, userID)
	if err != nil {
		return internal.NewInternalError("failed to destroy sessions", err)
	}
	m.logger.InfoContext(ctx, "sessions destroyed", "user_id", userID, "count", n)
	return nil
}

func (m *Manager) sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.Secret)
}

func (m *Manager) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.cfg.Secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
