// Package session issues and resolves signed session tokens backed by a
// revocable server-side row.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/gym-management/internal/core/datamodel/user"
)

const ScopePlatform = "platform"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
)

// Claims are signed into every token. Role is informational; the role used
// for authorization is always re-read from storage.
type Claims struct {
	UserID   int64  `json:"uid,omitempty"`
	TenantID int64  `json:"tid,omitempty"`
	Role     string `json:"role,omitempty"`
	Scope    string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Resolved is a live session joined with its user, company and role.
type Resolved struct {
	SessionID     string
	UserID        int64
	CompanyID     int64
	RoleID        int64
	RoleName      string
	UserName      string
	UserActive    bool
	CompanyActive bool
}

type Repository interface {
	Create(ctx context.Context, s *user.Session) error
	FindActive(ctx context.Context, sessionID, tokenHash string, now time.Time) (*Resolved, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteByUserID(ctx context.Context, userID int64) (int64, error)
}

// Issued is the result of creating a session.
type Issued struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
