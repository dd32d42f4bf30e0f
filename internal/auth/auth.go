package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/gym-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/gym-management/internal/core/datamodel/user"
	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/internal/credential"
	"github.com/frahmantamala/gym-management/internal/session"
)

// Credentials is the credential store as seen by the login flow.
type Credentials interface {
	Authenticate(ctx context.Context, email, password string) (*credential.Account, error)
	ChangePassword(ctx context.Context, userID int64, current, next string) error
	IssueCode(ctx context.Context, userID int64, purpose string) (time.Time, error)
	VerifyCode(ctx context.Context, userID int64, purpose, code string) error
}

type Sessions interface {
	Create(ctx context.Context, userID, tenantID int64, role string) (*session.Issued, error)
	Destroy(ctx context.Context, token string) error
	DestroyAll(ctx context.Context, userID int64) error
}

type SessionCookies interface {
	SetCookie(w http.ResponseWriter, token string, expiresAt time.Time)
	ClearCookie(w http.ResponseWriter)
	TokenFromRequest(r *http.Request) string
}

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	LogoutAll(ctx context.Context, id *identity.Identity) error
	Me(ctx context.Context, id *identity.Identity) (*Profile, error)
	ChangePassword(ctx context.Context, id *identity.Identity, dto ChangePasswordDTO) error
	RequestCode(ctx context.Context, id *identity.Identity, purpose string) (time.Time, error)
	ConfirmCode(ctx context.Context, id *identity.Identity, dto VerifyCodeDTO) error
}

// RoleView is a role with its stored permission names.
type RoleView struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	IsProtected bool     `json:"is_protected"`
	Permissions []string `json:"permissions"`
}

type RoleRepositoryAPI interface {
	ListRoles(ctx context.Context) ([]RoleView, error)
	GetRole(ctx context.Context, roleID int64) (*user.Role, error)
	CreateRole(ctx context.Context, role *user.Role, permissions []string, entry *audit.Entry) error
	ReplacePermissions(ctx context.Context, role *user.Role, permissions []string, entry *audit.Entry) error
	DeleteRole(ctx context.Context, role *user.Role, entry *audit.Entry) error
}

type RoleServiceAPI interface {
	Catalog() *Catalog
	List(ctx context.Context) ([]RoleView, error)
	Create(ctx context.Context, dto RoleDTO) (*RoleView, error)
	SetPermissions(ctx context.Context, roleID int64, dto RolePermissionsDTO) (*RoleView, error)
	Delete(ctx context.Context, roleID int64) error
}
