package auth

import "time"

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type RequestCodeDTO struct {
	Purpose string `json:"purpose"`
}

type VerifyCodeDTO struct {
	Purpose string `json:"purpose"`
	Code    string `json:"code"`
}

type RoleDTO struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type RolePermissionsDTO struct {
	Permissions []string `json:"permissions"`
}

type Profile struct {
	UserID      int64    `json:"user_id"`
	CompanyID   int64    `json:"company_id,omitempty"`
	Name        string   `json:"name"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role"`
	Platform    bool     `json:"platform,omitempty"`
	Permissions []string `json:"permissions"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Profile   Profile   `json:"user"`
}

type ModulePermissions struct {
	Module      string       `json:"module"`
	Permissions []Permission `json:"permissions"`
}
