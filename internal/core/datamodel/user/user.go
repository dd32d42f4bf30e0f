package user

import "time"

type Company struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Company) TableName() string {
	return "companies"
}

type User struct {
	ID           int64     `gorm:"primaryKey"`
	CompanyID    int64     `gorm:"column:company_id;not null;index"`
	RoleID       int64     `gorm:"column:role_id;not null"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

type Role struct {
	ID          int64     `gorm:"primaryKey"`
	CompanyID   int64     `gorm:"column:company_id;not null;uniqueIndex:idx_roles_company_name"`
	Name        string    `gorm:"column:name;not null;uniqueIndex:idx_roles_company_name"`
	IsProtected bool      `gorm:"column:is_protected;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (Role) TableName() string {
	return "roles"
}

type Permission struct {
	ID       int64  `gorm:"primaryKey"`
	Name     string `gorm:"column:name;uniqueIndex;not null"`
	Module   string `gorm:"column:module;not null"`
	Category string `gorm:"column:category;not null"`
}

func (Permission) TableName() string {
	return "permissions"
}

type RolePermission struct {
	ID           int64     `gorm:"primaryKey"`
	CompanyID    int64     `gorm:"column:company_id;not null;index"`
	RoleID       int64     `gorm:"column:role_id;not null"`
	PermissionID int64     `gorm:"column:permission_id;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

type Session struct {
	ID        string    `gorm:"primaryKey;column:id"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	CompanyID int64     `gorm:"column:company_id;not null"`
	TokenHash string    `gorm:"column:token_hash;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
}

func (Session) TableName() string {
	return "sessions"
}

type VerificationCode struct {
	ID         int64      `gorm:"primaryKey"`
	UserID     int64      `gorm:"column:user_id;not null;index"`
	Purpose    string     `gorm:"column:purpose;not null"`
	CodeHash   string     `gorm:"column:code_hash;not null"`
	Attempts   int        `gorm:"column:attempts;not null"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;not null"`
	ConsumedAt *time.Time `gorm:"column:consumed_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
}

func (VerificationCode) TableName() string {
	return "verification_codes"
}
