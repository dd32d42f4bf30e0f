package membership

import (
	"time"

	"github.com/shopspring/decimal"
)

// Member email and phone are unique per company when set.
type Member struct {
	ID        int64     `gorm:"primaryKey"`
	CompanyID int64     `gorm:"column:company_id;not null;uniqueIndex:idx_members_company_email;uniqueIndex:idx_members_company_phone"`
	Name      string    `gorm:"column:name;not null"`
	Email     *string   `gorm:"column:email;uniqueIndex:idx_members_company_email"`
	Phone     *string   `gorm:"column:phone;uniqueIndex:idx_members_company_phone"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Member) TableName() string {
	return "members"
}

type Plan struct {
	ID             int64           `gorm:"primaryKey"`
	CompanyID      int64           `gorm:"column:company_id;not null;index"`
	Name           string          `gorm:"column:name;not null"`
	DurationMonths int             `gorm:"column:duration_months;not null"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	IsActive       bool            `gorm:"column:is_active;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
}

func (Plan) TableName() string {
	return "plans"
}

type Membership struct {
	ID            int64      `gorm:"primaryKey"`
	CompanyID     int64      `gorm:"column:company_id;not null;index"`
	MemberID      int64      `gorm:"column:member_id;not null;index"`
	PlanID        int64      `gorm:"column:plan_id;not null"`
	StartDate     time.Time  `gorm:"column:start_date;not null"`
	EndDate       time.Time  `gorm:"column:end_date;not null"`
	Status        string     `gorm:"column:status;not null"`
	IsOnHold      bool       `gorm:"column:is_on_hold;not null"`
	HoldStartDate *time.Time `gorm:"column:hold_start_date"`
	HoldEndDate   *time.Time `gorm:"column:hold_end_date"`
	HoldReason    *string    `gorm:"column:hold_reason"`
	CreatedBy     int64      `gorm:"column:created_by"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (Membership) TableName() string {
	return "memberships"
}

type Hold struct {
	ID            int64      `gorm:"primaryKey"`
	CompanyID     int64      `gorm:"column:company_id;not null;index"`
	MembershipID  int64      `gorm:"column:membership_id;not null;index"`
	HoldStartDate time.Time  `gorm:"column:hold_start_date;not null"`
	HoldEndDate   *time.Time `gorm:"column:hold_end_date"`
	HoldReason    string     `gorm:"column:hold_reason;not null"`
	DaysOnHold    int        `gorm:"column:days_on_hold;not null"`
	ResumedAt     *time.Time `gorm:"column:resumed_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
}

func (Hold) TableName() string {
	return "membership_holds"
}
