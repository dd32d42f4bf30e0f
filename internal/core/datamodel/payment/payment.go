package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending = "pending"
	StatusPartial = "partial"
	StatusFull    = "full"
)

type Payment struct {
	ID           int64           `gorm:"primaryKey"`
	CompanyID    int64           `gorm:"column:company_id;not null;index"`
	MembershipID int64           `gorm:"column:membership_id;not null;index"`
	MemberID     int64           `gorm:"column:member_id;not null"`
	BaseAmount   decimal.Decimal `gorm:"column:base_amount;type:numeric(12,2);not null"`
	PaymentMode  string          `gorm:"column:payment_mode;not null"`
	FeePercent   decimal.Decimal `gorm:"column:fee_percent;type:numeric(5,2);not null"`
	TotalAmount  decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaidAmount   decimal.Decimal `gorm:"column:paid_amount;type:numeric(12,2);not null"`
	Status       string          `gorm:"column:status;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
