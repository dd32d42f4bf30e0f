package membership

import (
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/core/common/validation"
)

type CreateMembershipDTO struct {
	MemberID       int64              `json:"member_id"`
	PlanID         int64              `json:"plan_id"`
	StartDate      time.Time          `json:"start_date"`
	EndDate        *time.Time         `json:"end_date,omitempty"`
	InitialPayment *InitialPaymentDTO `json:"payment,omitempty"`
}

type InitialPaymentDTO struct {
	BaseAmount  *decimal.Decimal `json:"base_amount,omitempty"`
	PaymentMode string           `json:"payment_mode"`
	PaidAmount  decimal.Decimal  `json:"paid_amount"`
}

func (d *CreateMembershipDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("member_id", d.MemberID).Required()
	validator.Field("plan_id", d.PlanID).Required()
	if d.EndDate != nil {
		validator.Field("end_date", DateOf(*d.EndDate)).After(DateOf(d.StartDate), "start_date")
	}
	if d.InitialPayment != nil {
		validator.Field("payment.payment_mode", d.InitialPayment.PaymentMode).Required()
		if d.InitialPayment.BaseAmount != nil {
			validator.Field("payment.base_amount", *d.InitialPayment.BaseAmount).Custom(func(v interface{}) *errors.AppError {
				if amount, ok := v.(decimal.Decimal); ok && amount.Sign() <= 0 {
					return errors.NewValidationFieldError("payment.base_amount", "base amount must be greater than zero", errors.ErrCodeInvalidAmount)
				}
				return nil
			})
		}
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// LifecycleDTO is the body of the lifecycle endpoint.
type LifecycleDTO struct {
	Action       string `json:"action"`
	HoldReason   string `json:"hold_reason,omitempty"`
	HoldDuration int    `json:"hold_duration,omitempty"`
	HoldUnit     string `json:"hold_unit,omitempty"`
}

type LifecycleResult struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Membership *Membership `json:"membership,omitempty"`
}

type CreatePlanDTO struct {
	Name           string          `json:"name"`
	DurationMonths int             `json:"duration_months"`
	Price          decimal.Decimal `json:"price"`
}

func (d *CreatePlanDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("name", d.Name).Required().MaxLength(120)
	validator.Field("duration_months", d.DurationMonths).MinInt(1, errors.ErrCodeInvalidDuration).MaxInt(120, errors.ErrCodeInvalidDuration)
	validator.Field("price", d.Price).Custom(func(value interface{}) *errors.AppError {
		if p, ok := value.(decimal.Decimal); ok && p.IsNegative() {
			return errors.NewValidationFieldError("price", "price cannot be negative", errors.ErrCodeInvalidAmount)
		}
		return nil
	})

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
