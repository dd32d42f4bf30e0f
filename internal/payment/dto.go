package payment

import (
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/core/common/validation"
)

type CreatePaymentDTO struct {
	MembershipID int64           `json:"membership_id"`
	BaseAmount   decimal.Decimal `json:"base_amount"`
	PaymentMode  string          `json:"payment_mode"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
}

func (d *CreatePaymentDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("membership_id", d.MembershipID).Required()
	validator.Field("payment_mode", d.PaymentMode).Required()
	validator.Field("base_amount", d.BaseAmount).Custom(positiveAmount("base_amount"))

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type CollectDTO struct {
	Amount decimal.Decimal `json:"amount"`
}

type ChangeModeDTO struct {
	PaymentMode string           `json:"payment_mode"`
	BaseAmount  *decimal.Decimal `json:"base_amount,omitempty"`
}

func (d *ChangeModeDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("payment_mode", d.PaymentMode).Required()
	if d.BaseAmount != nil {
		validator.Field("base_amount", *d.BaseAmount).Custom(positiveAmount("base_amount"))
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func positiveAmount(field string) func(interface{}) *errors.AppError {
	return func(value interface{}) *errors.AppError {
		if v, ok := value.(decimal.Decimal); ok && v.Sign() <= 0 {
			return errors.NewValidationFieldError(field, field+" must be greater than zero", errors.ErrCodeInvalidAmount)
		}
		return nil
	}
}
