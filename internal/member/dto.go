package member

import (
	errors "github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/core/common/validation"
)

type CreateMemberDTO struct {
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

func (d *CreateMemberDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("name", d.Name).Required().MaxLength(120)
	validator.Field("email", d.Email).Email()
	validator.Field("phone", d.Phone).Custom(phoneLength)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateMemberDTO changes only the fields that are present.
type UpdateMemberDTO struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (d *UpdateMemberDTO) Validate() error {
	validator := validation.NewValidator()

	if d.Name != nil {
		validator.Field("name", *d.Name).Required().MaxLength(120)
	}
	validator.Field("email", d.Email).Email()
	validator.Field("phone", d.Phone).Custom(phoneLength)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func phoneLength(value interface{}) *errors.AppError {
	p, ok := value.(*string)
	if !ok || p == nil {
		return nil
	}
	if n := normalizePhone(p); n != nil && (len(*n) < 6 || len(*n) > 20) {
		return errors.NewValidationFieldError("phone", "phone must have between 6 and 20 digits", errors.ErrCodeValidationFailed)
	}
	return nil
}
