package payment

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/gym-management/internal"
	paymentmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/payment"
)

var hundred = decimal.NewFromInt(100)

// Modes maps a payment mode to its processing fee percentage.
type Modes map[string]decimal.Decimal

func (m Modes) FeePercent(mode string) (decimal.Decimal, error) {
	fee, ok := m[mode]
	if !ok {
		return decimal.Zero, internal.NewValidationFieldError("payment_mode", "unknown payment mode "+mode, internal.ErrCodeUnknownPaymentMode)
	}
	return fee, nil
}

func (m Modes) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Quote is a priced amount for one payment mode.
type Quote struct {
	Mode        string          `json:"payment_mode"`
	BaseAmount  decimal.Decimal `json:"base_amount"`
	FeePercent  decimal.Decimal `json:"fee_percent"`
	FeeAmount   decimal.Decimal `json:"fee_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// QuoteFor prices base under mode. The fee is always taken from the base,
// so requoting an existing payment never compounds a previous fee.
func QuoteFor(modes Modes, base decimal.Decimal, mode string) (Quote, error) {
	if base.Sign() <= 0 {
		return Quote{}, internal.NewValidationFieldError("base_amount", "base amount must be greater than zero", internal.ErrCodeInvalidAmount)
	}
	fee, err := modes.FeePercent(mode)
	if err != nil {
		return Quote{}, err
	}
	feeAmount := base.Mul(fee).Div(hundred).Round(2)
	return Quote{
		Mode:        mode,
		BaseAmount:  base.Round(2),
		FeePercent:  fee,
		FeeAmount:   feeAmount,
		TotalAmount: base.Round(2).Add(feeAmount),
	}, nil
}

// DeriveStatus is pending with nothing paid, full once paid covers total,
// partial in between.
func DeriveStatus(paid, total decimal.Decimal) string {
	switch {
	case paid.Sign() <= 0:
		return paymentmodel.StatusPending
	case paid.GreaterThanOrEqual(total):
		return paymentmodel.StatusFull
	default:
		return paymentmodel.StatusPartial
	}
}

// New builds a payment row for a membership from a quote and an amount
// already paid.
func New(companyID, membershipID, memberID int64, q Quote, paid decimal.Decimal) (*paymentmodel.Payment, error) {
	if paid.IsNegative() {
		return nil, internal.NewValidationFieldError("paid_amount", "paid amount cannot be negative", internal.ErrCodeInvalidAmount)
	}
	if paid.GreaterThan(q.TotalAmount) {
		return nil, ErrOverpayment
	}
	return &paymentmodel.Payment{
		CompanyID:    companyID,
		MembershipID: membershipID,
		MemberID:     memberID,
		BaseAmount:   q.BaseAmount,
		PaymentMode:  q.Mode,
		FeePercent:   q.FeePercent,
		TotalAmount:  q.TotalAmount,
		PaidAmount:   paid.Round(2),
		Status:       DeriveStatus(paid, q.TotalAmount),
	}, nil
}

var ErrOverpayment = internal.NewConflictError("amount exceeds the outstanding balance", internal.ErrCodeOverpayment)

// Collect adds amount to what has been paid and re-derives the status.
func Collect(p *paymentmodel.Payment, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return internal.NewValidationFieldError("amount", "amount must be greater than zero", internal.ErrCodeInvalidAmount)
	}
	paid := p.PaidAmount.Add(amount.Round(2))
	if paid.GreaterThan(p.TotalAmount) {
		return ErrOverpayment
	}
	p.PaidAmount = paid
	p.Status = DeriveStatus(p.PaidAmount, p.TotalAmount)
	return nil
}

// Reprice applies a new quote to an existing payment, keeping what was paid.
func Reprice(p *paymentmodel.Payment, q Quote) error {
	if p.PaidAmount.GreaterThan(q.TotalAmount) {
		return internal.NewConflictError("amount already paid exceeds the new total", internal.ErrCodeOverpayment)
	}
	p.BaseAmount = q.BaseAmount
	p.PaymentMode = q.Mode
	p.FeePercent = q.FeePercent
	p.TotalAmount = q.TotalAmount
	p.Status = DeriveStatus(p.PaidAmount, p.TotalAmount)
	return nil
}

// Payment is the API view of a payment row.
type Payment struct {
	ID           int64           `json:"id"`
	MembershipID int64           `json:"membership_id"`
	MemberID     int64           `json:"member_id"`
	PaymentMode  string          `json:"payment_mode"`
	BaseAmount   decimal.Decimal `json:"base_amount"`
	FeePercent   decimal.Decimal `json:"fee_percent"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	Balance      decimal.Decimal `json:"balance"`
	Status       string          `json:"payment_status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func FromDataModel(p *paymentmodel.Payment) *Payment {
	return &Payment{
		ID:           p.ID,
		MembershipID: p.MembershipID,
		MemberID:     p.MemberID,
		PaymentMode:  p.PaymentMode,
		BaseAmount:   p.BaseAmount,
		FeePercent:   p.FeePercent,
		TotalAmount:  p.TotalAmount,
		PaidAmount:   p.PaidAmount,
		Balance:      p.TotalAmount.Sub(p.PaidAmount),
		Status:       DeriveStatus(p.PaidAmount, p.TotalAmount),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func FromDataModelSlice(payments []paymentmodel.Payment) []*Payment {
	result := make([]*Payment, len(payments))
	for i := range payments {
		result[i] = FromDataModel(&payments[i])
	}
	return result
}
