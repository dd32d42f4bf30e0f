package payment

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/audit"
	auditmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/audit"
	paymentmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/payment"
	"github.com/frahmantamala/gym-management/internal/tenant"
)

type RepositoryAPI interface {
	Transaction(ctx context.Context, fn func(tx TxRepository) error) error
	Get(ctx context.Context, id int64) (*paymentmodel.Payment, error)
	ListByMembership(ctx context.Context, membershipID int64) ([]paymentmodel.Payment, error)
}

// TxRepository is the view of the store inside one transaction. Every read is
// scoped to the company in ctx.
type TxRepository interface {
	LockPayment(ctx context.Context, id int64) (*paymentmodel.Payment, error)
	MembershipMemberID(ctx context.Context, membershipID int64) (int64, error)
	Create(ctx context.Context, p *paymentmodel.Payment) error
	Save(ctx context.Context, p *paymentmodel.Payment) error
	AppendAudit(ctx context.Context, entry *auditmodel.Entry) error
}

type ServiceAPI interface {
	Modes() []Quote
	Get(ctx context.Context, id int64) (*Payment, error)
	ListByMembership(ctx context.Context, membershipID int64) ([]*Payment, error)
	Create(ctx context.Context, dto CreatePaymentDTO) (*Payment, error)
	Collect(ctx context.Context, id int64, dto CollectDTO) (*Payment, error)
	ChangeMode(ctx context.Context, id int64, dto ChangeModeDTO) (*Payment, error)
}

type Service struct {
	repo   RepositoryAPI
	modes  Modes
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, modes Modes, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, modes: modes, logger: logger}
}

// Modes lists each configured mode with its fee percentage.
func (s *Service) Modes() []Quote {
	names := s.modes.Names()
	out := make([]Quote, 0, len(names))
	for _, name := range names {
		out = append(out, Quote{Mode: name, FeePercent: s.modes[name]})
	}
	return out
}

func (s *Service) Get(ctx context.Context, id int64) (*Payment, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapError(err, "failed to load payment")
	}
	return FromDataModel(p), nil
}

func (s *Service) ListByMembership(ctx context.Context, membershipID int64) ([]*Payment, error) {
	payments, err := s.repo.ListByMembership(ctx, membershipID)
	if err != nil {
		return nil, wrapError(err, "failed to list payments")
	}
	return FromDataModelSlice(payments), nil
}

func (s *Service) Create(ctx context.Context, dto CreatePaymentDTO) (*Payment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	quote, err := QuoteFor(s.modes, dto.BaseAmount, dto.PaymentMode)
	if err != nil {
		return nil, err
	}

	var created *paymentmodel.Payment
	err = s.repo.Transaction(ctx, func(tx TxRepository) error {
		memberID, err := tx.MembershipMemberID(ctx, dto.MembershipID)
		if err != nil {
			return err
		}
		p, err := New(companyID, dto.MembershipID, memberID, quote, dto.PaidAmount)
		if err != nil {
			return err
		}
		if err := tx.Create(ctx, p); err != nil {
			return err
		}
		entry, err := audit.NewEntry(ctx, "payment.created", audit.EntityPayment, p.ID, map[string]interface{}{
			"membership_id": p.MembershipID,
			"payment_mode":  p.PaymentMode,
			"total_amount":  p.TotalAmount.StringFixed(2),
			"paid_amount":   p.PaidAmount.StringFixed(2),
		})
		if err != nil {
			return err
		}
		created = p
		return tx.AppendAudit(ctx, entry)
	})
	if err != nil {
		return nil, wrapError(err, "failed to create payment")
	}

	s.logger.InfoContext(ctx, "payment created",
		"payment_id", created.ID,
		"membership_id", created.MembershipID,
		"status", created.Status)
	return FromDataModel(created), nil
}

// Collect records an amount received against the outstanding balance.
func (s *Service) Collect(ctx context.Context, id int64, dto CollectDTO) (*Payment, error) {
	return s.mutate(ctx, id, "payment.collected", func(p *paymentmodel.Payment) (map[string]interface{}, error) {
		if err := Collect(p, dto.Amount); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"amount":      dto.Amount.StringFixed(2),
			"paid_amount": p.PaidAmount.StringFixed(2),
			"status":      p.Status,
		}, nil
	})
}

// ChangeMode requotes the payment under another mode, optionally with a new
// base amount. The total is rebuilt from the base.
func (s *Service) ChangeMode(ctx context.Context, id int64, dto ChangeModeDTO) (*Payment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, "payment.mode_changed", func(p *paymentmodel.Payment) (map[string]interface{}, error) {
		previous := p.PaymentMode
		base := p.BaseAmount
		if dto.BaseAmount != nil {
			base = *dto.BaseAmount
		}
		quote, err := QuoteFor(s.modes, base, dto.PaymentMode)
		if err != nil {
			return nil, err
		}
		if err := Reprice(p, quote); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"from_mode":    previous,
			"to_mode":      p.PaymentMode,
			"total_amount": p.TotalAmount.StringFixed(2),
		}, nil
	})
}

func (s *Service) mutate(ctx context.Context, id int64, action string, change func(p *paymentmodel.Payment) (map[string]interface{}, error)) (*Payment, error) {
	var updated *paymentmodel.Payment
	err := s.repo.Transaction(ctx, func(tx TxRepository) error {
		p, err := tx.LockPayment(ctx, id)
		if err != nil {
			return err
		}
		details, err := change(p)
		if err != nil {
			return err
		}
		if err := tx.Save(ctx, p); err != nil {
			return err
		}
		entry, err := audit.NewEntry(ctx, action, audit.EntityPayment, p.ID, details)
		if err != nil {
			return err
		}
		updated = p
		return tx.AppendAudit(ctx, entry)
	})
	if err != nil {
		return nil, wrapError(err, "failed to update payment")
	}

	s.logger.InfoContext(ctx, "payment updated", "payment_id", id, "action", action, "status", updated.Status)
	return FromDataModel(updated), nil
}

func wrapError(err error, message string) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	return internal.NewInternalError(message, err)
}
