package membership

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/audit"
	membershipmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/membership"
	"github.com/frahmantamala/gym-management/internal/core/events"
	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/internal/payment"
	"github.com/frahmantamala/gym-management/internal/tenant"
	"github.com/frahmantamala/gym-management/pkg/metrics"
)

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateMembershipDTO) (*Membership, error)
	Get(ctx context.Context, id int64) (*Membership, error)
	ListByMember(ctx context.Context, memberID int64) ([]*Membership, error)
	Holds(ctx context.Context, id int64) ([]Hold, error)
	Transition(ctx context.Context, id int64, dto LifecycleDTO) (*LifecycleResult, error)
	Plans(ctx context.Context) ([]Plan, error)
	CreatePlan(ctx context.Context, dto CreatePlanDTO) (*Plan, error)
}

type Service struct {
	repo   Repository
	modes  payment.Modes
	bus    Publisher
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, modes payment.Modes, bus Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		modes:  modes,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create opens an active membership for a member, optionally with its first
// payment, in one transaction.
func (s *Service) Create(ctx context.Context, dto CreateMembershipDTO) (*Membership, error) {
	now := s.now()
	if dto.StartDate.IsZero() {
		dto.StartDate = now
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	var actorID int64
	if actor, ok := identity.FromContext(ctx); ok {
		actorID = actor.UserID
	}

	var created *membershipmodel.Membership
	err = s.repo.Transaction(ctx, func(tx TxRepository) error {
		member, err := tx.GetMember(ctx, dto.MemberID)
		if err != nil {
			return err
		}
		plan, err := tx.GetPlan(ctx, dto.PlanID)
		if err != nil {
			return err
		}
		if !plan.IsActive {
			return internal.NewValidationFieldError("plan_id", "plan is not available", internal.ErrCodeValidationFailed)
		}

		start := DateOf(dto.StartDate)
		end, err := TermEnd(start, plan.DurationMonths, dto.EndDate)
		if err != nil {
			return err
		}

		m := &membershipmodel.Membership{
			CompanyID: companyID,
			MemberID:  member.ID,
			PlanID:    plan.ID,
			StartDate: start,
			EndDate:   end,
			Status:    StatusActive,
			CreatedBy: actorID,
		}
		if err := tx.CreateMembership(ctx, m); err != nil {
			return err
		}

		details := map[string]interface{}{
			"member_name": member.Name,
			"plan":        plan.Name,
			"start_date":  start.Format(time.DateOnly),
			"end_date":    end.Format(time.DateOnly),
		}

		if ip := dto.InitialPayment; ip != nil {
			base := plan.Price
			if ip.BaseAmount != nil {
				base = *ip.BaseAmount
			}
			quote, err := payment.QuoteFor(s.modes, base, ip.PaymentMode)
			if err != nil {
				return err
			}
			p, err := payment.New(companyID, m.ID, member.ID, quote, ip.PaidAmount)
			if err != nil {
				return err
			}
			if err := tx.CreatePayment(ctx, p); err != nil {
				return err
			}
			details["payment_id"] = p.ID
			details["payment_status"] = p.Status
		}

		entry, err := audit.NewEntry(ctx, "membership.created", audit.EntityMembership, m.ID, details)
		if err != nil {
			return err
		}
		if err := tx.AppendAudit(ctx, entry); err != nil {
			return err
		}
		created = m
		return nil
	})
	if err != nil {
		return nil, wrapError(err, "failed to create membership")
	}

	s.logger.InfoContext(ctx, "membership created",
		"membership_id", created.ID,
		"member_id", created.MemberID,
		"end_date", created.EndDate.Format(time.DateOnly))
	s.publish(ctx, events.NewMembershipEvent(events.EventTypeMembershipCreated, created.CompanyID, created.ID, created.MemberID, nil))

	return FromDataModel(created, now), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Membership, error) {
	m, err := s.repo.GetMembership(ctx, id)
	if err != nil {
		return nil, wrapError(err, "failed to load membership")
	}
	return FromDataModel(m, s.now()), nil
}

func (s *Service) ListByMember(ctx context.Context, memberID int64) ([]*Membership, error) {
	rows, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, wrapError(err, "failed to list memberships")
	}
	now := s.now()
	out := make([]*Membership, len(rows))
	for i := range rows {
		out[i] = FromDataModel(&rows[i], now)
	}
	return out, nil
}

func (s *Service) Holds(ctx context.Context, id int64) ([]Hold, error) {
	if _, err := s.repo.GetMembership(ctx, id); err != nil {
		return nil, wrapError(err, "failed to load membership")
	}
	rows, err := s.repo.ListHolds(ctx, id)
	if err != nil {
		return nil, wrapError(err, "failed to list holds")
	}
	out := make([]Hold, len(rows))
	for i := range rows {
		out[i] = HoldFromDataModel(&rows[i])
	}
	return out, nil
}

// Transition applies a hold or resume. The membership row is locked for the
// whole read-validate-write so concurrent requests serialise on it.
func (s *Service) Transition(ctx context.Context, id int64, dto LifecycleDTO) (*LifecycleResult, error) {
	action := strings.ToLower(strings.TrimSpace(dto.Action))
	now := s.now()

	var (
		updated *membershipmodel.Membership
		outcome Outcome
	)
	err := s.repo.Transaction(ctx, func(tx TxRepository) error {
		m, err := tx.LockMembership(ctx, id)
		if err != nil {
			return err
		}
		open, err := tx.OpenHold(ctx, m.ID)
		if err != nil {
			return err
		}

		outcome, err = Apply(SnapshotOf(m, open), Event{
			Action:   action,
			Reason:   dto.HoldReason,
			Duration: dto.HoldDuration,
			Unit:     strings.ToLower(strings.TrimSpace(dto.HoldUnit)),
			At:       now,
		})
		if err != nil {
			return err
		}

		applySnapshot(m, outcome.Next)
		if err := tx.UpdateLifecycle(ctx, m); err != nil {
			return err
		}

		member, err := tx.GetMember(ctx, m.MemberID)
		if err != nil {
			return err
		}
		details := map[string]interface{}{"member_name": member.Name}

		switch {
		case outcome.Opened != nil:
			end := outcome.Opened.EndDate
			if err := tx.InsertHold(ctx, &membershipmodel.Hold{
				CompanyID:     m.CompanyID,
				MembershipID:  m.ID,
				HoldStartDate: outcome.Opened.StartDate,
				HoldEndDate:   &end,
				HoldReason:    outcome.Opened.Reason,
			}); err != nil {
				return err
			}
			details["hold_reason"] = outcome.Opened.Reason
			details["hold_start_date"] = outcome.Opened.StartDate.Format(time.DateOnly)
			details["hold_end_date"] = end.Format(time.DateOnly)
		case outcome.Closed != nil:
			end := outcome.Closed.EndDate
			resumed := outcome.Closed.ResumedAt
			open.HoldEndDate = &end
			open.ResumedAt = &resumed
			open.DaysOnHold = outcome.Closed.DaysOnHold
			if err := tx.CloseHold(ctx, open); err != nil {
				return err
			}
			details["days_on_hold"] = outcome.Closed.DaysOnHold
			details["end_date"] = m.EndDate.Format(time.DateOnly)
		}

		entry, err := audit.NewEntry(ctx, "membership."+auditVerb(outcome.Action), audit.EntityMembership, m.ID, details)
		if err != nil {
			return err
		}
		if err := tx.AppendAudit(ctx, entry); err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		var te *TransitionError
		if errors.As(err, &te) {
			metrics.MembershipTransitions.WithLabelValues(metricAction(action), "rejected").Inc()
			s.logger.WarnContext(ctx, "membership transition rejected", "membership_id", id, "action", action, "reason", te.Message)
			return nil, te.AppError()
		}
		metrics.MembershipTransitions.WithLabelValues(metricAction(action), "error").Inc()
		return nil, wrapError(err, "failed to update membership")
	}

	s.logger.InfoContext(ctx, "membership transition applied",
		"membership_id", updated.ID,
		"action", outcome.Action,
		"status", updated.Status,
		"end_date", updated.EndDate.Format(time.DateOnly))

	eventType := events.EventTypeMembershipHeld
	message := "Membership put on hold"
	data := map[string]interface{}{"hold_end_date": outcome.Next.HoldEnd}
	if outcome.Action == ActionResume {
		eventType = events.EventTypeMembershipResumed
		message = "Membership resumed"
		data = map[string]interface{}{"days_on_hold": outcome.Closed.DaysOnHold, "end_date": updated.EndDate}
	}
	s.publish(ctx, events.NewMembershipEvent(eventType, updated.CompanyID, updated.ID, updated.MemberID, data))

	return &LifecycleResult{Success: true, Message: message, Membership: FromDataModel(updated, now)}, nil
}

func (s *Service) Plans(ctx context.Context) ([]Plan, error) {
	rows, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, wrapError(err, "failed to list plans")
	}
	out := make([]Plan, len(rows))
	for i := range rows {
		out[i] = PlanFromDataModel(&rows[i])
	}
	return out, nil
}

func (s *Service) CreatePlan(ctx context.Context, dto CreatePlanDTO) (*Plan, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	companyID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	plan := &membershipmodel.Plan{
		CompanyID:      companyID,
		Name:           strings.TrimSpace(dto.Name),
		DurationMonths: dto.DurationMonths,
		Price:          dto.Price.Round(2),
		IsActive:       true,
	}
	entry, err := audit.NewEntry(ctx, "plan.created", audit.EntityPlan, 0, map[string]interface{}{
		"name":            plan.Name,
		"duration_months": plan.DurationMonths,
		"price":           plan.Price.StringFixed(2),
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreatePlan(ctx, plan, entry); err != nil {
		return nil, wrapError(err, "failed to create plan")
	}
	view := PlanFromDataModel(plan)
	return &view, nil
}

// publish runs after commit; a failing subscriber never undoes a transition.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish membership event", "event_type", event.EventType(), "error", err)
	}
}

func auditVerb(action string) string {
	if action == ActionHold {
		return "held"
	}
	return "resumed"
}

func metricAction(action string) string {
	if action == ActionHold || action == ActionResume {
		return action
	}
	return "unknown"
}

func wrapError(err error, message string) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	return internal.NewInternalError(message, err)
}
