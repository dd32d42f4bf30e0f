package membership

import (
	"strings"
	"time"

	"github.com/frahmantamala/gym-management/internal"
)

const (
	StatusActive    = "active"
	StatusOnHold    = "on_hold"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

const (
	ActionHold   = "hold"
	ActionResume = "resume"
)

// TransitionError is a rejected lifecycle event.
type TransitionError struct {
	Code    internal.ErrorCode
	Message string
}

func (e *TransitionError) Error() string {
	return e.Message
}

func (e *TransitionError) AppError() *internal.AppError {
	return internal.NewInvalidTransitionError(e.Message, e.Code)
}

var (
	ErrHoldAlreadyOpen = &TransitionError{Code: internal.ErrCodeHoldAlreadyOpen, Message: "membership is already on hold"}
	ErrNoOpenHold      = &TransitionError{Code: internal.ErrCodeNoOpenHold, Message: "membership is not on hold"}
	ErrNotActive       = &TransitionError{Code: internal.ErrCodeMembershipNotActive, Message: "only active memberships can be put on hold"}
	ErrExpired         = &TransitionError{Code: internal.ErrCodeMembershipExpired, Message: "membership has expired"}
	ErrUnknownAction   = &TransitionError{Code: internal.ErrCodeUnknownAction, Message: "action must be hold or resume"}
)

// Snapshot is the part of a membership the lifecycle reads and writes.
type Snapshot struct {
	Status     string
	StartDate  time.Time
	EndDate    time.Time
	IsOnHold   bool
	HoldStart  *time.Time
	HoldEnd    *time.Time
	HoldReason *string

	// OpenHold is the history row with no resumed_at, if any.
	OpenHold *OpenHold
}

type OpenHold struct {
	StartDate time.Time
	EndDate   *time.Time
}

type Event struct {
	Action   string
	Reason   string
	Duration int
	Unit     string
	At       time.Time
}

// Outcome is the accepted result of an event: the next snapshot plus the
// history row to open or close.
type Outcome struct {
	Action string
	Next   Snapshot
	Opened *HoldRecord
	Closed *ClosedHold
}

type HoldRecord struct {
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

type ClosedHold struct {
	EndDate    time.Time
	ResumedAt  time.Time
	DaysOnHold int
}

// EffectiveStatus reports expired for an active membership whose end date has
// passed. A membership on hold never expires while the hold is open.
func (s Snapshot) EffectiveStatus(now time.Time) string {
	if s.Status == StatusActive && DateOf(now).After(DateOf(s.EndDate)) {
		return StatusExpired
	}
	return s.Status
}

func (s Snapshot) holdOpen() bool {
	return s.OpenHold != nil || s.IsOnHold || s.Status == StatusOnHold
}

// Apply is the lifecycle transition function. It never mutates s.
func Apply(s Snapshot, ev Event) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(ev.Action)) {
	case ActionHold:
		return hold(s, ev)
	case ActionResume:
		return resume(s, ev)
	}
	return Outcome{}, ErrUnknownAction
}

func hold(s Snapshot, ev Event) (Outcome, error) {
	reason := strings.TrimSpace(ev.Reason)
	if reason == "" {
		return Outcome{}, &TransitionError{Code: internal.ErrCodeValidationFailed, Message: "hold reason is required"}
	}
	if ev.Duration <= 0 {
		return Outcome{}, &TransitionError{Code: internal.ErrCodeInvalidDuration, Message: "hold duration must be a positive number"}
	}
	if ev.Unit != UnitDays && ev.Unit != UnitMonths {
		return Outcome{}, &TransitionError{Code: internal.ErrCodeInvalidDuration, Message: "hold unit must be days or months"}
	}

	if s.holdOpen() {
		return Outcome{}, ErrHoldAlreadyOpen
	}
	if s.Status != StatusActive {
		return Outcome{}, ErrNotActive
	}
	if s.EffectiveStatus(ev.At) == StatusExpired {
		return Outcome{}, ErrExpired
	}

	start := DateOf(ev.At)
	end, err := AddDuration(start, ev.Duration, ev.Unit)
	if err != nil {
		return Outcome{}, &TransitionError{Code: internal.ErrCodeInvalidDuration, Message: err.Error()}
	}

	next := s
	next.Status = StatusOnHold
	next.IsOnHold = true
	next.HoldStart = &start
	next.HoldEnd = &end
	next.HoldReason = &reason
	next.OpenHold = &OpenHold{StartDate: start, EndDate: &end}

	return Outcome{
		Action: ActionHold,
		Next:   next,
		Opened: &HoldRecord{StartDate: start, EndDate: end, Reason: reason},
	}, nil
}

// resume credits the whole calendar days actually spent on hold, whatever
// duration was originally requested.
func resume(s Snapshot, ev Event) (Outcome, error) {
	if s.OpenHold == nil {
		return Outcome{}, ErrNoOpenHold
	}

	days := DaysBetween(s.OpenHold.StartDate, ev.At)
	if days < 0 {
		days = 0
	}

	closedEnd := DateOf(ev.At)
	if s.OpenHold.EndDate != nil {
		closedEnd = *s.OpenHold.EndDate
	}

	next := s
	next.Status = StatusActive
	next.IsOnHold = false
	next.HoldStart = nil
	next.HoldEnd = nil
	next.HoldReason = nil
	next.OpenHold = nil
	next.EndDate = AddDays(s.EndDate, days)

	return Outcome{
		Action: ActionResume,
		Next:   next,
		Closed: &ClosedHold{EndDate: closedEnd, ResumedAt: ev.At, DaysOnHold: days},
	}, nil
}

// TermEnd is the end date of a new membership: start plus the plan's months,
// or an explicit end that must fall strictly after start.
func TermEnd(start time.Time, durationMonths int, explicitEnd *time.Time) (time.Time, error) {
	if explicitEnd != nil {
		end := DateOf(*explicitEnd)
		if !end.After(DateOf(start)) {
			return time.Time{}, internal.NewValidationFieldError("end_date", "end date must be after start date", internal.ErrCodeInvalidDate)
		}
		return end, nil
	}
	if durationMonths <= 0 {
		return time.Time{}, internal.NewValidationError("plan has no duration", internal.ErrCodeInvalidDuration)
	}
	return AddMonths(start, durationMonths), nil
}
