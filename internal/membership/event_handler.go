package membership

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/gym-management/internal/core/events"
	"github.com/frahmantamala/gym-management/pkg/metrics"
)

// EventHandler records committed lifecycle changes in the transition metrics.
type EventHandler struct {
	logger *slog.Logger
}

func NewEventHandler(logger *slog.Logger) *EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{logger: logger}
}

func (h *EventHandler) HandleLifecycleEvent(ctx context.Context, event events.Event) error {
	ev, ok := event.(*events.MembershipEvent)
	if !ok {
		return fmt.Errorf("expected MembershipEvent, got %T", event)
	}

	action, ok := eventActions[ev.EventType()]
	if !ok {
		return fmt.Errorf("unhandled membership event %s", ev.EventType())
	}
	metrics.MembershipTransitions.WithLabelValues(action, "ok").Inc()

	if ev.EventType() == events.EventTypeMembershipResumed {
		days, ok := daysOnHold(ev.Payload())
		if !ok {
			return fmt.Errorf("membership %d resumed without days_on_hold", ev.MembershipID)
		}
		metrics.MembershipHoldDays.Observe(float64(days))
	}

	h.logger.DebugContext(ctx, "membership event recorded",
		"event_id", ev.EventID(), "company_id", ev.CompanyID, "membership_id", ev.MembershipID, "action", action)
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	for t := range eventActions {
		eventBus.Subscribe(t, h.HandleLifecycleEvent)
	}
}

var eventActions = map[string]string{
	events.EventTypeMembershipCreated: "create",
	events.EventTypeMembershipHeld:    ActionHold,
	events.EventTypeMembershipResumed: ActionResume,
}

func daysOnHold(payload interface{}) (int, bool) {
	data, ok := payload.(map[string]interface{})
	if !ok {
		return 0, false
	}
	switch v := data["days_on_hold"].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
