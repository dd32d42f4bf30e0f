package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/gym-management/internal/core/events"
	"github.com/frahmantamala/gym-management/internal/membership"
	"github.com/frahmantamala/gym-management/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the in-process event bus and its membership handlers.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a membership event through the registered handlers",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := publishMembershipEvent(context.Background(), args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var (
	eventCompanyID    int64
	eventMembershipID int64
	eventMemberID     int64
	eventDaysOnHold   int
)

func publishMembershipEvent(ctx context.Context, eventType string) error {
	switch eventType {
	case events.EventTypeMembershipCreated, events.EventTypeMembershipHeld, events.EventTypeMembershipResumed:
	default:
		return fmt.Errorf("unknown membership event type %q", eventType)
	}

	lg := logger.LoggerWrapper()
	bus := events.NewEventBus(lg)
	membership.NewEventHandler(lg).RegisterEventHandlers(bus)

	extra := map[string]interface{}{"source": "cli-command"}
	if eventType == events.EventTypeMembershipResumed {
		extra["days_on_hold"] = eventDaysOnHold
	}
	event := events.NewMembershipEvent(eventType, eventCompanyID, eventMembershipID, eventMemberID, extra)

	lg.Info("publishing membership event", "event_type", eventType, "event_id", event.EventID())
	if err := bus.PublishSync(ctx, event); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	lg.Info("membership event handled")
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventCompanyID, "company", 1, "company id")
	publishEventCmd.Flags().Int64Var(&eventMembershipID, "membership", 1, "membership id")
	publishEventCmd.Flags().Int64Var(&eventMemberID, "member", 1, "member id")
	publishEventCmd.Flags().IntVar(&eventDaysOnHold, "days-on-hold", 0, "days on hold, for membership.resumed")

	eventCmd.AddCommand(publishEventCmd)
	rootCmd.AddCommand(eventCmd)
}
