package cli

import (
	"context"
	"fmt"
	"io"
	"time"
)

// RunRemind plans reminders for date and then either lists the ones due or,
// with send, delivers them and records lastSent.
func RunRemind(ctx context.Context, app *App, date time.Time, send bool, out io.Writer) error {
	reminders := app.Services.Reminders

	created, err := reminders.Schedule(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}
	PrintReminders(out, fmt.Sprintf("Scheduled for %s", date.Format(time.DateOnly)), created)

	if !send {
		due, err := reminders.Due(ctx, date)
		if err != nil {
			return fmt.Errorf("failed to evaluate reminders: %w", err)
		}
		PrintReminders(out, "Due", due)
		return nil
	}

	outcomes, err := reminders.Send(ctx, date, time.Now())
	if err != nil {
		return fmt.Errorf("failed to send reminders: %w", err)
	}
	PrintOutcomes(out, outcomes)
	return nil
}
