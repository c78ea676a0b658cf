package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/application/service"
	"github.com/eshaffer321/rentlink-backend/internal/domain/money"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
)

// PrintRunSummary prints one line per transaction and the run totals.
func PrintRunSummary(out io.Writer, result *service.RunResult) {
	fmt.Fprintf(out, "Run %s (%s)\n", result.Run.ID, result.Run.Status)
	fmt.Fprintln(out, strings.Repeat("-", 60))

	for _, tx := range result.Transactions {
		tenant := tx.TenantName
		if tenant == "" {
			tenant = "Unmatched"
		}
		fmt.Fprintf(out, "%s  %12s  %-8s %-6s  %s",
			tx.Date.Format(time.DateOnly),
			money.Format(tx.Amount, tx.Currency),
			tx.Status, tx.Confidence, tenant)
		if tx.PayeeID != "" {
			fmt.Fprintf(out, " -> %s", tx.PayeeID)
		}
		fmt.Fprintf(out, "\n    %s\n", tx.Description)
	}

	fmt.Fprintln(out, strings.Repeat("-", 60))
	fmt.Fprintf(out, "Summary: Matched=%d Review=%d Failed=%d\n",
		result.Summary.Matched, result.Summary.Review, result.Summary.Failed)
	if result.Run.DirectoryError != "" {
		fmt.Fprintf(out, "Payee directory unavailable: %s\n", result.Run.DirectoryError)
	}
	if result.Balance != nil {
		fmt.Fprintf(out, "Provider balance: %s\n", result.Balance.StringFixed(2))
	}
}

// PrintReminders prints a titled reminder list.
func PrintReminders(out io.Writer, title string, reminders []rental.Reminder) {
	fmt.Fprintf(out, "%s: %d reminder(s)\n", title, len(reminders))
	for _, r := range reminders {
		fmt.Fprintf(out, "  %s  %-8s  tenant=%s  channels=%s\n",
			r.DueDate.Format(time.DateOnly), r.Type, r.TenantID, r.Channels)
	}
}

// PrintOutcomes prints per-reminder send results.
func PrintOutcomes(out io.Writer, outcomes []service.SendOutcome) {
	sent := 0
	for _, o := range outcomes {
		if o.Updated {
			sent++
			continue
		}
		fmt.Fprintf(out, "  %s failed: %s\n", o.ID, o.Error)
	}
	fmt.Fprintf(out, "Sent %d of %d reminder(s)\n", sent, len(outcomes))
}
