// Package reminder decides which tenants get a rent reminder on a given day.
//
// A due date inside the lead window is "Due Soon"; a due date in the past is
// "Overdue" but only actionable once it is at least DaysAfter days late, and
// only until the following month's due date replaces it.
// Reminders already sent are repeated every FollowUpDays while they remain
// actionable.
package reminder

import (
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
)

// Config holds scheduler configuration
type Config struct {
	DaysBefore   int // Lead window for Due Soon (default 7)
	DaysAfter    int // Days late before Overdue is sent (default 1)
	FollowUpDays int // Minimum days between repeats (default 3)
	Channels     rental.ChannelSet
}

// DefaultConfig returns the defaults of the reminder settings screen:
// a week's notice, one day of grace, a follow-up every three days, email only.
func DefaultConfig() Config {
	return Config{
		DaysBefore:   7,
		DaysAfter:    1,
		FollowUpDays: 3,
		Channels:     rental.ChannelSet{rental.ChannelEmail},
	}
}

// Scheduler classifies due dates and plans reminders.
type Scheduler struct {
	config Config
}

// NewScheduler creates a scheduler with the given config
func NewScheduler(config Config) *Scheduler {
	return &Scheduler{config: config}
}

// Config returns the scheduler's configuration.
func (s *Scheduler) Config() Config {
	return s.config
}

func daysBetween(from, to time.Time) int {
	return int(rental.Date(to).Sub(rental.Date(from)).Hours() / 24)
}

// Classify returns the reminder type for a due date as seen on today and
// whether a reminder of that type should go out.
func (s *Scheduler) Classify(due, today time.Time) (rental.ReminderType, bool) {
	until := daysBetween(today, due)
	switch {
	case until >= 0 && until <= s.config.DaysBefore:
		return rental.ReminderDueSoon, true
	case until < 0:
		superseded := !rental.Date(today).Before(rental.Date(due).AddDate(0, 1, 0))
		return rental.ReminderOverdue, -until >= s.config.DaysAfter && !superseded
	}
	return "", false
}

// Evaluate returns the reminders that should be sent on today.
func (s *Scheduler) Evaluate(today time.Time, reminders []rental.Reminder) []rental.Reminder {
	var due []rental.Reminder
	for _, r := range reminders {
		typ, ok := s.Classify(r.DueDate, today)
		if !ok || typ != r.Type {
			continue
		}
		if r.LastSent != nil && daysBetween(*r.LastSent, today) < s.config.FollowUpDays {
			continue
		}
		due = append(due, r)
	}
	return due
}

type reminderKey struct {
	tenantID string
	due      string
	typ      rental.ReminderType
}

func keyOf(tenantID string, due time.Time, typ rental.ReminderType) reminderKey {
	return reminderKey{tenantID: tenantID, due: due.Format(time.DateOnly), typ: typ}
}

// Plan proposes the reminders that should exist on today and do not yet.
// Paid tenants are skipped. Both this month's and next month's due dates
// are considered so the lead window can cross a month boundary.
func (s *Scheduler) Plan(today time.Time, tenants []rental.Tenant, existing []rental.Reminder) []rental.Reminder {
	today = rental.Date(today)

	seen := make(map[reminderKey]bool, len(existing))
	for _, r := range existing {
		seen[keyOf(r.TenantID, rental.Date(r.DueDate), r.Type)] = true
	}

	var planned []rental.Reminder
	for _, t := range tenants {
		if t.PaymentStatus == rental.PaymentPaid {
			continue
		}
		firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		for _, month := range []time.Time{firstOfMonth, firstOfMonth.AddDate(0, 1, 0)} {
			due := t.DueDate(month)
			typ, ok := s.Classify(due, today)
			if !ok {
				continue
			}
			key := keyOf(t.ID, due, typ)
			if seen[key] {
				continue
			}
			seen[key] = true
			planned = append(planned, rental.Reminder{
				TenantID: t.ID,
				DueDate:  due,
				Type:     typ,
				Channels: s.config.Channels,
			})
		}
	}
	return planned
}
