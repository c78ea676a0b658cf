package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/domain/reminder"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/eshaffer321/rentlink-backend/internal/domain/validator"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
)

// SendOutcome is the per-reminder result of a markSent or send batch.
type SendOutcome struct {
	ID      string `json:"_id"`
	Updated bool   `json:"updated"`
	Error   string `json:"error,omitempty"`
}

// ReminderService stores, plans and delivers rent reminders.
type ReminderService struct {
	store     storage.Repository
	scheduler *reminder.Scheduler
	notifier  Notifier
	logger    *slog.Logger
}

func NewReminderService(store storage.Repository, scheduler *reminder.Scheduler, notifier Notifier, logger *slog.Logger) *ReminderService {
	logger = loggerOrDefault(logger)
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &ReminderService{store: store, scheduler: scheduler, notifier: notifier, logger: logger}
}

func (s *ReminderService) ListReminders(ctx context.Context) ([]rental.Reminder, error) {
	return s.store.ListReminders(ctx)
}

// CreateReminder stores a reminder. Channels default to the configured set.
func (s *ReminderService) CreateReminder(ctx context.Context, r *rental.Reminder) error {
	if len(r.Channels) == 0 {
		r.Channels = s.scheduler.Config().Channels
	}
	r.DueDate = rental.Date(r.DueDate)
	if err := validator.Reminder(r); err != nil {
		return err
	}
	if err := s.store.CreateReminder(ctx, r); err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

// MarkSent sets lastSent on each reminder independently. Every id gets its
// own outcome and a failure never undoes an earlier success.
func (s *ReminderService) MarkSent(ctx context.Context, ids []string, sentAt time.Time) []SendOutcome {
	outcomes := make([]SendOutcome, 0, len(ids))
	for _, id := range ids {
		outcome := SendOutcome{ID: id}
		switch err := s.store.MarkReminderSent(ctx, id, sentAt); {
		case err == nil:
			outcome.Updated = true
		case errors.Is(err, storage.ErrNotFound):
			outcome.Error = "reminder not found"
		default:
			s.logger.Error("failed to mark reminder sent", "reminder_id", id, "error", err)
			outcome.Error = "failed to update reminder"
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// Schedule plans the reminders due on today and stores the new ones.
// Tenants with an actionable overdue reminder are marked overdue.
func (s *ReminderService) Schedule(ctx context.Context, today time.Time) ([]rental.Reminder, error) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenants: %w", err)
	}
	existing, err := s.store.ListReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminders: %w", err)
	}

	planned := s.scheduler.Plan(today, tenants, existing)
	created := make([]rental.Reminder, 0, len(planned))
	for i := range planned {
		r := planned[i]
		if err := s.store.CreateReminder(ctx, &r); err != nil {
			return created, fmt.Errorf("failed to store reminder for tenant %s: %w", r.TenantID, err)
		}
		created = append(created, r)
	}

	for _, t := range tenants {
		if t.PaymentStatus != rental.PaymentPending {
			continue
		}
		if typ, ok := s.scheduler.Classify(t.DueDate(today), today); ok && typ == rental.ReminderOverdue {
			if err := s.store.UpdateTenantStatus(ctx, t.ID, rental.PaymentOverdue); err != nil {
				s.logger.Warn("failed to mark tenant overdue", "tenant_id", t.ID, "error", err)
			}
		}
	}

	s.logger.Info("reminders scheduled", "date", rental.Date(today).Format(time.DateOnly), "created", len(created))
	return created, nil
}

// Due returns the reminders that should go out on today.
func (s *ReminderService) Due(ctx context.Context, today time.Time) ([]rental.Reminder, error) {
	reminders, err := s.store.ListReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminders: %w", err)
	}
	return s.scheduler.Evaluate(today, reminders), nil
}

// Send delivers the reminders due on today and marks the delivered ones
// sent at now. Undeliverable reminders are reported and left unmarked.
// Reminders of tenants who have since paid are skipped without an outcome.
func (s *ReminderService) Send(ctx context.Context, today, now time.Time) ([]SendOutcome, error) {
	due, err := s.Due(ctx, today)
	if err != nil {
		return nil, err
	}

	outcomes := make([]SendOutcome, 0, len(due))
	var delivered []string
	for _, r := range due {
		tenant, err := s.store.GetTenant(ctx, r.TenantID)
		if err != nil {
			s.logger.Warn("reminder tenant unavailable", "reminder_id", r.ID, "tenant_id", r.TenantID, "error", err)
			outcomes = append(outcomes, SendOutcome{ID: r.ID, Error: "tenant not found"})
			continue
		}
		if tenant.PaymentStatus == rental.PaymentPaid {
			s.logger.Debug("skipping reminder for paid tenant", "reminder_id", r.ID, "tenant_id", r.TenantID)
			continue
		}
		if err := s.notifier.Notify(ctx, *tenant, r); err != nil {
			s.logger.Error("reminder delivery failed", "reminder_id", r.ID, "error", err)
			outcomes = append(outcomes, SendOutcome{ID: r.ID, Error: "delivery failed"})
			continue
		}
		delivered = append(delivered, r.ID)
	}
	return append(outcomes, s.MarkSent(ctx, delivered, now)...), nil
}
