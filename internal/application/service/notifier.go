package service

import (
	"context"
	"log/slog"

	"github.com/eshaffer321/rentlink-backend/internal/domain/money"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
)

// Notifier delivers a reminder to a tenant over the reminder's channels.
type Notifier interface {
	Notify(ctx context.Context, tenant rental.Tenant, r rental.Reminder) error
}

// LogNotifier writes reminders to the log instead of delivering them.
// Used until an email/SMS gateway is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: loggerOrDefault(logger)}
}

func (n *LogNotifier) Notify(_ context.Context, tenant rental.Tenant, r rental.Reminder) error {
	n.logger.Info("reminder",
		"type", string(r.Type),
		"channels", r.Channels.String(),
		"tenant_id", tenant.ID,
		"email", tenant.Email,
		"due", r.DueDate.Format("2006-01-02"),
		"rent", money.Format(tenant.RentAmount, tenant.Currency),
	)
	return nil
}
