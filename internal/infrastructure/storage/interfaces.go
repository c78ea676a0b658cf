package storage

import (
	"context"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, MongoDB)
// and makes testing with mocks straightforward.
type Repository interface {
	TenantRepository
	AccountRepository
	ReminderRepository
	TransactionRepository
	MatchRunRepository
	PaymentRepository
	Close() error
}

// TenantRepository handles tenant records
type TenantRepository interface {
	// CreateTenant stores a new tenant, assigning an ID if empty.
	// Returns ErrDuplicateEmail when the email (case-insensitive) is taken.
	CreateTenant(ctx context.Context, t *rental.Tenant) error

	// GetTenant returns ErrNotFound for unknown ids
	GetTenant(ctx context.Context, id string) (*rental.Tenant, error)

	// ListTenants returns all tenants ordered by name
	ListTenants(ctx context.Context) ([]rental.Tenant, error)

	UpdateTenantStatus(ctx context.Context, id string, status rental.PaymentStatus) error

	DeleteTenant(ctx context.Context, id string) error
}

// AccountRepository handles virtual accounts. There is no update path:
// an account's payee is fixed at creation.
type AccountRepository interface {
	CreateAccount(ctx context.Context, a *rental.Account) error
	ListAccounts(ctx context.Context) ([]rental.Account, error)
	ListAccountsByTenant(ctx context.Context, tenantID string) ([]rental.Account, error)
}

// ReminderRepository handles reminders
type ReminderRepository interface {
	CreateReminder(ctx context.Context, r *rental.Reminder) error
	GetReminder(ctx context.Context, id string) (*rental.Reminder, error)
	ListReminders(ctx context.Context) ([]rental.Reminder, error)

	// MarkReminderSent sets lastSent on one reminder. Returns ErrNotFound
	// when the reminder does not exist.
	MarkReminderSent(ctx context.Context, id string, sentAt time.Time) error
}

// TransactionRepository persists annotated transactions and their history
type TransactionRepository interface {
	// SaveTransaction upserts a transaction unless the stored copy has a
	// higher status rank. applied is false when the write was refused.
	SaveTransaction(ctx context.Context, tx *TransactionRecord) (applied bool, err error)

	GetTransaction(ctx context.Context, id string) (*TransactionRecord, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]TransactionRecord, error)

	AppendTransition(ctx context.Context, t *Transition) error
	ListTransitions(ctx context.Context, transactionID string) ([]Transition, error)
}

// MatchRunRepository handles matching run tracking
type MatchRunRepository interface {
	// StartMatchRun records the start of a run and returns it
	StartMatchRun(ctx context.Context, kind string) (*MatchRun, error)

	// CompleteMatchRun records counts and completion of a run
	CompleteMatchRun(ctx context.Context, run *MatchRun) error

	GetMatchRun(ctx context.Context, id string) (*MatchRun, error)
	ListMatchRuns(ctx context.Context, limit int) ([]MatchRun, error)
}

// PaymentRepository records payment attempts keyed by idempotency key
type PaymentRepository interface {
	// ReservePayment claims the attempt's idempotency key. It fails with
	// ErrDuplicatePayment when an attempt with the key is pending or
	// succeeded; a failed attempt is reopened for retry.
	ReservePayment(ctx context.Context, p *PaymentAttempt) error

	// CompletePayment records the provider outcome of a reserved attempt
	CompletePayment(ctx context.Context, key string, status PaymentStatus, reference, errMsg string) error

	ListPayments(ctx context.Context, filter PaymentFilter) ([]PaymentAttempt, error)
}
