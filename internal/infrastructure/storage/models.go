package storage

import (
	"errors"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateEmail   = errors.New("a tenant with this email already exists")
	ErrDuplicatePayment = errors.New("a payment with this idempotency key is already pending or complete")
)

// TransactionRecord is an annotated transaction as stored.
type TransactionRecord struct {
	matcher.Transaction
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransactionFilter narrows ListTransactions. Zero values match everything.
type TransactionFilter struct {
	Statuses []matcher.Status
	TenantID string
	Limit    int
}

// Transition is one status change of a transaction.
type Transition struct {
	ID            string
	TransactionID string
	From          matcher.Status
	To            matcher.Status
	Confidence    matcher.Confidence
	TenantID      string
	Reason        string
	RunID         string
	CreatedAt     time.Time
}

// Match run kinds and states
const (
	RunKindBatch = "batch"
	RunKindRerun = "rerun"

	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// MatchRun represents one execution of the matching engine
type MatchRun struct {
	ID               string     `json:"id"`
	Kind             string     `json:"kind"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	TransactionCount int        `json:"transaction_count"`
	Matched          int        `json:"matched"`
	Review           int        `json:"review"`
	Failed           int        `json:"failed"`
	Skipped          int        `json:"skipped"`
	DirectoryError   string     `json:"directory_error,omitempty"`
	Error            string     `json:"error,omitempty"`
}

// PaymentStatus is the state of a payment attempt
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentAttempt is a payment submission and its outcome
type PaymentAttempt struct {
	IdempotencyKey    string
	TransactionID     string
	TenantID          string
	PayeeID           string
	Amount            decimal.Decimal
	Currency          string
	Memo              string
	Status            PaymentStatus
	ProviderReference string
	Error             string
	Attempts          int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PaymentFilter narrows ListPayments
type PaymentFilter struct {
	TransactionID string
	Limit         int
}
