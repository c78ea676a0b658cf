package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// MessageResponse is the {message} body the dashboard expects from
// deletes and batch updates.
type MessageResponse struct {
	Message string `json:"message"`
}

// TenantResponse represents a tenant in API responses.
type TenantResponse struct {
	ID            string `json:"_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	Property      string `json:"property"`
	RentAmount    string `json:"rentAmount"`
	Currency      string `json:"currency"`
	PaymentStatus string `json:"paymentStatus"`
	Score         int    `json:"score"`
	DueDay        int    `json:"dueDay"`
	CreatedAt     string `json:"createdAt"`
}

// ReminderResponse represents a reminder. Channel repeats Channels in the
// legacy "Email, SMS" form for older dashboards.
type ReminderResponse struct {
	ID       string   `json:"_id"`
	Tenant   string   `json:"tenant"`
	Due      string   `json:"due"`
	Type     string   `json:"type"`
	Channels []string `json:"channels"`
	Channel  string   `json:"channel"`
	LastSent *string  `json:"lastSent"`
}

// ReminderOutcome is the per-reminder result of a batch update or send.
type ReminderOutcome struct {
	ID      string `json:"_id"`
	Updated bool   `json:"updated"`
	Error   string `json:"error,omitempty"`
}

// ReminderBatchResponse is returned by PUT /api/reminders/update and
// POST /api/reminders/send.
type ReminderBatchResponse struct {
	Message string            `json:"message"`
	Results []ReminderOutcome `json:"results"`
	Updated int               `json:"updated"`
	Failed  int               `json:"failed"`
}

// AccountResponse represents a virtual account.
type AccountResponse struct {
	ID        string `json:"_id"`
	Tenant    string `json:"tenant"`
	Account   string `json:"account"`
	Status    string `json:"status"`
	PayeeID   string `json:"payeeId"`
	CreatedAt string `json:"createdAt"`
}

// TransactionResponse represents an annotated transaction.
type TransactionResponse struct {
	ID          string `json:"_id"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	TenantID    string `json:"tenantId,omitempty"`
	Tenant      string `json:"tenant"`
	Confidence  string `json:"confidence"`
	Status      string `json:"status"`
	PayeeID     string `json:"payeeId,omitempty"`
	PayeeMinted bool   `json:"payeeMinted,omitempty"`
	Reason      string `json:"reason,omitempty"`
	RunID       string `json:"runId,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// TransactionListResponse is returned when listing transactions.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Count        int                   `json:"count"`
}

// TransitionResponse is one entry of a transaction's status history.
type TransitionResponse struct {
	ID         string `json:"_id"`
	From       string `json:"from"`
	To         string `json:"to"`
	Confidence string `json:"confidence"`
	TenantID   string `json:"tenantId,omitempty"`
	Reason     string `json:"reason,omitempty"`
	RunID      string `json:"runId,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// TransactionHistoryResponse is returned by GET /api/transactions/{id}/history.
type TransactionHistoryResponse struct {
	Transaction TransactionResponse  `json:"transaction"`
	Transitions []TransitionResponse `json:"transitions"`
}

// SummaryResponse counts a run's output per status.
type SummaryResponse struct {
	Matched int `json:"matched"`
	Review  int `json:"review"`
	Failed  int `json:"failed"`
}

// MatchRunResponse represents one matching run.
type MatchRunResponse struct {
	ID               string `json:"_id"`
	Kind             string `json:"kind"`
	Status           string `json:"status"`
	StartedAt        string `json:"startedAt"`
	CompletedAt      string `json:"completedAt,omitempty"`
	TransactionCount int    `json:"transactionCount"`
	Matched          int    `json:"matched"`
	Review           int    `json:"review"`
	Failed           int    `json:"failed"`
	Skipped          int    `json:"skipped"`
	DirectoryError   string `json:"directoryError,omitempty"`
	Error            string `json:"error,omitempty"`
}

// MatchRunListResponse is returned when listing match runs.
type MatchRunListResponse struct {
	Runs  []MatchRunResponse `json:"runs"`
	Count int                `json:"count"`
}

// RunResultResponse is returned after a matching run or re-run.
type RunResultResponse struct {
	Run          MatchRunResponse      `json:"run"`
	Transactions []TransactionResponse `json:"transactions"`
	Summary      SummaryResponse       `json:"summary"`
	Balance      *string               `json:"balance,omitempty"`
}

// PaymentResponse represents a payment attempt.
type PaymentResponse struct {
	ID                string `json:"_id"`
	TransactionID     string `json:"transactionId,omitempty"`
	TenantID          string `json:"tenantId,omitempty"`
	PayeeID           string `json:"payeeId"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Memo              string `json:"memo,omitempty"`
	Status            string `json:"status"`
	ProviderReference string `json:"providerReference,omitempty"`
	Error             string `json:"error,omitempty"`
	Attempts          int    `json:"attempts"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt,omitempty"`
}

// PaymentListResponse is returned when listing payment attempts.
type PaymentListResponse struct {
	Payments []PaymentResponse `json:"payments"`
	Count    int               `json:"count"`
}

// PaymentResultResponse is returned after a successful submission.
type PaymentResultResponse struct {
	Payment         PaymentResponse `json:"payment"`
	ProviderStatus  string          `json:"providerStatus,omitempty"`
	ProviderPayment string          `json:"providerReference,omitempty"`
	Balance         *string         `json:"balance,omitempty"`
}

// BalanceResponse is the provider's spendable balance.
type BalanceResponse struct {
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// FormatTime renders a timestamp for responses; the zero time renders empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// FormatTimePtr is FormatTime for optional timestamps.
func FormatTimePtr(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := FormatTime(*t)
	return &s
}
