package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
)

// Amount is a money value as sent by the dashboard: either a JSON number
// (1200) or a currency-formatted string ("$1,200.00").
type Amount string

// UnmarshalJSON accepts numbers and strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a number or a string: %w", err)
	}
	*a = Amount(n.String())
	return nil
}

// CreateTenantRequest is the body of POST /api/tenants.
type CreateTenantRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Property      string `json:"property"`
	RentAmount    Amount `json:"rentAmount"`
	PaymentStatus string `json:"paymentStatus"`
	Score         int    `json:"score"`
	DueDay        int    `json:"dueDay"`
}

// CreateReminderRequest is the body of POST /api/reminders.
// Channels may be sent as an array or as the legacy "channel" string.
type CreateReminderRequest struct {
	Tenant   string            `json:"tenant"`
	Due      string            `json:"due"`
	Type     string            `json:"type"`
	Channels rental.ChannelSet `json:"channels"`
	Channel  string            `json:"channel"`
}

// ReminderRef identifies one reminder in a PUT /api/reminders/update batch.
type ReminderRef struct {
	ID string `json:"_id"`
}

// CreateAccountRequest is the body of POST /api/accounts.
type CreateAccountRequest struct {
	Tenant  string `json:"tenant"`
	Account string `json:"account"`
	PayeeID string `json:"payeeId"`
	Status  string `json:"status"`
}

// RawTransaction is one bank transaction submitted for matching.
type RawTransaction struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Amount      Amount `json:"amount"`
	Description string `json:"description"`
}

// MatchRunRequest is the body of POST /api/matching/runs.
type MatchRunRequest struct {
	Transactions []RawTransaction `json:"transactions"`
}

// OverrideRequest is the body of PUT /api/transactions/{id}/match.
type OverrideRequest struct {
	TenantID string `json:"tenantId"`
}

// PaymentRequest is the body of POST /api/transactions/{id}/payment and
// POST /api/payments. On the transaction route PayeeID and Amount default to
// the stored transaction's values and RequestID is ignored.
type PaymentRequest struct {
	PayeeID   string `json:"payeeId"`
	Amount    Amount `json:"amount"`
	Memo      string `json:"memo"`
	RequestID string `json:"requestId,omitempty"`
}

// TransactionListParams represents query parameters for listing transactions.
type TransactionListParams struct {
	Statuses []string
	TenantID string
	Limit    int
}

// DefaultTransactionListParams returns default values for transaction list params.
func DefaultTransactionListParams() TransactionListParams {
	return TransactionListParams{
		Limit: 100,
	}
}

// MatchRunListParams represents query parameters for listing match runs.
type MatchRunListParams struct {
	Limit int `json:"limit"`
}

// DefaultMatchRunListParams returns default values for match run list params.
func DefaultMatchRunListParams() MatchRunListParams {
	return MatchRunListParams{
		Limit: 20,
	}
}
