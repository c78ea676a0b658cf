package matcher

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the disposition of a transaction.
type Status string

const (
	StatusNew     Status = ""
	StatusFailed  Status = "Failed"
	StatusReview  Status = "Review"
	StatusMatched Status = "Matched"
)

// Rank orders statuses so that merges can refuse to move backwards:
// new < Failed < Review < Matched.
func (s Status) Rank() int {
	switch s {
	case StatusFailed:
		return 1
	case StatusReview:
		return 2
	case StatusMatched:
		return 3
	}
	return 0
}

// Valid reports whether s is a known status (including new).
func (s Status) Valid() bool {
	return s == StatusNew || s == StatusFailed || s == StatusReview || s == StatusMatched
}

// Confidence is a coarse reliability grade for a proposed match.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Unmatched is the tenant name shown on transactions with no tenant.
const Unmatched = "Unmatched"

// Reasons recorded on classified transactions.
const (
	ReasonAmountAndName  = "amount+name"
	ReasonName           = "name"
	ReasonAmount         = "amount"
	ReasonWeakName       = "weak-name"
	ReasonNoCandidate    = "no-candidate"
	ReasonNotIncoming    = "not-incoming"
	ReasonTokenOverlap   = "fallback:token-overlap"
	ReasonUniqueAmount   = "fallback:unique-amount"
	ReasonFallbackFailed = "fallback:exhausted"
	ReasonOperator       = "operator"
)

// Transaction is a bank transaction, raw on input and annotated on output.
type Transaction struct {
	ID          string
	Date        time.Time
	Amount      decimal.Decimal
	AmountText  string
	Currency    string
	Description string

	TenantID          string
	TenantName        string
	Confidence        Confidence
	Status            Status
	PayeeID           string
	PayeeMinted       bool
	FallbackExhausted bool
	Reason            string
}

// Tenant is the matcher's view of a tenant.
type Tenant struct {
	ID       string
	Name     string
	Email    string
	Property string
	Rent     decimal.Decimal
}

// Payee is a directory entry. Entries with a TenantID come from stored
// accounts; entries without one come from the provider's payee search.
type Payee struct {
	ID       string
	Name     string
	TenantID string
	Active   bool
}

// Config holds matcher configuration
type Config struct {
	AmountTolerance    decimal.Decimal // Default: 0.01 (1 cent)
	MinSimilarity      float64         // Below this a name signal is ignored (default 0.60)
	StrongSimilarity   float64         // At or above this a name signal is strong (default 0.85)
	FallbackMinOverlap float64         // Token overlap needed by the fallback (default 0.50)
	UnresolvedMarkers  []string        // Description markers that enable the fallback
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		AmountTolerance:    decimal.RequireFromString("0.01"),
		MinSimilarity:      0.60,
		StrongSimilarity:   0.85,
		FallbackMinOverlap: 0.50,
		UnresolvedMarkers:  []string{"UNKN", "UNKNOWN", "UNRESOLVED", "UNIDENTIFIED"},
	}
}

// TransactionID derives a stable id from the fields a bank feed always has,
// so re-importing the same statement yields the same ids.
func TransactionID(date time.Time, amount decimal.Decimal, description string) string {
	payload := date.Format(time.DateOnly) + "|" + amount.StringFixed(2) + "|" +
		strings.ToLower(strings.Join(strings.Fields(description), " "))
	hash := sha256.Sum256([]byte(payload))
	return "tx-" + hex.EncodeToString(hash[:12])
}

// Summary counts transactions per status.
type Summary struct {
	Matched int
	Review  int
	Failed  int
}

// Summarize counts the statuses of a run's output.
func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		switch tx.Status {
		case StatusMatched:
			s.Matched++
		case StatusReview:
			s.Review++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
