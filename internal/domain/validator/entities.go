package validator

import (
	"net/mail"
	"strings"

	"github.com/eshaffer321/rentlink-backend/internal/domain/money"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/shopspring/decimal"
)

// MissingAccountFields is the message returned when an account is created
// without its tenant, reference or payee.
const MissingAccountFields = "Missing required fields (tenant, account, or payeeId)"

// Tenant validates a tenant before it is stored. Defaults must already be applied.
func Tenant(t *rental.Tenant) error {
	var errs Errors

	if strings.TrimSpace(t.Name) == "" {
		errs.Add("name", "is required")
	}
	if strings.TrimSpace(t.Email) == "" {
		errs.Add("email", "is required")
	} else if _, err := mail.ParseAddress(t.Email); err != nil {
		errs.Add("email", "is not a valid address")
	}
	if strings.TrimSpace(t.Property) == "" {
		errs.Add("property", "is required")
	}
	if !t.RentAmount.IsPositive() {
		errs.Add("rentAmount", "must be greater than zero")
	}
	if !t.PaymentStatus.Valid() {
		errs.Add("paymentStatus", "must be one of paid, pending, overdue")
	}
	if t.Score < 0 || t.Score > 100 {
		errs.Add("score", "must be between 0 and 100")
	}
	if t.DueDay < 1 || t.DueDay > 31 {
		errs.Add("dueDay", "must be between 1 and 31")
	}

	return errs.Err()
}

// RentAmount parses an operator-entered rent such as "$1,200/mo".
func RentAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, NewError("rentAmount", "is required")
	}
	d, err := money.ParsePositive(s)
	if err != nil {
		return decimal.Zero, NewError("rentAmount", err.Error())
	}
	return d, nil
}

// PaymentAmount parses the currency-formatted amount of a payment request.
func PaymentAmount(s string) (decimal.Decimal, error) {
	d, err := money.ParsePositive(s)
	if err != nil {
		return decimal.Zero, NewError("amount", err.Error())
	}
	return d, nil
}

// Account validates a virtual account.
func Account(a *rental.Account) error {
	if strings.TrimSpace(a.TenantID) == "" ||
		strings.TrimSpace(a.Reference) == "" ||
		strings.TrimSpace(a.PayeeID) == "" {
		return NewError("", MissingAccountFields)
	}
	switch a.Status {
	case rental.AccountActive, rental.AccountPending, rental.AccountClosed:
	default:
		return NewError("status", "must be one of Active, Pending, Closed")
	}
	return nil
}

// Reminder validates a reminder before it is stored.
func Reminder(r *rental.Reminder) error {
	var errs Errors

	if strings.TrimSpace(r.TenantID) == "" {
		errs.Add("tenant", "is required")
	}
	if r.DueDate.IsZero() {
		errs.Add("due", "is required")
	}
	if !r.Type.Valid() {
		errs.Add("type", "must be Due Soon or Overdue")
	}
	if len(r.Channels) == 0 {
		errs.Add("channel", "at least one channel is required")
	}

	return errs.Err()
}
