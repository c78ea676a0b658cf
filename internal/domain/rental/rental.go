// Package rental holds the property-management entities shared by storage,
// services and the API: tenants, their payee accounts and rent reminders.
package rental

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the tenant's rent state for the current period.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentOverdue PaymentStatus = "overdue"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentOverdue:
		return true
	}
	return false
}

const (
	// DefaultScore is the reliability score given to new tenants.
	DefaultScore = 80
	// DefaultDueDay is the day of month rent falls due when unset.
	DefaultDueDay = 1
)

// Tenant is a renter tracked for billing and communication.
type Tenant struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	Property      string
	RentAmount    decimal.Decimal
	Currency      string
	PaymentStatus PaymentStatus
	Score         int
	DueDay        int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ApplyDefaults fills the fields an operator form usually leaves empty.
func (t *Tenant) ApplyDefaults() {
	if t.PaymentStatus == "" {
		t.PaymentStatus = PaymentPending
	}
	if t.Score == 0 {
		t.Score = DefaultScore
	}
	if t.DueDay == 0 {
		t.DueDay = DefaultDueDay
	}
	if t.Currency == "" {
		t.Currency = "USD"
	}
}

// DueDate returns the rent due date for the month containing day.
// Due days past the end of a short month are clipped to its last day.
func (t *Tenant) DueDate(day time.Time) time.Time {
	dueDay := t.DueDay
	if dueDay <= 0 {
		dueDay = DefaultDueDay
	}
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if dueDay > last {
		dueDay = last
	}
	return first.AddDate(0, 0, dueDay-1)
}

// AccountStatus is the lifecycle state of a virtual account.
type AccountStatus string

const (
	AccountActive  AccountStatus = "Active"
	AccountPending AccountStatus = "Pending"
	AccountClosed  AccountStatus = "Closed"
)

// Account ties a tenant to a payee issued by the payment provider.
// PayeeID is set once at creation and never rewritten.
type Account struct {
	ID        string
	TenantID  string
	Reference string
	Status    AccountStatus
	PayeeID   string
	CreatedAt time.Time
}

// Date truncates t to midnight UTC. Due dates and run dates are compared
// as calendar days.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
