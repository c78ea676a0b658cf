// Package service holds the application workflows: tenant and account
// bookkeeping, matching runs, payment submission and reminder batches.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eshaffer321/rentlink-backend/internal/adapters/payman"
	"github.com/shopspring/decimal"
)

var (
	// ErrPaymentInFlight means another submission for the same transaction
	// has not finished yet.
	ErrPaymentInFlight = errors.New("a payment for this transaction is already in flight")

	// ErrNotPayable means the transaction is not Matched to the given payee.
	ErrNotPayable = errors.New("transaction is not matched to this payee")
)

// PaymentProvider is the payment provider collaborator. *payman.Client
// implements it.
type PaymentProvider interface {
	CreatePayee(ctx context.Context, details payman.PayeeDetails) (*payman.Payee, error)
	SendPayment(ctx context.Context, req payman.PaymentRequest) (*payman.Payment, error)
	SearchPayees(ctx context.Context, filter payman.SearchFilter) ([]payman.Payee, error)
	GetBalance(ctx context.Context, currency string) (decimal.Decimal, error)
}

var _ PaymentProvider = (*payman.Client)(nil)

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
