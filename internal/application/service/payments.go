package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/eshaffer321/rentlink-backend/internal/adapters/payman"
	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/eshaffer321/rentlink-backend/internal/domain/money"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/eshaffer321/rentlink-backend/internal/domain/validator"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/tracing"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PaymentRequest is an operator's instruction to pay out a transaction.
type PaymentRequest struct {
	TransactionID string // optional; when set the transaction must be Matched to PayeeID
	PayeeID       string
	Amount        string // currency formatted, e.g. "$1,200.00"
	Memo          string
	// RequestID identifies one submission; required when TransactionID is empty.
	RequestID string
}

// PaymentResult is a confirmed payment.
type PaymentResult struct {
	Attempt storage.PaymentAttempt
	Payment *payman.Payment
	// Balance is the refreshed provider balance, nil when the call failed.
	Balance *decimal.Decimal
}

// PaymentService submits payments at most once per idempotency key and
// proxies the provider's payee directory and balance.
type PaymentService struct {
	store    storage.Repository
	provider PaymentProvider
	logger   *slog.Logger
	tracer   trace.Tracer

	inFlight   map[string]struct{}
	inFlightMu sync.Mutex
}

func NewPaymentService(store storage.Repository, provider PaymentProvider, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		store:    store,
		provider: provider,
		logger:   loggerOrDefault(logger),
		tracer:   tracing.Tracer("payments"),
		inFlight: make(map[string]struct{}),
	}
}

// IdempotencyKey derives the provider deduplication key of a submission.
// A transaction payout is keyed by the transaction; an ad-hoc payment by
// the caller's request id, so two separate payouts of the same amount to
// the same payee do not collide.
func IdempotencyKey(transactionID, requestID, payeeID string, amount decimal.Decimal) string {
	scope := "tx:" + transactionID
	if transactionID == "" {
		scope = "req:" + requestID
	}
	sum := sha256.Sum256([]byte(scope + "|" + payeeID + "|" + amount.StringFixed(2)))
	return hex.EncodeToString(sum[:16])
}

func (s *PaymentService) tryLock(key string) bool {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *PaymentService) unlock(key string) {
	s.inFlightMu.Lock()
	delete(s.inFlight, key)
	s.inFlightMu.Unlock()
}

// Submit validates and sends a payment. Input errors are reported before
// any provider call. Provider rejections are recorded and never retried.
func (s *PaymentService) Submit(ctx context.Context, req PaymentRequest) (result *PaymentResult, err error) {
	amount, err := validator.PaymentAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	payeeID := strings.TrimSpace(req.PayeeID)
	if payeeID == "" {
		return nil, validator.NewError("payeeId", "is required")
	}
	requestID := strings.TrimSpace(req.RequestID)
	if req.TransactionID == "" && requestID == "" {
		return nil, validator.NewError("requestId", "is required for payments without a transaction")
	}

	ctx, span := s.tracer.Start(ctx, "payments.submit", trace.WithAttributes(
		attribute.String("transaction_id", req.TransactionID),
		attribute.String("payee_id", payeeID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var tx *storage.TransactionRecord
	if req.TransactionID != "" {
		tx, err = s.store.GetTransaction(ctx, req.TransactionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load transaction %s: %w", req.TransactionID, err)
		}
		if tx.Status != matcher.StatusMatched || tx.PayeeID != payeeID {
			return nil, ErrNotPayable
		}
	}

	lockKey := req.TransactionID
	if lockKey == "" {
		lockKey = "request:" + requestID
	}
	if !s.tryLock(lockKey) {
		return nil, ErrPaymentInFlight
	}
	defer s.unlock(lockKey)

	currency := money.CurrencyOf(req.Amount)
	attempt := &storage.PaymentAttempt{
		IdempotencyKey: IdempotencyKey(req.TransactionID, requestID, payeeID, amount),
		TransactionID:  req.TransactionID,
		PayeeID:        payeeID,
		Amount:         amount,
		Currency:       currency,
		Memo:           req.Memo,
	}
	if tx != nil {
		attempt.TenantID = tx.TenantID
	}
	if err := s.store.ReservePayment(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to reserve payment: %w", err)
	}
	logger := s.logger.With("idempotency_key", attempt.IdempotencyKey, "payee_id", payeeID)

	payment, sendErr := s.provider.SendPayment(ctx, payman.PaymentRequest{
		Amount:         amount,
		PayeeID:        payeeID,
		Memo:           req.Memo,
		IdempotencyKey: attempt.IdempotencyKey,
	})
	if sendErr != nil {
		logger.Error("payment failed", "amount", amount.StringFixed(2), "error", sendErr)
		if cerr := s.store.CompletePayment(ctx, attempt.IdempotencyKey, storage.PaymentFailed, "", sendErr.Error()); cerr != nil {
			logger.Error("failed to record payment failure", "error", cerr)
		}
		return nil, sendErr
	}

	if err := s.store.CompletePayment(ctx, attempt.IdempotencyKey, storage.PaymentSucceeded, payment.Reference, ""); err != nil {
		// The provider already accepted the payment; the key stays reserved as pending.
		logger.Error("failed to record payment success", "reference", payment.Reference, "error", err)
	}
	attempt.Status = storage.PaymentSucceeded
	attempt.ProviderReference = payment.Reference
	logger.Info("payment sent", "amount", money.Format(amount, currency), "reference", payment.Reference)

	if attempt.TenantID != "" {
		s.settleTenant(ctx, attempt.TenantID, amount, logger)
	}

	return &PaymentResult{
		Attempt: *attempt,
		Payment: payment,
		Balance: s.refreshBalance(ctx, currency),
	}, nil
}

// settleTenant marks the tenant paid and checks the payment against the rent.
func (s *PaymentService) settleTenant(ctx context.Context, tenantID string, amount decimal.Decimal, logger *slog.Logger) {
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		logger.Warn("failed to load tenant after payment", "tenant_id", tenantID, "error", err)
		return
	}
	if check := validator.ValidateRentPayments([]decimal.Decimal{amount}, tenant.RentAmount, decimal.Zero); !check.Valid {
		logger.Warn("payment does not cover rent", "tenant_id", tenantID, "reason", check.Reason)
	}
	if err := s.store.UpdateTenantStatus(ctx, tenantID, rental.PaymentPaid); err != nil {
		logger.Warn("failed to mark tenant paid", "tenant_id", tenantID, "error", err)
	}
}

func (s *PaymentService) refreshBalance(ctx context.Context, currency string) *decimal.Decimal {
	balance, err := s.provider.GetBalance(ctx, currency)
	if err != nil {
		s.logger.Warn("balance refresh failed", "currency", currency, "error", err)
		return nil
	}
	return &balance
}

// ListPayments returns recorded payment attempts.
func (s *PaymentService) ListPayments(ctx context.Context, filter storage.PaymentFilter) ([]storage.PaymentAttempt, error) {
	return s.store.ListPayments(ctx, filter)
}

// SearchPayees proxies the provider's payee search.
func (s *PaymentService) SearchPayees(ctx context.Context, filter payman.SearchFilter) ([]payman.Payee, error) {
	return s.provider.SearchPayees(ctx, filter)
}

// RegisterPayee creates a payee at the provider.
func (s *PaymentService) RegisterPayee(ctx context.Context, details payman.PayeeDetails) (*payman.Payee, error) {
	if strings.TrimSpace(details.Name) == "" {
		return nil, validator.NewError("name", "is required")
	}
	if details.Type == "" {
		details.Type = "US_ACH"
	}
	payee, err := s.provider.CreatePayee(ctx, details)
	if err != nil {
		s.logger.Error("payee registration failed", "name", details.Name, "error", err)
		return nil, err
	}
	s.logger.Info("payee registered", "payee_id", payee.ID)
	return payee, nil
}

// Balance returns the spendable balance in currency (default USD).
func (s *PaymentService) Balance(ctx context.Context, currency string) (decimal.Decimal, error) {
	if currency == "" {
		currency = money.DefaultCurrency
	}
	return s.provider.GetBalance(ctx, currency)
}
