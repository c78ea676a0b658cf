package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eshaffer321/rentlink-backend/internal/adapters/payman"
	"github.com/eshaffer321/rentlink-backend/internal/api/dto"
	"github.com/eshaffer321/rentlink-backend/internal/application/service"
	"github.com/eshaffer321/rentlink-backend/internal/domain/money"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
)

// PaymentsHandler handles payment submission and the provider's payee
// directory and balance.
type PaymentsHandler struct {
	*Base
	payments *service.PaymentService
	matching *service.MatchingService
}

// NewPaymentsHandler creates a new payments handler.
func NewPaymentsHandler(payments *service.PaymentService, matching *service.MatchingService, logger *slog.Logger) *PaymentsHandler {
	return &PaymentsHandler{
		Base:     NewBase(logger),
		payments: payments,
		matching: matching,
	}
}

// PayTransaction handles POST /api/transactions/{id}/payment. Payee and
// amount default to the stored transaction's.
func (h *PaymentsHandler) PayTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	txID := chi.URLParam(r, "id")
	rec, err := h.matching.GetTransaction(r.Context(), txID)
	if err != nil {
		h.WriteServiceError(w, r, "transaction", err)
		return
	}

	submit := service.PaymentRequest{
		TransactionID: txID,
		PayeeID:       strings.TrimSpace(req.PayeeID),
		Amount:        string(req.Amount),
		Memo:          req.Memo,
	}
	if submit.PayeeID == "" {
		submit.PayeeID = rec.PayeeID
	}
	if strings.TrimSpace(submit.Amount) == "" {
		submit.Amount = money.Format(rec.Amount, rec.Currency)
	}
	if submit.Memo == "" {
		submit.Memo = "Rent " + rec.Date.Format("2006-01-02")
	}

	h.submit(w, r, submit)
}

// Create handles POST /api/payments, a payment to a payee with no
// transaction behind it. Clients that retry should send the same requestId
// (or Idempotency-Key header); without one every call is a new payment.
func (h *PaymentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	requestID := strings.TrimSpace(req.RequestID)
	if requestID == "" {
		requestID = strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}
	h.submit(w, r, service.PaymentRequest{
		PayeeID:   req.PayeeID,
		Amount:    string(req.Amount),
		Memo:      req.Memo,
		RequestID: requestID,
	})
}

func (h *PaymentsHandler) submit(w http.ResponseWriter, r *http.Request, req service.PaymentRequest) {
	result, err := h.payments.Submit(r.Context(), req)
	if err != nil {
		h.WriteServiceError(w, r, "transaction", err)
		return
	}

	response := dto.PaymentResultResponse{
		Payment: toPaymentResponse(result.Attempt),
		Balance: formatBalance(result.Balance),
	}
	if result.Payment != nil {
		response.ProviderStatus = result.Payment.Status
		response.ProviderPayment = result.Payment.Reference
	}
	h.WriteJSON(w, http.StatusCreated, response)
}

// List handles GET /api/payments?transaction=...
func (h *PaymentsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := storage.PaymentFilter{
		TransactionID: r.URL.Query().Get("transaction"),
		Limit:         ParseIntParam(r, "limit", 100),
	}

	attempts, err := h.payments.ListPayments(r.Context(), filter)
	if err != nil {
		h.WriteServiceError(w, r, "payment", err)
		return
	}

	response := dto.PaymentListResponse{
		Payments: make([]dto.PaymentResponse, 0, len(attempts)),
		Count:    len(attempts),
	}
	for _, a := range attempts {
		response.Payments = append(response.Payments, toPaymentResponse(a))
	}
	h.WriteJSON(w, http.StatusOK, response)
}

// SearchPayees handles GET /api/payees?name=&email=&type=.
func (h *PaymentsHandler) SearchPayees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	payees, err := h.payments.SearchPayees(r.Context(), payman.SearchFilter{
		Name:         q.Get("name"),
		ContactEmail: q.Get("email"),
		Type:         q.Get("type"),
	})
	if err != nil {
		h.WriteServiceError(w, r, "payee", err)
		return
	}
	if payees == nil {
		payees = []payman.Payee{}
	}
	h.WriteJSON(w, http.StatusOK, payees)
}

// RegisterPayee handles POST /api/payees.
func (h *PaymentsHandler) RegisterPayee(w http.ResponseWriter, r *http.Request) {
	var details payman.PayeeDetails
	if !h.DecodeJSON(w, r, &details) {
		return
	}

	payee, err := h.payments.RegisterPayee(r.Context(), details)
	if err != nil {
		h.WriteServiceError(w, r, "payee", err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, payee)
}

// Balance handles GET /api/balance?currency=USD.
func (h *PaymentsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	currency := strings.ToUpper(r.URL.Query().Get("currency"))
	if currency == "" {
		currency = money.DefaultCurrency
	}

	balance, err := h.payments.Balance(r.Context(), currency)
	if err != nil {
		h.WriteServiceError(w, r, "balance", err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.BalanceResponse{Currency: currency, Balance: balance.StringFixed(2)})
}
