package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/rentlink-backend/internal/api/dto"
	"github.com/eshaffer321/rentlink-backend/internal/application/service"
	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
)

// MatchingHandler handles matching runs and the annotated transactions
// they produce.
type MatchingHandler struct {
	*Base
	matching *service.MatchingService
}

// NewMatchingHandler creates a new matching handler.
func NewMatchingHandler(matching *service.MatchingService, logger *slog.Logger) *MatchingHandler {
	return &MatchingHandler{
		Base:     NewBase(logger),
		matching: matching,
	}
}

// Run handles POST /api/matching/runs.
func (h *MatchingHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req dto.MatchRunRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	txs, err := rawTransactions(req)
	if err != nil {
		h.WriteServiceError(w, r, "transaction", err)
		return
	}

	result, err := h.matching.Run(r.Context(), txs)
	if err != nil {
		h.WriteServiceError(w, r, "match run", err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, toRunResultResponse(result))
}

// Rerun handles POST /api/matching/rerun.
func (h *MatchingHandler) Rerun(w http.ResponseWriter, r *http.Request) {
	result, err := h.matching.Rerun(r.Context())
	if err != nil {
		h.WriteServiceError(w, r, "match run", err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, toRunResultResponse(result))
}

// ListRuns handles GET /api/matching/runs.
func (h *MatchingHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	params := dto.DefaultMatchRunListParams()
	params.Limit = ParseIntParam(r, "limit", params.Limit)

	runs, err := h.matching.ListRuns(r.Context(), params.Limit)
	if err != nil {
		h.WriteServiceError(w, r, "match run", err)
		return
	}

	response := dto.MatchRunListResponse{
		Runs:  make([]dto.MatchRunResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, toMatchRunResponse(run))
	}
	h.WriteJSON(w, http.StatusOK, response)
}

// GetRun handles GET /api/matching/runs/{id}.
func (h *MatchingHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.matching.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteServiceError(w, r, "match run", err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toMatchRunResponse(*run))
}

// ListTransactions handles GET /api/transactions?status=Review,Failed&tenant=...
func (h *MatchingHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	params := dto.DefaultTransactionListParams()
	params.Limit = ParseIntParam(r, "limit", params.Limit)
	params.TenantID = r.URL.Query().Get("tenant")
	for _, raw := range r.URL.Query()["status"] {
		params.Statuses = append(params.Statuses, strings.Split(raw, ",")...)
	}

	filter := storage.TransactionFilter{TenantID: params.TenantID, Limit: params.Limit}
	for _, raw := range params.Statuses {
		status, ok := parseStatus(raw)
		if !ok {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError("status: must be Matched, Review or Failed"))
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	txs, err := h.matching.ListTransactions(r.Context(), filter)
	if err != nil {
		h.WriteServiceError(w, r, "transaction", err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.TransactionListResponse{
		Transactions: toTransactionResponses(txs),
		Count:        len(txs),
	})
}

// GetTransaction handles GET /api/transactions/{id}.
func (h *MatchingHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	rec, err := h.matching.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteServiceError(w, r, "transaction", err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toTransactionResponse(*rec))
}

// History handles GET /api/transactions/{id}/history.
func (h *MatchingHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.matching.GetTransaction(r.Context(), id)
	if err != nil {
		h.WriteServiceError(w, r, "transaction", err)
		return
	}
	transitions, err := h.matching.History(r.Context(), id)
	if err != nil {
		h.WriteServiceError(w, r, "transaction", err)
		return
	}

	response := dto.TransactionHistoryResponse{
		Transaction: toTransactionResponse(*rec),
		Transitions: make([]dto.TransitionResponse, 0, len(transitions)),
	}
	for _, t := range transitions {
		response.Transitions = append(response.Transitions, toTransitionResponse(t))
	}
	h.WriteJSON(w, http.StatusOK, response)
}

// Override handles PUT /api/transactions/{id}/match.
func (h *MatchingHandler) Override(w http.ResponseWriter, r *http.Request) {
	var req dto.OverrideRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.TenantID) == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("tenantId: is required"))
		return
	}

	rec, err := h.matching.Override(r.Context(), chi.URLParam(r, "id"), req.TenantID)
	if err != nil {
		h.WriteServiceError(w, r, "transaction", err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toTransactionResponse(*rec))
}

func parseStatus(raw string) (matcher.Status, bool) {
	for _, s := range []matcher.Status{matcher.StatusMatched, matcher.StatusReview, matcher.StatusFailed} {
		if strings.EqualFold(strings.TrimSpace(raw), string(s)) {
			return s, true
		}
	}
	return "", false
}
