package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/rentlink-backend/internal/api/dto"
	"github.com/eshaffer321/rentlink-backend/internal/application/service"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
)

// TenantsHandler handles tenant and virtual account requests.
type TenantsHandler struct {
	*Base
	tenants *service.TenantService
}

// NewTenantsHandler creates a new tenants handler.
func NewTenantsHandler(tenants *service.TenantService, logger *slog.Logger) *TenantsHandler {
	return &TenantsHandler{
		Base:    NewBase(logger),
		tenants: tenants,
	}
}

// List handles GET /api/tenants.
func (h *TenantsHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.ListTenants(r.Context())
	if err != nil {
		h.WriteServiceError(w, r, "tenant", err)
		return
	}

	response := make([]dto.TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		response = append(response, toTenantResponse(t))
	}
	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/tenants/{id}.
func (h *TenantsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.tenants.GetTenant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteServiceError(w, r, "tenant", err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toTenantResponse(*tenant))
}

// Create handles POST /api/tenants.
func (h *TenantsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTenantRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	tenant, err := tenantFromRequest(req)
	if err != nil {
		h.WriteServiceError(w, r, "tenant", err)
		return
	}
	if err := h.tenants.CreateTenant(r.Context(), tenant); err != nil {
		h.WriteServiceError(w, r, "tenant", err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, toTenantResponse(*tenant))
}

// Delete handles DELETE /api/tenants/{id}.
func (h *TenantsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tenants.DeleteTenant(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.WriteServiceError(w, r, "tenant", err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Tenant deleted successfully"})
}

// ListAccounts handles GET /api/accounts.
func (h *TenantsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.tenants.ListAccounts(r.Context())
	if err != nil {
		h.WriteServiceError(w, r, "account", err)
		return
	}

	response := make([]dto.AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		response = append(response, toAccountResponse(a))
	}
	h.WriteJSON(w, http.StatusOK, response)
}

// CreateAccount handles POST /api/accounts.
func (h *TenantsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	account := &rental.Account{
		TenantID:  req.Tenant,
		Reference: req.Account,
		PayeeID:   req.PayeeID,
		Status:    rental.AccountStatus(req.Status),
	}
	if err := h.tenants.CreateAccount(r.Context(), account); err != nil {
		h.WriteServiceError(w, r, "account", err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, toAccountResponse(*account))
}
