package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eshaffer321/rentlink-backend/internal/adapters/payman"
	"github.com/eshaffer321/rentlink-backend/internal/api/dto"
	"github.com/eshaffer321/rentlink-backend/internal/application/service"
	"github.com/eshaffer321/rentlink-backend/internal/domain/validator"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
)

// maxBodyBytes caps request bodies; statements posted for matching are the largest.
const maxBodyBytes = 4 << 20

// Base provides shared functionality for all handlers.
type Base struct {
	logger *slog.Logger
}

// NewBase creates a new base handler with the given logger.
func NewBase(logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// DecodeJSON reads a JSON request body into dst.
func (b *Base) DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		b.WriteError(w, http.StatusBadRequest, dto.BadRequestError(fmt.Sprintf("invalid request body: %v", err)))
		return false
	}
	return true
}

// WriteServiceError maps a service or storage error to a status code and
// body. Provider and persistence details are logged, never returned.
func (b *Base) WriteServiceError(w http.ResponseWriter, r *http.Request, resource string, err error) {
	var perr *payman.Error

	switch {
	case validator.IsValidation(err):
		b.WriteError(w, http.StatusBadRequest, dto.ValidationError(validationMessage(err)))
	case errors.Is(err, storage.ErrNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError(resource))
	case errors.Is(err, storage.ErrDuplicateEmail):
		b.WriteError(w, http.StatusConflict, dto.NewAPIError(dto.ErrCodeDuplicateEmail, storage.ErrDuplicateEmail.Error()))
	case errors.Is(err, storage.ErrDuplicatePayment):
		b.WriteError(w, http.StatusConflict, dto.NewAPIError(dto.ErrCodeDuplicatePayment, storage.ErrDuplicatePayment.Error()))
	case errors.Is(err, service.ErrPaymentInFlight):
		b.WriteError(w, http.StatusConflict, dto.NewAPIError(dto.ErrCodePaymentInFlight, service.ErrPaymentInFlight.Error()))
	case errors.Is(err, service.ErrNotPayable):
		b.WriteError(w, http.StatusConflict, dto.NewAPIError(dto.ErrCodeNotPayable, service.ErrNotPayable.Error()))
	case errors.Is(err, payman.ErrRejected):
		b.logger.Warn("payment provider rejected request", "path", r.URL.Path, "error", err)
		msg := "the payment provider rejected the request"
		if errors.As(err, &perr) && perr.Message != "" {
			msg += ": " + perr.Message
		}
		b.WriteError(w, http.StatusBadGateway, dto.NewAPIError(dto.ErrCodePaymentFailed, msg))
	case errors.Is(err, payman.ErrUnavailable):
		b.logger.Error("payment provider unavailable", "path", r.URL.Path, "error", err)
		b.WriteError(w, http.StatusServiceUnavailable, dto.NewAPIError(dto.ErrCodeProviderUnavailable, "the payment provider is unavailable, try again later"))
	default:
		b.logger.Error("request failed", "path", r.URL.Path, "error", err)
		b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

// validationMessage returns the field-level message without the wrapping
// context services add.
func validationMessage(err error) string {
	var list validator.Errors
	if errors.As(err, &list) {
		return list.Error()
	}
	var single *validator.ValidationError
	if errors.As(err, &single) {
		return single.Error()
	}
	return err.Error()
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
