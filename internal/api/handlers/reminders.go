package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/api/dto"
	"github.com/eshaffer321/rentlink-backend/internal/application/service"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
)

// RemindersHandler handles reminder requests.
type RemindersHandler struct {
	*Base
	reminders *service.ReminderService
	now       func() time.Time
}

// NewRemindersHandler creates a new reminders handler.
func NewRemindersHandler(reminders *service.ReminderService, logger *slog.Logger) *RemindersHandler {
	return &RemindersHandler{
		Base:      NewBase(logger),
		reminders: reminders,
		now:       time.Now,
	}
}

// WithClock replaces the handler's clock. Used by tests.
func (h *RemindersHandler) WithClock(now func() time.Time) *RemindersHandler {
	h.now = now
	return h
}

// List handles GET /api/reminders.
func (h *RemindersHandler) List(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.reminders.ListReminders(r.Context())
	if err != nil {
		h.WriteServiceError(w, r, "reminder", err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toReminderResponses(reminders))
}

// Create handles POST /api/reminders.
func (h *RemindersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateReminderRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	reminder, err := reminderFromRequest(req)
	if err != nil {
		h.WriteServiceError(w, r, "reminder", err)
		return
	}
	if err := h.reminders.CreateReminder(r.Context(), reminder); err != nil {
		h.WriteServiceError(w, r, "reminder", err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, toReminderResponse(*reminder))
}

// MarkSent handles PUT /api/reminders/update. Each listed reminder gets
// lastSent = now and its own outcome in the response.
func (h *RemindersHandler) MarkSent(w http.ResponseWriter, r *http.Request) {
	var refs []dto.ReminderRef
	if !h.DecodeJSON(w, r, &refs) {
		return
	}

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, strings.TrimSpace(ref.ID))
	}

	outcomes := h.reminders.MarkSent(r.Context(), ids, h.now().UTC())
	h.WriteJSON(w, http.StatusOK, toReminderBatchResponse(outcomes))
}

// Schedule handles POST /api/reminders/schedule?date=YYYY-MM-DD.
func (h *RemindersHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	today, ok := h.runDate(w, r)
	if !ok {
		return
	}

	created, err := h.reminders.Schedule(r.Context(), today)
	if err != nil {
		h.WriteServiceError(w, r, "reminder", err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toReminderResponses(created))
}

// Due handles GET /api/reminders/due?date=YYYY-MM-DD.
func (h *RemindersHandler) Due(w http.ResponseWriter, r *http.Request) {
	today, ok := h.runDate(w, r)
	if !ok {
		return
	}

	due, err := h.reminders.Due(r.Context(), today)
	if err != nil {
		h.WriteServiceError(w, r, "reminder", err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toReminderResponses(due))
}

// Send handles POST /api/reminders/send?date=YYYY-MM-DD.
func (h *RemindersHandler) Send(w http.ResponseWriter, r *http.Request) {
	today, ok := h.runDate(w, r)
	if !ok {
		return
	}

	outcomes, err := h.reminders.Send(r.Context(), today, h.now().UTC())
	if err != nil {
		h.WriteServiceError(w, r, "reminder", err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toReminderBatchResponse(outcomes))
}

// runDate reads the date query parameter, defaulting to today.
func (h *RemindersHandler) runDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return rental.Date(h.now()), true
	}
	day, err := rental.ParseDate(raw)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("date: must be YYYY-MM-DD"))
		return time.Time{}, false
	}
	return day, true
}
