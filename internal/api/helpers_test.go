package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/eshaffer321/rentlink-backend/internal/adapters/payman"
	"github.com/eshaffer321/rentlink-backend/internal/api"
	"github.com/eshaffer321/rentlink-backend/internal/application/service"
	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/eshaffer321/rentlink-backend/internal/domain/reminder"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/logging"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
)

// fakePayman serves the subset of the provider API the services call.
type fakePayman struct {
	server *httptest.Server

	mu   sync.Mutex
	keys []string
}

func newFakePayman(t *testing.T) *fakePayman {
	t.Helper()
	f := &fakePayman{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /payments/search-payees", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []payman.Payee{})
	})
	mux.HandleFunc("POST /payments/payees", func(w http.ResponseWriter, r *http.Request) {
		var details payman.PayeeDetails
		_ = json.NewDecoder(r.Body).Decode(&details)
		writeJSON(w, payman.Payee{ID: "pd-registered", Name: details.Name, Type: details.Type})
	})
	mux.HandleFunc("POST /payments/send-payment", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.keys = append(f.keys, r.Header.Get("Idempotency-Key"))
		f.mu.Unlock()
		writeJSON(w, payman.Payment{Reference: "pay-77", Status: "PENDING"})
	})
	mux.HandleFunc("GET /balances/currencies/{currency}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"balance": 5000})
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// idempotencyKeys returns the keys of every payment received so far.
func (f *fakePayman) idempotencyKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func (f *fakePayman) client() *payman.Client {
	cfg := payman.DefaultConfig()
	cfg.BaseURL = f.server.URL
	cfg.APISecret = "test-secret"
	cfg.RetryMax = 0
	cfg.RateLimit = 0
	return payman.NewClient(cfg, logging.Discard())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newServices(repo storage.Repository, provider service.PaymentProvider) api.Services {
	logger := logging.Discard()
	return api.Services{
		Tenants:   service.NewTenantService(repo, logger),
		Reminders: service.NewReminderService(repo, reminder.NewScheduler(reminder.DefaultConfig()), nil, logger),
		Matching:  service.NewMatchingService(repo, provider, matcher.NewMatcher(matcher.DefaultConfig()), logger),
		Payments:  service.NewPaymentService(repo, provider, logger),
	}
}
