package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/rentlink-backend/internal/adapters/payman"
	"github.com/eshaffer321/rentlink-backend/internal/api/dto"
	"github.com/eshaffer321/rentlink-backend/internal/application/service"
	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/eshaffer321/rentlink-backend/internal/domain/reminder"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/logging"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
)

// fakeProvider is an in-memory payment provider.
type fakeProvider struct {
	mu sync.Mutex

	payees  []payman.Payee
	sent    []payman.PaymentRequest
	balance decimal.Decimal

	sendErr    error
	searchErr  error
	balanceErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{balance: decimal.NewFromInt(5000)}
}

func (f *fakeProvider) CreatePayee(_ context.Context, details payman.PayeeDetails) (*payman.Payee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := payman.Payee{ID: "pd-new", Name: details.Name, Type: details.Type, ContactDetails: details.ContactDetails}
	f.payees = append(f.payees, p)
	return &p, nil
}

func (f *fakeProvider) SendPayment(_ context.Context, req payman.PaymentRequest) (*payman.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &payman.Payment{Reference: "pay-1", Status: "PENDING"}, nil
}

func (f *fakeProvider) SearchPayees(_ context.Context, _ payman.SearchFilter) ([]payman.Payee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.payees, nil
}

func (f *fakeProvider) GetBalance(_ context.Context, _ string) (decimal.Decimal, error) {
	if f.balanceErr != nil {
		return decimal.Zero, f.balanceErr
	}
	return f.balance, nil
}

func (f *fakeProvider) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type testServices struct {
	repo      *storage.MockRepository
	provider  *fakeProvider
	tenants   *service.TenantService
	reminders *service.ReminderService
	matching  *service.MatchingService
	payments  *service.PaymentService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	repo := storage.NewMockRepository()
	provider := newFakeProvider()
	logger := logging.Discard()

	return &testServices{
		repo:      repo,
		provider:  provider,
		tenants:   service.NewTenantService(repo, logger),
		reminders: service.NewReminderService(repo, reminder.NewScheduler(reminder.DefaultConfig()), nil, logger),
		matching:  service.NewMatchingService(repo, provider, matcher.NewMatcher(matcher.DefaultConfig()), logger),
		payments:  service.NewPaymentService(repo, provider, logger),
	}
}

func seedTenant(t *testing.T, repo *storage.MockRepository, name, email, rent string) *rental.Tenant {
	t.Helper()
	tenant := &rental.Tenant{
		Name:       name,
		Email:      email,
		Property:   "Oak Residences",
		RentAmount: decimal.RequireFromString(rent),
	}
	tenant.ApplyDefaults()
	require.NoError(t, repo.CreateTenant(context.Background(), tenant))
	return tenant
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withURLParam sets a chi route parameter as the router would.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.APIError {
	t.Helper()
	var apiErr dto.APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
	return apiErr
}
