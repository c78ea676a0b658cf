package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/rentlink-backend/internal/api"
	"github.com/eshaffer321/rentlink-backend/internal/api/dto"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
)

// =============================================================================
// API Integration Tests
// =============================================================================
// These tests run the full stack against a real SQLite database and a real
// payment client talking to a local provider:
// HTTP request → Router → Handlers → Services → Storage → SQLite

func createTestServer(t *testing.T) (*httptest.Server, *fakePayman) {
	t.Helper()

	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "rentlink.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	provider := newFakePayman(t)
	server := api.NewServer(api.DefaultConfig(), newServices(store, provider.client()), nil)

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	return ts, provider
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestAPI_Integration_HealthCheck(t *testing.T) {
	ts, _ := createTestServer(t)

	var health dto.HealthResponse
	status := doJSON(t, http.MethodGet, ts.URL+"/health", nil, &health)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", health.Status)
}

func TestAPI_Integration_EmptyLists(t *testing.T) {
	ts, _ := createTestServer(t)

	for _, path := range []string{"/api/tenants", "/api/reminders", "/api/accounts"} {
		var items []map[string]any
		status := doJSON(t, http.MethodGet, ts.URL+path, nil, &items)
		assert.Equal(t, http.StatusOK, status, path)
		assert.NotNil(t, items, path+" must encode as [] not null")
		assert.Empty(t, items, path)
	}
}

func TestAPI_Integration_RentCycle(t *testing.T) {
	ts, provider := createTestServer(t)

	var tenant dto.TenantResponse
	status := doJSON(t, http.MethodPost, ts.URL+"/api/tenants", map[string]any{
		"name":       "Jane Doe",
		"email":      "jane@example.com",
		"phone":      "555-0100",
		"property":   "Oak Residences #4",
		"rentAmount": "$1,200",
	}, &tenant)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "pending", tenant.PaymentStatus)

	var duplicate dto.APIError
	status = doJSON(t, http.MethodPost, ts.URL+"/api/tenants", map[string]any{
		"name": "Jane D", "email": "Jane@Example.com", "property": "Oak", "rentAmount": 1000,
	}, &duplicate)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, dto.ErrCodeDuplicateEmail, duplicate.Code)

	status = doJSON(t, http.MethodPost, ts.URL+"/api/accounts", map[string]any{
		"tenant": tenant.ID, "account": "VA-1001", "payeeId": "pd-jane",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var run dto.RunResultResponse
	status = doJSON(t, http.MethodPost, ts.URL+"/api/matching/runs", map[string]any{
		"transactions": []map[string]any{
			{"id": "tx-rent", "date": "2026-05-01", "amount": 1200, "description": "ZELLE FROM JANE DOE"},
			{"id": "tx-misc", "date": "2026-05-02", "amount": "19.99", "description": "COFFEE SHOP"},
		},
	}, &run)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, run.Transactions, 2)
	assert.Equal(t, "Matched", run.Transactions[0].Status)
	assert.Equal(t, "pd-jane", run.Transactions[0].PayeeID)
	assert.Equal(t, "Failed", run.Transactions[1].Status)
	require.NotNil(t, run.Balance)
	assert.Equal(t, "5000.00", *run.Balance)

	var paid dto.PaymentResultResponse
	status = doJSON(t, http.MethodPost, ts.URL+"/api/transactions/tx-rent/payment", map[string]any{}, &paid)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "succeeded", paid.Payment.Status)
	assert.Equal(t, "pay-77", paid.ProviderPayment)
	assert.Equal(t, []string{paid.Payment.ID}, provider.idempotencyKeys())

	var again dto.APIError
	status = doJSON(t, http.MethodPost, ts.URL+"/api/transactions/tx-rent/payment", map[string]any{}, &again)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, dto.ErrCodeDuplicatePayment, again.Code)
	assert.Len(t, provider.idempotencyKeys(), 1)

	var stored dto.TenantResponse
	status = doJSON(t, http.MethodGet, ts.URL+"/api/tenants/"+tenant.ID, nil, &stored)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "paid", stored.PaymentStatus)

	var payments dto.PaymentListResponse
	status = doJSON(t, http.MethodGet, ts.URL+"/api/payments?transaction=tx-rent", nil, &payments)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, payments.Count)

	var reminder dto.ReminderResponse
	status = doJSON(t, http.MethodPost, ts.URL+"/api/reminders", map[string]any{
		"tenant": tenant.ID, "due": "2026-06-01", "type": "Due Soon", "channel": "Email",
	}, &reminder)
	require.Equal(t, http.StatusCreated, status)

	var batch dto.ReminderBatchResponse
	status = doJSON(t, http.MethodPut, ts.URL+"/api/reminders/update", []map[string]string{{"_id": reminder.ID}}, &batch)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Reminders updated successfully", batch.Message)
	assert.Equal(t, 1, batch.Updated)

	var reminders []dto.ReminderResponse
	status = doJSON(t, http.MethodGet, ts.URL+"/api/reminders", nil, &reminders)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, reminders, 1)
	assert.NotNil(t, reminders[0].LastSent)

	var history dto.TransactionHistoryResponse
	status = doJSON(t, http.MethodGet, ts.URL+"/api/transactions/tx-rent/history", nil, &history)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, history.Transitions)
}
