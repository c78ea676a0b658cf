package storage

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/google/uuid"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu           sync.Mutex
	tenants      map[string]*rental.Tenant
	accounts     []rental.Account
	reminders    map[string]*rental.Reminder
	transactions map[string]*TransactionRecord
	transitions  []Transition
	runs         map[string]*MatchRun
	payments     map[string]*PaymentAttempt
	nextTransID  int64

	// Hooks for test assertions
	CreateTenantCalled       bool
	UpdateTenantStatusCalled bool
	CreateAccountCalled      bool
	CreateReminderCalled     bool
	SaveTransactionCalled    bool
	StartMatchRunCalled      bool
	CompleteMatchRunCalled   bool
	ReservePaymentCalled     bool
	LastCompletedRun         *MatchRun

	// Error injection for testing error paths
	CreateTenantErr       error
	GetTenantErr          error
	ListTenantsErr        error
	UpdateTenantStatusErr error
	CreateAccountErr      error
	ListAccountsErr       error
	CreateReminderErr     error
	ListRemindersErr      error
	MarkReminderSentErr   error
	MarkReminderSentErrs  map[string]error // per reminder id
	SaveTransactionErr    error
	ListTransactionsErr   error
	StartMatchRunErr      error
	CompleteMatchRunErr   error
	ReservePaymentErr     error
	CompletePaymentErr    error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		tenants:              make(map[string]*rental.Tenant),
		reminders:            make(map[string]*rental.Reminder),
		transactions:         make(map[string]*TransactionRecord),
		runs:                 make(map[string]*MatchRun),
		payments:             make(map[string]*PaymentAttempt),
		MarkReminderSentErrs: make(map[string]error),
		nextTransID:          1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

func (m *MockRepository) CreateTenant(_ context.Context, t *rental.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateTenantCalled = true
	if m.CreateTenantErr != nil {
		return m.CreateTenantErr
	}
	for _, existing := range m.tenants {
		if strings.EqualFold(existing.Email, t.Email) {
			return ErrDuplicateEmail
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	copied := *t
	m.tenants[t.ID] = &copied
	return nil
}

func (m *MockRepository) GetTenant(_ context.Context, id string) (*rental.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetTenantErr != nil {
		return nil, m.GetTenantErr
	}
	t, ok := m.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *MockRepository) ListTenants(_ context.Context) ([]rental.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListTenantsErr != nil {
		return nil, m.ListTenantsErr
	}
	tenants := make([]rental.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		tenants = append(tenants, *t)
	}
	sort.Slice(tenants, func(i, j int) bool {
		a, b := strings.ToLower(tenants[i].Name), strings.ToLower(tenants[j].Name)
		if a != b {
			return a < b
		}
		return tenants[i].ID < tenants[j].ID
	})
	return tenants, nil
}

func (m *MockRepository) UpdateTenantStatus(_ context.Context, id string, status rental.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateTenantStatusCalled = true
	if m.UpdateTenantStatusErr != nil {
		return m.UpdateTenantStatusErr
	}
	t, ok := m.tenants[id]
	if !ok {
		return ErrNotFound
	}
	t.PaymentStatus = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockRepository) DeleteTenant(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[id]; !ok {
		return ErrNotFound
	}
	delete(m.tenants, id)
	return nil
}

func (m *MockRepository) CreateAccount(_ context.Context, a *rental.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateAccountCalled = true
	if m.CreateAccountErr != nil {
		return m.CreateAccountErr
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.accounts = append(m.accounts, *a)
	return nil
}

func (m *MockRepository) ListAccounts(_ context.Context) ([]rental.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListAccountsErr != nil {
		return nil, m.ListAccountsErr
	}
	return append([]rental.Account{}, m.accounts...), nil
}

func (m *MockRepository) ListAccountsByTenant(_ context.Context, tenantID string) ([]rental.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListAccountsErr != nil {
		return nil, m.ListAccountsErr
	}
	accounts := make([]rental.Account, 0)
	for _, a := range m.accounts {
		if a.TenantID == tenantID {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

func (m *MockRepository) CreateReminder(_ context.Context, r *rental.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateReminderCalled = true
	if m.CreateReminderErr != nil {
		return m.CreateReminderErr
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	copied := *r
	m.reminders[r.ID] = &copied
	return nil
}

func (m *MockRepository) GetReminder(_ context.Context, id string) (*rental.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *MockRepository) ListReminders(_ context.Context) ([]rental.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListRemindersErr != nil {
		return nil, m.ListRemindersErr
	}
	reminders := make([]rental.Reminder, 0, len(m.reminders))
	for _, r := range m.reminders {
		reminders = append(reminders, *r)
	}
	sort.Slice(reminders, func(i, j int) bool {
		if !reminders[i].DueDate.Equal(reminders[j].DueDate) {
			return reminders[i].DueDate.Before(reminders[j].DueDate)
		}
		return reminders[i].ID < reminders[j].ID
	})
	return reminders, nil
}

func (m *MockRepository) MarkReminderSent(_ context.Context, id string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.MarkReminderSentErrs[id]; err != nil {
		return err
	}
	if m.MarkReminderSentErr != nil {
		return m.MarkReminderSentErr
	}
	r, ok := m.reminders[id]
	if !ok {
		return ErrNotFound
	}
	sent := sentAt.UTC()
	r.LastSent = &sent
	return nil
}

func (m *MockRepository) SaveTransaction(_ context.Context, tx *TransactionRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveTransactionCalled = true
	if m.SaveTransactionErr != nil {
		return false, m.SaveTransactionErr
	}
	if tx.ID == "" {
		tx.ID = matcher.TransactionID(tx.Date, tx.Amount, tx.Description)
	}
	now := time.Now().UTC()
	if existing, ok := m.transactions[tx.ID]; ok {
		if !matcher.CanTransition(existing.Status, tx.Status) {
			return false, nil
		}
		tx.CreatedAt = existing.CreatedAt
	} else if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now
	copied := *tx
	m.transactions[tx.ID] = &copied
	return true, nil
}

func (m *MockRepository) GetTransaction(_ context.Context, id string) (*TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *tx
	return &copied, nil
}

func (m *MockRepository) ListTransactions(_ context.Context, filter TransactionFilter) ([]TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListTransactionsErr != nil {
		return nil, m.ListTransactionsErr
	}
	records := make([]TransactionRecord, 0)
	for _, tx := range m.transactions {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, tx.Status) {
			continue
		}
		if filter.TenantID != "" && tx.TenantID != filter.TenantID {
			continue
		}
		records = append(records, *tx)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].ID < records[j].ID
	})
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

func containsStatus(statuses []matcher.Status, s matcher.Status) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func (m *MockRepository) AppendTransition(_ context.Context, t *Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = strconv.FormatInt(m.nextTransID, 10)
	m.nextTransID++
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.transitions = append(m.transitions, *t)
	return nil
}

func (m *MockRepository) ListTransitions(_ context.Context, transactionID string) ([]Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	transitions := make([]Transition, 0)
	for _, t := range m.transitions {
		if t.TransactionID == transactionID {
			transitions = append(transitions, t)
		}
	}
	return transitions, nil
}

func (m *MockRepository) StartMatchRun(_ context.Context, kind string) (*MatchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartMatchRunCalled = true
	if m.StartMatchRunErr != nil {
		return nil, m.StartMatchRunErr
	}
	run := &MatchRun{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	copied := *run
	m.runs[run.ID] = &copied
	return run, nil
}

func (m *MockRepository) CompleteMatchRun(_ context.Context, run *MatchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteMatchRunCalled = true
	if m.CompleteMatchRunErr != nil {
		return m.CompleteMatchRunErr
	}
	if _, ok := m.runs[run.ID]; !ok {
		return ErrNotFound
	}
	if run.Status == "" || run.Status == RunStatusRunning {
		run.Status = RunStatusCompleted
	}
	if run.CompletedAt == nil {
		now := time.Now().UTC()
		run.CompletedAt = &now
	}
	copied := *run
	m.runs[run.ID] = &copied
	m.LastCompletedRun = &copied
	return nil
}

func (m *MockRepository) GetMatchRun(_ context.Context, id string) (*MatchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *run
	return &copied, nil
}

func (m *MockRepository) ListMatchRuns(_ context.Context, limit int) ([]MatchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := make([]MatchRun, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, *r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	if n := limitOrDefault(limit, 20); len(runs) > n {
		runs = runs[:n]
	}
	return runs, nil
}

func (m *MockRepository) ReservePayment(_ context.Context, p *PaymentAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReservePaymentCalled = true
	if m.ReservePaymentErr != nil {
		return m.ReservePaymentErr
	}
	now := time.Now().UTC()
	if existing, ok := m.payments[p.IdempotencyKey]; ok {
		if existing.Status != PaymentFailed {
			return ErrDuplicatePayment
		}
		existing.Status = PaymentPending
		existing.Error = ""
		existing.Attempts++
		existing.UpdatedAt = now
		p.Status = PaymentPending
		p.Attempts = existing.Attempts
		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = now
		return nil
	}
	p.Status = PaymentPending
	if p.Attempts == 0 {
		p.Attempts = 1
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	copied := *p
	m.payments[p.IdempotencyKey] = &copied
	return nil
}

func (m *MockRepository) CompletePayment(_ context.Context, key string, status PaymentStatus, reference, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CompletePaymentErr != nil {
		return m.CompletePaymentErr
	}
	p, ok := m.payments[key]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	p.ProviderReference = reference
	p.Error = errMsg
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockRepository) ListPayments(_ context.Context, filter PaymentFilter) ([]PaymentAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payments := make([]PaymentAttempt, 0)
	for _, p := range m.payments {
		if filter.TransactionID != "" && p.TransactionID != filter.TransactionID {
			continue
		}
		payments = append(payments, *p)
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	if n := limitOrDefault(filter.Limit, 100); len(payments) > n {
		payments = payments[:n]
	}
	return payments, nil
}
