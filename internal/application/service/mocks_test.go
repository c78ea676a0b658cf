package service

import (
	"context"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/adapters/payman"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreatePayee(ctx context.Context, details payman.PayeeDetails) (*payman.Payee, error) {
	args := m.Called(ctx, details)
	payee, _ := args.Get(0).(*payman.Payee)
	return payee, args.Error(1)
}

func (m *mockProvider) SendPayment(ctx context.Context, req payman.PaymentRequest) (*payman.Payment, error) {
	args := m.Called(ctx, req)
	payment, _ := args.Get(0).(*payman.Payment)
	return payment, args.Error(1)
}

func (m *mockProvider) SearchPayees(ctx context.Context, filter payman.SearchFilter) ([]payman.Payee, error) {
	args := m.Called(ctx, filter)
	payees, _ := args.Get(0).([]payman.Payee)
	return payees, args.Error(1)
}

func (m *mockProvider) GetBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	args := m.Called(ctx, currency)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, tenant rental.Tenant, r rental.Reminder) error {
	return m.Called(ctx, tenant, r).Error(0)
}

func seedTenant(repo *storage.MockRepository, name, email, rent string) *rental.Tenant {
	t := &rental.Tenant{
		Name:       name,
		Email:      email,
		Property:   "Oak Residences",
		RentAmount: decimal.RequireFromString(rent),
	}
	t.ApplyDefaults()
	if err := repo.CreateTenant(context.Background(), t); err != nil {
		panic(err)
	}
	return t
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}
