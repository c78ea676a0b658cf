package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/eshaffer321/rentlink-backend/internal/domain/validator"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
)

// TenantService manages tenants and their virtual accounts.
type TenantService struct {
	store  storage.Repository
	logger *slog.Logger
}

func NewTenantService(store storage.Repository, logger *slog.Logger) *TenantService {
	return &TenantService{store: store, logger: loggerOrDefault(logger)}
}

func (s *TenantService) ListTenants(ctx context.Context) ([]rental.Tenant, error) {
	return s.store.ListTenants(ctx)
}

func (s *TenantService) GetTenant(ctx context.Context, id string) (*rental.Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

// CreateTenant validates and stores a tenant, filling defaults for status,
// score and due day.
func (s *TenantService) CreateTenant(ctx context.Context, t *rental.Tenant) error {
	t.ApplyDefaults()
	if err := validator.Tenant(t); err != nil {
		return err
	}
	if err := s.store.CreateTenant(ctx, t); err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	s.logger.Info("tenant created", "tenant_id", t.ID, "property", t.Property)
	return nil
}

func (s *TenantService) DeleteTenant(ctx context.Context, id string) error {
	if err := s.store.DeleteTenant(ctx, id); err != nil {
		return fmt.Errorf("failed to delete tenant %s: %w", id, err)
	}
	s.logger.Info("tenant deleted", "tenant_id", id)
	return nil
}

func (s *TenantService) ListAccounts(ctx context.Context) ([]rental.Account, error) {
	return s.store.ListAccounts(ctx)
}

// CreateAccount stores a virtual account. Status defaults to Active.
func (s *TenantService) CreateAccount(ctx context.Context, a *rental.Account) error {
	if a.Status == "" {
		a.Status = rental.AccountActive
	}
	if err := validator.Account(a); err != nil {
		return err
	}
	if err := s.store.CreateAccount(ctx, a); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	others, err := s.store.ListAccountsByTenant(ctx, a.TenantID)
	if err == nil && countActive(others) > 1 {
		s.logger.Warn("tenant has more than one active account",
			"tenant_id", a.TenantID, "active", countActive(others))
	}
	return nil
}

func countActive(accounts []rental.Account) int {
	n := 0
	for _, a := range accounts {
		if a.Status == rental.AccountActive {
			n++
		}
	}
	return n
}
