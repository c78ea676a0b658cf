package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eshaffer321/rentlink-backend/internal/adapters/clients"
	"github.com/eshaffer321/rentlink-backend/internal/api"
	"github.com/eshaffer321/rentlink-backend/internal/application/service"
	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/eshaffer321/rentlink-backend/internal/domain/reminder"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/config"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/logging"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage/mongostore"
)

// App bundles everything a command needs.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    storage.Repository
	Services api.Services
}

// Open validates cfg, opens the configured store and builds the services.
// A validation failure is returned before anything is opened.
func Open(ctx context.Context, cfg *config.Config, system string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	base := logging.NewLogger(cfg.Observability.Logging)

	store, err := OpenStore(ctx, cfg.Storage, base.With("system", "storage"))
	if err != nil {
		return nil, err
	}

	services, err := NewServices(cfg, store, base)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &App{Config: cfg, Logger: base.With("system", system), Store: store, Services: services}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// IsMongoURL reports whether url selects the MongoDB backend.
func IsMongoURL(url string) bool {
	return strings.HasPrefix(url, "mongodb://") || strings.HasPrefix(url, "mongodb+srv://")
}

// SQLitePath strips an optional sqlite:// scheme from url.
func SQLitePath(url string) string {
	return strings.TrimPrefix(url, "sqlite://")
}

// OpenStore opens MongoDB for mongodb:// URLs and SQLite otherwise. Opening
// applies pending migrations (SQLite) or ensures indexes (MongoDB).
func OpenStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.Repository, error) {
	if IsMongoURL(cfg.DatabaseURL) {
		store, err := mongostore.NewStore(ctx, cfg.DatabaseURL, cfg.DatabaseName)
		if err != nil {
			return nil, fmt.Errorf("failed to open MongoDB: %w", err)
		}
		logger.Debug("opened store", "backend", "mongodb", "database", cfg.DatabaseName)
		return store, nil
	}

	path := SQLitePath(cfg.DatabaseURL)
	store, err := storage.NewStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	logger.Debug("opened store", "backend", "sqlite", "path", path)
	return store, nil
}

// NewServices wires the application services around store and a payment
// provider client built from cfg. Each service logs under its own system.
func NewServices(cfg *config.Config, store storage.Repository, logger *slog.Logger) (api.Services, error) {
	built, err := clients.NewClients(cfg, logger.With("system", "payman"))
	if err != nil {
		return api.Services{}, err
	}
	return newServices(cfg, store, built.Payman, logger)
}

func newServices(cfg *config.Config, store storage.Repository, provider service.PaymentProvider, logger *slog.Logger) (api.Services, error) {
	reminderCfg, err := cfg.ReminderConfig()
	if err != nil {
		return api.Services{}, fmt.Errorf("invalid reminders.channels: %w", err)
	}

	return api.Services{
		Tenants: service.NewTenantService(store, logger.With("system", "tenants")),
		Reminders: service.NewReminderService(store, reminder.NewScheduler(reminderCfg), nil,
			logger.With("system", "reminders")),
		Matching: service.NewMatchingService(store, provider, matcher.NewMatcher(cfg.MatcherConfig()),
			logger.With("system", "matching")),
		Payments: service.NewPaymentService(store, provider, logger.With("system", "payments")),
	}, nil
}
