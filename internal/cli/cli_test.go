package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/rentlink-backend/internal/adapters/payman"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/config"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/logging"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
)

type stubProvider struct{}

func (stubProvider) CreatePayee(_ context.Context, d payman.PayeeDetails) (*payman.Payee, error) {
	return &payman.Payee{ID: "pd-new", Name: d.Name, Type: d.Type}, nil
}

func (stubProvider) SendPayment(_ context.Context, _ payman.PaymentRequest) (*payman.Payment, error) {
	return &payman.Payment{Reference: "pay-1", Status: "PENDING"}, nil
}

func (stubProvider) SearchPayees(_ context.Context, _ payman.SearchFilter) ([]payman.Payee, error) {
	return nil, nil
}

func (stubProvider) GetBalance(_ context.Context, _ string) (decimal.Decimal, error) {
	return decimal.NewFromInt(2500), nil
}

func defaultConfig() *config.Config {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return cfg
}

func newTestApp(t *testing.T) (*App, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	cfg := defaultConfig()
	logger := logging.Discard()

	services, err := newServices(cfg, repo, stubProvider{}, logger)
	require.NoError(t, err)

	return &App{Config: cfg, Logger: logger, Store: repo, Services: services}, repo
}

func seedTenant(t *testing.T, repo *storage.MockRepository, name, email string) *rental.Tenant {
	t.Helper()
	tenant := &rental.Tenant{
		Name:       name,
		Email:      email,
		Property:   "Oak Residences",
		RentAmount: decimal.NewFromInt(1200),
	}
	tenant.ApplyDefaults()
	require.NoError(t, repo.CreateTenant(context.Background(), tenant))
	return tenant
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseRunDate(t *testing.T) {
	now := time.Date(2026, 4, 28, 18, 45, 0, 0, time.UTC)

	day, err := ParseRunDate("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 28, 0, 0, 0, 0, time.UTC), day)

	day, err = ParseRunDate("2026-05-01", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), day)

	_, err = ParseRunDate("05/01/2026", now)
	assert.ErrorContains(t, err, "--date")
}

func TestFlags_LoadConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", `
storage:
  database_url: sqlite:///tmp/rentlink.db
payman:
  base_url: https://payman.example.com
observability:
  logging:
    level: warn
`)

	t.Run("reads the file", func(t *testing.T) {
		cfg := (&Flags{ConfigPath: path}).LoadConfig()
		assert.Equal(t, "sqlite:///tmp/rentlink.db", cfg.Storage.DatabaseURL)
		assert.Equal(t, "warn", cfg.Observability.Logging.Level)
		assert.Equal(t, 8080, cfg.API.Port)
	})

	t.Run("verbose forces debug", func(t *testing.T) {
		cfg := (&Flags{ConfigPath: path, Verbose: true}).LoadConfig()
		assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	})
}

func TestStoreSelection(t *testing.T) {
	tests := []struct {
		url   string
		mongo bool
		path  string
	}{
		{"mongodb://localhost:27017", true, ""},
		{"mongodb+srv://cluster.example.net", true, ""},
		{"sqlite://data/rentlink.db", false, "data/rentlink.db"},
		{"rentlink.db", false, "rentlink.db"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.mongo, IsMongoURL(tt.url))
			if !tt.mongo {
				assert.Equal(t, tt.path, SQLitePath(tt.url))
			}
		})
	}
}

func TestOpen(t *testing.T) {
	t.Run("invalid configuration is fatal", func(t *testing.T) {
		_, err := Open(context.Background(), defaultConfig(), "api")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "database_url")
	})

	t.Run("opens SQLite and wires every service", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Storage.DatabaseURL = "sqlite://" + filepath.Join(t.TempDir(), "rentlink.db")
		cfg.Payman.BaseURL = "http://127.0.0.1:1"

		app, err := Open(context.Background(), cfg, "api")
		require.NoError(t, err)
		defer app.Close()

		assert.IsType(t, &storage.Storage{}, app.Store)
		assert.NotNil(t, app.Services.Tenants)
		assert.NotNil(t, app.Services.Reminders)
		assert.NotNil(t, app.Services.Matching)
		assert.NotNil(t, app.Services.Payments)
	})

	t.Run("unknown reminder channel is rejected", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Reminders.Channels = []string{"Pager"}

		_, err := newServices(cfg, storage.NewMockRepository(), stubProvider{}, logging.Discard())
		assert.ErrorContains(t, err, "reminders.channels")
	})
}

func TestServerConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.API.Port = 9000
	cfg.API.RateLimitRPS = 5

	assert.Equal(t, 9000, ServerConfig(cfg, 0).Port)
	assert.Equal(t, 7000, ServerConfig(cfg, 7000).Port)
	assert.Equal(t, 5.0, ServerConfig(cfg, 0).RateLimitRPS)
}

func TestRunMigrate(t *testing.T) {
	t.Run("applies SQLite migrations", func(t *testing.T) {
		cfg := defaultConfig()
		dbPath := filepath.Join(t.TempDir(), "rentlink.db")
		cfg.Storage.DatabaseURL = dbPath

		var out bytes.Buffer
		require.NoError(t, RunMigrate(context.Background(), cfg, &out))

		assert.Contains(t, out.String(), "SQLite migrations applied to "+dbPath)
		_, err := os.Stat(dbPath)
		assert.NoError(t, err)
	})

	t.Run("requires a database URL", func(t *testing.T) {
		var out bytes.Buffer
		err := RunMigrate(context.Background(), defaultConfig(), &out)
		assert.ErrorContains(t, err, "database_url")
	})
}

func TestRunMatch(t *testing.T) {
	t.Run("matches statement credits", func(t *testing.T) {
		app, repo := newTestApp(t)
		seedTenant(t, repo, "Jane Doe", "jane@example.com")
		path := writeFile(t, "statement.csv",
			"Date,Description,Amount\n"+
				"2026-05-01,ZELLE FROM JANE DOE,1200.00\n"+
				"2026-05-02,HARDWARE STORE,-45.10\n")

		var out bytes.Buffer
		require.NoError(t, RunMatch(context.Background(), app, path, &out))

		assert.Contains(t, out.String(), "Jane Doe")
		assert.Contains(t, out.String(), "$1,200.00")
		assert.Contains(t, out.String(), "Summary: Matched=1 Review=0 Failed=0")
		assert.Contains(t, out.String(), "Provider balance: 2500.00")
		assert.NotContains(t, out.String(), "HARDWARE STORE")
	})

	t.Run("statement without credits is a no-op", func(t *testing.T) {
		app, repo := newTestApp(t)
		path := writeFile(t, "statement.csv", "Date,Description,Amount\n2026-05-02,HARDWARE STORE,-45.10\n")

		var out bytes.Buffer
		require.NoError(t, RunMatch(context.Background(), app, path, &out))

		assert.Contains(t, out.String(), "No incoming transactions")
		assert.False(t, repo.StartMatchRunCalled)
	})

	t.Run("unsupported file types fail", func(t *testing.T) {
		app, _ := newTestApp(t)
		path := writeFile(t, "statement.pdf", "%PDF")

		err := RunMatch(context.Background(), app, path, &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestRunRemind(t *testing.T) {
	date := time.Date(2026, 4, 28, 0, 0, 0, 0, time.UTC)

	t.Run("lists due reminders without sending", func(t *testing.T) {
		app, repo := newTestApp(t)
		seedTenant(t, repo, "Jane Doe", "jane@example.com")

		var out bytes.Buffer
		require.NoError(t, RunRemind(context.Background(), app, date, false, &out))

		assert.Contains(t, out.String(), "Scheduled for 2026-04-28: 2 reminder(s)")
		assert.Contains(t, out.String(), "Due: 2 reminder(s)")
		assert.Contains(t, out.String(), "Overdue")
		assert.Contains(t, out.String(), "Due Soon")

		reminders, err := repo.ListReminders(context.Background())
		require.NoError(t, err)
		for _, r := range reminders {
			assert.Nil(t, r.LastSent)
		}
	})

	t.Run("send records lastSent", func(t *testing.T) {
		app, repo := newTestApp(t)
		seedTenant(t, repo, "Jane Doe", "jane@example.com")

		var out bytes.Buffer
		require.NoError(t, RunRemind(context.Background(), app, date, true, &out))

		assert.Contains(t, out.String(), "Sent 2 of 2 reminder(s)")

		reminders, err := repo.ListReminders(context.Background())
		require.NoError(t, err)
		require.Len(t, reminders, 2)
		for _, r := range reminders {
			assert.NotNil(t, r.LastSent)
		}
	})
}
