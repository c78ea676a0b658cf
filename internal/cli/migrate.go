package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/config"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/logging"
)

// RunMigrate opens the configured store, which applies migrations, and
// closes it again. Only the database URL is required.
func RunMigrate(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if cfg.Storage.DatabaseURL == "" {
		return fmt.Errorf("storage.database_url (DATABASE_URL or MONGODB_URI) is required")
	}

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "storage")
	store, err := OpenStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	if err := store.Close(); err != nil {
		return err
	}

	if IsMongoURL(cfg.Storage.DatabaseURL) {
		fmt.Fprintf(out, "MongoDB indexes ensured on %s\n", cfg.Storage.DatabaseName)
	} else {
		fmt.Fprintf(out, "SQLite migrations applied to %s\n", SQLitePath(cfg.Storage.DatabaseURL))
	}
	return nil
}
