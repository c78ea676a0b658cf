package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/config"
)

// Flags are the options shared by every command.
type Flags struct {
	ConfigPath string
	Verbose    bool
}

// Bind registers the shared flags on cmd and all of its subcommands.
func (f *Flags) Bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.ConfigPath, "config", "c", "config.yaml", "Path to config file (falls back to environment)")
	cmd.PersistentFlags().BoolVarP(&f.Verbose, "verbose", "v", false, "Verbose output")
}

// LoadConfig reads the config file, or the environment when the file is
// missing, and applies the verbose override.
func (f *Flags) LoadConfig() *config.Config {
	cfg := config.LoadOrEnv_WithPath(f.ConfigPath)
	if f.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	return cfg
}

// ParseRunDate parses a --date value. Empty means today.
func ParseRunDate(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return rental.Date(now), nil
	}
	day, err := rental.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", value)
	}
	return day, nil
}
