package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/eshaffer321/rentlink-backend/internal/adapters/statements"
)

// RunMatch imports a CSV or XLSX statement and runs matching over its
// credits.
func RunMatch(ctx context.Context, app *App, path string, out io.Writer) error {
	txs, err := statements.ParseFile(path)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Fprintf(out, "No incoming transactions in %s\n", path)
		return nil
	}

	app.Logger.Info("importing statement", "path", path, "transactions", len(txs))

	result, err := app.Services.Matching.Run(ctx, txs)
	if err != nil {
		return fmt.Errorf("matching run failed: %w", err)
	}

	PrintRunSummary(out, result)
	return nil
}
