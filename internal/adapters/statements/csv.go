package statements

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
)

// ParseCSV reads a CSV statement.
func ParseCSV(r io.Reader) ([]matcher.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv statement: %w", err)
	}
	return parseRows(rows)
}
