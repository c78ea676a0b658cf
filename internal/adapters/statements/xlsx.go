package statements

import (
	"fmt"
	"io"

	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first sheet of an XLSX statement.
func ParseXLSX(r io.Reader) ([]matcher.Transaction, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx statement: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return parseRows(rows)
}
