// Package statements reads bank statements exported as CSV or XLSX into
// raw transactions for the matching engine.
//
// Column layout is discovered from the header row: a date column, a
// description column, and either an amount column or credit/debit columns.
// Only incoming money (credits, positive amounts) is kept.
package statements

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/eshaffer321/rentlink-backend/internal/domain/money"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported statement format")
	ErrNoHeader          = errors.New("statement has no recognizable header row")
)

var dateLayouts = []string{
	time.DateOnly,
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"Jan 2, 2006",
	"02 Jan 2006",
	"2006/01/02",
}

var (
	dateHeaders   = []string{"date", "posted date", "posting date", "transaction date", "value date"}
	descHeaders   = []string{"description", "details", "memo", "narrative", "payee", "name"}
	amountHeaders = []string{"amount", "value", "transaction amount"}
	creditHeaders = []string{"credit", "credits", "deposit", "deposits", "money in"}
	debitHeaders  = []string{"debit", "debits", "withdrawal", "withdrawals", "money out"}
)

type layout struct {
	date, desc, amount, credit, debit int
}

// ParseFile picks a parser from the file extension.
func ParseFile(path string) ([]matcher.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statement: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseCSV(f)
	case ".xlsx":
		return ParseXLSX(f)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

func findColumn(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}

func detectLayout(rows [][]string) (layout, int, error) {
	for i, row := range rows {
		l := layout{
			date:   findColumn(row, dateHeaders),
			desc:   findColumn(row, descHeaders),
			amount: findColumn(row, amountHeaders),
			credit: findColumn(row, creditHeaders),
			debit:  findColumn(row, debitHeaders),
		}
		if l.date >= 0 && l.desc >= 0 && (l.amount >= 0 || l.credit >= 0) {
			return l, i, nil
		}
	}
	return layout{}, 0, ErrNoHeader
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseDate(s string) (time.Time, bool) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseRows turns statement rows into transactions. Rows whose date or
// amount cannot be read (totals, blank lines, opening balances) are skipped.
func parseRows(rows [][]string) ([]matcher.Transaction, error) {
	l, headerRow, err := detectLayout(rows)
	if err != nil {
		return nil, err
	}

	var txs []matcher.Transaction
	for _, row := range rows[headerRow+1:] {
		date, ok := parseDate(cell(row, l.date))
		if !ok {
			continue
		}

		amountText := cell(row, l.amount)
		if l.credit >= 0 && cell(row, l.credit) != "" {
			amountText = cell(row, l.credit)
		}
		if amountText == "" {
			continue
		}
		amount, err := money.Parse(amountText)
		if err != nil || !amount.IsPositive() {
			continue
		}

		desc := strings.Join(strings.Fields(cell(row, l.desc)), " ")
		txs = append(txs, matcher.Transaction{
			ID:          matcher.TransactionID(date, amount, desc),
			Date:        date,
			Amount:      amount,
			AmountText:  amountText,
			Currency:    money.CurrencyOf(amountText),
			Description: desc,
		})
	}
	return txs, nil
}
