package storage

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/google/uuid"
)

const transactionColumns = `id, date, amount, amount_text, currency, description,
	tenant_id, tenant_name, confidence, status, payee_id, payee_minted,
	fallback_exhausted, reason, run_id, created_at, updated_at`

func scanTransaction(row rowScanner) (*TransactionRecord, error) {
	var r TransactionRecord
	err := row.Scan(&r.ID, &r.Date, &r.Amount, &r.AmountText, &r.Currency, &r.Description,
		&r.TenantID, &r.TenantName, &r.Confidence, &r.Status, &r.PayeeID, &r.PayeeMinted,
		&r.FallbackExhausted, &r.Reason, &r.RunID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Date = rental.Date(r.Date)
	return &r, nil
}

// SaveTransaction upserts a transaction. The update only applies when the
// incoming status rank is not lower than the stored one.
func (s *Storage) SaveTransaction(ctx context.Context, tx *TransactionRecord) (bool, error) {
	if tx.ID == "" {
		tx.ID = matcher.TransactionID(tx.Date, tx.Amount, tx.Description)
	}
	now := time.Now().UTC()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
	INSERT INTO transactions (`+transactionColumns+`, status_rank)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		tenant_id = excluded.tenant_id,
		tenant_name = excluded.tenant_name,
		confidence = excluded.confidence,
		status = excluded.status,
		status_rank = excluded.status_rank,
		payee_id = excluded.payee_id,
		payee_minted = excluded.payee_minted,
		fallback_exhausted = excluded.fallback_exhausted,
		reason = excluded.reason,
		run_id = excluded.run_id,
		updated_at = excluded.updated_at
	WHERE excluded.status_rank >= transactions.status_rank`,
		tx.ID, rental.Date(tx.Date), tx.Amount, tx.AmountText, tx.Currency, tx.Description,
		tx.TenantID, tx.TenantName, tx.Confidence, tx.Status, tx.PayeeID, tx.PayeeMinted,
		tx.FallbackExhausted, tx.Reason, tx.RunID, tx.CreatedAt, tx.UpdatedAt, tx.Status.Rank(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetTransaction retrieves a transaction by ID
func (s *Storage) GetTransaction(ctx context.Context, id string) (*TransactionRecord, error) {
	r, err := scanTransaction(s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// ListTransactions returns transactions ordered by date, then id
func (s *Storage) ListTransactions(ctx context.Context, filter TransactionFilter) ([]TransactionRecord, error) {
	var (
		clauses []string
		args    []any
	)
	if len(filter.Statuses) > 0 {
		marks := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			marks[i] = "?"
			args = append(args, st)
		}
		clauses = append(clauses, "status IN ("+strings.Join(marks, ", ")+")")
	}
	if filter.TenantID != "" {
		clauses = append(clauses, "tenant_id = ?")
		args = append(args, filter.TenantID)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY date, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]TransactionRecord, 0)
	for rows.Next() {
		r, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// AppendTransition records one status change
func (s *Storage) AppendTransition(ctx context.Context, t *Transition) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO transaction_transitions
		(transaction_id, from_status, to_status, confidence, tenant_id, reason, run_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TransactionID, t.From, t.To, t.Confidence, t.TenantID, t.Reason, t.RunID, t.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = strconv.FormatInt(id, 10)
	return nil
}

// ListTransitions returns the history of one transaction, oldest first
func (s *Storage) ListTransitions(ctx context.Context, transactionID string) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, transaction_id, from_status, to_status, confidence, tenant_id, reason, run_id, created_at
	FROM transaction_transitions
	WHERE transaction_id = ?
	ORDER BY id`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transitions := make([]Transition, 0)
	for rows.Next() {
		var (
			t  Transition
			id int64
		)
		if err := rows.Scan(&id, &t.TransactionID, &t.From, &t.To, &t.Confidence,
			&t.TenantID, &t.Reason, &t.RunID, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.ID = strconv.FormatInt(id, 10)
		transitions = append(transitions, t)
	}
	return transitions, rows.Err()
}

// StartMatchRun records the start of a matching run
func (s *Storage) StartMatchRun(ctx context.Context, kind string) (*MatchRun, error) {
	run := &MatchRun{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO match_runs (id, kind, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Kind, run.Status, run.StartedAt)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteMatchRun records the counts and final state of a run. A run still
// marked running is set to completed.
func (s *Storage) CompleteMatchRun(ctx context.Context, run *MatchRun) error {
	if run.Status == "" || run.Status == RunStatusRunning {
		run.Status = RunStatusCompleted
	}
	if run.CompletedAt == nil {
		now := time.Now().UTC()
		run.CompletedAt = &now
	}
	res, err := s.db.ExecContext(ctx, `
	UPDATE match_runs
	SET status = ?, completed_at = ?, transaction_count = ?, matched = ?, review = ?,
		failed = ?, skipped = ?, directory_error = ?, error = ?
	WHERE id = ?`,
		run.Status, *run.CompletedAt, run.TransactionCount, run.Matched, run.Review,
		run.Failed, run.Skipped, run.DirectoryError, run.Error, run.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

const matchRunColumns = `id, kind, status, started_at, completed_at, transaction_count,
	matched, review, failed, skipped, directory_error, error`

func scanMatchRun(row rowScanner) (*MatchRun, error) {
	var (
		r           MatchRun
		completedAt sql.NullTime
	)
	err := row.Scan(&r.ID, &r.Kind, &r.Status, &r.StartedAt, &completedAt, &r.TransactionCount,
		&r.Matched, &r.Review, &r.Failed, &r.Skipped, &r.DirectoryError, &r.Error)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

// GetMatchRun retrieves a run by ID
func (s *Storage) GetMatchRun(ctx context.Context, id string) (*MatchRun, error) {
	r, err := scanMatchRun(s.db.QueryRowContext(ctx,
		`SELECT `+matchRunColumns+` FROM match_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// ListMatchRuns returns the most recent runs first
func (s *Storage) ListMatchRuns(ctx context.Context, limit int) ([]MatchRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchRunColumns+` FROM match_runs ORDER BY started_at DESC LIMIT ?`,
		limitOrDefault(limit, 20))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]MatchRun, 0)
	for rows.Next() {
		r, err := scanMatchRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}
