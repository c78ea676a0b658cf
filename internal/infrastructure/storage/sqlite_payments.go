package storage

import (
	"context"
	"strings"
	"time"
)

// ReservePayment claims an idempotency key. A failed attempt under the same
// key is reopened and its attempt counter bumped.
func (s *Storage) ReservePayment(ctx context.Context, p *PaymentAttempt) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Status = PaymentPending
	if p.Attempts == 0 {
		p.Attempts = 1
	}

	res, err := s.db.ExecContext(ctx, `
	INSERT INTO payment_attempts (idempotency_key, transaction_id, tenant_id, payee_id, amount,
		currency, memo, status, provider_reference, error, attempts, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', '', ?, ?, ?)
	ON CONFLICT(idempotency_key) DO UPDATE SET
		status = 'pending',
		error = '',
		attempts = payment_attempts.attempts + 1,
		updated_at = excluded.updated_at
	WHERE payment_attempts.status = 'failed'`,
		p.IdempotencyKey, p.TransactionID, p.TenantID, p.PayeeID, p.Amount,
		p.Currency, p.Memo, p.Status, p.Attempts, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicatePayment
	}

	// Pick up the bumped counter when an earlier attempt was reopened
	return s.db.QueryRowContext(ctx,
		`SELECT attempts, created_at FROM payment_attempts WHERE idempotency_key = ?`,
		p.IdempotencyKey).Scan(&p.Attempts, &p.CreatedAt)
}

// CompletePayment records the provider outcome for a reserved key
func (s *Storage) CompletePayment(ctx context.Context, key string, status PaymentStatus, reference, errMsg string) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE payment_attempts
	SET status = ?, provider_reference = ?, error = ?, updated_at = ?
	WHERE idempotency_key = ?`,
		status, reference, errMsg, time.Now().UTC(), key)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ListPayments returns payment attempts, newest first
func (s *Storage) ListPayments(ctx context.Context, filter PaymentFilter) ([]PaymentAttempt, error) {
	query := `
	SELECT idempotency_key, transaction_id, tenant_id, payee_id, amount, currency, memo,
		status, provider_reference, error, attempts, created_at, updated_at
	FROM payment_attempts`
	var args []any
	var clauses []string
	if filter.TransactionID != "" {
		clauses = append(clauses, "transaction_id = ?")
		args = append(args, filter.TransactionID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limitOrDefault(filter.Limit, 100))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]PaymentAttempt, 0)
	for rows.Next() {
		var p PaymentAttempt
		if err := rows.Scan(&p.IdempotencyKey, &p.TransactionID, &p.TenantID, &p.PayeeID, &p.Amount,
			&p.Currency, &p.Memo, &p.Status, &p.ProviderReference, &p.Error, &p.Attempts,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
