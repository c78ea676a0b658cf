package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/google/uuid"
)

const tenantColumns = `id, name, email, phone, property, rent_amount, currency,
	payment_status, score, due_day, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*rental.Tenant, error) {
	t := &rental.Tenant{}
	err := row.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.Property, &t.RentAmount, &t.Currency,
		&t.PaymentStatus, &t.Score, &t.DueDay, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTenant inserts a tenant
func (s *Storage) CreateTenant(ctx context.Context, t *rental.Tenant) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO tenants (`+tenantColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Email, t.Phone, t.Property, t.RentAmount, t.Currency,
		t.PaymentStatus, t.Score, t.DueDay, t.CreatedAt, t.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if isPrimaryKeyViolation(err) {
		return fmt.Errorf("tenant %s already exists", t.ID)
	}
	return err
}

// GetTenant retrieves a tenant by ID
func (s *Storage) GetTenant(ctx context.Context, id string) (*rental.Tenant, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = ?`, id)
	t, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// ListTenants returns all tenants ordered by name
func (s *Storage) ListTenants(ctx context.Context) ([]rental.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := make([]rental.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

// UpdateTenantStatus sets a tenant's payment status
func (s *Storage) UpdateTenantStatus(ctx context.Context, id string, status rental.PaymentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tenants SET payment_status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteTenant removes a tenant. Its reminders and accounts are kept.
func (s *Storage) DeleteTenant(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateAccount inserts a virtual account
func (s *Storage) CreateAccount(ctx context.Context, a *rental.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO accounts (id, tenant_id, reference, status, payee_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.TenantID, a.Reference, a.Status, a.PayeeID, a.CreatedAt)
	return err
}

func (s *Storage) queryAccounts(ctx context.Context, where string, args ...any) ([]rental.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, tenant_id, reference, status, payee_id, created_at
	FROM accounts `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]rental.Account, 0)
	for rows.Next() {
		var a rental.Account
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Reference, &a.Status, &a.PayeeID, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// ListAccounts returns all accounts
func (s *Storage) ListAccounts(ctx context.Context) ([]rental.Account, error) {
	return s.queryAccounts(ctx, "")
}

// ListAccountsByTenant returns the accounts of one tenant
func (s *Storage) ListAccountsByTenant(ctx context.Context, tenantID string) ([]rental.Account, error) {
	return s.queryAccounts(ctx, "WHERE tenant_id = ?", tenantID)
}

// CreateReminder inserts a reminder
func (s *Storage) CreateReminder(ctx context.Context, r *rental.Reminder) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	channels, err := json.Marshal(r.Channels)
	if err != nil {
		return err
	}

	var lastSent sql.NullTime
	if r.LastSent != nil {
		lastSent = sql.NullTime{Time: *r.LastSent, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO reminders (id, tenant_id, due_date, type, channels, last_sent, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.TenantID, rental.Date(r.DueDate), r.Type, string(channels), lastSent, r.CreatedAt)
	return err
}

const reminderColumns = `id, tenant_id, due_date, type, channels, last_sent, created_at`

func scanReminder(row rowScanner) (*rental.Reminder, error) {
	var (
		r        rental.Reminder
		channels string
		lastSent sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.TenantID, &r.DueDate, &r.Type, &channels, &lastSent, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(channels), &r.Channels); err != nil {
		return nil, fmt.Errorf("reminder %s has unreadable channels: %w", r.ID, err)
	}
	r.DueDate = rental.Date(r.DueDate)
	if lastSent.Valid {
		t := lastSent.Time
		r.LastSent = &t
	}
	return &r, nil
}

// GetReminder retrieves a reminder by ID
func (s *Storage) GetReminder(ctx context.Context, id string) (*rental.Reminder, error) {
	r, err := scanReminder(s.db.QueryRowContext(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// ListReminders returns all reminders ordered by due date
func (s *Storage) ListReminders(ctx context.Context) ([]rental.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reminderColumns+` FROM reminders ORDER BY due_date, created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reminders := make([]rental.Reminder, 0)
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, *r)
	}
	return reminders, rows.Err()
}

// MarkReminderSent sets last_sent for one reminder
func (s *Storage) MarkReminderSent(ctx context.Context, id string, sentAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reminders SET last_sent = ? WHERE id = ?`, sentAt.UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
