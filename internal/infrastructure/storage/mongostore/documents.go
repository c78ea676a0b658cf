package mongostore

import (
	"fmt"
	"strings"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names
const (
	tenantsCollection      = "tenants"
	accountsCollection     = "accounts"
	remindersCollection    = "reminders"
	transactionsCollection = "transactions"
	transitionsCollection  = "transaction_transitions"
	runsCollection         = "match_runs"
	paymentsCollection     = "payment_attempts"
)

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("amount %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}

type tenantDoc struct {
	ID            string               `bson:"_id"`
	Name          string               `bson:"name"`
	NameLower     string               `bson:"nameLower"`
	Email         string               `bson:"email"`
	EmailLower    string               `bson:"emailLower"`
	Phone         string               `bson:"phone"`
	Property      string               `bson:"property"`
	RentAmount    primitive.Decimal128 `bson:"rentAmount"`
	Currency      string               `bson:"currency"`
	PaymentStatus string               `bson:"paymentStatus"`
	Score         int                  `bson:"score"`
	DueDay        int                  `bson:"dueDay"`
	CreatedAt     time.Time            `bson:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt"`
}

func newTenantDoc(t *rental.Tenant) (*tenantDoc, error) {
	rent, err := toDecimal128(t.RentAmount)
	if err != nil {
		return nil, err
	}
	return &tenantDoc{
		ID:            t.ID,
		Name:          t.Name,
		NameLower:     strings.ToLower(t.Name),
		Email:         t.Email,
		EmailLower:    strings.ToLower(t.Email),
		Phone:         t.Phone,
		Property:      t.Property,
		RentAmount:    rent,
		Currency:      t.Currency,
		PaymentStatus: string(t.PaymentStatus),
		Score:         t.Score,
		DueDay:        t.DueDay,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}, nil
}

func (d *tenantDoc) tenant() (*rental.Tenant, error) {
	rent, err := fromDecimal128(d.RentAmount)
	if err != nil {
		return nil, err
	}
	return &rental.Tenant{
		ID:            d.ID,
		Name:          d.Name,
		Email:         d.Email,
		Phone:         d.Phone,
		Property:      d.Property,
		RentAmount:    rent,
		Currency:      d.Currency,
		PaymentStatus: rental.PaymentStatus(d.PaymentStatus),
		Score:         d.Score,
		DueDay:        d.DueDay,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}, nil
}

type accountDoc struct {
	ID        string    `bson:"_id"`
	TenantID  string    `bson:"tenantId"`
	Reference string    `bson:"reference"`
	Status    string    `bson:"status"`
	PayeeID   string    `bson:"payeeId"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d *accountDoc) account() rental.Account {
	return rental.Account{
		ID:        d.ID,
		TenantID:  d.TenantID,
		Reference: d.Reference,
		Status:    rental.AccountStatus(d.Status),
		PayeeID:   d.PayeeID,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type reminderDoc struct {
	ID        string     `bson:"_id"`
	TenantID  string     `bson:"tenantId"`
	DueDate   time.Time  `bson:"dueDate"`
	Type      string     `bson:"type"`
	Channels  []string   `bson:"channels"`
	LastSent  *time.Time `bson:"lastSent"`
	CreatedAt time.Time  `bson:"createdAt"`
}

func newReminderDoc(r *rental.Reminder) *reminderDoc {
	channels := make([]string, len(r.Channels))
	for i, c := range r.Channels {
		channels[i] = string(c)
	}
	return &reminderDoc{
		ID:        r.ID,
		TenantID:  r.TenantID,
		DueDate:   rental.Date(r.DueDate),
		Type:      string(r.Type),
		Channels:  channels,
		LastSent:  r.LastSent,
		CreatedAt: r.CreatedAt,
	}
}

func (d *reminderDoc) reminder() (*rental.Reminder, error) {
	list := make([]rental.Channel, len(d.Channels))
	for i, c := range d.Channels {
		list[i] = rental.Channel(c)
	}
	channels, err := rental.NewChannelSet(list...)
	if err != nil {
		return nil, fmt.Errorf("reminder %s: %w", d.ID, err)
	}
	r := &rental.Reminder{
		ID:        d.ID,
		TenantID:  d.TenantID,
		DueDate:   rental.Date(d.DueDate),
		Type:      rental.ReminderType(d.Type),
		Channels:  channels,
		CreatedAt: d.CreatedAt.UTC(),
	}
	if d.LastSent != nil {
		t := d.LastSent.UTC()
		r.LastSent = &t
	}
	return r, nil
}

type transactionDoc struct {
	ID                string               `bson:"_id"`
	Date              time.Time            `bson:"date"`
	Amount            primitive.Decimal128 `bson:"amount"`
	AmountText        string               `bson:"amountText"`
	Currency          string               `bson:"currency"`
	Description       string               `bson:"description"`
	TenantID          string               `bson:"tenantId"`
	TenantName        string               `bson:"tenantName"`
	Confidence        string               `bson:"confidence"`
	Status            string               `bson:"status"`
	StatusRank        int                  `bson:"statusRank"`
	PayeeID           string               `bson:"payeeId"`
	PayeeMinted       bool                 `bson:"payeeMinted"`
	FallbackExhausted bool                 `bson:"fallbackExhausted"`
	Reason            string               `bson:"reason"`
	RunID             string               `bson:"runId"`
	CreatedAt         time.Time            `bson:"createdAt"`
	UpdatedAt         time.Time            `bson:"updatedAt"`
}

func (d *transactionDoc) record() (*storage.TransactionRecord, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return nil, err
	}
	return &storage.TransactionRecord{
		Transaction: matcher.Transaction{
			ID:                d.ID,
			Date:              rental.Date(d.Date),
			Amount:            amount,
			AmountText:        d.AmountText,
			Currency:          d.Currency,
			Description:       d.Description,
			TenantID:          d.TenantID,
			TenantName:        d.TenantName,
			Confidence:        matcher.Confidence(d.Confidence),
			Status:            matcher.Status(d.Status),
			PayeeID:           d.PayeeID,
			PayeeMinted:       d.PayeeMinted,
			FallbackExhausted: d.FallbackExhausted,
			Reason:            d.Reason,
		},
		RunID:     d.RunID,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

type transitionDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	TransactionID string             `bson:"transactionId"`
	From          string             `bson:"from"`
	To            string             `bson:"to"`
	Confidence    string             `bson:"confidence"`
	TenantID      string             `bson:"tenantId"`
	Reason        string             `bson:"reason"`
	RunID         string             `bson:"runId"`
	CreatedAt     time.Time          `bson:"createdAt"`
}

func (d *transitionDoc) transition() storage.Transition {
	return storage.Transition{
		ID:            d.ID.Hex(),
		TransactionID: d.TransactionID,
		From:          matcher.Status(d.From),
		To:            matcher.Status(d.To),
		Confidence:    matcher.Confidence(d.Confidence),
		TenantID:      d.TenantID,
		Reason:        d.Reason,
		RunID:         d.RunID,
		CreatedAt:     d.CreatedAt.UTC(),
	}
}

type matchRunDoc struct {
	ID               string     `bson:"_id"`
	Kind             string     `bson:"kind"`
	Status           string     `bson:"status"`
	StartedAt        time.Time  `bson:"startedAt"`
	CompletedAt      *time.Time `bson:"completedAt"`
	TransactionCount int        `bson:"transactionCount"`
	Matched          int        `bson:"matched"`
	Review           int        `bson:"review"`
	Failed           int        `bson:"failed"`
	Skipped          int        `bson:"skipped"`
	DirectoryError   string     `bson:"directoryError"`
	Error            string     `bson:"error"`
}

func (d *matchRunDoc) run() storage.MatchRun {
	run := storage.MatchRun{
		ID:               d.ID,
		Kind:             d.Kind,
		Status:           d.Status,
		StartedAt:        d.StartedAt.UTC(),
		TransactionCount: d.TransactionCount,
		Matched:          d.Matched,
		Review:           d.Review,
		Failed:           d.Failed,
		Skipped:          d.Skipped,
		DirectoryError:   d.DirectoryError,
		Error:            d.Error,
	}
	if d.CompletedAt != nil {
		t := d.CompletedAt.UTC()
		run.CompletedAt = &t
	}
	return run
}

type paymentDoc struct {
	ID                string               `bson:"_id"`
	TransactionID     string               `bson:"transactionId"`
	TenantID          string               `bson:"tenantId"`
	PayeeID           string               `bson:"payeeId"`
	Amount            primitive.Decimal128 `bson:"amount"`
	Currency          string               `bson:"currency"`
	Memo              string               `bson:"memo"`
	Status            string               `bson:"status"`
	ProviderReference string               `bson:"providerReference"`
	Error             string               `bson:"error"`
	Attempts          int                  `bson:"attempts"`
	CreatedAt         time.Time            `bson:"createdAt"`
	UpdatedAt         time.Time            `bson:"updatedAt"`
}

func (d *paymentDoc) attempt() (storage.PaymentAttempt, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return storage.PaymentAttempt{}, err
	}
	return storage.PaymentAttempt{
		IdempotencyKey:    d.ID,
		TransactionID:     d.TransactionID,
		TenantID:          d.TenantID,
		PayeeID:           d.PayeeID,
		Amount:            amount,
		Currency:          d.Currency,
		Memo:              d.Memo,
		Status:            storage.PaymentStatus(d.Status),
		ProviderReference: d.ProviderReference,
		Error:             d.Error,
		Attempts:          d.Attempts,
		CreatedAt:         d.CreatedAt.UTC(),
		UpdatedAt:         d.UpdatedAt.UTC(),
	}, nil
}
