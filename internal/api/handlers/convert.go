package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/rentlink-backend/internal/api/dto"
	"github.com/eshaffer321/rentlink-backend/internal/application/service"
	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/eshaffer321/rentlink-backend/internal/domain/money"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/eshaffer321/rentlink-backend/internal/domain/validator"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
)

func toTenantResponse(t rental.Tenant) dto.TenantResponse {
	return dto.TenantResponse{
		ID:            t.ID,
		Name:          t.Name,
		Email:         t.Email,
		Phone:         t.Phone,
		Property:      t.Property,
		RentAmount:    money.Format(t.RentAmount, t.Currency),
		Currency:      t.Currency,
		PaymentStatus: string(t.PaymentStatus),
		Score:         t.Score,
		DueDay:        t.DueDay,
		CreatedAt:     dto.FormatTime(t.CreatedAt),
	}
}

func toReminderResponse(r rental.Reminder) dto.ReminderResponse {
	channels := make([]string, len(r.Channels))
	for i, c := range r.Channels {
		channels[i] = string(c)
	}
	return dto.ReminderResponse{
		ID:       r.ID,
		Tenant:   r.TenantID,
		Due:      r.DueDate.Format(time.DateOnly),
		Type:     string(r.Type),
		Channels: channels,
		Channel:  r.Channels.String(),
		LastSent: dto.FormatTimePtr(r.LastSent),
	}
}

func toReminderResponses(rs []rental.Reminder) []dto.ReminderResponse {
	out := make([]dto.ReminderResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReminderResponse(r))
	}
	return out
}

func toAccountResponse(a rental.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:        a.ID,
		Tenant:    a.TenantID,
		Account:   a.Reference,
		Status:    string(a.Status),
		PayeeID:   a.PayeeID,
		CreatedAt: dto.FormatTime(a.CreatedAt),
	}
}

func toTransactionResponse(rec storage.TransactionRecord) dto.TransactionResponse {
	tenant := rec.TenantName
	if tenant == "" {
		tenant = matcher.Unmatched
	}
	return dto.TransactionResponse{
		ID:          rec.ID,
		Date:        rec.Date.Format(time.DateOnly),
		Amount:      money.Format(rec.Amount, rec.Currency),
		Currency:    rec.Currency,
		Description: rec.Description,
		TenantID:    rec.TenantID,
		Tenant:      tenant,
		Confidence:  string(rec.Confidence),
		Status:      string(rec.Status),
		PayeeID:     rec.PayeeID,
		PayeeMinted: rec.PayeeMinted,
		Reason:      rec.Reason,
		RunID:       rec.RunID,
		UpdatedAt:   dto.FormatTime(rec.UpdatedAt),
	}
}

func toTransactionResponses(recs []storage.TransactionRecord) []dto.TransactionResponse {
	out := make([]dto.TransactionResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toTransactionResponse(rec))
	}
	return out
}

func toTransitionResponse(t storage.Transition) dto.TransitionResponse {
	return dto.TransitionResponse{
		ID:         t.ID,
		From:       string(t.From),
		To:         string(t.To),
		Confidence: string(t.Confidence),
		TenantID:   t.TenantID,
		Reason:     t.Reason,
		RunID:      t.RunID,
		CreatedAt:  dto.FormatTime(t.CreatedAt),
	}
}

func toMatchRunResponse(run storage.MatchRun) dto.MatchRunResponse {
	resp := dto.MatchRunResponse{
		ID:               run.ID,
		Kind:             run.Kind,
		Status:           run.Status,
		StartedAt:        dto.FormatTime(run.StartedAt),
		TransactionCount: run.TransactionCount,
		Matched:          run.Matched,
		Review:           run.Review,
		Failed:           run.Failed,
		Skipped:          run.Skipped,
		DirectoryError:   run.DirectoryError,
		Error:            run.Error,
	}
	if run.CompletedAt != nil {
		resp.CompletedAt = dto.FormatTime(*run.CompletedAt)
	}
	return resp
}

func toRunResultResponse(result *service.RunResult) dto.RunResultResponse {
	resp := dto.RunResultResponse{
		Transactions: toTransactionResponses(result.Transactions),
		Summary: dto.SummaryResponse{
			Matched: result.Summary.Matched,
			Review:  result.Summary.Review,
			Failed:  result.Summary.Failed,
		},
		Balance: formatBalance(result.Balance),
	}
	if result.Run != nil {
		resp.Run = toMatchRunResponse(*result.Run)
	}
	return resp
}

func toPaymentResponse(p storage.PaymentAttempt) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:                p.IdempotencyKey,
		TransactionID:     p.TransactionID,
		TenantID:          p.TenantID,
		PayeeID:           p.PayeeID,
		Amount:            money.Format(p.Amount, p.Currency),
		Currency:          p.Currency,
		Memo:              p.Memo,
		Status:            string(p.Status),
		ProviderReference: p.ProviderReference,
		Error:             p.Error,
		Attempts:          p.Attempts,
		CreatedAt:         dto.FormatTime(p.CreatedAt),
		UpdatedAt:         dto.FormatTime(p.UpdatedAt),
	}
}

func formatBalance(balance *decimal.Decimal) *string {
	if balance == nil {
		return nil
	}
	s := balance.StringFixed(2)
	return &s
}

func toReminderBatchResponse(outcomes []service.SendOutcome) dto.ReminderBatchResponse {
	resp := dto.ReminderBatchResponse{Results: make([]dto.ReminderOutcome, 0, len(outcomes))}
	for _, o := range outcomes {
		resp.Results = append(resp.Results, dto.ReminderOutcome{ID: o.ID, Updated: o.Updated, Error: o.Error})
		if o.Updated {
			resp.Updated++
		} else {
			resp.Failed++
		}
	}
	switch {
	case resp.Failed == 0:
		resp.Message = "Reminders updated successfully"
	case resp.Updated == 0:
		resp.Message = "No reminders were updated"
	default:
		resp.Message = fmt.Sprintf("%d of %d reminders updated", resp.Updated, len(outcomes))
	}
	return resp
}

// tenantFromRequest builds a tenant from the form fields. Rent arrives in
// whatever shape the operator typed, e.g. "$1,200/mo".
func tenantFromRequest(req dto.CreateTenantRequest) (*rental.Tenant, error) {
	rent, err := validator.RentAmount(string(req.RentAmount))
	if err != nil {
		return nil, err
	}
	return &rental.Tenant{
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		Property:      strings.TrimSpace(req.Property),
		RentAmount:    rent,
		Currency:      money.CurrencyOf(string(req.RentAmount)),
		PaymentStatus: rental.PaymentStatus(req.PaymentStatus),
		Score:         req.Score,
		DueDay:        req.DueDay,
	}, nil
}

func reminderFromRequest(req dto.CreateReminderRequest) (*rental.Reminder, error) {
	var errs validator.Errors

	due, err := parseDay(req.Due)
	if err != nil {
		errs.Add("due", "must be a date (YYYY-MM-DD)")
	}

	channels := req.Channels
	if len(channels) == 0 && strings.TrimSpace(req.Channel) != "" {
		channels, err = rental.ParseChannels(req.Channel)
		if err != nil {
			errs.Add("channel", err.Error())
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return &rental.Reminder{
		TenantID: strings.TrimSpace(req.Tenant),
		DueDate:  due,
		Type:     rental.ReminderType(req.Type),
		Channels: channels,
	}, nil
}

func rawTransactions(req dto.MatchRunRequest) ([]matcher.Transaction, error) {
	var errs validator.Errors
	if len(req.Transactions) == 0 {
		errs.Add("transactions", "at least one transaction is required")
		return nil, errs
	}

	txs := make([]matcher.Transaction, 0, len(req.Transactions))
	for i, raw := range req.Transactions {
		field := fmt.Sprintf("transactions[%d]", i)

		date, err := parseDay(raw.Date)
		if err != nil {
			errs.Add(field+".date", "must be a date (YYYY-MM-DD)")
		}
		amount, err := money.ParsePositive(string(raw.Amount))
		if err != nil {
			errs.Add(field+".amount", err.Error())
		}
		desc := strings.Join(strings.Fields(raw.Description), " ")
		if desc == "" {
			errs.Add(field+".description", "is required")
		}

		txs = append(txs, matcher.Transaction{
			ID:          strings.TrimSpace(raw.ID),
			Date:        date,
			Amount:      amount,
			AmountText:  string(raw.Amount),
			Currency:    money.CurrencyOf(string(raw.Amount)),
			Description: desc,
		})
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

// parseDay accepts a calendar date or a full RFC 3339 timestamp, which is
// what date pickers and Mongo exports send.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := rental.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return rental.Date(t), nil
}
