package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eshaffer321/rentlink-backend/internal/adapters/payman"
	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/eshaffer321/rentlink-backend/internal/domain/money"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/tracing"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RunResult is the outcome of one matching run.
type RunResult struct {
	Run          *storage.MatchRun
	Transactions []storage.TransactionRecord
	Summary      matcher.Summary
	// Balance is the refreshed provider balance, nil when the call failed.
	Balance *decimal.Decimal
}

// MatchingService runs the matching engine against stored tenants and
// payees and persists the annotated results with their history.
type MatchingService struct {
	store    storage.Repository
	provider PaymentProvider
	engine   *matcher.Matcher
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewMatchingService(store storage.Repository, provider PaymentProvider, engine *matcher.Matcher, logger *slog.Logger) *MatchingService {
	return &MatchingService{
		store:    store,
		provider: provider,
		engine:   engine,
		logger:   loggerOrDefault(logger),
		tracer:   tracing.Tracer("matching"),
	}
}

// Run classifies a batch of raw transactions. Transactions already stored
// are classified from their stored state so a re-import never regresses them.
func (s *MatchingService) Run(ctx context.Context, raw []matcher.Transaction) (*RunResult, error) {
	inputs := make([]matcher.Transaction, 0, len(raw))
	for _, tx := range raw {
		if tx.ID == "" {
			tx.ID = matcher.TransactionID(tx.Date, tx.Amount, tx.Description)
		}
		stored, err := s.store.GetTransaction(ctx, tx.ID)
		switch {
		case err == nil:
			inputs = append(inputs, stored.Transaction)
		case errors.Is(err, storage.ErrNotFound):
			inputs = append(inputs, freshInput(tx))
		default:
			return nil, fmt.Errorf("failed to load transaction %s: %w", tx.ID, err)
		}
	}
	return s.execute(ctx, storage.RunKindBatch, inputs)
}

// Rerun re-evaluates every stored Review and Failed transaction.
func (s *MatchingService) Rerun(ctx context.Context) (*RunResult, error) {
	stored, err := s.store.ListTransactions(ctx, storage.TransactionFilter{
		Statuses: []matcher.Status{matcher.StatusReview, matcher.StatusFailed},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load open transactions: %w", err)
	}
	inputs := make([]matcher.Transaction, len(stored))
	for i := range stored {
		inputs[i] = stored[i].Transaction
	}
	return s.execute(ctx, storage.RunKindRerun, inputs)
}

// freshInput strips any annotation a caller supplied on a raw transaction.
func freshInput(tx matcher.Transaction) matcher.Transaction {
	if tx.Currency == "" {
		tx.Currency = money.DefaultCurrency
	}
	tx.Status = matcher.StatusNew
	tx.TenantID = ""
	tx.TenantName = ""
	tx.Confidence = ""
	tx.PayeeID = ""
	tx.PayeeMinted = false
	tx.FallbackExhausted = false
	tx.Reason = ""
	return tx
}

func (s *MatchingService) execute(ctx context.Context, kind string, inputs []matcher.Transaction) (result *RunResult, err error) {
	ctx, span := s.tracer.Start(ctx, "matching."+kind,
		trace.WithAttributes(attribute.Int("transactions", len(inputs))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	run, err := s.store.StartMatchRun(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to start match run: %w", err)
	}
	logger := s.logger.With("run_id", run.ID, "kind", kind)
	logger.Info("matching run started", "transactions", len(inputs))

	fail := func(err error) (*RunResult, error) {
		run.Status = storage.RunStatusFailed
		run.Error = err.Error()
		if cerr := s.store.CompleteMatchRun(ctx, run); cerr != nil {
			logger.Error("failed to record failed run", "error", cerr)
		}
		return nil, err
	}

	tenants, payees, dirErr, err := s.directory(ctx)
	if err != nil {
		return fail(err)
	}
	if dirErr != nil {
		run.DirectoryError = dirErr.Error()
		logger.Warn("payee directory unavailable, matching against stored accounts only", "error", dirErr)
		span.AddEvent("payee directory unavailable")
	}

	fresh := s.engine.Run(inputs, tenants, payees)
	current, err := s.reload(ctx, fresh)
	if err != nil {
		return fail(err)
	}
	stored := make([]matcher.Transaction, 0, len(current))
	for _, rec := range current {
		stored = append(stored, rec.Transaction)
	}
	// Every stored id is also in fresh, so results stays index-aligned with inputs.
	results := matcher.Merge(stored, fresh)

	records := make([]storage.TransactionRecord, 0, len(results))
	minted := map[string]bool{}
	for i, res := range results {
		if rec, ok := current[res.ID]; ok && res.Status != fresh[i].Status {
			// A stronger result was stored after the inputs were read.
			run.Skipped++
			records = append(records, *rec)
			continue
		}
		rec, applied, err := s.persist(ctx, run.ID, inputs[i], res)
		if err != nil {
			return fail(err)
		}
		if !applied {
			run.Skipped++
		}
		if applied && rec.PayeeMinted && !minted[rec.PayeeID] && rec.Status != inputs[i].Status {
			minted[rec.PayeeID] = true
			if err := s.issuePendingAccount(ctx, rec.Transaction, payees); err != nil {
				logger.Warn("failed to record minted payee", "tenant_id", rec.TenantID, "error", err)
			}
		}
		records = append(records, *rec)
	}

	plain := make([]matcher.Transaction, len(records))
	for i := range records {
		plain[i] = records[i].Transaction
	}
	summary := matcher.Summarize(plain)
	run.TransactionCount = len(records)
	run.Matched = summary.Matched
	run.Review = summary.Review
	run.Failed = summary.Failed
	if err := s.store.CompleteMatchRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to complete match run: %w", err)
	}

	span.SetAttributes(
		attribute.Int("matched", summary.Matched),
		attribute.Int("review", summary.Review),
		attribute.Int("failed", summary.Failed),
	)
	logger.Info("matching run completed",
		"matched", summary.Matched, "review", summary.Review, "failed", summary.Failed,
		"skipped", run.Skipped)

	return &RunResult{
		Run:          run,
		Transactions: records,
		Summary:      summary,
		Balance:      s.refreshBalance(ctx, money.DefaultCurrency),
	}, nil
}

// reload returns the stored copy of each classified transaction by id.
func (s *MatchingService) reload(ctx context.Context, results []matcher.Transaction) (map[string]*storage.TransactionRecord, error) {
	current := make(map[string]*storage.TransactionRecord, len(results))
	for _, tx := range results {
		if _, ok := current[tx.ID]; ok {
			continue
		}
		rec, err := s.store.GetTransaction(ctx, tx.ID)
		switch {
		case err == nil:
			current[tx.ID] = rec
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("failed to reload transaction %s: %w", tx.ID, err)
		}
	}
	return current, nil
}

// persist writes one result and records its transition. When a concurrent
// run stored a stronger result between reload and write the store refuses
// the write and the stored copy is returned instead.
func (s *MatchingService) persist(ctx context.Context, runID string, before, after matcher.Transaction) (*storage.TransactionRecord, bool, error) {
	rec := &storage.TransactionRecord{Transaction: after, RunID: runID}
	applied, err := s.store.SaveTransaction(ctx, rec)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save transaction %s: %w", after.ID, err)
	}
	if !applied {
		stored, err := s.store.GetTransaction(ctx, after.ID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to reload transaction %s: %w", after.ID, err)
		}
		return stored, false, nil
	}

	if before.Status != after.Status || before.TenantID != after.TenantID {
		err := s.store.AppendTransition(ctx, &storage.Transition{
			TransactionID: after.ID,
			From:          before.Status,
			To:            after.Status,
			Confidence:    after.Confidence,
			TenantID:      after.TenantID,
			Reason:        after.Reason,
			RunID:         runID,
		})
		if err != nil {
			return nil, false, fmt.Errorf("failed to record transition for %s: %w", after.ID, err)
		}
	}
	return rec, true, nil
}

// directory snapshots tenants and payees. A failing provider payee search is
// returned as dirErr so the run can continue on stored accounts.
func (s *MatchingService) directory(ctx context.Context) (tenants []matcher.Tenant, payees []matcher.Payee, dirErr, err error) {
	stored, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load tenants: %w", err)
	}
	tenants = make([]matcher.Tenant, len(stored))
	for i, t := range stored {
		tenants[i] = toMatcherTenant(t)
	}

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	names := make(map[string]string, len(stored))
	for _, t := range stored {
		names[t.ID] = t.Name
	}
	for _, a := range accounts {
		if a.Status == rental.AccountClosed {
			continue
		}
		payees = append(payees, matcher.Payee{
			ID:       a.PayeeID,
			Name:     names[a.TenantID],
			TenantID: a.TenantID,
			Active:   a.Status == rental.AccountActive,
		})
	}

	if s.provider == nil {
		return tenants, payees, nil, nil
	}
	remote, err := s.provider.SearchPayees(ctx, payman.SearchFilter{})
	if err != nil {
		return tenants, payees, err, nil
	}
	for _, p := range remote {
		payees = append(payees, matcher.Payee{ID: p.ID, Name: p.Name, Active: true})
	}
	return tenants, payees, nil, nil
}

func toMatcherTenant(t rental.Tenant) matcher.Tenant {
	return matcher.Tenant{
		ID:       t.ID,
		Name:     t.Name,
		Email:    t.Email,
		Property: t.Property,
		Rent:     t.RentAmount,
	}
}

// issuePendingAccount records a minted payee as a Pending account so later
// runs bind the same payee and an operator can complete registration.
func (s *MatchingService) issuePendingAccount(ctx context.Context, tx matcher.Transaction, payees []matcher.Payee) error {
	for _, p := range payees {
		if p.ID == tx.PayeeID {
			return nil
		}
	}
	return s.store.CreateAccount(ctx, &rental.Account{
		TenantID:  tx.TenantID,
		Reference: "AUTO-" + tx.ID,
		Status:    rental.AccountPending,
		PayeeID:   tx.PayeeID,
	})
}

func (s *MatchingService) refreshBalance(ctx context.Context, currency string) *decimal.Decimal {
	if s.provider == nil {
		return nil
	}
	balance, err := s.provider.GetBalance(ctx, currency)
	if err != nil {
		s.logger.Warn("balance refresh failed", "currency", currency, "error", err)
		return nil
	}
	return &balance
}

// Override binds a stored transaction to the tenant an operator picked. It
// is how Review and Failed transactions are confirmed by hand.
func (s *MatchingService) Override(ctx context.Context, txID, tenantID string) (*storage.TransactionRecord, error) {
	stored, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction %s: %w", txID, err)
	}
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant %s: %w", tenantID, err)
	}
	_, payees, dirErr, err := s.directory(ctx)
	if err != nil {
		return nil, err
	}
	if dirErr != nil {
		s.logger.Warn("payee directory unavailable during override", "error", dirErr)
	}

	after := s.engine.Assign(stored.Transaction, toMatcherTenant(*tenant), payees)
	rec, _, err := s.persist(ctx, stored.RunID, stored.Transaction, after)
	if err != nil {
		return nil, err
	}
	if rec.PayeeMinted {
		if err := s.issuePendingAccount(ctx, rec.Transaction, payees); err != nil {
			s.logger.Warn("failed to record minted payee", "tenant_id", rec.TenantID, "error", err)
		}
	}
	s.logger.Info("transaction matched by operator", "transaction_id", txID, "tenant_id", tenantID)
	return rec, nil
}

func (s *MatchingService) ListTransactions(ctx context.Context, filter storage.TransactionFilter) ([]storage.TransactionRecord, error) {
	return s.store.ListTransactions(ctx, filter)
}

func (s *MatchingService) GetTransaction(ctx context.Context, id string) (*storage.TransactionRecord, error) {
	return s.store.GetTransaction(ctx, id)
}

// History returns the status transitions of one transaction.
func (s *MatchingService) History(ctx context.Context, id string) ([]storage.Transition, error) {
	if _, err := s.store.GetTransaction(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListTransitions(ctx, id)
}

func (s *MatchingService) ListRuns(ctx context.Context, limit int) ([]storage.MatchRun, error) {
	return s.store.ListMatchRuns(ctx, limit)
}

func (s *MatchingService) GetRun(ctx context.Context, id string) (*storage.MatchRun, error) {
	return s.store.GetMatchRun(ctx, id)
}
