package service

import (
	"context"
	"errors"
	"testing"

	"github.com/eshaffer321/rentlink-backend/internal/adapters/payman"
	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/logging"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMatchingFixture(t *testing.T) (*MatchingService, *storage.MockRepository, *mockProvider, *rental.Tenant) {
	t.Helper()
	repo := storage.NewMockRepository()
	provider := &mockProvider{}
	sarah := seedTenant(repo, "Sarah Johnson", "sarah@example.com", "1200")
	seedTenant(repo, "Michael Chen", "mchen@example.com", "950")
	svc := NewMatchingService(repo, provider, matcher.NewMatcher(matcher.DefaultConfig()), logging.Discard())
	return svc, repo, provider, sarah
}

func rawTx(desc, amount string) matcher.Transaction {
	return matcher.Transaction{
		Date:        day("2024-06-03"),
		Amount:      decimal.RequireFromString(amount),
		Description: desc,
	}
}

func TestMatchingService_Run_PersistsResultsAndHistory(t *testing.T) {
	svc, repo, provider, sarah := newMatchingFixture(t)
	provider.On("SearchPayees", mock.Anything, payman.SearchFilter{}).Return([]payman.Payee{}, nil)
	provider.On("GetBalance", mock.Anything, "USD").Return(decimal.RequireFromString("5000"), nil)

	result, err := svc.Run(context.Background(), []matcher.Transaction{
		rawTx("ZELLE FROM SARAH JOHNSON", "1200.00"),
		rawTx("ACH DEPOSIT 88213", "4.99"),
	})
	require.NoError(t, err)

	require.Len(t, result.Transactions, 2)
	first := result.Transactions[0]
	assert.Equal(t, matcher.StatusMatched, first.Status)
	assert.Equal(t, matcher.ConfidenceHigh, first.Confidence)
	assert.Equal(t, sarah.ID, first.TenantID)
	assert.NotEmpty(t, first.PayeeID)
	assert.Equal(t, matcher.StatusFailed, result.Transactions[1].Status)

	assert.Equal(t, matcher.Summary{Matched: 1, Failed: 1}, result.Summary)
	require.NotNil(t, result.Balance)
	assert.True(t, result.Balance.Equal(decimal.RequireFromString("5000")))
	assert.Equal(t, storage.RunStatusCompleted, repo.LastCompletedRun.Status)
	assert.Equal(t, 2, repo.LastCompletedRun.TransactionCount)

	history, err := svc.History(context.Background(), first.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, matcher.StatusNew, history[0].From)
	assert.Equal(t, matcher.StatusMatched, history[0].To)
	assert.Equal(t, result.Run.ID, history[0].RunID)
}

func TestMatchingService_Run_MintedPayeeCreatesPendingAccount(t *testing.T) {
	svc, repo, provider, sarah := newMatchingFixture(t)
	provider.On("SearchPayees", mock.Anything, mock.Anything).Return([]payman.Payee{}, nil)
	provider.On("GetBalance", mock.Anything, mock.Anything).Return(decimal.Zero, errors.New("down"))

	result, err := svc.Run(context.Background(), []matcher.Transaction{
		rawTx("ZELLE FROM SARAH JOHNSON", "1200.00"),
		rawTx("ZELLE FROM SARAH JOHNSON JUNE", "1200.00"),
	})
	require.NoError(t, err)
	assert.Nil(t, result.Balance)
	assert.True(t, result.Transactions[0].PayeeMinted)

	accounts, err := repo.ListAccountsByTenant(context.Background(), sarah.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, rental.AccountPending, accounts[0].Status)
	assert.Equal(t, matcher.MintPayeeID(sarah.ID), accounts[0].PayeeID)
}

func TestMatchingService_Run_DirectoryFailureIsPartial(t *testing.T) {
	svc, repo, provider, _ := newMatchingFixture(t)
	provider.On("SearchPayees", mock.Anything, mock.Anything).Return(nil, errors.New("payman unavailable"))
	provider.On("GetBalance", mock.Anything, mock.Anything).Return(decimal.Zero, errors.New("payman unavailable"))

	result, err := svc.Run(context.Background(), []matcher.Transaction{rawTx("ZELLE FROM SARAH JOHNSON", "1200.00")})
	require.NoError(t, err)
	assert.Equal(t, matcher.StatusMatched, result.Transactions[0].Status)
	assert.Contains(t, result.Run.DirectoryError, "payman unavailable")
	assert.Contains(t, repo.LastCompletedRun.DirectoryError, "payman unavailable")
}

func TestMatchingService_Run_StoredStateWins(t *testing.T) {
	svc, repo, provider, _ := newMatchingFixture(t)
	provider.On("SearchPayees", mock.Anything, mock.Anything).Return([]payman.Payee{}, nil)
	provider.On("GetBalance", mock.Anything, mock.Anything).Return(decimal.Zero, nil)

	tx := rawTx("ZELLE FROM SARAH JOHNSON", "1200.00")
	first, err := svc.Run(context.Background(), []matcher.Transaction{tx})
	require.NoError(t, err)

	// A raw re-import that claims a weaker status is classified from the stored copy
	again := tx
	again.Status = matcher.StatusFailed
	second, err := svc.Run(context.Background(), []matcher.Transaction{again})
	require.NoError(t, err)

	assert.Equal(t, first.Transactions[0].ID, second.Transactions[0].ID)
	assert.Equal(t, matcher.StatusMatched, second.Transactions[0].Status)

	history, err := repo.ListTransitions(context.Background(), first.Transactions[0].ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "an unchanged result records no transition")
}

func TestMatchingService_Run_StartRunError(t *testing.T) {
	svc, repo, _, _ := newMatchingFixture(t)
	repo.StartMatchRunErr = errors.New("db down")

	_, err := svc.Run(context.Background(), []matcher.Transaction{rawTx("X", "1")})
	assert.Error(t, err)
}

func TestMatchingService_Run_SaveErrorFailsRun(t *testing.T) {
	svc, repo, provider, _ := newMatchingFixture(t)
	provider.On("SearchPayees", mock.Anything, mock.Anything).Return([]payman.Payee{}, nil)
	repo.SaveTransactionErr = errors.New("disk full")

	_, err := svc.Run(context.Background(), []matcher.Transaction{rawTx("ZELLE FROM SARAH JOHNSON", "1200.00")})
	require.Error(t, err)
	assert.Equal(t, storage.RunStatusFailed, repo.LastCompletedRun.Status)
	assert.Contains(t, repo.LastCompletedRun.Error, "disk full")
}

func TestMatchingService_Rerun_OnlyOpenTransactions(t *testing.T) {
	svc, _, provider, _ := newMatchingFixture(t)
	provider.On("SearchPayees", mock.Anything, mock.Anything).Return([]payman.Payee{}, nil)
	provider.On("GetBalance", mock.Anything, mock.Anything).Return(decimal.Zero, nil)

	_, err := svc.Run(context.Background(), []matcher.Transaction{
		rawTx("ZELLE FROM SARAH JOHNSON", "1200.00"),
		rawTx("ONLINE TRANSFER", "950.00"),
	})
	require.NoError(t, err)

	result, err := svc.Rerun(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, matcher.StatusReview, result.Transactions[0].Status)
	assert.Equal(t, storage.RunKindRerun, result.Run.Kind)
	assert.Equal(t, 0, result.Run.Skipped)
}

// racingRepo advances every listed transaction to Matched right after
// listing it, as an override landing mid-run would.
type racingRepo struct {
	*storage.MockRepository
}

func (r racingRepo) ListTransactions(ctx context.Context, filter storage.TransactionFilter) ([]storage.TransactionRecord, error) {
	listed, err := r.MockRepository.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, rec := range listed {
		advanced := rec
		advanced.Status = matcher.StatusMatched
		advanced.Confidence = matcher.ConfidenceHigh
		if _, err := r.MockRepository.SaveTransaction(ctx, &advanced); err != nil {
			return nil, err
		}
	}
	return listed, nil
}

func TestMatchingService_Rerun_KeepsStrongerStoredResult(t *testing.T) {
	svc, repo, provider, _ := newMatchingFixture(t)
	provider.On("SearchPayees", mock.Anything, mock.Anything).Return([]payman.Payee{}, nil)
	provider.On("GetBalance", mock.Anything, mock.Anything).Return(decimal.Zero, nil)

	first, err := svc.Run(context.Background(), []matcher.Transaction{rawTx("ONLINE TRANSFER", "950.00")})
	require.NoError(t, err)
	review := first.Transactions[0]
	require.Equal(t, matcher.StatusReview, review.Status)

	racing := NewMatchingService(racingRepo{repo}, provider, matcher.NewMatcher(matcher.DefaultConfig()), logging.Discard())
	result, err := racing.Rerun(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, matcher.StatusMatched, result.Transactions[0].Status)
	assert.Equal(t, 1, result.Run.Skipped)
	assert.Equal(t, matcher.Summary{Matched: 1}, result.Summary)

	stored, err := repo.GetTransaction(context.Background(), review.ID)
	require.NoError(t, err)
	assert.Equal(t, matcher.StatusMatched, stored.Status)
	history, err := repo.ListTransitions(context.Background(), review.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "only the first run's transition is recorded")
}

func TestMatchingService_Override(t *testing.T) {
	svc, _, provider, _ := newMatchingFixture(t)
	provider.On("SearchPayees", mock.Anything, mock.Anything).Return([]payman.Payee{}, nil)
	provider.On("GetBalance", mock.Anything, mock.Anything).Return(decimal.Zero, nil)

	result, err := svc.Run(context.Background(), []matcher.Transaction{rawTx("ONLINE TRANSFER", "950.00")})
	require.NoError(t, err)
	review := result.Transactions[0]
	require.Equal(t, matcher.StatusReview, review.Status)

	rec, err := svc.Override(context.Background(), review.ID, review.TenantID)
	require.NoError(t, err)
	assert.Equal(t, matcher.StatusMatched, rec.Status)
	assert.Equal(t, matcher.ReasonOperator, rec.Reason)
	assert.NotEmpty(t, rec.PayeeID)

	history, err := svc.History(context.Background(), review.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, matcher.StatusReview, history[1].From)
	assert.Equal(t, matcher.StatusMatched, history[1].To)
}

func TestMatchingService_Override_UnknownTenant(t *testing.T) {
	svc, repo, _, _ := newMatchingFixture(t)
	_, err := repo.SaveTransaction(context.Background(), &storage.TransactionRecord{Transaction: rawTx("X", "1")})
	require.NoError(t, err)
	records, err := repo.ListTransactions(context.Background(), storage.TransactionFilter{})
	require.NoError(t, err)

	_, err = svc.Override(context.Background(), records[0].ID, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
