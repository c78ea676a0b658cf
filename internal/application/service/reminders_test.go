package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/domain/reminder"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/eshaffer321/rentlink-backend/internal/domain/validator"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/logging"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReminderFixture(notifier Notifier) (*ReminderService, *storage.MockRepository) {
	repo := storage.NewMockRepository()
	svc := NewReminderService(repo, reminder.NewScheduler(reminder.DefaultConfig()), notifier, logging.Discard())
	return svc, repo
}

func TestReminderService_MarkSent_ReportsPerItem(t *testing.T) {
	svc, repo := newReminderFixture(nil)
	ctx := context.Background()

	a := &rental.Reminder{TenantID: "t1", DueDate: day("2024-06-01"), Type: rental.ReminderDueSoon}
	b := &rental.Reminder{TenantID: "t2", DueDate: day("2024-06-01"), Type: rental.ReminderDueSoon}
	require.NoError(t, svc.CreateReminder(ctx, a))
	require.NoError(t, svc.CreateReminder(ctx, b))
	repo.MarkReminderSentErrs[b.ID] = errors.New("write conflict")

	sentAt := time.Date(2024, 5, 28, 10, 0, 0, 0, time.UTC)
	outcomes := svc.MarkSent(ctx, []string{a.ID, b.ID, "missing"}, sentAt)

	require.Len(t, outcomes, 3)
	assert.Equal(t, SendOutcome{ID: a.ID, Updated: true}, outcomes[0])
	assert.False(t, outcomes[1].Updated)
	assert.Equal(t, "failed to update reminder", outcomes[1].Error)
	assert.Equal(t, "reminder not found", outcomes[2].Error)

	got, err := repo.GetReminder(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastSent)
	assert.True(t, got.LastSent.Equal(sentAt))

	got, err = repo.GetReminder(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastSent)
}

func TestReminderService_CreateReminder_DefaultsChannels(t *testing.T) {
	svc, _ := newReminderFixture(nil)

	r := &rental.Reminder{TenantID: "t1", DueDate: day("2024-06-01"), Type: rental.ReminderOverdue}
	require.NoError(t, svc.CreateReminder(context.Background(), r))
	assert.Equal(t, rental.ChannelSet{rental.ChannelEmail}, r.Channels)

	err := svc.CreateReminder(context.Background(), &rental.Reminder{DueDate: day("2024-06-01"), Type: "Later"})
	assert.True(t, validator.IsValidation(err))
}

func TestReminderService_Schedule(t *testing.T) {
	svc, repo := newReminderFixture(nil)
	ctx := context.Background()

	late := seedTenant(repo, "Sarah Johnson", "sarah@example.com", "1200") // due on the 1st
	paid := seedTenant(repo, "Emma Davis", "emma@example.com", "1450")
	require.NoError(t, repo.UpdateTenantStatus(ctx, paid.ID, rental.PaymentPaid))

	created, err := svc.Schedule(ctx, day("2024-06-03"))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, late.ID, created[0].TenantID)
	assert.Equal(t, rental.ReminderOverdue, created[0].Type)

	got, err := repo.GetTenant(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, rental.PaymentOverdue, got.PaymentStatus)

	// Scheduling the same day again creates nothing new
	again, err := svc.Schedule(ctx, day("2024-06-03"))
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestReminderService_Send(t *testing.T) {
	notifier := &mockNotifier{}
	svc, repo := newReminderFixture(notifier)
	ctx := context.Background()

	tenant := seedTenant(repo, "Sarah Johnson", "sarah@example.com", "1200")
	ok := &rental.Reminder{TenantID: tenant.ID, DueDate: day("2024-06-05"), Type: rental.ReminderDueSoon}
	orphan := &rental.Reminder{TenantID: "gone", DueDate: day("2024-06-05"), Type: rental.ReminderDueSoon}
	require.NoError(t, svc.CreateReminder(ctx, ok))
	require.NoError(t, svc.CreateReminder(ctx, orphan))

	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	outcomes, err := svc.Send(ctx, day("2024-06-01"), now)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	byID := map[string]SendOutcome{}
	for _, o := range outcomes {
		byID[o.ID] = o
	}
	assert.True(t, byID[ok.ID].Updated)
	assert.Equal(t, "tenant not found", byID[orphan.ID].Error)
	notifier.AssertNumberOfCalls(t, "Notify", 1)

	// Within the follow-up window nothing is due again
	due, err := svc.Due(ctx, day("2024-06-02"))
	require.NoError(t, err)
	for _, r := range due {
		assert.NotEqual(t, ok.ID, r.ID)
	}
}

func TestReminderService_Send_SkipsPaidTenants(t *testing.T) {
	notifier := &mockNotifier{}
	svc, repo := newReminderFixture(notifier)
	ctx := context.Background()

	paid := seedTenant(repo, "Emma Davis", "emma@example.com", "1450")
	late := seedTenant(repo, "Sarah Johnson", "sarah@example.com", "1200")
	paidReminder := &rental.Reminder{TenantID: paid.ID, DueDate: day("2024-06-01"), Type: rental.ReminderOverdue}
	lateReminder := &rental.Reminder{TenantID: late.ID, DueDate: day("2024-06-01"), Type: rental.ReminderOverdue}
	require.NoError(t, svc.CreateReminder(ctx, paidReminder))
	require.NoError(t, svc.CreateReminder(ctx, lateReminder))
	require.NoError(t, repo.UpdateTenantStatus(ctx, paid.ID, rental.PaymentPaid))

	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(tn rental.Tenant) bool { return tn.ID == late.ID }), mock.Anything).Return(nil)

	outcomes, err := svc.Send(ctx, day("2024-06-05"), time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, lateReminder.ID, outcomes[0].ID)
	notifier.AssertNumberOfCalls(t, "Notify", 1)

	// A month on, the unpaid June reminder has been replaced by July's
	outcomes, err = svc.Send(ctx, day("2024-09-01"), time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	notifier.AssertNumberOfCalls(t, "Notify", 1)
}
