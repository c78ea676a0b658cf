package reminder

import (
	"testing"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := rental.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestClassify(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	today := day("2024-06-10")

	tests := []struct {
		name       string
		due        string
		wantType   rental.ReminderType
		wantAction bool
	}{
		{"due today", "2024-06-10", rental.ReminderDueSoon, true},
		{"end of lead window", "2024-06-17", rental.ReminderDueSoon, true},
		{"beyond lead window", "2024-06-18", "", false},
		{"one day late", "2024-06-09", rental.ReminderOverdue, true},
		{"overdue until the next due date", "2024-05-15", rental.ReminderOverdue, true},
		{"superseded by the next due date", "2024-05-10", rental.ReminderOverdue, false},
		{"long overdue", "2024-05-01", rental.ReminderOverdue, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, ok := s.Classify(day(tt.due), today)
			assert.Equal(t, tt.wantType, typ)
			assert.Equal(t, tt.wantAction, ok)
		})
	}
}

func TestClassify_GracePeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DaysAfter = 3
	s := NewScheduler(cfg)

	typ, ok := s.Classify(day("2024-06-08"), day("2024-06-10"))
	assert.Equal(t, rental.ReminderOverdue, typ)
	assert.False(t, ok, "two days late is inside a three day grace period")

	_, ok = s.Classify(day("2024-06-07"), day("2024-06-10"))
	assert.True(t, ok)
}

func TestClassify_IgnoresTimeOfDay(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	typ, ok := s.Classify(day("2024-06-10"), time.Date(2024, 6, 10, 23, 30, 0, 0, time.UTC))
	assert.Equal(t, rental.ReminderDueSoon, typ)
	assert.True(t, ok)
}

func TestEvaluate(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	today := day("2024-06-10")
	sentYesterday := day("2024-06-09")
	sentLastWeek := day("2024-06-03")

	reminders := []rental.Reminder{
		{ID: "never-sent", Type: rental.ReminderDueSoon, DueDate: day("2024-06-12")},
		{ID: "recently-sent", Type: rental.ReminderDueSoon, DueDate: day("2024-06-12"), LastSent: &sentYesterday},
		{ID: "follow-up", Type: rental.ReminderOverdue, DueDate: day("2024-06-01"), LastSent: &sentLastWeek},
		{ID: "stale-type", Type: rental.ReminderDueSoon, DueDate: day("2024-06-01")},
		{ID: "too-early", Type: rental.ReminderDueSoon, DueDate: day("2024-07-01")},
	}

	due := s.Evaluate(today, reminders)

	ids := make([]string, len(due))
	for i, r := range due {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"never-sent", "follow-up"}, ids)
}

func TestEvaluate_OverdueStopsAtNextDueDate(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	sent := day("2024-06-02")
	reminders := []rental.Reminder{
		{ID: "june", Type: rental.ReminderOverdue, DueDate: day("2024-06-01"), LastSent: &sent},
	}

	assert.Len(t, s.Evaluate(day("2024-06-30"), reminders), 1)
	assert.Empty(t, s.Evaluate(day("2024-07-01"), reminders))
	assert.Empty(t, s.Evaluate(day("2024-09-01"), reminders))
}

func TestPlan(t *testing.T) {
	s := NewScheduler(DefaultConfig())

	tenants := []rental.Tenant{
		{ID: "late", DueDay: 1, PaymentStatus: rental.PaymentPending},
		{ID: "soon", DueDay: 14, PaymentStatus: rental.PaymentPending},
		{ID: "paid", DueDay: 1, PaymentStatus: rental.PaymentPaid},
		{ID: "later", DueDay: 28, PaymentStatus: rental.PaymentPending},
	}

	planned := s.Plan(day("2024-06-10"), tenants, nil)

	require.Len(t, planned, 2)
	assert.Equal(t, "late", planned[0].TenantID)
	assert.Equal(t, rental.ReminderOverdue, planned[0].Type)
	assert.Equal(t, day("2024-06-01"), planned[0].DueDate)
	assert.Equal(t, rental.ChannelSet{rental.ChannelEmail}, planned[0].Channels)

	assert.Equal(t, "soon", planned[1].TenantID)
	assert.Equal(t, rental.ReminderDueSoon, planned[1].Type)
	assert.Equal(t, day("2024-06-14"), planned[1].DueDate)
}

func TestPlan_SkipsExisting(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	tenants := []rental.Tenant{{ID: "soon", DueDay: 14}}
	existing := []rental.Reminder{{TenantID: "soon", DueDate: day("2024-06-14"), Type: rental.ReminderDueSoon}}

	assert.Empty(t, s.Plan(day("2024-06-10"), tenants, existing))
}

func TestPlan_AcrossMonthBoundary(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	tenants := []rental.Tenant{{ID: "t1", DueDay: 1}}

	planned := s.Plan(day("2024-06-28"), tenants, nil)

	var dueSoon []rental.Reminder
	for _, r := range planned {
		if r.Type == rental.ReminderDueSoon {
			dueSoon = append(dueSoon, r)
		}
	}
	require.Len(t, dueSoon, 1)
	assert.Equal(t, day("2024-07-01"), dueSoon[0].DueDate)
}
