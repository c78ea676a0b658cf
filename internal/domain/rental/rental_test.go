package rental

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenant_ApplyDefaults(t *testing.T) {
	tenant := &Tenant{Name: "Sarah Johnson"}
	tenant.ApplyDefaults()

	assert.Equal(t, PaymentPending, tenant.PaymentStatus)
	assert.Equal(t, DefaultScore, tenant.Score)
	assert.Equal(t, DefaultDueDay, tenant.DueDay)
	assert.Equal(t, "USD", tenant.Currency)

	paid := &Tenant{PaymentStatus: PaymentPaid, Score: 95, DueDay: 5}
	paid.ApplyDefaults()
	assert.Equal(t, PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, 95, paid.Score)
	assert.Equal(t, 5, paid.DueDay)
}

func TestTenant_DueDate(t *testing.T) {
	t.Run("regular day", func(t *testing.T) {
		tenant := &Tenant{DueDay: 15}
		got := tenant.DueDate(time.Date(2024, 3, 20, 13, 0, 0, 0, time.UTC))
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("clipped to short month", func(t *testing.T) {
		tenant := &Tenant{DueDay: 31}
		got := tenant.DueDate(time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("unset defaults to first", func(t *testing.T) {
		tenant := &Tenant{}
		got := tenant.DueDate(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), got)
	})
}

func TestPaymentStatus_Valid(t *testing.T) {
	assert.True(t, PaymentPaid.Valid())
	assert.True(t, PaymentOverdue.Valid())
	assert.False(t, PaymentStatus("late").Valid())
}

func TestParseChannels(t *testing.T) {
	set, err := ParseChannels("SMS, Email")
	require.NoError(t, err)
	assert.Equal(t, ChannelSet{ChannelEmail, ChannelSMS}, set)
	assert.Equal(t, "Email, SMS", set.String())

	set, err = ParseChannels("email,EMAIL")
	require.NoError(t, err)
	assert.Equal(t, ChannelSet{ChannelEmail}, set)

	_, err = ParseChannels("Email, Pigeon")
	assert.Error(t, err)
}

func TestChannelSet_JSON(t *testing.T) {
	t.Run("array form", func(t *testing.T) {
		var set ChannelSet
		require.NoError(t, json.Unmarshal([]byte(`["SMS","Email","SMS"]`), &set))
		assert.Equal(t, ChannelSet{ChannelEmail, ChannelSMS}, set)
	})

	t.Run("legacy string form", func(t *testing.T) {
		var set ChannelSet
		require.NoError(t, json.Unmarshal([]byte(`"Email, SMS"`), &set))
		assert.True(t, set.Has(ChannelEmail))
		assert.True(t, set.Has(ChannelSMS))
	})

	t.Run("rejects unknown", func(t *testing.T) {
		var set ChannelSet
		assert.Error(t, json.Unmarshal([]byte(`["Fax"]`), &set))
	})

	t.Run("marshals as array", func(t *testing.T) {
		data, err := json.Marshal(ChannelSet{ChannelEmail})
		require.NoError(t, err)
		assert.JSONEq(t, `["Email"]`, string(data))

		data, err = json.Marshal(ChannelSet(nil))
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})
}

func TestDate(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	got := Date(time.Date(2024, 5, 6, 23, 59, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), got)

	parsed, err := ParseDate("2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, got, parsed)
}
