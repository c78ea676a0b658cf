package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"$1,200.00", "1200"},
		{"1200", "1200"},
		{" $950.00 ", "950"},
		{"$1,047.50", "1047.5"},
		{"USD 875.00", "875"},
		{"$1200/mo", "1200"},
		{"-$25.10", "-25.1"},
		{"€1.234", "1.234"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "$", "12abc", "1.2.3", "$--5"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestParsePositive(t *testing.T) {
	_, err := ParsePositive("$0.00")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParsePositive("-10")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	d, err := ParsePositive("$10.01")
	require.NoError(t, err)
	assert.Equal(t, "10.01", d.String())
}

func TestCurrencyOf(t *testing.T) {
	assert.Equal(t, "USD", CurrencyOf("$1,200.00"))
	assert.Equal(t, "EUR", CurrencyOf("950 EUR"))
	assert.Equal(t, "GBP", CurrencyOf("£20"))
	assert.Equal(t, "CAD", CurrencyOf("cad 10"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$1,200.00", Format(decimal.NewFromInt(1200), "USD"))
	assert.Equal(t, "$875.00", Format(decimal.NewFromInt(875), "usd"))
	assert.Equal(t, "$1,234,567.89", Format(decimal.RequireFromString("1234567.891"), "USD"))
	assert.Equal(t, "-€5.50", Format(decimal.RequireFromString("-5.5"), "EUR"))
	assert.Equal(t, "CAD 10.00", Format(decimal.NewFromInt(10), "CAD"))
}
