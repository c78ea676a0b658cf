package validator

import (
	"fmt"

	"github.com/eshaffer321/rentlink-backend/internal/domain/money"
	"github.com/shopspring/decimal"
)

// rentTolerance absorbs cent-level rounding between bank feeds and rent.
var rentTolerance = decimal.RequireFromString("0.02")

// RentValidation is the result of comparing posted payments with rent due.
type RentValidation struct {
	// Valid is true if payments cover the rent within tolerance
	Valid bool

	PaidSum     decimal.Decimal
	ExpectedSum decimal.Decimal

	// Difference is PaidSum - ExpectedSum; negative means short
	Difference decimal.Decimal

	// Reason explains why validation failed (empty if valid)
	Reason string
}

// ValidateRentPayments checks that payments for a period add up to the rent
// owed after credits (deposits applied, concessions):
//
//	sum(payments) ≈ rent - credits
func ValidateRentPayments(payments []decimal.Decimal, rent, credits decimal.Decimal) *RentValidation {
	paid := decimal.Sum(decimal.Zero, payments...).Round(2)
	expected := rent.Sub(credits).Round(2)
	diff := paid.Sub(expected)

	result := &RentValidation{
		PaidSum:     paid,
		ExpectedSum: expected,
		Difference:  diff,
	}

	if diff.Abs().LessThanOrEqual(rentTolerance) {
		result.Valid = true
		return result
	}

	if diff.IsNegative() {
		result.Reason = fmt.Sprintf("payments (%s) are less than rent due (%s) - short %s, likely a payment hasn't posted yet",
			money.Format(paid, "USD"), money.Format(expected, "USD"), money.Format(diff.Neg(), "USD"))
	} else {
		result.Reason = fmt.Sprintf("payments (%s) exceed rent due (%s) by %s - possible duplicate payment",
			money.Format(paid, "USD"), money.Format(expected, "USD"), money.Format(diff, "USD"))
	}
	return result
}
