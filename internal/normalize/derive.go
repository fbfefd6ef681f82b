package normalize

import "github.com/shopspring/decimal"

// SplitAmount maps a signed amount onto double-entry debit/credit
// fields: negative amounts become a positive debit, everything else a
// credit. The mapping is identical for credit and non-credit accounts,
// so it is a function of sign alone. Zero is a credit by convention.
func SplitAmount(amount decimal.Decimal) (debit, credit decimal.NullDecimal) {
	if amount.Sign() < 0 {
		debit = decimal.NullDecimal{Decimal: amount.Abs(), Valid: true}
		return debit, credit
	}
	credit = decimal.NullDecimal{Decimal: amount, Valid: true}
	return debit, credit
}
