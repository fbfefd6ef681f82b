package pipeline

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/perfin-dev/perfin/internal/model"
)

// ValidationError describes a single invariant violation found in a
// batch before commit.
type ValidationError struct {
	Row         int // position in the batch, 0-based
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Description)
}

// ValidateBatch enforces the ledger invariants on canonical rows. A
// batch with any violation must not reach the store.
func ValidateBatch(txs []model.Transaction) []ValidationError {
	var errs []ValidationError
	two := decimal.NewFromInt(100)

	for i, tx := range txs {
		hasDebit := tx.Debit.Valid
		hasCredit := tx.Credit.Valid

		// Exactly one of debit/credit, except balance declarations
		// which may carry neither.
		switch {
		case tx.Method == model.MethodBalance:
			if hasDebit && hasCredit {
				errs = append(errs, ValidationError{
					Row:         i,
					Description: "balance declaration must not have both debit and credit",
				})
			}
		case hasDebit == hasCredit:
			errs = append(errs, ValidationError{
				Row:         i,
				Description: "row must have exactly one of debit or credit",
			})
		}

		if hasDebit && tx.Debit.Decimal.IsNegative() {
			errs = append(errs, ValidationError{
				Row:         i,
				Description: fmt.Sprintf("negative debit %s", tx.Debit.Decimal),
			})
		}
		if hasCredit && tx.Credit.Decimal.IsNegative() {
			errs = append(errs, ValidationError{
				Row:         i,
				Description: fmt.Sprintf("negative credit %s", tx.Credit.Decimal),
			})
		}

		// No more than 2 decimal places in either field.
		if hasDebit && !tx.Debit.Decimal.Mul(two).Equal(tx.Debit.Decimal.Mul(two).Floor()) {
			errs = append(errs, ValidationError{
				Row:         i,
				Description: fmt.Sprintf("debit %s has more than 2 decimal places", tx.Debit.Decimal),
			})
		}
		if hasCredit && !tx.Credit.Decimal.Mul(two).Equal(tx.Credit.Decimal.Mul(two).Floor()) {
			errs = append(errs, ValidationError{
				Row:         i,
				Description: fmt.Sprintf("credit %s has more than 2 decimal places", tx.Credit.Decimal),
			})
		}

		if tx.Account == "" {
			errs = append(errs, ValidationError{
				Row:         i,
				Description: "missing account label",
			})
		}
	}
	return errs
}
