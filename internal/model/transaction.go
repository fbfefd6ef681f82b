package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel values written into freshly normalized rows before
// classification has run.
const (
	TypeTBC        = "TYPE_TBC"
	CategoryTBC    = "CAT_TBC"
	SubcategoryTBC = "SUBCAT_TBC"
)

// MethodBalance marks a credit-account balance declaration rather than a
// transaction. The only method code for which both debit and credit may
// be absent.
const MethodBalance = "BAL"

// Uncategorised is assigned when no classification rule matches.
const Uncategorised = "Uncategorised"

// RawRow is one source row exactly as read from a bank CSV export,
// before any normalization. All fields are raw text and may be malformed.
type RawRow struct {
	File          string // source file name, for error reporting
	Line          int    // 1-based line number within the file
	Date          string
	Type          string
	Description   string
	Value         string
	AccountName   string
	AccountNumber string
	Balance       string
}

// Transaction is a row in the canonical ledger schema. Exactly one of
// Debit/Credit is present, except for MethodBalance rows where both may
// be absent. Immutable once persisted; the ledger is append-only.
type Transaction struct {
	Date         time.Time
	Method       string // three-letter code or BAL
	Description  string
	Type         string
	Category     string
	Subcategory  string
	Debit        decimal.NullDecimal
	Credit       decimal.NullDecimal
	Account      string // canonical account label
	Balance      decimal.NullDecimal
	ImportedDate time.Time
}

// Amount returns whichever of debit/credit is present. For balance
// declarations neither is, and ok is false.
func (t Transaction) Amount() (decimal.Decimal, bool) {
	if t.Debit.Valid {
		return t.Debit.Decimal, true
	}
	if t.Credit.Valid {
		return t.Credit.Decimal, true
	}
	return decimal.Zero, false
}
