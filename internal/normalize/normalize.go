// Package normalize reconciles raw source rows into the canonical
// ledger schema: typed dates, canonical account labels and method
// codes, and derived debit/credit fields.
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/perfin-dev/perfin/internal/accounts"
	"github.com/perfin-dev/perfin/internal/model"
)

// Supported source date layouts. Rows are dispatched by pattern, not by
// source file, since a single file may mix formats across revisions.
const (
	layoutSlash = "02/01/2006"  // DD/MM/YYYY
	layoutMonth = "02 Jan 2006" // DD Mon YYYY
)

// methodCodes maps long-form source method names to three-letter codes.
var methodCodes = map[string]string{
	"Purchase": "PUR",
	"Payment":  "PAY",
	"Interest": "INT",
}

// RowErrorKind classifies a recoverable row-level format error.
type RowErrorKind string

const (
	RowErrorDateParse RowErrorKind = "date-parse"
	RowErrorValueType RowErrorKind = "value-type"
)

// RowError reports a row excluded from the batch, by row identity and
// offending raw value. The batch continues without the row.
type RowError struct {
	File  string
	Line  int
	Kind  RowErrorKind
	Value string
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s line %d: %s for %q", e.File, e.Line, e.Kind, e.Value)
}

// Normalizer converts raw rows into canonical transactions.
type Normalizer struct {
	accounts *accounts.Service
	log      zerolog.Logger
}

// New creates a Normalizer over the configured accounts.
func New(accts *accounts.Service, log zerolog.Logger) *Normalizer {
	return &Normalizer{accounts: accts, log: log}
}

// ParseDate parses a source date in either supported layout, chosen by
// pattern. A value matching neither layout is a date-parse error.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layout := layoutMonth
	if strings.Contains(s, "/") {
		layout = layoutSlash
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// Normalize converts a batch of raw rows, possibly concatenated from
// several source files, into canonical transactions sorted by ascending
// date. Rows with unparseable dates or amounts are excluded and
// reported; the rest of the batch continues.
func (n *Normalizer) Normalize(rows []model.RawRow, importedDate time.Time) ([]model.Transaction, []RowError) {
	var (
		txs     []model.Transaction
		skipped []RowError
	)

	for _, row := range rows {
		tx, rowErr := n.normalizeRow(row, importedDate)
		if rowErr != nil {
			n.log.Warn().
				Str("file", rowErr.File).
				Int("line", rowErr.Line).
				Str("kind", string(rowErr.Kind)).
				Str("value", rowErr.Value).
				Msg("row excluded from batch")
			skipped = append(skipped, *rowErr)
			continue
		}
		txs = append(txs, tx)
	}

	// Ascending date; stable so rows sharing a date keep source order.
	// Replaces the positional indices carried over from concatenation.
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})

	return txs, skipped
}

func (n *Normalizer) normalizeRow(row model.RawRow, importedDate time.Time) (model.Transaction, *RowError) {
	account := n.accounts.Canonical(row.AccountName)

	date, err := ParseDate(row.Date)
	if err != nil {
		return model.Transaction{}, &RowError{
			File: row.File, Line: row.Line,
			Kind: RowErrorDateParse, Value: row.Date,
		}
	}

	// Source descriptions arrive with a leading quote from the export.
	desc := strings.TrimLeft(strings.TrimSpace(row.Description), "'")

	method := strings.TrimSpace(row.Type)
	if n.accounts.IsCredit(account) && method == "" && strings.Contains(desc, "Balance") {
		method = model.MethodBalance
	}
	if code, ok := methodCodes[method]; ok {
		method = code
	}

	var debit, credit decimal.NullDecimal
	value := strings.TrimSpace(row.Value)
	switch {
	case method == model.MethodBalance && value == "":
		// Balance declaration carries no amount.
	default:
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return model.Transaction{}, &RowError{
				File: row.File, Line: row.Line,
				Kind: RowErrorValueType, Value: row.Value,
			}
		}
		debit, credit = SplitAmount(amount)
	}

	var balance decimal.NullDecimal
	if b := strings.TrimSpace(row.Balance); b != "" {
		parsed, err := decimal.NewFromString(b)
		if err != nil {
			n.log.Debug().
				Str("file", row.File).
				Int("line", row.Line).
				Str("balance", row.Balance).
				Msg("unparseable balance treated as absent")
		} else {
			balance = decimal.NullDecimal{Decimal: parsed, Valid: true}
		}
	}

	return model.Transaction{
		Date:         date,
		Method:       method,
		Description:  desc,
		Type:         model.TypeTBC,
		Category:     model.CategoryTBC,
		Subcategory:  model.SubcategoryTBC,
		Debit:        debit,
		Credit:       credit,
		Account:      account,
		Balance:      balance,
		ImportedDate: importedDate,
	}, nil
}
