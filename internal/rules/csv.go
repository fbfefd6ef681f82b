// Package rules loads the user-maintained subcategory rule file.
package rules

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/perfin-dev/perfin/internal/model"
)

// Header is the CSV header for the rules file.
const Header = "label,category,methods,amounts,descr_tells"

const (
	numFields   = 5
	colLabel    = 0
	colCategory = 1
	colMethods  = 2
	colAmounts  = 3
	colTells    = 4

	listSep  = ";"
	rangeSep = ":"
)

// ReadRules reads the rules file. Duplicate labels within one load
// resolve last-write-wins.
func ReadRules(r io.Reader) ([]model.SubcategoryRule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rules CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var out []model.SubcategoryRule
	byLabel := make(map[string]int)
	for i, rec := range records[1:] {
		rule, err := UnmarshalRule(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if at, seen := byLabel[rule.Label]; seen {
			out[at] = rule
			continue
		}
		byLabel[rule.Label] = len(out)
		out = append(out, rule)
	}
	return out, nil
}

// WriteRules writes the rules file (including header).
func WriteRules(w io.Writer, rls []model.SubcategoryRule) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, rule := range rls {
		if err := cw.Write(MarshalRule(rule)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// Load reads the rules file from disk.
func Load(path string) ([]model.SubcategoryRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rules file: %w", err)
	}
	defer f.Close()

	rls, err := ReadRules(f)
	if err != nil {
		return nil, fmt.Errorf("reading rules file %s: %w", path, err)
	}
	return rls, nil
}

// MarshalRule converts a rule to a CSV row.
func MarshalRule(rule model.SubcategoryRule) []string {
	row := make([]string, numFields)
	row[colLabel] = rule.Label
	row[colCategory] = rule.Category
	row[colMethods] = EncodeList(rule.Methods)
	row[colAmounts] = EncodeAmounts(rule.AmountMin, rule.AmountMax)
	row[colTells] = EncodeList(rule.Tells)
	return row
}

// UnmarshalRule converts a CSV row to a rule.
func UnmarshalRule(record []string) (model.SubcategoryRule, error) {
	if len(record) != numFields {
		return model.SubcategoryRule{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	label := strings.TrimSpace(record[colLabel])
	if label == "" {
		return model.SubcategoryRule{}, fmt.Errorf("empty rule label")
	}

	min, max, err := ParseAmounts(record[colAmounts])
	if err != nil {
		return model.SubcategoryRule{}, fmt.Errorf("rule %q: %w", label, err)
	}

	return model.SubcategoryRule{
		Label:     label,
		Category:  strings.TrimSpace(record[colCategory]),
		Methods:   DecodeList(record[colMethods]),
		AmountMin: min,
		AmountMax: max,
		Tells:     DecodeList(record[colTells]),
	}, nil
}

// ParseAmounts decodes the "min:max" range encoding. Either side may be
// empty for an open bound; an empty encoding means no amount range.
func ParseAmounts(s string) (min, max decimal.NullDecimal, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return min, max, nil
	}

	parts := strings.SplitN(s, rangeSep, 2)
	if len(parts) != 2 {
		return min, max, fmt.Errorf("invalid amount range %q", s)
	}
	if lo := strings.TrimSpace(parts[0]); lo != "" {
		d, perr := decimal.NewFromString(lo)
		if perr != nil {
			return min, max, fmt.Errorf("parsing range minimum %q: %w", lo, perr)
		}
		min = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	if hi := strings.TrimSpace(parts[1]); hi != "" {
		d, perr := decimal.NewFromString(hi)
		if perr != nil {
			return min, max, fmt.Errorf("parsing range maximum %q: %w", hi, perr)
		}
		max = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	return min, max, nil
}

// EncodeAmounts is the inverse of ParseAmounts.
func EncodeAmounts(min, max decimal.NullDecimal) string {
	if !min.Valid && !max.Valid {
		return ""
	}
	var lo, hi string
	if min.Valid {
		lo = min.Decimal.String()
	}
	if max.Valid {
		hi = max.Decimal.String()
	}
	return lo + rangeSep + hi
}

// EncodeList joins list-valued rule fields with the file's delimiter.
// Shared with the subcategories storage table, which uses the same
// encoding.
func EncodeList(items []string) string {
	return strings.Join(items, listSep)
}

// DecodeList is the inverse of EncodeList; blank entries are dropped.
func DecodeList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, listSep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
