package model

import "github.com/shopspring/decimal"

// SubcategoryRule is one user-maintained classification rule, keyed by
// its unique label. Rules are loaded from the rules file and upserted
// into storage by label, never deleted by the pipeline.
type SubcategoryRule struct {
	Label     string
	Category  string
	Methods   []string            // method codes the rule matches
	AmountMin decimal.NullDecimal // inclusive; invalid = unbounded
	AmountMax decimal.NullDecimal // inclusive; invalid = unbounded
	Tells     []string            // description substrings, checked in order
}

// HasAmountRange reports whether the rule constrains the amount at all.
func (r SubcategoryRule) HasAmountRange() bool {
	return r.AmountMin.Valid || r.AmountMax.Valid
}

// MatchBasis identifies which classification signal matched a
// transaction to a rule.
type MatchBasis string

const (
	MatchExactLabel      MatchBasis = "exact-label"
	MatchDescriptionTell MatchBasis = "description-tell"
	MatchMethod          MatchBasis = "method"
	MatchAmountRange     MatchBasis = "amount-range"
	MatchNone            MatchBasis = "none"
)

// ClassificationResult is the outcome of classifying one transaction.
// Ephemeral: merged into the Transaction before persistence.
type ClassificationResult struct {
	Category    string
	Subcategory string
	Basis       MatchBasis
	RuleLabel   string // empty when Basis is MatchNone
}
