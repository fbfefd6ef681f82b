// Package classify matches canonical transactions against the
// subcategory rule set.
package classify

import (
	"sort"
	"strings"

	"github.com/perfin-dev/perfin/internal/model"
)

// Classifier assigns a category/subcategory to each transaction from a
// read-only rule set. Matching is deterministic: signals are evaluated
// in a fixed priority order, and ties within a signal break by
// ascending rule label, never by load order.
type Classifier struct {
	rules   []model.SubcategoryRule // ascending label order
	byLabel map[string]model.SubcategoryRule
}

// New creates a Classifier over a snapshot of the rule set.
func New(rls []model.SubcategoryRule) *Classifier {
	sorted := make([]model.SubcategoryRule, len(rls))
	copy(sorted, rls)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Label < sorted[j].Label
	})

	byLabel := make(map[string]model.SubcategoryRule, len(sorted))
	for _, r := range sorted {
		byLabel[r.Label] = r
	}
	return &Classifier{rules: sorted, byLabel: byLabel}
}

// Classify produces the classification for one transaction. Priority:
// an existing manual label assignment, then description tells, then
// method codes, then amount ranges; no match leaves the transaction
// retained as Uncategorised.
func (c *Classifier) Classify(tx model.Transaction) model.ClassificationResult {
	if rule, ok := c.manualOverride(tx); ok {
		return result(rule, model.MatchExactLabel)
	}

	desc := strings.ToLower(tx.Description)
	for _, rule := range c.rules {
		for _, tell := range rule.Tells {
			if strings.Contains(desc, strings.ToLower(tell)) {
				return result(rule, model.MatchDescriptionTell)
			}
		}
	}

	for _, rule := range c.rules {
		for _, method := range rule.Methods {
			if method == tx.Method {
				return result(rule, model.MatchMethod)
			}
		}
	}

	if amount, ok := tx.Amount(); ok {
		for _, rule := range c.rules {
			if !rule.HasAmountRange() {
				continue
			}
			if rule.AmountMin.Valid && amount.LessThan(rule.AmountMin.Decimal) {
				continue
			}
			if rule.AmountMax.Valid && amount.GreaterThan(rule.AmountMax.Decimal) {
				continue
			}
			return result(rule, model.MatchAmountRange)
		}
	}

	return model.ClassificationResult{
		Category:    model.Uncategorised,
		Subcategory: model.Uncategorised,
		Basis:       model.MatchNone,
	}
}

// Apply merges a classification result into a transaction.
func Apply(tx model.Transaction, res model.ClassificationResult) model.Transaction {
	tx.Category = res.Category
	tx.Subcategory = res.Subcategory
	return tx
}

// manualOverride reports whether the transaction already carries a rule
// label as its subcategory, assigned directly by the user.
func (c *Classifier) manualOverride(tx model.Transaction) (model.SubcategoryRule, bool) {
	if tx.Subcategory == "" || tx.Subcategory == model.SubcategoryTBC {
		return model.SubcategoryRule{}, false
	}
	rule, ok := c.byLabel[tx.Subcategory]
	return rule, ok
}

func result(rule model.SubcategoryRule, basis model.MatchBasis) model.ClassificationResult {
	return model.ClassificationResult{
		Category:    rule.Category,
		Subcategory: rule.Label,
		Basis:       basis,
		RuleLabel:   rule.Label,
	}
}
