// Package id derives the uniqueness key that makes re-running an
// import safe: a retried batch must not double-count rows that already
// committed.
package id

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/perfin-dev/perfin/internal/model"
)

// DedupKey returns a content-derived key over the identifying fields of
// a canonical transaction: date, description, amount and account. Two
// rows with the same key are the same transaction.
func DedupKey(tx model.Transaction) string {
	var amount string
	switch {
	case tx.Debit.Valid:
		amount = "D" + tx.Debit.Decimal.StringFixed(2)
	case tx.Credit.Valid:
		amount = "C" + tx.Credit.Decimal.StringFixed(2)
	}

	parts := []string{
		tx.Date.Format("2006-01-02"),
		tx.Description,
		amount,
		tx.Account,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
