package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfin-dev/perfin/internal/accounts"
	"github.com/perfin-dev/perfin/internal/logger"
	"github.com/perfin-dev/perfin/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

var imported = date(2023, 3, 1)

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	accts := accounts.NewService(
		[]model.Account{
			{Label: "HOME"},
			{Label: "SAVER"},
			{Label: "CREDIT", IsCredit: true},
		},
		map[string]string{
			"Saver":      "SAVER",
			"'A W EVANS": "CREDIT",
		},
	)
	return New(accts, logger.NewWithWriter(testWriter{t}))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestSplitAmount_SignTable(t *testing.T) {
	// Positive becomes a credit, negative an absolute-value debit,
	// regardless of account type.
	debit, credit := SplitAmount(dec("-45.67"))
	require.True(t, debit.Valid)
	assert.False(t, credit.Valid)
	assert.Equal(t, "45.67", debit.Decimal.StringFixed(2))

	debit, credit = SplitAmount(dec("100.00"))
	assert.False(t, debit.Valid)
	require.True(t, credit.Valid)
	assert.Equal(t, "100.00", credit.Decimal.StringFixed(2))
}

func TestSplitAmount_ZeroIsCredit(t *testing.T) {
	debit, credit := SplitAmount(decimal.Zero)
	assert.False(t, debit.Valid)
	require.True(t, credit.Valid)
	assert.True(t, credit.Decimal.IsZero())
}

func TestParseDate_SlashLayout(t *testing.T) {
	got, err := ParseDate("01/02/2023")
	require.NoError(t, err)
	assert.Equal(t, date(2023, 2, 1), got)
}

func TestParseDate_MonthLayout(t *testing.T) {
	got, err := ParseDate("01 Feb 2023")
	require.NoError(t, err)
	assert.Equal(t, date(2023, 2, 1), got)
}

func TestParseDate_NeitherLayout(t *testing.T) {
	_, err := ParseDate("2023-02-01")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

// Credit-account purchase with a negative value: debit gets the
// absolute amount, account label is canonicalized, description loses
// its leading quote.
func TestNormalize_CreditPurchase(t *testing.T) {
	n := testNormalizer(t)
	rows := []model.RawRow{{
		File: "jan.csv", Line: 2,
		Date:        "01/02/2023",
		Type:        "Purchase",
		Description: "'TESCO STORES",
		Value:       "-45.67",
		AccountName: "'A W EVANS",
		Balance:     "120.00",
	}}

	txs, skipped := n.Normalize(rows, imported)
	require.Empty(t, skipped)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, date(2023, 2, 1), tx.Date)
	assert.Equal(t, "PUR", tx.Method)
	assert.Equal(t, "TESCO STORES", tx.Description)
	assert.Equal(t, "CREDIT", tx.Account)
	require.True(t, tx.Debit.Valid)
	assert.Equal(t, "45.67", tx.Debit.Decimal.StringFixed(2))
	assert.False(t, tx.Credit.Valid)
	require.True(t, tx.Balance.Valid)
	assert.Equal(t, "120.00", tx.Balance.Decimal.StringFixed(2))
	assert.Equal(t, imported, tx.ImportedDate)
}

// Non-credit account with a positive value: credit side.
func TestNormalize_CurrentAccountIncome(t *testing.T) {
	n := testNormalizer(t)
	rows := []model.RawRow{{
		File: "jan.csv", Line: 2,
		Date:        "01/02/2023",
		Type:        "Payment",
		Description: "SALARY",
		Value:       "100.00",
		AccountName: "HOME",
	}}

	txs, skipped := n.Normalize(rows, imported)
	require.Empty(t, skipped)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, "PAY", tx.Method)
	assert.Equal(t, "HOME", tx.Account)
	require.True(t, tx.Credit.Valid)
	assert.Equal(t, "100.00", tx.Credit.Decimal.StringFixed(2))
	assert.False(t, tx.Debit.Valid)
}

// Credit-account row with no method and "Balance" in the description is
// a balance declaration: method BAL, no debit and no credit.
func TestNormalize_BalanceDeclaration(t *testing.T) {
	n := testNormalizer(t)
	rows := []model.RawRow{{
		File: "jan.csv", Line: 2,
		Date:        "28/02/2023",
		Type:        "",
		Description: "Monthly Balance",
		Value:       "",
		AccountName: "'A W EVANS",
	}}

	txs, skipped := n.Normalize(rows, imported)
	require.Empty(t, skipped)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, model.MethodBalance, tx.Method)
	assert.False(t, tx.Debit.Valid)
	assert.False(t, tx.Credit.Valid)
}

// The balance-declaration fallback is scoped to credit accounts: an
// empty method on a non-credit account stays empty, and an empty value
// is then a value-type error.
func TestNormalize_BalanceDeclarationCreditOnly(t *testing.T) {
	n := testNormalizer(t)
	rows := []model.RawRow{{
		File: "jan.csv", Line: 2,
		Date:        "28/02/2023",
		Type:        "",
		Description: "Monthly Balance",
		Value:       "",
		AccountName: "HOME",
	}}

	txs, skipped := n.Normalize(rows, imported)
	assert.Empty(t, txs)
	require.Len(t, skipped, 1)
	assert.Equal(t, RowErrorValueType, skipped[0].Kind)
}

func TestNormalize_UnknownLabelPassesThrough(t *testing.T) {
	n := testNormalizer(t)
	rows := []model.RawRow{{
		File: "jan.csv", Line: 2,
		Date:        "01/02/2023",
		Type:        "Purchase",
		Description: "X",
		Value:       "-1.00",
		AccountName: "NEW BANK",
	}}

	txs, skipped := n.Normalize(rows, imported)
	require.Empty(t, skipped)
	require.Len(t, txs, 1)
	assert.Equal(t, "NEW BANK", txs[0].Account)
}

func TestNormalize_UnknownMethodPassesThrough(t *testing.T) {
	n := testNormalizer(t)
	rows := []model.RawRow{{
		File: "jan.csv", Line: 2,
		Date:        "01/02/2023",
		Type:        "DD",
		Description: "COUNCIL TAX",
		Value:       "-120.00",
		AccountName: "HOME",
	}}

	txs, _ := n.Normalize(rows, imported)
	require.Len(t, txs, 1)
	assert.Equal(t, "DD", txs[0].Method)
}

func TestNormalize_SkipsBadRowsKeepsRest(t *testing.T) {
	n := testNormalizer(t)
	rows := []model.RawRow{
		{File: "jan.csv", Line: 2, Date: "not a date", Type: "Purchase", Description: "A", Value: "-1.00", AccountName: "HOME"},
		{File: "jan.csv", Line: 3, Date: "01/02/2023", Type: "Purchase", Description: "B", Value: "forty", AccountName: "HOME"},
		{File: "jan.csv", Line: 4, Date: "02/02/2023", Type: "Purchase", Description: "C", Value: "-2.00", AccountName: "HOME"},
	}

	txs, skipped := n.Normalize(rows, imported)
	require.Len(t, txs, 1)
	assert.Equal(t, "C", txs[0].Description)

	require.Len(t, skipped, 2)
	assert.Equal(t, RowErrorDateParse, skipped[0].Kind)
	assert.Equal(t, 2, skipped[0].Line)
	assert.Equal(t, "not a date", skipped[0].Value)
	assert.Equal(t, RowErrorValueType, skipped[1].Kind)
	assert.Equal(t, 3, skipped[1].Line)
}

// Rows from concatenated sources, in mixed date formats, come out in
// ascending date order.
func TestNormalize_SortsByDateAcrossFormats(t *testing.T) {
	n := testNormalizer(t)
	rows := []model.RawRow{
		{File: "feb.csv", Line: 2, Date: "15/02/2023", Type: "Purchase", Description: "LATER", Value: "-1.00", AccountName: "HOME"},
		{File: "jan.csv", Line: 2, Date: "03 Jan 2023", Type: "Purchase", Description: "EARLIER", Value: "-2.00", AccountName: "HOME"},
		{File: "feb.csv", Line: 3, Date: "01/02/2023", Type: "Purchase", Description: "MIDDLE", Value: "-3.00", AccountName: "HOME"},
	}

	txs, skipped := n.Normalize(rows, imported)
	require.Empty(t, skipped)
	require.Len(t, txs, 3)
	assert.Equal(t, "EARLIER", txs[0].Description)
	assert.Equal(t, "MIDDLE", txs[1].Description)
	assert.Equal(t, "LATER", txs[2].Description)
}

// Final debit/credit assignment does not depend on input order.
func TestNormalize_OrderIndependent(t *testing.T) {
	n := testNormalizer(t)
	rows := []model.RawRow{
		{File: "a.csv", Line: 2, Date: "01/02/2023", Type: "Purchase", Description: "A", Value: "-1.00", AccountName: "HOME"},
		{File: "a.csv", Line: 3, Date: "02/02/2023", Type: "Payment", Description: "B", Value: "2.00", AccountName: "'A W EVANS"},
	}
	reversed := []model.RawRow{rows[1], rows[0]}

	txs1, _ := n.Normalize(rows, imported)
	txs2, _ := n.Normalize(reversed, imported)
	require.Len(t, txs1, 2)
	require.Equal(t, len(txs1), len(txs2))
	for i := range txs1 {
		assert.Equal(t, txs1[i].Description, txs2[i].Description)
		assert.Equal(t, txs1[i].Debit, txs2[i].Debit)
		assert.Equal(t, txs1[i].Credit, txs2[i].Credit)
	}
}

func TestNormalize_UnparseableBalanceAbsent(t *testing.T) {
	n := testNormalizer(t)
	rows := []model.RawRow{{
		File: "jan.csv", Line: 2,
		Date:        "01/02/2023",
		Type:        "Purchase",
		Description: "X",
		Value:       "-1.00",
		AccountName: "HOME",
		Balance:     "n/a",
	}}

	txs, skipped := n.Normalize(rows, imported)
	require.Empty(t, skipped)
	require.Len(t, txs, 1)
	assert.False(t, txs[0].Balance.Valid)
}

func TestNormalize_PlaceholdersBeforeClassification(t *testing.T) {
	n := testNormalizer(t)
	rows := []model.RawRow{{
		File: "jan.csv", Line: 2,
		Date:        "01/02/2023",
		Type:        "Purchase",
		Description: "X",
		Value:       "-1.00",
		AccountName: "HOME",
	}}

	txs, _ := n.Normalize(rows, imported)
	require.Len(t, txs, 1)
	assert.Equal(t, model.TypeTBC, txs[0].Type)
	assert.Equal(t, model.CategoryTBC, txs[0].Category)
	assert.Equal(t, model.SubcategoryTBC, txs[0].Subcategory)
}
