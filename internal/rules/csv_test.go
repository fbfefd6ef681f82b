package rules

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfin-dev/perfin/internal/model"
)

func nd(s string) decimal.NullDecimal {
	d, _ := decimal.NewFromString(s)
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

const sampleRules = `label,category,methods,amounts,descr_tells
Groceries,Living,PUR,,TESCO;SAINSBURY
Salary,Income,PAY,1000:5000,
Interest,Income,INT,:10,
`

func TestReadRules(t *testing.T) {
	rls, err := ReadRules(strings.NewReader(sampleRules))
	require.NoError(t, err)
	require.Len(t, rls, 3)

	groceries := rls[0]
	assert.Equal(t, "Groceries", groceries.Label)
	assert.Equal(t, "Living", groceries.Category)
	assert.Equal(t, []string{"PUR"}, groceries.Methods)
	assert.False(t, groceries.HasAmountRange())
	assert.Equal(t, []string{"TESCO", "SAINSBURY"}, groceries.Tells)

	salary := rls[1]
	require.True(t, salary.AmountMin.Valid)
	require.True(t, salary.AmountMax.Valid)
	assert.Equal(t, "1000", salary.AmountMin.Decimal.String())
	assert.Equal(t, "5000", salary.AmountMax.Decimal.String())

	interest := rls[2]
	assert.False(t, interest.AmountMin.Valid)
	require.True(t, interest.AmountMax.Valid)
	assert.Equal(t, "10", interest.AmountMax.Decimal.String())
}

func TestReadRules_DuplicateLabelLastWriteWins(t *testing.T) {
	in := `label,category,methods,amounts,descr_tells
Groceries,Living,PUR,,TESCO
Groceries,Food,PUR,,ALDI
`
	rls, err := ReadRules(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rls, 1)
	assert.Equal(t, "Food", rls[0].Category)
	assert.Equal(t, []string{"ALDI"}, rls[0].Tells)
}

func TestReadRules_EmptyLabel(t *testing.T) {
	in := "label,category,methods,amounts,descr_tells\n,Living,PUR,,TESCO\n"
	_, err := ReadRules(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty rule label")
}

func TestReadRules_BadRange(t *testing.T) {
	in := "label,category,methods,amounts,descr_tells\nX,Living,PUR,ten:20,\n"
	_, err := ReadRules(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing range minimum")
}

func TestRoundTrip(t *testing.T) {
	rls := []model.SubcategoryRule{
		{
			Label:     "Groceries",
			Category:  "Living",
			Methods:   []string{"PUR", "PAY"},
			AmountMin: nd("5"),
			AmountMax: nd("200.50"),
			Tells:     []string{"TESCO", "CO-OP"},
		},
		{
			Label:    "Uncapped",
			Category: "Misc",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRules(&buf, rls))

	got, err := ReadRules(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rls[0].Label, got[0].Label)
	assert.Equal(t, rls[0].Methods, got[0].Methods)
	assert.Equal(t, rls[0].Tells, got[0].Tells)
	require.True(t, got[0].AmountMin.Valid)
	assert.True(t, rls[0].AmountMin.Decimal.Equal(got[0].AmountMin.Decimal))
	assert.True(t, rls[0].AmountMax.Decimal.Equal(got[0].AmountMax.Decimal))
	assert.False(t, got[1].HasAmountRange())
	assert.Empty(t, got[1].Methods)
}

func TestParseAmounts(t *testing.T) {
	min, max, err := ParseAmounts("10:20")
	require.NoError(t, err)
	assert.True(t, min.Valid)
	assert.True(t, max.Valid)

	min, max, err = ParseAmounts("")
	require.NoError(t, err)
	assert.False(t, min.Valid)
	assert.False(t, max.Valid)

	min, max, err = ParseAmounts("10:")
	require.NoError(t, err)
	assert.True(t, min.Valid)
	assert.False(t, max.Valid)

	_, _, err = ParseAmounts("10")
	assert.Error(t, err)
}

func TestEncodeAmounts(t *testing.T) {
	assert.Equal(t, "", EncodeAmounts(decimal.NullDecimal{}, decimal.NullDecimal{}))
	assert.Equal(t, "10:20", EncodeAmounts(nd("10"), nd("20")))
	assert.Equal(t, ":20", EncodeAmounts(decimal.NullDecimal{}, nd("20")))
	assert.Equal(t, "10:", EncodeAmounts(nd("10"), decimal.NullDecimal{}))
}
