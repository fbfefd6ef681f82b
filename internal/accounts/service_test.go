package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfin-dev/perfin/internal/model"
)

func testService() *Service {
	return NewService(
		[]model.Account{
			{Bank: "Lloyds", Label: "HOME"},
			{Bank: "Lloyds", Label: "SAVER"},
			{Bank: "Lloyds", Label: "CREDIT", IsCredit: true},
		},
		map[string]string{
			"Saver":      "SAVER",
			"'A W EVANS": "CREDIT",
		},
	)
}

func TestCanonical_Alias(t *testing.T) {
	s := testService()
	assert.Equal(t, "SAVER", s.Canonical("Saver"))
	assert.Equal(t, "CREDIT", s.Canonical("'A W EVANS"))
}

func TestCanonical_PassThrough(t *testing.T) {
	// Labels absent from the alias table must survive unchanged.
	s := testService()
	assert.Equal(t, "HOME", s.Canonical("HOME"))
	assert.Equal(t, "NEW BANK", s.Canonical("NEW BANK"))
}

func TestCanonical_TrimsWhitespace(t *testing.T) {
	s := testService()
	assert.Equal(t, "SAVER", s.Canonical("  Saver "))
}

func TestGet(t *testing.T) {
	s := testService()
	a, ok := s.Get("CREDIT")
	require.True(t, ok)
	assert.True(t, a.IsCredit)

	_, ok = s.Get("NOPE")
	assert.False(t, ok)
}

func TestIsCredit(t *testing.T) {
	s := testService()
	assert.True(t, s.IsCredit("CREDIT"))
	assert.False(t, s.IsCredit("HOME"))
	assert.False(t, s.IsCredit("UNKNOWN"))
}

func TestAll(t *testing.T) {
	s := testService()
	assert.Len(t, s.All(), 3)
}
