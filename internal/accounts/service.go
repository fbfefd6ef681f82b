package accounts

import (
	"strings"

	"github.com/perfin-dev/perfin/internal/model"
)

// Service provides in-memory lookup over the configured accounts and
// the raw-label canonicalization table.
type Service struct {
	accounts []model.Account
	byLabel  map[string]model.Account
	aliases  map[string]string
}

// NewService creates a Service from configured accounts and the raw
// label to canonical label alias table.
func NewService(accounts []model.Account, aliases map[string]string) *Service {
	byLabel := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byLabel[a.Label] = a
	}
	return &Service{accounts: accounts, byLabel: byLabel, aliases: aliases}
}

// Canonical maps a raw source account label to its canonical label.
// Labels absent from the alias table pass through unchanged; that
// fallback is deliberate, new source labels must not be dropped.
func (s *Service) Canonical(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if canon, ok := s.aliases[trimmed]; ok {
		return canon
	}
	return trimmed
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by canonical label.
func (s *Service) Get(label string) (model.Account, bool) {
	a, ok := s.byLabel[label]
	return a, ok
}

// IsCredit reports whether the labeled account is a credit-type
// account. Unknown labels are treated as non-credit.
func (s *Service) IsCredit(label string) bool {
	a, ok := s.byLabel[label]
	return ok && a.IsCredit
}
