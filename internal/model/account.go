package model

// Account describes one bank account feeding the ledger. Accounts are
// defined in static configuration and read-only during a run.
type Account struct {
	Bank     string
	Label    string // canonical label used in the ledger
	CSVFlag  string // source export format marker
	IsCredit bool   // credit-card style account
}
