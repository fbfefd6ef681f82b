package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/perfin-dev/perfin/internal/model"
)

// Config represents the top-level perfin.yaml configuration.
type Config struct {
	InputDir     string            `yaml:"input_dir"`
	ArchiveDir   string            `yaml:"archive_dir"`
	RulesFile    string            `yaml:"rules_file"`
	DatabasePath string            `yaml:"database_path"`
	Accounts     []AccountConfig   `yaml:"accounts,omitempty"`
	Aliases      map[string]string `yaml:"account_aliases,omitempty"`
}

// AccountConfig defines one bank account feeding the ledger.
type AccountConfig struct {
	Bank     string `yaml:"bank"`
	Label    string `yaml:"label"`
	CSVFlag  string `yaml:"csv_flag,omitempty"`
	IsCredit bool   `yaml:"is_credit"`
}

// ModelAccounts converts the configured accounts to domain accounts.
func (c *Config) ModelAccounts() []model.Account {
	accts := make([]model.Account, len(c.Accounts))
	for i, a := range c.Accounts {
		accts[i] = model.Account{
			Bank:     a.Bank,
			Label:    a.Label,
			CSVFlag:  a.CSVFlag,
			IsCredit: a.IsCredit,
		}
	}
	return accts
}

// Load reads a perfin.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		InputDir:     "raw/new",
		ArchiveDir:   "raw/archive",
		RulesFile:    "rules/subcategories.csv",
		DatabasePath: "db/perfin.db",
		Accounts: []AccountConfig{
			{Bank: "Lloyds", Label: "HOME", IsCredit: false},
			{Bank: "Lloyds", Label: "SAVER", IsCredit: false},
			{Bank: "Lloyds", Label: "CREDIT", CSVFlag: "cc", IsCredit: true},
		},
		Aliases: map[string]string{
			"Saver":      "SAVER",
			"'A W EVANS": "CREDIT",
			"A W EVANS":  "CREDIT",
		},
	}
}
