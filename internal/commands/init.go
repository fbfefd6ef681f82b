package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/perfin-dev/perfin/internal/config"
	"github.com/perfin-dev/perfin/internal/rules"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new perfin project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(absDir)
		},
	}
	return cmd
}

func runInit(dir string) error {
	cfg := config.Default()

	configPath := filepath.Join(dir, "perfin.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	for _, d := range []string{
		cfg.InputDir,
		cfg.ArchiveDir,
		filepath.Dir(cfg.RulesFile),
		filepath.Dir(cfg.DatabasePath),
	} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Starter rules file: header only, rules are user-maintained.
	rulesPath := filepath.Join(dir, cfg.RulesFile)
	f, err := os.Create(rulesPath)
	if err != nil {
		return fmt.Errorf("creating rules file: %w", err)
	}
	defer f.Close()
	if err := rules.WriteRules(f, nil); err != nil {
		return fmt.Errorf("writing rules file: %w", err)
	}

	fmt.Printf("Initialized perfin project at %s\n", dir)
	return nil
}
