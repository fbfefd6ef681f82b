package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perfin-dev/perfin/internal/config"
	"github.com/perfin-dev/perfin/internal/logger"
	"github.com/perfin-dev/perfin/internal/rules"
	"github.com/perfin-dev/perfin/internal/store"
)

func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage subcategory classification rules",
	}
	cmd.AddCommand(newRulesLoadCommand())
	return cmd
}

func newRulesLoadCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Upsert the rules file into storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			ruleSet, err := rules.Load(cfg.RulesFile)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.DatabasePath, logger.New())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.UpsertRules(cmd.Context(), ruleSet); err != nil {
				return err
			}
			fmt.Printf("Upserted %d rules\n", len(ruleSet))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "perfin.yaml", "path to perfin.yaml")
	return cmd
}
