package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perfin-dev/perfin/internal/config"
	"github.com/perfin-dev/perfin/internal/logger"
	"github.com/perfin-dev/perfin/internal/store"
)

func newReportCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show per-category debit/credit totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.DatabasePath, logger.New())
			if err != nil {
				return err
			}
			defer st.Close()

			sums, err := st.Summary(cmd.Context())
			if err != nil {
				return err
			}
			if len(sums) == 0 {
				fmt.Println("Ledger is empty.")
				return nil
			}

			fmt.Printf("%-20s %12s %12s %6s\n", "CATEGORY", "DEBIT", "CREDIT", "ROWS")
			for _, s := range sums {
				fmt.Printf("%-20s %12s %12s %6d\n",
					s.Category, s.Debit.StringFixed(2), s.Credit.StringFixed(2), s.Rows)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "perfin.yaml", "path to perfin.yaml")
	return cmd
}
