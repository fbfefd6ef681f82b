package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perfin-dev/perfin/internal/config"
	"github.com/perfin-dev/perfin/internal/logger"
	"github.com/perfin-dev/perfin/internal/pipeline"
	"github.com/perfin-dev/perfin/internal/store"
)

func newIngestCommand() *cobra.Command {
	var configPath string
	var exportDir string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import, normalize and classify new bank exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			log := logger.New()
			st, err := store.Open(cfg.DatabasePath, log)
			if err != nil {
				return err
			}
			defer st.Close()

			p := pipeline.New(cfg, st, log, pipeline.Options{ExportDir: exportDir})
			report, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Print(report.Summarize())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "perfin.yaml", "path to perfin.yaml")
	cmd.Flags().StringVar(&exportDir, "export", "", "also write the batch as canonical CSV into this directory")

	return cmd
}
