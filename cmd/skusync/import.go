package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Run a full-catalog import from the CSV feed",
	Long: `Import the catalog feed file and reconcile the stored catalog
against it. The feed is treated as the complete catalog: records are
matched by SKU, and active products whose SKU no longer appears in the
feed are soft deleted at the end of the run.

The whole run executes in a single transaction. On any failure the
catalog is left exactly as it was.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, pool, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if importFile != "" {
			cfg.Import.CSVPath = importFile
		}

		report, err := newService(cfg, pool).ImportCSV(ctx)
		if err != nil {
			return err
		}

		fmt.Println(report.Summary())
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to the catalog CSV (overrides IMPORT_CSV_PATH)")
	rootCmd.AddCommand(importCmd)
}
