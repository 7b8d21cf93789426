package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a sync against the remote product API",
	Long: `Fetch the remote product collection and upsert each record into
the stored catalog, matched by external id. Records synced this way are
put on sale; soft deleted rows matched by an incoming record are
restored.

Each record is applied as soon as it reconciles. A failed fetch leaves
the catalog unchanged; a failure partway through leaves the records
already applied in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, pool, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := cfg.RequireSyncAPI(); err != nil {
			return err
		}

		report, err := newService(cfg, pool).SyncExternal(ctx)
		if err != nil {
			return err
		}

		fmt.Println(report.Summary())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
