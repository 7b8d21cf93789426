package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/skusync/skusync/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the operational HTTP server",
	Long: `Start the HTTP server exposing health, run history and run
trigger endpoints:

  GET  /healthz          service and database health
  GET  /api/runs         recent run outcomes, newest first
  POST /api/runs/import  trigger a full-catalog import
  POST /api/runs/sync    trigger a remote API sync

Only one run executes at a time; triggering while a run is in flight
returns 409.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, pool, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		// The sync trigger endpoint needs the remote API configured.
		if err := cfg.RequireSyncAPI(); err != nil {
			return err
		}

		server := web.NewServer(newService(cfg, pool), cfg)

		// Graceful shutdown on SIGINT/SIGTERM via the command context.
		go func() {
			<-ctx.Done()
			slog.Info("shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown error", "error", err)
			}
		}()

		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		slog.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
