package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/skusync/skusync/internal/config"
	"github.com/skusync/skusync/internal/logging"
	"github.com/skusync/skusync/internal/service"
	"github.com/skusync/skusync/internal/source"
)

var rootCmd = &cobra.Command{
	Use:   "skusync",
	Short: "Product catalog reconciliation",
	Long: `skusync keeps a product catalog in sync with two sources of truth:
an operator-supplied CSV feed (full-catalog import) and a remote product
API (per-record sync). Records are normalized, matched against the stored
catalog and created, updated, restored or soft deleted accordingly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// bootstrap loads the environment, configuration and logging setup, then
// opens and verifies the database pool. Every subcommand starts here.
func bootstrap(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	return cfg, pool, nil
}

// newService wires the reconciliation service with its HTTP-backed fetcher.
func newService(cfg *config.Config, pool *pgxpool.Pool) *service.Service {
	client := &http.Client{Timeout: cfg.Sync.Timeout}
	fetcher := source.NewClient(cfg.Sync.APIURL, client)
	return service.New(pool, cfg, fetcher)
}
