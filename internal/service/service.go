// Package service orchestrates reconciliation runs: it wires the source
// adapters, the normalizer, the reconciler and the persistence gateway
// together and records every run's outcome.
//
// Two run modes exist, mirroring the two sources of truth:
//
//   - ImportCSV is the full-catalog mode: the feed is authoritative, the
//     whole pass executes in one transaction, and SKUs absent from the feed
//     are delisted at the end.
//   - SyncExternal is the upsert mode: one remote fetch followed by
//     per-record mutations that are durable as soon as they apply. A
//     mid-run failure leaves earlier upserts in place.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skusync/skusync/internal/catalog"
	"github.com/skusync/skusync/internal/config"
	"github.com/skusync/skusync/internal/logging"
	"github.com/skusync/skusync/internal/reconcile"
	"github.com/skusync/skusync/internal/source"
	"github.com/skusync/skusync/internal/store"
)

// Run sources.
const (
	SourceCSV = "csv"
	SourceAPI = "api"
)

// ErrRunInFlight is returned when a run is requested while another one is
// still executing. Concurrent runs against the same catalog are not
// coordinated, so they are refused outright.
var ErrRunInFlight = errors.New("service: a sync run is already in flight")

// Service executes reconciliation runs.
type Service struct {
	pool    *pgxpool.Pool
	cfg     *config.Config
	fetcher source.Fetcher

	runMu sync.Mutex
}

// New creates a Service. The fetcher is injected so tests and the CLI can
// swap the remote source.
func New(pool *pgxpool.Pool, cfg *config.Config, fetcher source.Fetcher) *Service {
	return &Service{pool: pool, cfg: cfg, fetcher: fetcher}
}

// ImportCSV performs one full-catalog import from the configured feed file.
// Every mutation of the run happens in a single transaction; afterwards the
// run outcome is recorded regardless of success.
func (s *Service) ImportCSV(ctx context.Context) (report *reconcile.Report, err error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInFlight
	}
	defer s.runMu.Unlock()

	started := time.Now()
	runID := uuid.New()
	logger := logging.WithFields(ctx, "run_id", runID.String(), "source", SourceCSV)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("import run panicked", "panic", r)
			report = nil
			err = errors.New("service: import run failed with an internal error")
		}
		s.recordRun(ctx, logger, runID, SourceCSV, started, report, err)
	}()

	content, readErr := os.ReadFile(s.cfg.Import.CSVPath)
	if readErr != nil {
		return nil, fmt.Errorf("service: read catalog feed: %w", readErr)
	}
	records := source.ParseCSV(string(content))
	logger.Info("import started", "file", s.cfg.Import.CSVPath, "records", len(records))

	// Snapshot before the transaction begins: SKUs created during this run
	// must not be candidates for the delete-missing pass.
	snapshot, snapErr := store.New(s.pool).ActiveSKUs(ctx)
	if snapErr != nil {
		return nil, snapErr
	}

	opts := catalog.NormalizeOptions{RequireSKU: true}

	err = store.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		rec := reconcile.New(store.New(tx))
		report = rec.Report()

		for _, raw := range records {
			p, warnings, nerr := catalog.Normalize(raw, opts)
			if nerr != nil {
				var skip *catalog.SkipError
				if errors.As(nerr, &skip) {
					rec.Skip(skip.Error())
					logger.Warn("skipping record without sku", "name", skip.Name)
					continue
				}
				return nerr
			}
			for _, w := range warnings {
				rec.Warn(w)
				logger.Warn(w)
			}

			action, aerr := rec.ApplyBySKU(ctx, p)
			if aerr != nil {
				return aerr
			}
			logger.Debug("reconciled record", "sku", p.SKU, "action", string(action))
		}

		return rec.DeleteMissing(ctx, snapshot)
	})
	if err != nil {
		return report, err
	}

	logger.Info("import completed", "summary", report.Summary())
	return report, nil
}

// SyncExternal performs one sync against the remote product source. A
// failed fetch aborts the run with the catalog unchanged; a failure after
// some records applied leaves those records applied.
func (s *Service) SyncExternal(ctx context.Context) (report *reconcile.Report, err error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInFlight
	}
	defer s.runMu.Unlock()

	started := time.Now()
	runID := uuid.New()
	logger := logging.WithFields(ctx, "run_id", runID.String(), "source", SourceAPI)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("sync run panicked", "panic", r)
			report = nil
			err = errors.New("service: sync run failed with an internal error")
		}
		s.recordRun(ctx, logger, runID, SourceAPI, started, report, err)
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Sync.Timeout)
	defer cancel()

	products, fetchErr := s.fetcher.FetchAll(fetchCtx)
	if fetchErr != nil {
		logger.Error("external fetch failed", "error", fetchErr)
		return nil, fetchErr
	}
	logger.Info("sync started", "records", len(products))

	rec := reconcile.New(store.New(s.pool))
	report = rec.Report()

	opts := catalog.NormalizeOptions{
		DefaultStatus:    catalog.StatusSale,
		FallbackCurrency: s.cfg.Sync.FallbackCurrency,
	}

	for _, ap := range products {
		p, warnings, nerr := catalog.Normalize(ap.ToRecord(), opts)
		if nerr != nil {
			var skip *catalog.SkipError
			if errors.As(nerr, &skip) {
				rec.Skip(skip.Error())
				continue
			}
			return report, nerr
		}
		for _, w := range warnings {
			rec.Warn(w)
			logger.Warn(w)
		}

		action, aerr := rec.ApplyByID(ctx, p)
		if aerr != nil {
			return report, aerr
		}
		logger.Debug("synced record", "id", ap.ID, "action", string(action))
	}

	logger.Info("sync completed", "summary", report.Summary())
	return report, nil
}

// RecentRuns lists the latest recorded run outcomes, newest first.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]store.SyncRun, error) {
	return store.New(s.pool).RecentRuns(ctx, limit)
}

// Ping verifies database connectivity for health checks.
func (s *Service) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// recordRun persists the run outcome outside the data transaction so
// failed runs stay visible. Recording failures only warn; they never mask
// the run result.
func (s *Service) recordRun(ctx context.Context, logger *slog.Logger, runID uuid.UUID, src string, started time.Time, report *reconcile.Report, runErr error) {
	run := buildRunRecord(runID, src, started, time.Now(), report, runErr)

	// The run record must survive a cancelled run context.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := store.New(s.pool).RecordRun(recordCtx, run); err != nil {
		logger.Warn("failed to record sync run", "error", err)
	}
}

// buildRunRecord translates a run outcome into its audit row. A failed
// CSV run rolled every mutation back, so its counters are zeroed rather
// than claiming committed work; a failed API run keeps them, since its
// per-record upserts are durable up to the failure point.
func buildRunRecord(runID uuid.UUID, src string, started, finished time.Time, report *reconcile.Report, runErr error) store.SyncRun {
	run := store.SyncRun{
		ID:         runID,
		Source:     src,
		StartedAt:  started,
		FinishedAt: finished,
		Status:     store.RunSucceeded,
	}

	rolledBack := runErr != nil && src == SourceCSV
	if report != nil && !rolledBack {
		run.Created = report.Created
		run.Updated = report.Updated
		run.Restored = report.Restored
		run.Deleted = report.SoftDeleted
		run.Delisted = report.MissingDeleted
		run.Skipped = report.Skipped
		run.Processed = report.Processed
	}
	if runErr != nil {
		run.Status = store.RunFailed
		run.Error = runErr.Error()
	}
	return run
}
