// Package reconcile implements the state-transition engine that applies
// canonical incoming records against stored catalog rows.
//
// Per record the engine decides among create, update, restore+update and
// soft-delete, and it tracks which keys were seen so a full-catalog run can
// finish with a delete-missing pass. All storage access goes through the
// Gateway interface; the engine itself operates on in-memory values only.
package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/skusync/skusync/internal/catalog"
)

// Gateway is the narrow persistence surface the reconciler consumes.
// Lookups must include soft-deleted rows when includeDeleted is set; that
// is what keeps SKU uniqueness intact (a deleted row is found and restored,
// never shadowed by a duplicate).
//
// Find methods return (nil, nil) when no row matches.
type Gateway interface {
	FindBySKU(ctx context.Context, sku string, includeDeleted bool) (*catalog.StoredProduct, error)
	FindByID(ctx context.Context, id int64, includeDeleted bool) (*catalog.StoredProduct, error)
	Create(ctx context.Context, p catalog.Product) (*catalog.StoredProduct, error)
	Update(ctx context.Context, stored *catalog.StoredProduct, p catalog.Product) error

	// SoftDelete stamps the deletion time and status on an active row and
	// overwrites its variations with the latest parsed value; every other
	// field is left unchanged.
	SoftDelete(ctx context.Context, stored *catalog.StoredProduct, status string, variations catalog.Variations) error

	// SoftDeleteMissing soft-deletes the active row for a SKU that vanished
	// from the source of truth, setting status to
	// catalog.StatusDeletedBySync. Returns false when no active row exists.
	SoftDeleteMissing(ctx context.Context, sku string) (bool, error)

	Restore(ctx context.Context, stored *catalog.StoredProduct) error
	ActiveSKUs(ctx context.Context) (map[string]struct{}, error)
}

// Action is the decision the engine reached for one record.
type Action string

const (
	ActionNone     Action = "none"
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionRestored Action = "restored"
	ActionDeleted  Action = "deleted"
)

// Report accumulates the outcome counters of one reconciliation run.
// Processed counts only records that reached create or update; skips,
// explicit deletes and the delete-missing pass are excluded.
type Report struct {
	Created        int
	Updated        int
	Restored       int
	SoftDeleted    int
	MissingDeleted int
	Skipped        int
	Processed      int
	Warnings       []string
}

// Summary renders the human-readable progress line emitted after a run.
func (r *Report) Summary() string {
	return fmt.Sprintf("processed %d products (%d created, %d updated, %d restored, %d deleted, %d delisted, %d skipped)",
		r.Processed, r.Created, r.Updated, r.Restored, r.SoftDeleted, r.MissingDeleted, r.Skipped)
}

// Reconciler applies canonical records one at a time and carries the seen
// set and counters across a run. It is single-use: one Reconciler per run.
type Reconciler struct {
	gw     Gateway
	seen   map[string]struct{}
	report Report
}

// New creates a Reconciler over the given gateway.
func New(gw Gateway) *Reconciler {
	return &Reconciler{
		gw:   gw,
		seen: make(map[string]struct{}),
	}
}

// Report returns the counters accumulated so far.
func (r *Reconciler) Report() *Report {
	return &r.report
}

// Skip records a rejected input record (missing SKU) with its warning.
func (r *Reconciler) Skip(warning string) {
	r.report.Skipped++
	r.report.Warnings = append(r.report.Warnings, warning)
}

// Warn attaches a non-fatal field warning to the run report.
func (r *Reconciler) Warn(warnings ...string) {
	r.report.Warnings = append(r.report.Warnings, warnings...)
}

// ApplyBySKU reconciles one record keyed by its SKU (the CSV path).
func (r *Reconciler) ApplyBySKU(ctx context.Context, p catalog.Product) (Action, error) {
	stored, err := r.gw.FindBySKU(ctx, p.SKU, true)
	if err != nil {
		return ActionNone, fmt.Errorf("reconcile: find sku %q: %w", p.SKU, err)
	}
	r.seen[p.SKU] = struct{}{}
	return r.apply(ctx, stored, p)
}

// ApplyByID reconciles one record keyed by its external identifier (the API
// path). Records without an identifier are treated as new.
func (r *Reconciler) ApplyByID(ctx context.Context, p catalog.Product) (Action, error) {
	var stored *catalog.StoredProduct
	if p.ID != nil {
		var err error
		stored, err = r.gw.FindByID(ctx, *p.ID, true)
		if err != nil {
			return ActionNone, fmt.Errorf("reconcile: find id %d: %w", *p.ID, err)
		}
	}
	if p.SKU != "" {
		r.seen[p.SKU] = struct{}{}
	}
	return r.apply(ctx, stored, p)
}

// apply runs the transition table for one record against its stored row.
func (r *Reconciler) apply(ctx context.Context, stored *catalog.StoredProduct, p catalog.Product) (Action, error) {
	deleted := p.StatusIsDeleted()

	switch {
	case stored == nil && deleted:
		// Nothing stored, nothing to delete.
		return ActionNone, nil

	case stored == nil:
		if _, err := r.gw.Create(ctx, p); err != nil {
			return ActionNone, fmt.Errorf("reconcile: create sku %q: %w", p.SKU, err)
		}
		r.report.Created++
		r.report.Processed++
		return ActionCreated, nil

	case deleted && stored.IsDeleted():
		// Already soft-deleted; stays deleted but still counts for logging.
		r.report.SoftDeleted++
		return ActionDeleted, nil

	case deleted:
		if err := r.gw.SoftDelete(ctx, stored, statusLabel(p), p.Variations); err != nil {
			return ActionNone, fmt.Errorf("reconcile: soft-delete sku %q: %w", p.SKU, err)
		}
		r.report.SoftDeleted++
		return ActionDeleted, nil

	case stored.IsDeleted():
		if err := r.gw.Restore(ctx, stored); err != nil {
			return ActionNone, fmt.Errorf("reconcile: restore sku %q: %w", p.SKU, err)
		}
		if err := r.gw.Update(ctx, stored, p); err != nil {
			return ActionNone, fmt.Errorf("reconcile: update restored sku %q: %w", p.SKU, err)
		}
		r.report.Restored++
		r.report.Updated++
		r.report.Processed++
		return ActionRestored, nil

	default:
		if err := r.gw.Update(ctx, stored, p); err != nil {
			return ActionNone, fmt.Errorf("reconcile: update sku %q: %w", p.SKU, err)
		}
		r.report.Updated++
		r.report.Processed++
		return ActionUpdated, nil
	}
}

// DeleteMissing performs the full-catalog post-pass: every SKU in the
// snapshot that was not seen during the run transitions to soft-deleted
// with status catalog.StatusDeletedBySync.
//
// The snapshot must be taken before the run's transaction begins so SKUs
// created during the run are excluded by construction. Processing order is
// sorted for deterministic logs.
func (r *Reconciler) DeleteMissing(ctx context.Context, snapshot map[string]struct{}) error {
	missing := make([]string, 0, len(snapshot))
	for sku := range snapshot {
		if _, ok := r.seen[sku]; !ok {
			missing = append(missing, sku)
		}
	}
	sort.Strings(missing)

	for _, sku := range missing {
		affected, err := r.gw.SoftDeleteMissing(ctx, sku)
		if err != nil {
			return fmt.Errorf("reconcile: delist missing sku %q: %w", sku, err)
		}
		if affected {
			r.report.MissingDeleted++
		}
	}
	return nil
}

// statusLabel returns the incoming status text for a soft delete, falling
// back to the canonical deleted label when the record has none.
func statusLabel(p catalog.Product) string {
	if p.Status != nil {
		return *p.Status
	}
	return catalog.StatusDeleted
}
