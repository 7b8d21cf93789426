// Package catalog defines the canonical product model and the normalization
// rules that turn raw, partially-malformed source records into it.
// This package has no storage or transport dependencies and can be used by
// any source adapter.
package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Statuses with lifecycle meaning. StatusDeleted is matched
// case-insensitively on incoming records; StatusDeletedBySync is only ever
// set internally by the full-catalog delete-missing pass.
const (
	StatusDeleted       = "deleted"
	StatusDeletedBySync = "deleted_due_to_sync"
	StatusSale          = "sale"
)

// Product is the normalized unit of work shared by the CSV and API paths.
//
// ID is the optional external identifier; nil means "new, let storage
// assign". SKU is the business key and is mandatory on the CSV path
// (records without one are skipped, not errored). Currency is either a
// validated 3-letter uppercase code or nil. Variations is nil when absent
// or malformed.
type Product struct {
	ID         *int64
	Name       string
	SKU        string
	Price      decimal.Decimal
	Currency   *string
	Variations Variations
	Quantity   Quantity
	Status     *string
}

// StatusIsDeleted reports whether the record's status flags it for soft
// deletion. The comparison is case-insensitive ("Deleted" counts).
func (p Product) StatusIsDeleted() bool {
	return p.Status != nil && strings.EqualFold(*p.Status, StatusDeleted)
}

// StoredProduct is the persisted entity: a Product plus database identity
// and soft-delete bookkeeping.
type StoredProduct struct {
	ID        int64
	Product   Product
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDeleted reports whether the stored row is currently soft-deleted.
func (s *StoredProduct) IsDeleted() bool {
	return s != nil && s.DeletedAt != nil
}

// Quantity is a discriminated quantity value: an integer unit count plus
// the display form that gets persisted. The products table stores quantity
// as loosely-typed text, so the raw form is preserved when no variations
// dictate a computed total.
type Quantity struct {
	units   int
	display string
}

// QuantityFromRaw carries a raw quantity field through text-preserving.
// The unit count is a best-effort parse: non-digit characters are stripped
// before parsing, and anything unparsable counts as zero.
func QuantityFromRaw(raw string) Quantity {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Quantity{units: 0, display: "0"}
	}
	return Quantity{units: coerceUnits(raw), display: raw}
}

// QuantityFromUnits builds a quantity from a computed unit count, clamping
// negatives to zero.
func QuantityFromUnits(n int) Quantity {
	if n < 0 {
		n = 0
	}
	return Quantity{units: n, display: strconv.Itoa(n)}
}

// Units returns the integer unit count.
func (q Quantity) Units() int { return q.units }

// String returns the display form persisted to storage.
func (q Quantity) String() string {
	if q.display == "" {
		return "0"
	}
	return q.display
}

// coerceUnits parses a loosely-typed quantity token by discarding every
// non-digit character first ("5 pcs" -> 5, "n/a" -> 0).
func coerceUnits(raw string) int {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		// Digit overflow on absurd input; treat as zero rather than fail.
		return 0
	}
	return n
}
