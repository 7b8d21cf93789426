// Package store is the persistence gateway for the product catalog: the
// only component that reads or writes the products table. Everything above
// it operates on in-memory catalog values.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skusync/skusync/internal/catalog"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx, so the same Store serves the
// transactional CSV run and the per-record-durable API run.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements the reconciler's Gateway over Postgres.
type Store struct {
	db DBTX
}

// New creates a Store bound to a pool or an open transaction.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// WithTx executes fn within one transaction: either every mutation of a
// full-catalog run commits or none do.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit tx: %w", err)
	}

	return nil
}

const productColumns = `id, name, sku, status, variations, price, currency, quantity, deleted_at, created_at, updated_at`

// FindBySKU looks a product up by its business key. includeDeleted extends
// the lookup to soft-deleted rows; full-catalog runs always set it so a
// matching SKU is restored rather than duplicated. Returns (nil, nil) when
// no row matches.
func (s *Store) FindBySKU(ctx context.Context, sku string, includeDeleted bool) (*catalog.StoredProduct, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	return s.findOne(ctx, query, sku)
}

// FindByID looks a product up by its identifier. Returns (nil, nil) when no
// row matches.
func (s *Store) FindByID(ctx context.Context, id int64, includeDeleted bool) (*catalog.StoredProduct, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	return s.findOne(ctx, query, id)
}

func (s *Store) findOne(ctx context.Context, query string, arg any) (*catalog.StoredProduct, error) {
	row := s.db.QueryRow(ctx, query, arg)
	stored, err := scanProduct(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find product: %w", err)
	}
	return stored, nil
}

// Create inserts a new active row. When the canonical record carries an
// external identifier it is stored as the row id; otherwise storage
// assigns one.
func (s *Store) Create(ctx context.Context, p catalog.Product) (*catalog.StoredProduct, error) {
	variations, err := variationsValue(p.Variations)
	if err != nil {
		return nil, fmt.Errorf("store: encode variations: %w", err)
	}

	var row pgx.Row
	if p.ID != nil {
		row = s.db.QueryRow(ctx, `
			INSERT INTO products (id, name, sku, status, variations, price, currency, quantity, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			RETURNING `+productColumns,
			*p.ID, textValue(p.Name), textValue(p.SKU), p.Status, variations, numericValue(p.Price), p.Currency, p.Quantity.String())
	} else {
		row = s.db.QueryRow(ctx, `
			INSERT INTO products (name, sku, status, variations, price, currency, quantity, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			RETURNING `+productColumns,
			textValue(p.Name), textValue(p.SKU), p.Status, variations, numericValue(p.Price), p.Currency, p.Quantity.String())
	}

	stored, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("store: create product: %w", err)
	}

	// Inserting an explicit id does not advance the identity sequence, so
	// a later storage-assigned insert in the same run would collide with
	// it. Keep the sequence ahead of every explicit id.
	if p.ID != nil {
		_, err = s.db.Exec(ctx, `
			SELECT setval(pg_get_serial_sequence('products', 'id'),
			              (SELECT GREATEST(MAX(id), 1) FROM products))`)
		if err != nil {
			return nil, fmt.Errorf("store: advance id sequence: %w", err)
		}
	}
	return stored, nil
}

// Update overwrites the stored row's fields with the canonical record's
// values. The row identity never changes, and an empty incoming SKU leaves
// the stored business key alone (the API feed carries no SKU).
func (s *Store) Update(ctx context.Context, stored *catalog.StoredProduct, p catalog.Product) error {
	variations, err := variationsValue(p.Variations)
	if err != nil {
		return fmt.Errorf("store: encode variations: %w", err)
	}

	sku := stored.Product.SKU
	if p.SKU != "" {
		sku = p.SKU
	}

	_, err = s.db.Exec(ctx, `
		UPDATE products
		SET name = $2, sku = $3, status = $4, variations = $5, price = $6, currency = $7, quantity = $8, updated_at = now()
		WHERE id = $1`,
		stored.ID, textValue(p.Name), textValue(sku), p.Status, variations, numericValue(p.Price), p.Currency, p.Quantity.String())
	if err != nil {
		return fmt.Errorf("store: update product %d: %w", stored.ID, err)
	}
	return nil
}

// SoftDelete stamps the deletion time and new status on a row and
// overwrites its variations with the latest parsed value. All other fields
// stay as they were.
func (s *Store) SoftDelete(ctx context.Context, stored *catalog.StoredProduct, status string, variations catalog.Variations) error {
	blob, err := variationsValue(variations)
	if err != nil {
		return fmt.Errorf("store: encode variations: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		UPDATE products
		SET deleted_at = now(), status = $2, variations = $3, updated_at = now()
		WHERE id = $1`,
		stored.ID, status, blob)
	if err != nil {
		return fmt.Errorf("store: soft-delete product %d: %w", stored.ID, err)
	}
	return nil
}

// SoftDeleteMissing delists the active row for a SKU missing from the
// latest full-catalog feed. Returns false when the SKU has no active row
// (already deleted, or created-and-deleted within the same run).
func (s *Store) SoftDeleteMissing(ctx context.Context, sku string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE products
		SET deleted_at = now(), status = $2, updated_at = now()
		WHERE sku = $1 AND deleted_at IS NULL`,
		sku, catalog.StatusDeletedBySync)
	if err != nil {
		return false, fmt.Errorf("store: delist product %q: %w", sku, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Restore clears the deletion timestamp of a soft-deleted row.
func (s *Store) Restore(ctx context.Context, stored *catalog.StoredProduct) error {
	_, err := s.db.Exec(ctx, `
		UPDATE products
		SET deleted_at = NULL, updated_at = now()
		WHERE id = $1`,
		stored.ID)
	if err != nil {
		return fmt.Errorf("store: restore product %d: %w", stored.ID, err)
	}
	stored.DeletedAt = nil
	return nil
}

// ActiveSKUs snapshots the business keys of every non-deleted row. The
// full-catalog run takes this snapshot before its transaction begins.
func (s *Store) ActiveSKUs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.Query(ctx, `SELECT sku FROM products WHERE deleted_at IS NULL AND sku IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("store: list active skus: %w", err)
	}
	defer rows.Close()

	skus := make(map[string]struct{})
	for rows.Next() {
		var sku string
		if err := rows.Scan(&sku); err != nil {
			return nil, fmt.Errorf("store: scan sku: %w", err)
		}
		skus[sku] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list active skus: %w", err)
	}
	return skus, nil
}
