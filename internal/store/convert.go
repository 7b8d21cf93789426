package store

// convert.go maps between catalog values and Postgres wire types. All
// decimal/jsonb/null handling for the products table lives here so the
// domain packages stay free of pgtype.

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/skusync/skusync/internal/catalog"
)

// textValue maps an empty string to NULL; the original schema keeps name
// and sku nullable rather than empty.
func textValue(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// numericValue encodes a price decimal for the numeric column.
func numericValue(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// decimalFromNumeric decodes the price column; NULL reads as 0.00.
func decimalFromNumeric(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	v, err := n.Value()
	if err != nil {
		return decimal.Zero, err
	}
	s, ok := v.(string)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected numeric driver value %T", v)
	}
	return decimal.NewFromString(s)
}

// variationsValue serializes the variant list for the jsonb column; a nil
// list persists as NULL.
func variationsValue(vs catalog.Variations) (any, error) {
	if vs == nil {
		return nil, nil
	}
	blob, err := json.Marshal(vs)
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// scanProduct reads one products row into a StoredProduct.
func scanProduct(row pgx.Row) (*catalog.StoredProduct, error) {
	var (
		stored     catalog.StoredProduct
		name       pgtype.Text
		sku        pgtype.Text
		status     *string
		variations []byte
		price      pgtype.Numeric
		currency   *string
		quantity   pgtype.Text
		deletedAt  *time.Time
	)

	err := row.Scan(&stored.ID, &name, &sku, &status, &variations, &price, &currency, &quantity, &deletedAt, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, err
	}

	id := stored.ID
	stored.Product = catalog.Product{
		ID:       &id,
		Name:     name.String,
		SKU:      sku.String,
		Currency: currency,
		Status:   status,
		Quantity: catalog.QuantityFromRaw(quantity.String),
	}
	stored.DeletedAt = deletedAt

	stored.Product.Price, err = decimalFromNumeric(price)
	if err != nil {
		return nil, fmt.Errorf("decode price: %w", err)
	}

	if len(variations) > 0 {
		var vs catalog.Variations
		if err := json.Unmarshal(variations, &vs); err == nil {
			stored.Product.Variations = vs
		}
		// An undecodable stored blob reads as absent; the next sync
		// overwrites it anyway.
	}

	return &stored, nil
}
