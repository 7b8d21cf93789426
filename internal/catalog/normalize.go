package catalog

// normalize.go converts a raw source record into a canonical Product.
//
// The functions here handle the messy reality of operator-supplied feeds:
//   - EU-style prices ("19,99", "19.999,99") next to plain decimals
//   - lowercase or garbage currency codes
//   - variation blobs that may or may not be valid JSON
//   - rows whose columns shifted because a price was split on its comma
//
// Malformed fields are recovered locally: the offending field is nulled or
// best-effort parsed and a warning is returned to the caller. The only
// condition that rejects a whole record is a missing SKU.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// currencyRegex validates a normalized currency code. Anything that does
// not fully match is tagged absent, not corrected.
var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// priceScale is the decimal scale every normalized price is rounded to.
const priceScale = 2

// RawRecord is the common shape both source adapters produce: one ordered
// set of untyped field values. Variations stays an opaque blob until the
// allocator decides whether it parses.
type RawRecord struct {
	ID         string
	Name       string
	SKU        string
	Price      string
	Currency   string
	Variations []byte
	Quantity   string
	Status     string
}

// NormalizeOptions carries the per-source defaults that make the CSV and
// API paths differ while sharing one normalizer.
type NormalizeOptions struct {
	// RequireSKU rejects (skips) records without a SKU. The CSV path sets
	// this; the API path keys records by identifier instead.
	RequireSKU bool

	// DefaultStatus is applied when the raw status field is empty.
	DefaultStatus string

	// FallbackCurrency is applied when the currency field is absent or was
	// nulled by validation. Empty means "leave absent".
	FallbackCurrency string
}

// SkipError signals a record that must not be persisted and must not count
// toward the processed counter. It carries the product name for diagnostics.
type SkipError struct {
	Name string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skipping product %q: sku is empty", e.Name)
}

// Normalize converts one raw record into a canonical Product. Recoverable
// field problems are reported as warnings; a missing SKU is reported as a
// *SkipError.
func Normalize(rec RawRecord, opts NormalizeOptions) (Product, []string, error) {
	var warnings []string

	name := strings.TrimSpace(rec.Name)

	sku := strings.TrimSpace(rec.SKU)
	if sku == "" && opts.RequireSKU {
		return Product{}, nil, &SkipError{Name: name}
	}

	p := Product{
		Name: name,
		SKU:  sku,
	}

	if id := strings.TrimSpace(rec.ID); id != "" {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			p.ID = &n
		} else {
			warnings = append(warnings, fmt.Sprintf("unusable identifier %q for product %q, letting storage assign one", id, name))
		}
	}

	p.Price = NormalizePrice(rec.Price)

	currency, warn := normalizeCurrency(rec.Currency, name)
	if warn != "" {
		warnings = append(warnings, warn)
	}
	if currency == nil && opts.FallbackCurrency != "" {
		fallback := opts.FallbackCurrency
		currency = &fallback
	}
	p.Currency = currency

	hint := QuantityFromRaw(rec.Quantity)
	p.Variations = Allocate(rec.Variations, hint.Units())
	if p.Variations != nil {
		p.Quantity = QuantityFromUnits(p.Variations.TotalQuantity())
	} else {
		p.Quantity = hint
	}

	status := strings.TrimSpace(rec.Status)
	if status == "" {
		status = opts.DefaultStatus
	}
	if status != "" {
		p.Status = &status
	}

	return p, warnings, nil
}

// NormalizePrice parses a raw price token into a non-negative decimal with
// 2-digit scale.
//
// Tokens containing a comma are read as EU-formatted: "." is a thousands
// separator and "," the decimal separator, so "19,99" becomes 19.99 and
// "19.999,99" becomes 19999.99. Tokens without a comma parse as plain
// decimals. An absent token is 0.00.
//
// When the token still does not parse, the result is the parse of whatever
// digit characters remain. This best-effort fallback exists for
// compatibility with rows whose columns shifted; it is deliberately
// contained here and pinned by tests.
func NormalizePrice(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero.Round(priceScale)
	}

	token := raw
	if strings.Contains(token, ",") {
		token = strings.ReplaceAll(token, ".", "")
		token = strings.ReplaceAll(token, ",", ".")
	}

	if d, err := decimal.NewFromString(token); err == nil {
		return d.Round(priceScale)
	}

	var b strings.Builder
	for _, r := range token {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if d, err := decimal.NewFromString(b.String()); err == nil {
		return d.Round(priceScale)
	}
	return decimal.Zero.Round(priceScale)
}

// normalizeCurrency validates a currency code. Valid codes pass through;
// a non-empty code that fails validation is nulled with a warning; an empty
// code is simply absent.
func normalizeCurrency(raw, productName string) (*string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ""
	}
	if !currencyRegex.MatchString(raw) {
		return nil, fmt.Sprintf("invalid currency %q for product %q, dropping currency", raw, productName)
	}
	return &raw, ""
}
