package catalog

// variations.go implements the variation allocator: parsing an opaque
// variations blob into typed variants, each carrying an integer quantity
// and an availability flag.
//
// Two allocation strategies apply depending on input shape:
//   - explicit: every variant already carries its own quantity; each is
//     coerced to a non-negative integer (digit-stripping).
//   - derived: quantities are missing on at least one variant; the total
//     quantity hint is distributed evenly across all variants, remainder
//     first-come-first-served in input order.
//
// In both cases availability is recomputed as quantity > 0; an incoming
// availability flag never survives with a contradicting value.

import (
	"encoding/json"
	"sort"
	"strconv"
)

// variantQuantityKey and variantAvailableKey are the reserved keys the
// allocator owns inside a variant object. Everything else (color, size, …)
// is a descriptive attribute and passes through untouched.
const (
	variantQuantityKey  = "quantity"
	variantAvailableKey = "available"
)

// Variation is one purchasable variant of a product.
type Variation struct {
	Attributes map[string]any
	Quantity   int
	Available  bool
}

// Variations is an ordered list of variants. Order follows the input blob.
type Variations []Variation

// TotalQuantity sums the variant quantities.
func (vs Variations) TotalQuantity() int {
	total := 0
	for _, v := range vs {
		total += v.Quantity
	}
	return total
}

// Allocate parses an opaque variations blob and produces the canonical
// variant list. It returns nil, never an error, when the blob is absent,
// not valid JSON, not a list, or an empty list.
func Allocate(blob []byte, totalHint int) Variations {
	if len(blob) == 0 {
		return nil
	}

	var raw []map[string]any
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil
	}
	if len(raw) == 0 {
		return nil
	}

	out := make(Variations, len(raw))
	explicit := true
	for i, entry := range raw {
		attrs := make(map[string]any, len(entry))
		for k, v := range entry {
			if k == variantQuantityKey || k == variantAvailableKey {
				continue
			}
			attrs[k] = v
		}
		out[i] = Variation{Attributes: attrs}

		qty, ok := entry[variantQuantityKey]
		if !ok {
			explicit = false
			continue
		}
		out[i].Quantity = coerceVariantQuantity(qty)
	}

	if !explicit {
		distribute(out, totalHint)
	}

	for i := range out {
		out[i].Available = out[i].Quantity > 0
	}
	return out
}

// distribute spreads total across the variants using integer division; the
// remainder is handed out one unit at a time to the first variants in input
// order. len(vs) > 0 is guaranteed by the empty-list check in Allocate.
func distribute(vs Variations, total int) {
	if total < 0 {
		total = 0
	}
	n := len(vs)
	base := total / n
	rem := total % n
	for i := range vs {
		vs[i].Quantity = base
		if i < rem {
			vs[i].Quantity++
		}
	}
}

// coerceVariantQuantity turns whatever JSON value sat under the quantity key
// into a non-negative integer. Strings go through digit-stripping coercion
// ("5 pcs" -> 5); numbers are truncated; anything else counts as zero.
func coerceVariantQuantity(v any) int {
	switch q := v.(type) {
	case float64:
		if q < 0 {
			return 0
		}
		return int(q)
	case string:
		return coerceUnits(q)
	case json.Number:
		n, err := q.Int64()
		if err != nil || n < 0 {
			return 0
		}
		return int(n)
	default:
		return 0
	}
}

// MarshalJSON flattens a variant back into a single JSON object: the
// descriptive attributes plus the allocator-owned quantity/available keys.
// Attribute keys are emitted in sorted order for stable output.
func (v Variation) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(v.Attributes))
	for k := range v.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := []byte{'{'}
	for _, k := range keys {
		val, err := json.Marshal(v.Attributes[k])
		if err != nil {
			return nil, err
		}
		name, _ := json.Marshal(k)
		buf = append(buf, name...)
		buf = append(buf, ':')
		buf = append(buf, val...)
		buf = append(buf, ',')
	}
	buf = append(buf, []byte(`"quantity":`+strconv.Itoa(v.Quantity))...)
	buf = append(buf, []byte(`,"available":`+strconv.FormatBool(v.Available))...)
	buf = append(buf, '}')
	return buf, nil
}

// UnmarshalJSON restores a variant persisted by MarshalJSON. Used when
// reading the variations column back out of storage.
func (v *Variation) UnmarshalJSON(data []byte) error {
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		return err
	}
	v.Attributes = make(map[string]any, len(entry))
	for k, val := range entry {
		switch k {
		case variantQuantityKey:
			v.Quantity = coerceVariantQuantity(val)
		case variantAvailableKey:
			b, ok := val.(bool)
			v.Available = ok && b
		default:
			v.Attributes[k] = val
		}
	}
	return nil
}
