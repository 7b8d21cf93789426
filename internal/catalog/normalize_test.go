package catalog

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// EU formats
		{name: "comma decimal", input: "19,99", want: "19.99"},
		{name: "thousands with comma decimal", input: "19.999,99", want: "19999.99"},
		{name: "comma decimal single digit", input: "5,5", want: "5.5"},

		// Plain decimals
		{name: "plain decimal", input: "19.99", want: "19.99"},
		{name: "integer", input: "19", want: "19"},
		{name: "rounds to two places", input: "19.999", want: "20"},

		// Absent / garbage
		{name: "empty", input: "", want: "0"},
		{name: "whitespace", input: "   ", want: "0"},
		{name: "pure garbage", input: "n/a", want: "0"},

		// Best-effort digit salvage for shifted columns
		{name: "currency prefix", input: "$19.99", want: "19.99"},
		{name: "embedded digits", input: "ab12cd", want: "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePrice(tt.input)
			if got.String() != tt.want {
				t.Errorf("NormalizePrice(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_SKURequired(t *testing.T) {
	rec := RawRecord{Name: "Widget", Price: "10"}

	_, _, err := Normalize(rec, NormalizeOptions{RequireSKU: true})
	var skip *SkipError
	if !errors.As(err, &skip) {
		t.Fatalf("Normalize() error = %v, want *SkipError", err)
	}
	if skip.Name != "Widget" {
		t.Errorf("SkipError.Name = %q, want %q", skip.Name, "Widget")
	}

	// The API path does not require a SKU.
	p, _, err := Normalize(rec, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if p.SKU != "" {
		t.Errorf("SKU = %q, want empty", p.SKU)
	}
}

func TestNormalize_Currency(t *testing.T) {
	tests := []struct {
		name         string
		currency     string
		fallback     string
		want         string // empty means nil
		wantWarnings int
	}{
		{name: "valid code", currency: "EUR", want: "EUR"},
		{name: "lowercase is invalid", currency: "usd", want: "", wantWarnings: 1},
		{name: "too long", currency: "EURO", want: "", wantWarnings: 1},
		{name: "empty is absent, no warning", currency: "", want: ""},
		{name: "fallback fills absent", currency: "", fallback: "USD", want: "USD"},
		{name: "fallback fills invalid", currency: "us$", fallback: "USD", want: "USD", wantWarnings: 1},
		{name: "fallback does not override valid", currency: "GBP", fallback: "USD", want: "GBP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := RawRecord{Name: "Widget", SKU: "W-1", Currency: tt.currency}
			p, warnings, err := Normalize(rec, NormalizeOptions{RequireSKU: true, FallbackCurrency: tt.fallback})
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}

			if tt.want == "" {
				if p.Currency != nil {
					t.Errorf("Currency = %q, want nil", *p.Currency)
				}
			} else {
				if p.Currency == nil || *p.Currency != tt.want {
					t.Errorf("Currency = %v, want %q", p.Currency, tt.want)
				}
			}
			if len(warnings) != tt.wantWarnings {
				t.Errorf("warnings = %v, want %d of them", warnings, tt.wantWarnings)
			}
		})
	}
}

func TestNormalize_Identifier(t *testing.T) {
	p, warnings, err := Normalize(RawRecord{ID: "42", Name: "Widget", SKU: "W-1"}, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if p.ID == nil || *p.ID != 42 {
		t.Errorf("ID = %v, want 42", p.ID)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}

	p, warnings, err = Normalize(RawRecord{ID: "abc", Name: "Widget", SKU: "W-1"}, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if p.ID != nil {
		t.Errorf("ID = %v, want nil for unusable identifier", *p.ID)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "unusable identifier") {
		t.Errorf("warnings = %v, want one unusable identifier warning", warnings)
	}
}

func TestNormalize_QuantityAndVariations(t *testing.T) {
	// Without variations the raw quantity text is preserved.
	p, _, err := Normalize(RawRecord{Name: "Widget", SKU: "W-1", Quantity: "7 pcs"}, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if p.Variations != nil {
		t.Fatalf("Variations = %v, want nil", p.Variations)
	}
	if p.Quantity.Units() != 7 || p.Quantity.String() != "7 pcs" {
		t.Errorf("Quantity = %d/%q, want 7/%q", p.Quantity.Units(), p.Quantity.String(), "7 pcs")
	}

	// With explicit variant quantities the product quantity is their sum.
	p, _, err = Normalize(RawRecord{
		Name:       "Widget",
		SKU:        "W-1",
		Quantity:   "99",
		Variations: []byte(`[{"size":"S","quantity":5},{"size":"M","quantity":3}]`),
	}, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(p.Variations) != 2 {
		t.Fatalf("len(Variations) = %d, want 2", len(p.Variations))
	}
	if p.Quantity.Units() != 8 || p.Quantity.String() != "8" {
		t.Errorf("Quantity = %d/%q, want 8/%q", p.Quantity.Units(), p.Quantity.String(), "8")
	}

	// An unparsable blob reads as no variations at all.
	p, _, err = Normalize(RawRecord{
		Name:       "Widget",
		SKU:        "W-1",
		Quantity:   "4",
		Variations: []byte(`{not json`),
	}, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if p.Variations != nil {
		t.Errorf("Variations = %v, want nil for invalid JSON", p.Variations)
	}
	if p.Quantity.Units() != 4 {
		t.Errorf("Quantity.Units() = %d, want 4", p.Quantity.Units())
	}
}

func TestNormalize_Status(t *testing.T) {
	p, _, err := Normalize(RawRecord{Name: "Widget", SKU: "W-1", Status: " Deleted "}, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if p.Status == nil || *p.Status != "Deleted" {
		t.Errorf("Status = %v, want %q", p.Status, "Deleted")
	}
	if !p.StatusIsDeleted() {
		t.Error("StatusIsDeleted() = false, want true for mixed-case deleted")
	}

	p, _, err = Normalize(RawRecord{Name: "Widget", SKU: "W-1"}, NormalizeOptions{DefaultStatus: StatusSale})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if p.Status == nil || *p.Status != StatusSale {
		t.Errorf("Status = %v, want %q", p.Status, StatusSale)
	}

	p, _, err = Normalize(RawRecord{Name: "Widget", SKU: "W-1"}, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if p.Status != nil {
		t.Errorf("Status = %q, want nil", *p.Status)
	}
}

func TestQuantityFromRaw(t *testing.T) {
	tests := []struct {
		input       string
		wantUnits   int
		wantDisplay string
	}{
		{input: "", wantUnits: 0, wantDisplay: "0"},
		{input: "12", wantUnits: 12, wantDisplay: "12"},
		{input: "5 pcs", wantUnits: 5, wantDisplay: "5 pcs"},
		{input: "n/a", wantUnits: 0, wantDisplay: "n/a"},
	}

	for _, tt := range tests {
		q := QuantityFromRaw(tt.input)
		if q.Units() != tt.wantUnits || q.String() != tt.wantDisplay {
			t.Errorf("QuantityFromRaw(%q) = %d/%q, want %d/%q",
				tt.input, q.Units(), q.String(), tt.wantUnits, tt.wantDisplay)
		}
	}
}
