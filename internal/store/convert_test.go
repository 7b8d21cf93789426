package store

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/skusync/skusync/internal/catalog"
)

func TestTextValue(t *testing.T) {
	if v := textValue(""); v.Valid {
		t.Error("textValue(\"\") must be NULL")
	}
	v := textValue("W-1")
	if !v.Valid || v.String != "W-1" {
		t.Errorf("textValue(W-1) = %+v", v)
	}
}

func TestNumericRoundTrip(t *testing.T) {
	tests := []string{"0", "19.99", "19999.99", "0.01"}

	for _, s := range tests {
		d, err := decimal.NewFromString(s)
		if err != nil {
			t.Fatalf("bad fixture %q: %v", s, err)
		}

		n := numericValue(d)
		if !n.Valid {
			t.Fatalf("numericValue(%s) invalid", s)
		}

		back, err := decimalFromNumeric(n)
		if err != nil {
			t.Fatalf("decimalFromNumeric(%s) error = %v", s, err)
		}
		if !back.Equal(d) {
			t.Errorf("round trip of %s = %s", s, back)
		}
	}
}

func TestDecimalFromNumeric_Null(t *testing.T) {
	d, err := decimalFromNumeric(pgtype.Numeric{Valid: false})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if !d.IsZero() {
		t.Errorf("NULL numeric = %s, want 0", d)
	}
}

func TestVariationsValue(t *testing.T) {
	v, err := variationsValue(nil)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if v != nil {
		t.Errorf("nil variations must persist as NULL, got %v", v)
	}

	vs := catalog.Allocate([]byte(`[{"size":"S","quantity":2}]`), 0)
	v, err = variationsValue(vs)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	blob, ok := v.([]byte)
	if !ok {
		t.Fatalf("value type = %T, want []byte", v)
	}
	want := `[{"size":"S","quantity":2,"available":true}]`
	if string(blob) != want {
		t.Errorf("blob = %s, want %s", blob, want)
	}
}
