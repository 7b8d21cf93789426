package catalog

import (
	"encoding/json"
	"reflect"
	"testing"
)

func quantities(vs Variations) []int {
	out := make([]int, len(vs))
	for i, v := range vs {
		out[i] = v.Quantity
	}
	return out
}

func TestAllocate_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{name: "nil blob", blob: nil},
		{name: "empty blob", blob: []byte{}},
		{name: "not json", blob: []byte(`{broken`)},
		{name: "not a list", blob: []byte(`{"size":"S"}`)},
		{name: "empty list", blob: []byte(`[]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allocate(tt.blob, 10); got != nil {
				t.Errorf("Allocate(%s) = %v, want nil", tt.blob, got)
			}
		})
	}
}

func TestAllocate_ExplicitQuantities(t *testing.T) {
	blob := []byte(`[{"size":"S","quantity":5},{"size":"M","quantity":3}]`)

	vs := Allocate(blob, 100)
	if !reflect.DeepEqual(quantities(vs), []int{5, 3}) {
		t.Fatalf("quantities = %v, want [5 3]", quantities(vs))
	}
	// The total hint plays no part when every variant carries its own count.
	if vs.TotalQuantity() != 8 {
		t.Errorf("TotalQuantity() = %d, want 8", vs.TotalQuantity())
	}
	if !vs[0].Available || !vs[1].Available {
		t.Error("positive-quantity variants must be available")
	}
}

func TestAllocate_ExplicitCoercion(t *testing.T) {
	blob := []byte(`[{"quantity":"5 pcs"},{"quantity":0},{"quantity":-2},{"quantity":true}]`)

	vs := Allocate(blob, 0)
	if !reflect.DeepEqual(quantities(vs), []int{5, 0, 0, 0}) {
		t.Fatalf("quantities = %v, want [5 0 0 0]", quantities(vs))
	}
	if !vs[0].Available {
		t.Error("variant with 5 units must be available")
	}
	for i := 1; i < len(vs); i++ {
		if vs[i].Available {
			t.Errorf("variant %d with 0 units must be unavailable", i)
		}
	}
}

func TestAllocate_Distribution(t *testing.T) {
	tests := []struct {
		name  string
		blob  []byte
		total int
		want  []int
	}{
		{
			name:  "even split with remainder to the front",
			blob:  []byte(`[{"size":"S"},{"size":"M"},{"size":"L"}]`),
			total: 10,
			want:  []int{4, 3, 3},
		},
		{
			name:  "exact split",
			blob:  []byte(`[{"size":"S"},{"size":"M"}]`),
			total: 6,
			want:  []int{3, 3},
		},
		{
			name:  "zero total",
			blob:  []byte(`[{"size":"S"},{"size":"M"},{"size":"L"}]`),
			total: 0,
			want:  []int{0, 0, 0},
		},
		{
			name:  "negative total clamps to zero",
			blob:  []byte(`[{"size":"S"}]`),
			total: -5,
			want:  []int{0},
		},
		{
			// One missing quantity key switches the whole list to
			// distribution, discarding the explicit value.
			name:  "mixed presence distributes",
			blob:  []byte(`[{"size":"S","quantity":9},{"size":"M"}]`),
			total: 4,
			want:  []int{2, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs := Allocate(tt.blob, tt.total)
			if !reflect.DeepEqual(quantities(vs), tt.want) {
				t.Errorf("quantities = %v, want %v", quantities(vs), tt.want)
			}
			for i, v := range vs {
				if v.Available != (v.Quantity > 0) {
					t.Errorf("variant %d: Available = %v with quantity %d", i, v.Available, v.Quantity)
				}
			}
		})
	}
}

func TestAllocate_AvailabilityRecomputed(t *testing.T) {
	// Incoming availability flags never survive; quantity decides.
	blob := []byte(`[{"quantity":5,"available":false},{"quantity":0,"available":true}]`)

	vs := Allocate(blob, 0)
	if !vs[0].Available {
		t.Error("variant with stock marked unavailable, want available")
	}
	if vs[1].Available {
		t.Error("variant without stock marked available, want unavailable")
	}
}

func TestAllocate_AttributesPreserved(t *testing.T) {
	blob := []byte(`[{"size":"S","color":"red","quantity":2}]`)

	vs := Allocate(blob, 0)
	want := map[string]any{"size": "S", "color": "red"}
	if !reflect.DeepEqual(vs[0].Attributes, want) {
		t.Errorf("Attributes = %v, want %v", vs[0].Attributes, want)
	}
}

func TestVariationJSONRoundTrip(t *testing.T) {
	vs := Allocate([]byte(`[{"size":"S","quantity":5},{"size":"M","quantity":0}]`), 0)

	data, err := json.Marshal(vs)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got Variations
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(got, vs) {
		t.Errorf("round trip = %v, want %v", got, vs)
	}
}

func TestVariationMarshalStableOrder(t *testing.T) {
	v := Variation{
		Attributes: map[string]any{"size": "S", "color": "red", "band": "x"},
		Quantity:   1,
		Available:  true,
	}

	first, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if string(again) != string(first) {
			t.Fatalf("Marshal() output unstable: %s vs %s", again, first)
		}
	}

	want := `{"band":"x","color":"red","size":"S","quantity":1,"available":true}`
	if string(first) != want {
		t.Errorf("Marshal() = %s, want %s", first, want)
	}
}
