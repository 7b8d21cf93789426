package source

import (
	"testing"
)

func TestParseCSV(t *testing.T) {
	content := "id,name,sku,price,currency,variations,quantity,status\n" +
		"1,Widget,W-1,19.99,EUR,,5,sale\n" +
		"2,Gadget,G-2,\"19,99\",USD,\"[{\"\"size\"\":\"\"S\"\",\"\"quantity\"\":2}]\",2,sale\n"

	records := ParseCSV(content)
	// Two data rows plus the record for the trailing newline.
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	first := records[0]
	if first.ID != "1" || first.Name != "Widget" || first.SKU != "W-1" {
		t.Errorf("first record = %+v, want id 1 / Widget / W-1", first)
	}
	if first.Price != "19.99" || first.Currency != "EUR" || first.Quantity != "5" || first.Status != "sale" {
		t.Errorf("first record fields = %+v", first)
	}

	second := records[1]
	if second.Price != "19,99" {
		t.Errorf("quoted EU price = %q, want %q", second.Price, "19,99")
	}
	if string(second.Variations) != `[{"size":"S","quantity":2}]` {
		t.Errorf("variations = %s", second.Variations)
	}

	// The trailing blank line yields an empty-SKU record for the
	// normalizer to skip, with the quantity default applied.
	last := records[2]
	if last.SKU != "" || last.Quantity != "0" {
		t.Errorf("trailing record = %+v, want empty SKU and quantity %q", last, "0")
	}
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	records := ParseCSV("id,name,sku,price,currency,variations,quantity,status")
	if len(records) != 0 {
		t.Fatalf("len(records) = %d, want 0", len(records))
	}
}

func TestParseCSV_ShortRow(t *testing.T) {
	records := ParseCSV("header\n3,OnlyNamed\n")

	rec := records[0]
	if rec.ID != "3" || rec.Name != "OnlyNamed" {
		t.Errorf("record = %+v", rec)
	}
	if rec.SKU != "" || rec.Price != "" || rec.Status != "" {
		t.Errorf("missing columns must read as empty, got %+v", rec)
	}
	if rec.Quantity != "0" {
		t.Errorf("Quantity = %q, want default %q", rec.Quantity, "0")
	}
}

func TestParseCSV_CRLF(t *testing.T) {
	records := ParseCSV("header\r\n1,Widget,W-1,10,EUR,,3,sale\r\n")

	rec := records[0]
	if rec.Status != "sale" {
		t.Errorf("Status = %q, want %q (CR must be stripped)", rec.Status, "sale")
	}
}

func TestSplitLine_BrokenQuoting(t *testing.T) {
	// A line the CSV reader cannot parse falls back to a plain comma split
	// instead of dropping the row.
	fields := splitLine(`1,Bad "quote,W-1`)
	if len(fields) < 3 {
		t.Fatalf("fields = %v, want at least 3", fields)
	}
	if fields[0] != "1" {
		t.Errorf("fields[0] = %q, want %q", fields[0], "1")
	}
}
