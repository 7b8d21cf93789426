// Package source contains the two producers of raw catalog records: the
// file-based bulk CSV source and the remote REST collection source. Both
// convert their native shape into the common catalog.RawRecord consumed by
// the normalizer.
package source

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/skusync/skusync/internal/catalog"
)

// Fixed column positions of the catalog CSV feed. The header row is
// discarded, so positions are what counts, not header names.
const (
	colID = iota
	colName
	colSKU
	colPrice
	colCurrency
	colVariations
	colQuantity
	colStatus
)

// ParseCSV splits the whole file content into raw records. The first line
// (header) is discarded. Lines tokenize as comma-separated values with
// standard quoting for fields containing embedded commas.
//
// A trailing blank line (the usual end-of-file artifact) produces a
// record with an empty SKU, which the normalizer skips downstream; rows
// with shifted or missing columns are absorbed the same way rather than
// rejected.
func ParseCSV(content string) []catalog.RawRecord {
	lines := strings.Split(content, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}

	records := make([]catalog.RawRecord, 0, len(lines))
	for _, line := range lines {
		fields := splitLine(line)
		records = append(records, catalog.RawRecord{
			ID:         field(fields, colID),
			Name:       field(fields, colName),
			SKU:        field(fields, colSKU),
			Price:      field(fields, colPrice),
			Currency:   field(fields, colCurrency),
			Variations: []byte(field(fields, colVariations)),
			Quantity:   fieldOr(fields, colQuantity, "0"),
			Status:     field(fields, colStatus),
		})
	}
	return records
}

// splitLine tokenizes a single CSV line. Quoting irregularities never fail
// a row: anything the CSV reader rejects falls back to a plain comma split.
func splitLine(line string) []string {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return nil
	}

	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	fields, err := r.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return strings.Split(line, ",")
	}
	return fields
}

func field(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return fields[i]
}

func fieldOr(fields []string, i int, def string) string {
	if i >= len(fields) {
		return def
	}
	return fields[i]
}
