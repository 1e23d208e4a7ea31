// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/paper-metadata/pkg/types"
)

// Table is the rectangular aggregation of a batch's rows. Columns run
// filename, the fixed metadata fields in canonical order, error, then any
// residual keys. Missing values render as empty cells so every row has the
// full column set. Immutable once built.
type Table struct {
	Columns []string   `json:"columns"`
	Cells   [][]string `json:"rows"`
}

// BuildTable shapes the completed rows into a table. Residual keys are
// collected across all rows and appended after the canonical columns in
// sorted order, so the column order is identical across repeated runs
// regardless of completion order.
func BuildTable(rows []types.ResultRow) *Table {
	columns := make([]string, 0, len(types.MetadataFields)+2)
	columns = append(columns, "filename")
	columns = append(columns, types.MetadataFields...)
	columns = append(columns, "error")

	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c] = true
	}

	var extras []string
	for _, row := range rows {
		for k := range row.Extra {
			if !seen[k] {
				seen[k] = true
				extras = append(extras, k)
			}
		}
	}
	sort.Strings(extras)
	columns = append(columns, extras...)

	cells := make([][]string, len(rows))
	for i, row := range rows {
		line := make([]string, len(columns))
		for j, col := range columns {
			if col == "filename" {
				line[j] = row.Filename
				continue
			}
			value, _ := row.Field(col)
			line[j] = value
		}
		cells[i] = line
	}

	return &Table{Columns: columns, Cells: cells}
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Cells)
}

// NumFailed counts rows with a populated error column.
func (t *Table) NumFailed() int {
	errIdx := -1
	for i, c := range t.Columns {
		if c == "error" {
			errIdx = i
			break
		}
	}
	if errIdx < 0 {
		return 0
	}
	failed := 0
	for _, row := range t.Cells {
		if row[errIdx] != "" {
			failed++
		}
	}
	return failed
}

// WriteCSV serializes the table as UTF-8 comma-separated text, header row
// first. This is the only externally consumed serialization.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range t.Cells {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
