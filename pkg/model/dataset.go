// pkg/model/dataset.go
package model

import (
	"errors"
	"fmt"
	"strings"
)

// Column is a named, kind-tagged sequence of cells aligned by row index.
type Column struct {
	Name  string
	Kind  ColumnKind
	Cells []Cell
}

// Dataset is an in-memory table produced by extraction: an ordered sequence
// of equal-length columns. A dataset is created fresh per extraction call,
// transformed in place by the cleaning stages, and discarded after being
// written to a snapshot.
type Dataset struct {
	Table   string
	Columns []Column
}

// NewDataset creates a dataset and enforces the equal-column-length invariant.
func NewDataset(table string, columns []Column) (*Dataset, error) {
	ds := &Dataset{Table: table, Columns: columns}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Validate checks the equal-column-length invariant.
func (ds *Dataset) Validate() error {
	if ds.Table == "" {
		return errors.New("dataset table name cannot be empty")
	}
	if len(ds.Columns) == 0 {
		return nil
	}
	want := len(ds.Columns[0].Cells)
	for _, col := range ds.Columns[1:] {
		if len(col.Cells) != want {
			return fmt.Errorf("column %q has %d cells, expected %d",
				col.Name, len(col.Cells), want)
		}
	}
	return nil
}

// RowCount returns the number of rows in the dataset.
func (ds *Dataset) RowCount() int {
	if len(ds.Columns) == 0 {
		return 0
	}
	return len(ds.Columns[0].Cells)
}

// ColumnIndex returns the index of the named column (case-insensitive),
// or -1 if the dataset has no such column.
func (ds *Dataset) ColumnIndex(name string) int {
	for i, col := range ds.Columns {
		if strings.EqualFold(col.Name, name) {
			return i
		}
	}
	return -1
}

// ColumnNames returns the column names in dataset order.
func (ds *Dataset) ColumnNames() []string {
	names := make([]string, len(ds.Columns))
	for i, col := range ds.Columns {
		names[i] = col.Name
	}
	return names
}

// Row returns the cells of row i in column order.
func (ds *Dataset) Row(i int) []Cell {
	row := make([]Cell, len(ds.Columns))
	for c, col := range ds.Columns {
		row[c] = col.Cells[i]
	}
	return row
}

// FilterRows keeps only the rows for which keep returns true, preserving
// order, and returns the number of rows removed. All columns are filtered
// in lockstep so the equal-length invariant holds.
func (ds *Dataset) FilterRows(keep func(row int) bool) int {
	rows := ds.RowCount()
	if rows == 0 {
		return 0
	}

	kept := make([]int, 0, rows)
	for i := 0; i < rows; i++ {
		if keep(i) {
			kept = append(kept, i)
		}
	}
	if len(kept) == rows {
		return 0
	}

	for c := range ds.Columns {
		cells := ds.Columns[c].Cells
		filtered := make([]Cell, len(kept))
		for j, i := range kept {
			filtered[j] = cells[i]
		}
		ds.Columns[c].Cells = filtered
	}

	return rows - len(kept)
}
