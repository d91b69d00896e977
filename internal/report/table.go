package report

import (
	"fmt"
	"strings"
)

// Cell is one parsed value. A Cell with Valid == false is null.
type Cell struct {
	Value string
	Valid bool
}

// Null is the single null representation used for every missing cell.
var Null = Cell{}

// Text wraps a non-null string.
func Text(s string) Cell { return Cell{Value: s, Valid: true} }

// Is reports whether the cell is non-null and equal to s.
func (c Cell) Is(s string) bool { return c.Valid && c.Value == s }

func (c Cell) String() string {
	if !c.Valid {
		return "<null>"
	}
	return c.Value
}

// MissingColumnError is returned when a projection needs a column the
// header row does not carry.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column(s): %s", strings.Join(e.Columns, ", "))
}

// Table is an in-memory, column-addressable view of one export file.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]Cell
}

// NewTable returns an empty table with the given header.
func NewTable(cols []string) *Table {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	return &Table{cols: cols, index: idx}
}

// Append adds a row. The row must be as wide as the header.
func (t *Table) Append(row []Cell) error {
	if len(row) != len(t.cols) {
		return fmt.Errorf("row has %d cells, header has %d", len(row), len(t.cols))
	}
	t.rows = append(t.rows, row)
	return nil
}

// Columns returns the header in file order.
func (t *Table) Columns() []string { return t.cols }

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Index returns the position of a column in the header.
func (t *Table) Index(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Row returns a read-only handle on row i.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Cell returns the cell at row i, column col; unknown columns read as null.
func (t *Table) Cell(i int, col string) Cell {
	j, ok := t.index[col]
	if !ok {
		return Null
	}
	return t.rows[i][j]
}

// Require checks that every named column is present in the header.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := t.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnError{Columns: missing}
	}
	return nil
}

// Row is a single record of a Table.
type Row struct {
	t *Table
	i int
}

// Get returns the cell in column col.
func (r Row) Get(col string) Cell { return r.t.Cell(r.i, col) }

// Line returns the 1-based line number in the source file (header is line 1).
func (r Row) Line() int { return r.i + 2 }
