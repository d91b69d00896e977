package sales

import (
	"fmt"
	"strings"

	"salesloader/internal/report"
)

// Projection is the bind-ready form of one entity for one file.
type Projection struct {
	Entity  Entity
	Columns []string
	Rows    [][]any
	// Lines holds the source line of each row, for diagnostics.
	Lines []int
}

// Len returns the number of projected rows.
func (p *Projection) Len() int { return len(p.Rows) }

// Project selects, filters and coerces the rows of t that e takes.
//
// Dimension entities are deduplicated by full-row equality on the raw
// selected cells, keeping the first occurrence of each tuple in file order;
// tuples that share a key but differ elsewhere all survive as candidates.
// Fact entities are never deduplicated.
func Project(e Entity, t *report.Table) (*Projection, error) {
	if err := t.Require(e.Sources()...); err != nil {
		return nil, fmt.Errorf("project %s: %w", e.Table, err)
	}

	p := &Projection{Entity: e, Columns: e.Columns()}

	var seen *rowSet
	if e.IsDimension() {
		seen = newRowSet(t.Len())
	}

	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		if e.Filter != nil && !e.Filter(row) {
			continue
		}

		cells := make([]report.Cell, len(e.Fields))
		for j, f := range e.Fields {
			cells[j] = row.Get(f.Source)
		}
		if seen != nil && !seen.add(cells) {
			continue
		}

		vals := make([]any, len(e.Fields))
		for j, f := range e.Fields {
			v, err := coerce(f, cells[j])
			if err != nil {
				return nil, &CoerceError{
					Table:  e.Table,
					Column: f.Column,
					Line:   row.Line(),
					Value:  cells[j].Value,
					Kind:   f.Kind,
					Err:    err,
				}
			}
			vals[j] = v
		}
		p.Rows = append(p.Rows, vals)
		p.Lines = append(p.Lines, row.Line())
	}
	return p, nil
}

// keyOf renders the key columns of row i as a comparable string.
func (p *Projection) keyOf(i int, keyIdx []int) string {
	var b strings.Builder
	for n, j := range keyIdx {
		if n > 0 {
			b.WriteByte(0x1f)
		}
		v := p.Rows[i][j]
		if v == nil {
			b.WriteByte(0x00)
			continue
		}
		fmt.Fprint(&b, v)
	}
	return b.String()
}

// keyIndexes returns the positions of the entity's key columns.
func (p *Projection) keyIndexes() []int {
	out := make([]int, 0, len(p.Entity.Key))
	for _, k := range p.Entity.Key {
		for j, c := range p.Columns {
			if c == k {
				out = append(out, j)
				break
			}
		}
	}
	return out
}
