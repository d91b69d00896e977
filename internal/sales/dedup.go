package sales

import (
	"slices"

	"salesloader/internal/report"

	"github.com/zeebo/xxh3"
)

// rowSet remembers selected-cell tuples by full-row equality. Tuples are
// bucketed by an xxh3 hash and compared cell by cell on collision.
type rowSet struct {
	buckets map[uint64][][]report.Cell
	buf     []byte
}

func newRowSet(hint int) *rowSet {
	return &rowSet{buckets: make(map[uint64][][]report.Cell, hint)}
}

// add records cells and reports whether they were not seen before.
func (s *rowSet) add(cells []report.Cell) bool {
	h := s.hash(cells)
	for _, prev := range s.buckets[h] {
		if slices.Equal(prev, cells) {
			return false
		}
	}
	s.buckets[h] = append(s.buckets[h], cells)
	return true
}

// hash encodes null and text cells distinctly, so Null never collides with
// an empty or literal "<null>" value.
func (s *rowSet) hash(cells []report.Cell) uint64 {
	b := s.buf[:0]
	for _, c := range cells {
		if !c.Valid {
			b = append(b, 0x00)
		} else {
			b = append(b, 0x01)
			b = append(b, c.Value...)
		}
		b = append(b, 0x1f)
	}
	s.buf = b
	return xxh3.Hash(b)
}
