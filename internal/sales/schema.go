package sales

import "salesloader/internal/db"

// Tables returns the DDL definitions of every entity, in load order.
// Dimension tables are keyed by their natural key; fact tables get a
// surrogate id and an index on subscriber_id.
func Tables() []db.Table {
	out := make([]db.Table, 0, len(Entities))
	for _, e := range Entities {
		out = append(out, e.table())
	}
	return out
}

func (e Entity) table() db.Table {
	t := db.Table{Name: e.Table}
	if e.IsDimension() {
		t.PrimaryKey = e.Key
	} else {
		t.Columns = append(t.Columns, db.Column{Name: "id", Type: db.Serial})
		t.PrimaryKey = []string{"id"}
		t.Indexes = []string{"subscriber_id"}
	}
	for _, f := range e.Fields {
		t.Columns = append(t.Columns, db.Column{Name: f.Column, Type: f.Kind.columnType()})
	}
	return t
}
