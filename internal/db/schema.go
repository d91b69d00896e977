package db

import (
	"context"
	"fmt"
	"strings"
)

// ColumnType is an engine-neutral column type; each Dialect maps it to DDL.
type ColumnType int

const (
	Text ColumnType = iota
	BigInt
	Boolean
	Numeric
	Date
	// Serial is an auto-assigned surrogate key.
	Serial
)

// Column is one column of a Table.
type Column struct {
	Name string
	Type ColumnType
}

// Table is an engine-neutral table definition used to bootstrap a schema.
type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey []string
	// Indexes lists columns that get a single-column secondary index.
	Indexes []string
}

// EnsureSchema creates every table (and its indexes) that does not exist yet.
// It never alters existing tables.
func EnsureSchema(ctx context.Context, d DB, tables []Table) error {
	for _, t := range tables {
		for _, stmt := range d.Dialect().CreateTable(t) {
			if err := d.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("create %s (%s): %w", t.Name, d.Dialect().Name(), err)
			}
		}
	}
	return nil
}

func createTableSQL(t Table, types map[ColumnType]string, format string) string {
	lines := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		lines = append(lines, fmt.Sprintf("\t%s %s", c.Name, types[c.Type]))
	}
	if len(t.PrimaryKey) > 0 {
		lines = append(lines, fmt.Sprintf("\tPRIMARY KEY (%s)", strings.Join(t.PrimaryKey, ", ")))
	}
	return fmt.Sprintf(format, t.Name, strings.Join(lines, ",\n"))
}

func indexName(table, col string) string { return table + "_" + col + "_idx" }
