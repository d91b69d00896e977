package db

import (
	"fmt"
	"strings"
)

// Dialect renders the engine-specific SQL the loaders need.
type Dialect interface {
	Name() string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	// MaxParams is the largest number of bind arguments one statement may carry.
	MaxParams() int
	// Upsert renders a multi-row insert of rows tuples that, on a key
	// conflict, overwrites the tracked columns only when at least one of
	// them is distinct (null-safe) from the stored value.
	Upsert(spec UpsertSpec, rows int) string
	// Insert renders a single-row INSERT for prepared execution.
	Insert(table string, columns []string) string
	// CreateTable renders idempotent DDL for t (table first, then indexes).
	CreateTable(t Table) []string
}

// UpsertSpec describes one change-guarded upsert target.
type UpsertSpec struct {
	Table   string
	Columns []string // ordered insert columns
	Key     []string // conflict target
	Tracked []string // columns compared and overwritten on conflict
}

// DialectFor resolves a driver name to its Dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mssql", "sqlserver":
		return MSSQL, nil
	default:
		return nil, fmt.Errorf("unknown driver: %s", driver)
	}
}

var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
	MSSQL    Dialect = mssqlDialect{}
)

//
// ==========
//  Postgres
// ==========
//

type postgresDialect struct{}

func (postgresDialect) Name() string             { return "postgres" }
func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }
func (postgresDialect) MaxParams() int           { return 65535 }

func (d postgresDialect) Upsert(s UpsertSpec, rows int) string {
	return onConflictUpsert(d, s, rows, "EXCLUDED", "IS DISTINCT FROM")
}

func (d postgresDialect) Insert(table string, columns []string) string {
	return insertSQL(d, table, columns)
}

func (postgresDialect) CreateTable(t Table) []string {
	types := map[ColumnType]string{
		BigInt:  "BIGINT",
		Text:    "TEXT",
		Boolean: "BOOLEAN",
		Numeric: "NUMERIC(14,4)",
		Date:    "DATE",
		Serial:  "BIGSERIAL",
	}
	out := []string{createTableSQL(t, types, "CREATE TABLE IF NOT EXISTS %s (\n%s\n)")}
	for _, col := range t.Indexes {
		out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", indexName(t.Name, col), t.Name, col))
	}
	return out
}

//
// ========
//  SQLite
// ========
//

type sqliteDialect struct{}

func (sqliteDialect) Name() string           { return "sqlite" }
func (sqliteDialect) Placeholder(int) string { return "?" }
func (sqliteDialect) MaxParams() int         { return 32766 }

func (d sqliteDialect) Upsert(s UpsertSpec, rows int) string {
	return onConflictUpsert(d, s, rows, "excluded", "IS NOT")
}

func (d sqliteDialect) Insert(table string, columns []string) string {
	return insertSQL(d, table, columns)
}

func (sqliteDialect) CreateTable(t Table) []string {
	types := map[ColumnType]string{
		BigInt:  "INTEGER",
		Text:    "TEXT",
		Boolean: "BOOLEAN",
		Numeric: "NUMERIC",
		Date:    "DATE",
		Serial:  "INTEGER",
	}
	out := []string{createTableSQL(t, types, "CREATE TABLE IF NOT EXISTS %s (\n%s\n)")}
	for _, col := range t.Indexes {
		out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", indexName(t.Name, col), t.Name, col))
	}
	return out
}

//
// ============
//  SQL Server
// ============
//

type mssqlDialect struct{}

func (mssqlDialect) Name() string             { return "sqlserver" }
func (mssqlDialect) Placeholder(n int) string { return fmt.Sprintf("@p%d", n) }

// MaxParams stays under the 2100-parameter RPC limit.
func (mssqlDialect) MaxParams() int { return 2000 }

// Upsert uses MERGE; EXISTS (SELECT s.* EXCEPT SELECT t.*) is the
// null-safe "is distinct" test in T-SQL.
func (d mssqlDialect) Upsert(s UpsertSpec, rows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "MERGE INTO %s WITH (HOLDLOCK) AS t\n", s.Table)
	fmt.Fprintf(&b, "USING (VALUES %s) AS s (%s)\n", valuesList(d, len(s.Columns), rows), strings.Join(s.Columns, ", "))

	on := make([]string, len(s.Key))
	for i, k := range s.Key {
		on[i] = fmt.Sprintf("t.%s = s.%s", k, k)
	}
	fmt.Fprintf(&b, "ON %s\n", strings.Join(on, " AND "))

	if len(s.Tracked) > 0 {
		src := make([]string, len(s.Tracked))
		dst := make([]string, len(s.Tracked))
		set := make([]string, len(s.Tracked))
		for i, c := range s.Tracked {
			src[i] = "s." + c
			dst[i] = "t." + c
			set[i] = fmt.Sprintf("%s = s.%s", c, c)
		}
		fmt.Fprintf(&b, "WHEN MATCHED AND EXISTS (SELECT %s EXCEPT SELECT %s) THEN\n", strings.Join(src, ", "), strings.Join(dst, ", "))
		fmt.Fprintf(&b, "UPDATE SET %s\n", strings.Join(set, ", "))
	}

	vals := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		vals[i] = "s." + c
	}
	fmt.Fprintf(&b, "WHEN NOT MATCHED THEN\nINSERT (%s) VALUES (%s);", strings.Join(s.Columns, ", "), strings.Join(vals, ", "))
	return b.String()
}

func (d mssqlDialect) Insert(table string, columns []string) string {
	return insertSQL(d, table, columns)
}

func (mssqlDialect) CreateTable(t Table) []string {
	types := map[ColumnType]string{
		BigInt:  "BIGINT",
		Text:    "NVARCHAR(400)",
		Boolean: "BIT",
		Numeric: "DECIMAL(14,4)",
		Date:    "DATE",
		Serial:  "BIGINT IDENTITY(1,1)",
	}
	out := []string{createTableSQL(t, types, "IF OBJECT_ID(N'%[1]s', N'U') IS NULL\nCREATE TABLE %[1]s (\n%[2]s\n)")}
	for _, col := range t.Indexes {
		name := indexName(t.Name, col)
		out = append(out, fmt.Sprintf(
			"IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = '%s' AND object_id = OBJECT_ID(N'%s'))\nCREATE INDEX %s ON %s (%s)",
			name, t.Name, name, t.Name, col,
		))
	}
	return out
}

//
// ========
//  helpers
// ========
//

// onConflictUpsert renders INSERT … ON CONFLICT … DO UPDATE … WHERE for the
// engines that share that syntax.
func onConflictUpsert(d Dialect, s UpsertSpec, rows int, excluded, distinct string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s)\nVALUES %s\nON CONFLICT (%s) ",
		s.Table, strings.Join(s.Columns, ", "), valuesList(d, len(s.Columns), rows), strings.Join(s.Key, ", "))

	if len(s.Tracked) == 0 {
		b.WriteString("DO NOTHING")
		return b.String()
	}

	set := make([]string, len(s.Tracked))
	where := make([]string, len(s.Tracked))
	for i, c := range s.Tracked {
		set[i] = fmt.Sprintf("%s = %s.%s", c, excluded, c)
		where[i] = fmt.Sprintf("%s.%s %s %s.%s", s.Table, c, distinct, excluded, c)
	}
	fmt.Fprintf(&b, "DO UPDATE\nSET %s\nWHERE %s", strings.Join(set, ",\n    "), strings.Join(where, " OR\n      "))
	return b.String()
}

// valuesList renders rows tuples of cols placeholders, numbered from 1.
func valuesList(d Dialect, cols, rows int) string {
	tuples := make([]string, rows)
	ph := make([]string, cols)
	n := 1
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			ph[c] = d.Placeholder(n)
			n++
		}
		tuples[r] = "(" + strings.Join(ph, ", ") + ")"
	}
	return strings.Join(tuples, ", ")
}

func insertSQL(d Dialect, table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(columns, ", "), valuesList(d, len(columns), 1))
}
