package db

// Portable SQL adapter for engines behind database/sql (SQL Server, SQLite).
// COPY-like operations fall back to a prepared INSERT executed once per row
// inside the caller's transaction.

import (
	"context"
	"database/sql"
	"fmt"
)

//
// =======================
//  Testability-first seams
// =======================
//
// sqlDBCore stays compatible with *sql.DB (BeginTx returns *sql.Tx). The
// adapter then narrows *sql.Tx to sqlTxCore so unit tests can inject light
// fakes with no sockets.
//

// stmtCore is the minimal subset of *sql.Stmt we use.
type stmtCore interface {
	ExecContext(ctx context.Context, args ...any) (sql.Result, error)
	Close() error
}

// sqlTxCore is the subset of a transaction that sqlTx uses.
type sqlTxCore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (stmtCore, error)
	Commit() error
	Rollback() error
}

// sqlDBCore is the minimal subset of *sql.DB we use.
type sqlDBCore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

//
// ============================
//  Real wrappers for production
// ============================
//

type realStmt struct{ s *sql.Stmt }

func (r realStmt) ExecContext(ctx context.Context, args ...any) (sql.Result, error) {
	return r.s.ExecContext(ctx, args...)
}
func (r realStmt) Close() error { return r.s.Close() }

type realSQLTx struct{ tx *sql.Tx }

func (r realSQLTx) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return r.tx.ExecContext(ctx, q, args...)
}
func (r realSQLTx) PrepareContext(ctx context.Context, q string) (stmtCore, error) {
	st, err := r.tx.PrepareContext(ctx, q)
	if err != nil {
		return nil, err
	}
	return realStmt{st}, nil
}
func (r realSQLTx) Commit() error   { return r.tx.Commit() }
func (r realSQLTx) Rollback() error { return r.tx.Rollback() }

//
// ===================
//  sqlDB (DB adapter)
// ===================
//

type sqlDB struct {
	db      sqlDBCore
	dialect Dialect
	// wrapTx adapts the *sql.Tx returned by BeginTx; tests swap it out.
	wrapTx func(*sql.Tx) sqlTxCore
}

// NewSQLDB opens a database/sql connection for driver ("sqlserver"/"mssql"
// or "sqlite"/"sqlite3") and pings it to confirm connectivity.
//
// SQLite is limited to one open connection: the importer is sequential, and
// an in-memory database only exists on the connection that created it.
func NewSQLDB(ctx context.Context, driver, dsn string) (DB, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	name := driver
	switch dialect {
	case SQLite:
		name = "sqlite"
	case MSSQL:
		name = "sqlserver"
	}
	d, err := sql.Open(name, dsn)
	if err != nil {
		return nil, err
	}
	if dialect == SQLite {
		d.SetMaxOpenConns(1)
	}
	if err := d.PingContext(ctx); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("ping %s: %w", name, err)
	}
	return newSQLDB(d, dialect), nil
}

func newSQLDB(core sqlDBCore, dialect Dialect) *sqlDB {
	return &sqlDB{
		db:      core,
		dialect: dialect,
		wrapTx:  func(tx *sql.Tx) sqlTxCore { return realSQLTx{tx: tx} },
	}
}

// Exec forwards a statement to the underlying database.
func (s *sqlDB) Exec(ctx context.Context, q string, args ...any) error {
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

// BeginTx starts a transaction and returns a Tx adapter.
func (s *sqlDB) BeginTx(ctx context.Context) (Tx, error) {
	raw, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: s.wrapTx(raw), dialect: s.dialect}, nil
}

func (s *sqlDB) Dialect() Dialect { return s.dialect }

// Close closes the underlying database handle.
func (s *sqlDB) Close(ctx context.Context) error { return s.db.Close() }

//
// ==================
//  sqlTx (Tx adapter)
// ==================
//

type sqlTx struct {
	tx      sqlTxCore
	dialect Dialect
}

// Exec forwards execution to the transaction and returns rows affected.
func (t *sqlTx) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	if res == nil {
		return 0, nil
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// CopyInto emulates bulk insert by preparing an INSERT and executing once per row.
func (t *sqlTx) CopyInto(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	stmt, err := t.tx.PrepareContext(ctx, t.dialect.Insert(table, columns))
	if err != nil {
		return 0, fmt.Errorf("prepare insert %s: %w", table, err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return inserted, fmt.Errorf("insert %s: row length %d != columns length %d", table, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return inserted, fmt.Errorf("insert %s: %w", table, err)
		}
		inserted++
	}
	return inserted, nil
}

// Commit commits the active transaction.
func (t *sqlTx) Commit(ctx context.Context) error { return t.tx.Commit() }

// Rollback aborts the active transaction.
func (t *sqlTx) Rollback(ctx context.Context) error { return t.tx.Rollback() }

//
// ==============================
//  Adapter Introspection Helpers
// ==============================
//

// AsSQLDB exposes the underlying *sql.DB for callers that need raw access
// (read-back queries in tests, diagnostics).
func AsSQLDB(d DB) (*sql.DB, bool) {
	s, ok := d.(*sqlDB)
	if !ok {
		return nil, false
	}
	raw, ok := s.db.(*sql.DB)
	return raw, ok
}
