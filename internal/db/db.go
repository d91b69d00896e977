package db

import "context"

// DB is a connection capable of starting transactions and executing DDL/DML.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) error
	BeginTx(ctx context.Context) (Tx, error)
	Dialect() Dialect
	Close(ctx context.Context) error
}

// Tx (transaction) supports Exec, bulk inserts, and lifecycle.
type Tx interface {
	// Exec runs a statement and returns the number of rows it affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	CopyInto(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory mints a new DB connection.
type Factory func(ctx context.Context) (DB, error)
