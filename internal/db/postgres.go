// Package db provides database adapter implementations for Postgres (pgx),
// SQL Server and SQLite (database/sql) behind the DB and Tx interfaces, plus
// the per-engine SQL dialects the loaders render statements with.
//
// This file contains the Postgres adapter, which wraps pgx.Conn/pgx.Tx while
// remaining testable via lightweight seams.
//
// Design goals:
//   - Allow mocking via the pgConnLike interface (for hermetic unit tests).
//   - Keep behavior minimal and predictable; no implicit retries.
//   - Surface server detail (pgconn.PgError) in returned errors.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

//
// ===========================
//  Interface seam for testing
// ===========================
//
// pgConnLike defines the minimal subset of methods used from *pgx.Conn.
//

type pgConnLike interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

//
// ===============
//  Core pgDB type
// ===============
//

type pgDB struct{ conn pgConnLike }

// NewPgDB connects to Postgres using pgx.Connect and wraps the connection
// in a pgDB. Callers are responsible for closing it via Close().
func NewPgDB(ctx context.Context, dsn string) (DB, error) {
	c, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &pgDB{conn: c}, nil
}

// Exec delegates to pgx.Conn.Exec outside of any explicit transaction.
func (p *pgDB) Exec(ctx context.Context, q string, args ...any) error {
	_, err := p.conn.Exec(ctx, q, pgArgs(args)...)
	return pgError(err)
}

// BeginTx starts a transaction by calling pgx.Conn.Begin.
func (p *pgDB) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func (p *pgDB) Dialect() Dialect { return Postgres }

// Close closes the underlying connection.
func (p *pgDB) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}

//
// =====================
//  Transaction wrapper
// =====================
//

type pgTx struct {
	tx pgx.Tx
}

// Exec executes a SQL statement within the transaction and reports the
// number of rows the server says it touched.
func (t *pgTx) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	tag, err := t.tx.Exec(ctx, q, pgArgs(args)...)
	if err != nil {
		return 0, pgError(err)
	}
	return tag.RowsAffected(), nil
}

// CopyInto performs a bulk insert using Postgres's native COPY FROM mechanism.
func (t *pgTx) CopyInto(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	enc := make([][]any, len(rows))
	for i, r := range rows {
		enc[i] = pgArgs(r)
	}
	n, err := t.tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(enc))
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", table, pgError(err))
	}
	return n, nil
}

// Commit commits the active transaction.
func (t *pgTx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

// Rollback aborts the active transaction.
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

//
// ========
//  helpers
// ========
//

// pgArgs rewrites decimals to their text form. pgx parses text into NUMERIC
// for both the extended protocol and COPY, so no pgx-specific decimal
// adapter is needed.
func pgArgs(args []any) []any {
	var out []any
	for i, a := range args {
		var v any
		switch d := a.(type) {
		case decimal.Decimal:
			v = d.String()
		case decimal.NullDecimal:
			if d.Valid {
				v = d.Decimal.String()
			}
		default:
			continue
		}
		if out == nil {
			out = make([]any, len(args))
			copy(out, args)
		}
		out[i] = v
	}
	if out == nil {
		return args
	}
	return out
}

// pgError folds server-side detail into the message so a failing row is
// easier to spot in logs; the original error stays reachable via errors.As.
func pgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (%s; %s)", err, pgErr.Detail, pgErr.SQLState())
	}
	return err
}

//
// =======================
//  Test-only constructors
// =======================
//

// newPgDBFromConn constructs a pgDB from a pgConnLike fake.
func newPgDBFromConn(c pgConnLike) *pgDB { return &pgDB{conn: c} }

// newPgTxForTest wraps a pgx.Tx fake into a pgTx for testing.
func newPgTxForTest(t pgx.Tx) *pgTx { return &pgTx{tx: t} }
