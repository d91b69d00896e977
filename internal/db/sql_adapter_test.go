package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
// =====================================
//  FAKES (Test Doubles for SQL adapter)
// =====================================
//

type fakeResult struct{ n int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.n, nil }

// fakeStmt simulates *sql.Stmt via the stmtCore seam and can fail on the
// Nth call (1-based; 0 never fails).
type fakeStmt struct {
	execs  [][]any
	errOn  int
	closed bool
}

func (s *fakeStmt) ExecContext(ctx context.Context, args ...any) (sql.Result, error) {
	s.execs = append(s.execs, args)
	if s.errOn > 0 && len(s.execs) == s.errOn {
		return nil, errors.New("stmt exec failure")
	}
	return fakeResult{n: 1}, nil
}
func (s *fakeStmt) Close() error { s.closed = true; return nil }

// fakeSQLTx implements sqlTxCore.
type fakeSQLTx struct {
	execCalls   []execCall
	affected    int64
	prepared    []string
	stmt        *fakeStmt
	prepErr     error
	commitErr   error
	rollbackErr error
}

func (t *fakeSQLTx) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	t.execCalls = append(t.execCalls, execCall{q: q, args: args})
	return fakeResult{n: t.affected}, nil
}
func (t *fakeSQLTx) PrepareContext(ctx context.Context, q string) (stmtCore, error) {
	if t.prepErr != nil {
		return nil, t.prepErr
	}
	t.prepared = append(t.prepared, q)
	if t.stmt == nil {
		t.stmt = &fakeStmt{}
	}
	return t.stmt, nil
}
func (t *fakeSQLTx) Commit() error   { return t.commitErr }
func (t *fakeSQLTx) Rollback() error { return t.rollbackErr }

// fakeSQLDB implements sqlDBCore. BeginTx hands back a zero *sql.Tx
// sentinel; the adapter's wrapTx is swapped so the sentinel is never used.
type fakeSQLDB struct {
	execCalls []execCall
	beginErr  error
	closed    bool
}

func (f *fakeSQLDB) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	f.execCalls = append(f.execCalls, execCall{q: q, args: args})
	return fakeResult{}, nil
}
func (f *fakeSQLDB) BeginTx(ctx context.Context, _ *sql.TxOptions) (*sql.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return &sql.Tx{}, nil
}
func (f *fakeSQLDB) Close() error { f.closed = true; return nil }

func newFakeSQLDB(core *fakeSQLDB, tx *fakeSQLTx, dialect Dialect) *sqlDB {
	s := newSQLDB(core, dialect)
	s.wrapTx = func(*sql.Tx) sqlTxCore { return tx }
	return s
}

//
// ======================
//  ADAPTER TESTS (sqlDB)
// ======================
//

func Test_sqlDB_Exec_PassesThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	core := &fakeSQLDB{}
	s := newFakeSQLDB(core, &fakeSQLTx{}, MSSQL)

	require.NoError(t, s.Exec(ctx, "SELECT 1", 42))
	require.Len(t, core.execCalls, 1)
	assert.Equal(t, "SELECT 1", core.execCalls[0].q)
	assert.Equal(t, []any{42}, core.execCalls[0].args)
	assert.Equal(t, MSSQL, s.Dialect())

	require.NoError(t, s.Close(ctx))
	assert.True(t, core.closed)
}

func Test_sqlDB_BeginTx_Error(t *testing.T) {
	t.Parallel()

	s := newFakeSQLDB(&fakeSQLDB{beginErr: errors.New("no tx")}, &fakeSQLTx{}, SQLite)
	tx, err := s.BeginTx(context.Background())
	require.Error(t, err)
	assert.Nil(t, tx)
}

func Test_sqlTx_Exec_ReturnsRowsAffected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ftx := &fakeSQLTx{affected: 2}
	s := newFakeSQLDB(&fakeSQLDB{}, ftx, MSSQL)
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)

	n, err := tx.Exec(ctx, "MERGE ...", int64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []any{int64(7)}, ftx.execCalls[0].args)
}

func Test_sqlTx_CopyInto_PreparesDialectInsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ftx := &fakeSQLTx{}
	tx := &sqlTx{tx: ftx, dialect: MSSQL}

	rows := [][]any{{int64(1), "a"}, {int64(2), nil}}
	n, err := tx.CopyInto(ctx, "orders", []string{"app_id", "device"}, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{"INSERT INTO orders (app_id, device) VALUES (@p1, @p2)"}, ftx.prepared)
	assert.Equal(t, rows, ftx.stmt.execs)
	assert.True(t, ftx.stmt.closed)
}

func Test_sqlTx_CopyInto_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	ftx := &fakeSQLTx{}
	tx := &sqlTx{tx: ftx, dialect: SQLite}
	n, err := tx.CopyInto(context.Background(), "refunds", []string{"a"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, ftx.prepared)
}

func Test_sqlTx_CopyInto_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Prepare failure.
	tx := &sqlTx{tx: &fakeSQLTx{prepErr: errors.New("bad sql")}, dialect: SQLite}
	_, err := tx.CopyInto(ctx, "orders", []string{"a"}, [][]any{{1}})
	require.Error(t, err)

	// Second row fails: one row counted, error surfaced.
	ftx := &fakeSQLTx{stmt: &fakeStmt{errOn: 2}}
	tx = &sqlTx{tx: ftx, dialect: SQLite}
	n, err := tx.CopyInto(ctx, "orders", []string{"a"}, [][]any{{1}, {2}, {3}})
	require.Error(t, err)
	assert.Equal(t, int64(1), n)

	// Width mismatch.
	tx = &sqlTx{tx: &fakeSQLTx{}, dialect: SQLite}
	_, err = tx.CopyInto(ctx, "orders", []string{"a", "b"}, [][]any{{1}})
	require.Error(t, err)
}

func Test_AsSQLDB(t *testing.T) {
	t.Parallel()

	_, ok := AsSQLDB(&pgDB{})
	assert.False(t, ok)

	_, ok = AsSQLDB(newSQLDB(&fakeSQLDB{}, SQLite))
	assert.False(t, ok, "fake core is not a *sql.DB")
}

// Test_NewSQLDB_SQLite_EnsureSchema opens a real file-backed SQLite database
// and bootstraps a table twice to show the DDL is idempotent.
func Test_NewSQLDB_SQLite_EnsureSchema(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	d, err := NewSQLDB(ctx, "sqlite", filepath.Join(t.TempDir(), "schema.db"))
	require.NoError(t, err)
	defer d.Close(ctx)

	tables := []Table{{
		Name:       "apps",
		Columns:    []Column{{Name: "app_apple_id", Type: BigInt}, {Name: "app_name", Type: Text}},
		PrimaryKey: []string{"app_apple_id"},
		Indexes:    []string{"app_name"},
	}}
	require.NoError(t, EnsureSchema(ctx, d, tables))
	require.NoError(t, EnsureSchema(ctx, d, tables))

	raw, ok := AsSQLDB(d)
	require.True(t, ok)
	var n int
	require.NoError(t, raw.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE name IN ('apps', 'apps_app_name_idx')").Scan(&n))
	assert.Equal(t, 2, n)
}

func Test_NewSQLDB_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := NewSQLDB(context.Background(), "oracle", "x")
	require.Error(t, err)
}

func Test_NewSQLDB_SQLiteAlias(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	d, err := NewSQLDB(ctx, "sqlite3", filepath.Join(t.TempDir(), "alias.db"))
	require.NoError(t, err)
	defer d.Close(ctx)
	assert.Equal(t, SQLite, d.Dialect())
}
