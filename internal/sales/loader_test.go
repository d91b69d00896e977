package sales

import (
	"context"
	"errors"
	"strings"
	"testing"

	"salesloader/internal/db"
	"salesloader/internal/report"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTx captures statements instead of running them.
type recordingTx struct {
	execs    []recordedExec
	copies   []recordedCopy
	affected int64
	execErr  error
}

type recordedExec struct {
	sql  string
	args []any
}

type recordedCopy struct {
	table   string
	columns []string
	rows    [][]any
}

func (r *recordingTx) Exec(_ context.Context, sql string, args ...any) (int64, error) {
	r.execs = append(r.execs, recordedExec{sql: sql, args: args})
	return r.affected, r.execErr
}

func (r *recordingTx) CopyInto(_ context.Context, table string, columns []string, rows [][]any) (int64, error) {
	r.copies = append(r.copies, recordedCopy{table: table, columns: columns, rows: rows})
	return int64(len(rows)), nil
}

func (r *recordingTx) Commit(context.Context) error   { return nil }
func (r *recordingTx) Rollback(context.Context) error { return nil }

func TestLoader_Load_StatementsPerEntity(t *testing.T) {
	t.Parallel()

	tbl := parseReport(t,
		row(report.AppAppleID, "1", report.AppName, "Notes"),
		row(report.AppAppleID, "2", report.AppName, "Todo", report.Refund, "Yes"),
	)
	tx := &recordingTx{affected: 1}

	sum, err := NewLoader(db.Postgres, 100, zerolog.Nop()).Load(context.Background(), tx, tbl)
	require.NoError(t, err)

	// apps: one statement, both keys in it.
	require.Len(t, tx.execs, 3)
	assert.True(t, strings.HasPrefix(tx.execs[0].sql, "INSERT INTO apps (app_apple_id, app_name)\nVALUES ($1, $2), ($3, $4)\nON CONFLICT (app_apple_id) DO UPDATE"), tx.execs[0].sql)
	assert.Equal(t, []any{int64(1), "Notes", int64(2), "Todo"}, tx.execs[0].args)
	assert.Contains(t, tx.execs[1].sql, "INSERT INTO subscriptions")
	assert.Contains(t, tx.execs[2].sql, "INSERT INTO subscribers")

	require.Len(t, tx.copies, 2)
	assert.Equal(t, "orders", tx.copies[0].table)
	assert.Len(t, tx.copies[0].rows, 1)
	assert.Equal(t, "refunds", tx.copies[1].table)
	assert.Len(t, tx.copies[1].rows, 1)

	assert.Equal(t, 2, sum.Rows)
	assert.Equal(t, EntityCount{Table: "apps", Projected: 2, Written: 1}, sum.Count("apps"))
	assert.Equal(t, EntityCount{Table: "orders", Projected: 1, Written: 1}, sum.Count("orders"))
}

func TestLoader_Load_SplitsOnRepeatedKeyAndBatchSize(t *testing.T) {
	t.Parallel()

	tbl := parseReport(t,
		row(report.AppAppleID, "1", report.AppName, "a"),
		row(report.AppAppleID, "2", report.AppName, "b"),
		row(report.AppAppleID, "3", report.AppName, "c"),
		row(report.AppAppleID, "1", report.AppName, "d"),
	)
	tx := &recordingTx{}

	_, err := NewLoader(db.SQLite, 2, zerolog.Nop()).Load(context.Background(), tx, tbl)
	require.NoError(t, err)

	var apps []recordedExec
	for _, e := range tx.execs {
		if strings.HasPrefix(e.sql, "INSERT INTO apps") {
			apps = append(apps, e)
		}
	}
	require.Len(t, apps, 2)
	assert.Equal(t, []any{int64(1), "a", int64(2), "b"}, apps[0].args)
	assert.Equal(t, []any{int64(3), "c", int64(1), "d"}, apps[1].args)
}

func TestLoader_Load_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("constraint violation")
	tx := &recordingTx{execErr: boom}

	_, err := NewLoader(db.MSSQL, 100, zerolog.Nop()).Load(context.Background(), tx, parseReport(t, row()))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "upsert apps (lines 2-2)")
	assert.Len(t, tx.execs, 1)
	assert.Empty(t, tx.copies)
}

func TestLoader_Preview(t *testing.T) {
	t.Parallel()

	tbl := parseReport(t, row(), row(), row(report.Refund, "Yes"))
	sum, err := NewLoader(db.SQLite, 100, zerolog.Nop()).Preview(tbl)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Rows)
	assert.Equal(t, 1, sum.Count("apps").Projected)
	assert.Equal(t, 2, sum.Count("orders").Projected)
	assert.Equal(t, 1, sum.Count("refunds").Projected)
	assert.Zero(t, sum.Count("refunds").Written)
}

func TestLoader_WithJob(t *testing.T) {
	t.Parallel()

	l := NewLoader(db.SQLite, 1, zerolog.Nop())
	assert.Equal(t, "sales", l.job)
	assert.Equal(t, "daily", l.WithJob("daily").job)
	assert.Equal(t, "daily", l.WithJob("").job)
}
