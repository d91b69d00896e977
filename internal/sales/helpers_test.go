package sales

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"salesloader/internal/db"
	"salesloader/internal/report"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

//
// ==================
//  REPORT BUILDERS
// ==================
//

// baseRow is a complete, valid order event; tests override single cells.
func baseRow() map[string]string {
	return map[string]string{
		report.AppAppleID:                "1001",
		report.AppName:                   "Acme Notes",
		report.SubscriptionAppleID:       "2001",
		report.SubscriptionGroupID:       "3001",
		report.SubscriptionName:          "Acme Pro Monthly",
		report.SubscriptionDuration:      "1 Month",
		report.SubscriberID:              "9000000001",
		report.SubscriberIDReset:         "",
		report.EventDate:                 "2019-02-01",
		report.IntroductoryPriceType:     "",
		report.IntroductoryPriceDuration: "",
		report.Refund:                    "",
		report.CustomerPrice:             "4.99",
		report.CustomerCurrency:          "USD",
		report.DeveloperProceeds:         "3.49",
		report.ProceedsCurrency:          "USD",
		report.PurchaseDate:              "",
		report.Country:                   "US",
		report.Device:                    "iPhone",
		report.MarketingOptInDuration:    "",
		report.PreservedPricing:          "",
		report.ProceedsReason:            "",
		report.Client:                    "",
	}
}

// row returns baseRow with overrides applied as alternating column/value
// pairs.
func row(kv ...string) map[string]string {
	r := baseRow()
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i]] = kv[i+1]
	}
	return r
}

func renderReport(rows ...map[string]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(report.Columns, "\t"))
	b.WriteByte('\n')
	for _, r := range rows {
		cells := make([]string, len(report.Columns))
		for i, c := range report.Columns {
			cells[i] = r[c]
		}
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

func writeReport(t *testing.T, dir, name string, rows ...map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(renderReport(rows...)), 0o644))
	return path
}

func parseReport(t *testing.T, rows ...map[string]string) *report.Table {
	t.Helper()
	tbl, err := report.Read(strings.NewReader(renderReport(rows...)))
	require.NoError(t, err)
	return tbl
}

//
// ==================
//  SQLITE HARNESS
// ==================
//

// openSQLite returns a file-backed SQLite database with the sales schema.
func openSQLite(t *testing.T) db.DB {
	t.Helper()
	ctx := context.Background()

	d, err := db.NewSQLDB(ctx, "sqlite", filepath.Join(t.TempDir(), "sales.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close(ctx) })

	require.NoError(t, db.EnsureSchema(ctx, d, Tables()))
	return d
}

func newTestImporter(d db.DB) *Importer {
	return NewImporter(d, NewLoader(d.Dialect(), 100, zerolog.Nop()), zerolog.Nop())
}

func countRows(t *testing.T, d db.DB, table string) int {
	t.Helper()
	raw, ok := db.AsSQLDB(d)
	require.True(t, ok)
	var n int
	require.NoError(t, raw.QueryRowContext(context.Background(), "SELECT count(*) FROM "+table).Scan(&n))
	return n
}

func queryString(t *testing.T, d db.DB, q string, args ...any) string {
	t.Helper()
	raw, ok := db.AsSQLDB(d)
	require.True(t, ok)
	var s string
	require.NoError(t, raw.QueryRowContext(context.Background(), q, args...).Scan(&s))
	return s
}
