package sales

import (
	"sort"
	"strings"

	"salesloader/internal/report"

	"github.com/shopspring/decimal"
)

// EntityCount records what happened to one entity for one file.
type EntityCount struct {
	Table     string
	Projected int   // candidate rows after filter and dedup
	Written   int64 // rows the database reports as inserted or updated
}

// Summary describes one imported (or previewed) file.
type Summary struct {
	File     string
	Rows     int
	Entities []EntityCount
	// Proceeds and Refunded total Developer Proceeds per Proceeds Currency
	// for order rows and refund rows respectively.
	Proceeds map[string]decimal.Decimal
	Refunded map[string]decimal.Decimal
}

// Count returns the counts for table, or a zero value.
func (s Summary) Count(table string) EntityCount {
	for _, c := range s.Entities {
		if c.Table == table {
			return c
		}
	}
	return EntityCount{Table: table}
}

// FormatTotals renders totals as "EUR=34.99 USD=3.49", sorted by currency.
func FormatTotals(m map[string]decimal.Decimal) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		name := k
		if name == "" {
			name = "?"
		}
		parts[i] = name + "=" + m[k].StringFixed(2)
	}
	return strings.Join(parts, " ")
}

// proceedsTotals sums Developer Proceeds per currency, split by IsRefund.
// Rows with null proceeds are skipped.
func proceedsTotals(t *report.Table) (orders, refunds map[string]decimal.Decimal, err error) {
	orders = map[string]decimal.Decimal{}
	refunds = map[string]decimal.Decimal{}
	if _, ok := t.Index(report.DeveloperProceeds); !ok {
		return orders, refunds, nil
	}

	field := Field{Column: "developer_proceeds", Source: report.DeveloperProceeds, Kind: KindDecimal}
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		cell := row.Get(report.DeveloperProceeds)
		if !cell.Valid {
			continue
		}
		dst, table := orders, Orders.Table
		if IsRefund(row.Get(report.Refund)) {
			dst, table = refunds, Refunds.Table
		}
		v, err := coerce(field, cell)
		if err != nil {
			return nil, nil, &CoerceError{Table: table, Column: field.Column, Line: row.Line(), Value: cell.Value, Kind: KindDecimal, Err: err}
		}
		cur := row.Get(report.ProceedsCurrency).Value
		dst[cur] = dst[cur].Add(v.(decimal.Decimal))
	}
	return orders, refunds, nil
}
