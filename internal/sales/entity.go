// Package sales maps the vendor's daily subscription export onto the five
// target tables and loads one file per transaction.
//
// Each table is described declaratively by an Entity. Dimension entities
// (apps, subscriptions, subscribers) carry a natural key and a set of
// tracked columns and are written with a change-guarded upsert; fact
// entities (orders, refunds) carry a row filter and are appended as-is.
package sales

import (
	"salesloader/internal/db"
	"salesloader/internal/report"
)

// Kind is the type a source cell is coerced to before it is bound.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindDecimal
	// KindBool is true when the cell equals Field.When; null reads as false.
	KindBool
	// KindDate is a YYYY-MM-DD calendar date passed on as text.
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// columnType maps a Kind to the engine-neutral DDL type.
func (k Kind) columnType() db.ColumnType {
	switch k {
	case KindInt:
		return db.BigInt
	case KindDecimal:
		return db.Numeric
	case KindBool:
		return db.Boolean
	case KindDate:
		return db.Date
	default:
		return db.Text
	}
}

// Field maps one vendor column onto one target column.
type Field struct {
	Column string // target column
	Source string // vendor column
	Kind   Kind
	When   string // KindBool only: the value that reads as true
}

// Entity describes one target table.
type Entity struct {
	Table  string
	Fields []Field

	// Key and Tracked are set for dimension tables only.
	Key     []string
	Tracked []string

	// Filter selects the rows a fact table takes; nil takes every row.
	Filter func(report.Row) bool
}

// IsDimension reports whether the entity is upserted rather than appended.
func (e Entity) IsDimension() bool { return len(e.Key) > 0 }

// Columns returns the target columns in insert order.
func (e Entity) Columns() []string {
	out := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.Column
	}
	return out
}

// Sources returns the vendor columns the entity reads, without repeats.
func (e Entity) Sources() []string {
	seen := make(map[string]struct{}, len(e.Fields))
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := seen[f.Source]; ok {
			continue
		}
		seen[f.Source] = struct{}{}
		out = append(out, f.Source)
	}
	return out
}

func (e Entity) upsertSpec() db.UpsertSpec {
	return db.UpsertSpec{
		Table:   e.Table,
		Columns: e.Columns(),
		Key:     e.Key,
		Tracked: e.Tracked,
	}
}

// IsRefund reports whether a Refund cell marks the row as refunded. Orders
// and refunds both filter on it, so the two tables partition every file.
func IsRefund(c report.Cell) bool { return c.Is("Yes") }

var Apps = Entity{
	Table: "apps",
	Fields: []Field{
		{Column: "app_apple_id", Source: report.AppAppleID, Kind: KindInt},
		{Column: "app_name", Source: report.AppName, Kind: KindText},
	},
	Key:     []string{"app_apple_id"},
	Tracked: []string{"app_name"},
}

var Subscriptions = Entity{
	Table: "subscriptions",
	Fields: []Field{
		{Column: "subscription_apple_id", Source: report.SubscriptionAppleID, Kind: KindInt},
		{Column: "subscription_group_id", Source: report.SubscriptionGroupID, Kind: KindInt},
		{Column: "subscription_name", Source: report.SubscriptionName, Kind: KindText},
		{Column: "subscription_duration", Source: report.SubscriptionDuration, Kind: KindText},
	},
	Key:     []string{"subscription_apple_id"},
	Tracked: []string{"subscription_group_id", "subscription_name", "subscription_duration"},
}

var Subscribers = Entity{
	Table: "subscribers",
	Fields: []Field{
		{Column: "subscriber_apple_id", Source: report.SubscriberID, Kind: KindInt},
		{Column: "subscriber_id_reset", Source: report.SubscriberIDReset, Kind: KindBool, When: "Yes"},
	},
	Key:     []string{"subscriber_apple_id"},
	Tracked: []string{"subscriber_id_reset"},
}

var Orders = Entity{
	Table: "orders",
	Fields: []Field{
		{Column: "order_date", Source: report.EventDate, Kind: KindDate},
		{Column: "subscriber_id", Source: report.SubscriberID, Kind: KindInt},
		{Column: "app_id", Source: report.AppAppleID, Kind: KindInt},
		{Column: "subscription_id", Source: report.SubscriptionAppleID, Kind: KindInt},
		{Column: "is_trial", Source: report.IntroductoryPriceType, Kind: KindBool, When: "Free Trial"},
		{Column: "trial_duration", Source: report.IntroductoryPriceDuration, Kind: KindText},
		{Column: "customer_price", Source: report.CustomerPrice, Kind: KindDecimal},
		{Column: "customer_currency", Source: report.CustomerCurrency, Kind: KindText},
		{Column: "developer_proceeds", Source: report.DeveloperProceeds, Kind: KindDecimal},
		{Column: "proceeds_currency", Source: report.ProceedsCurrency, Kind: KindText},
		{Column: "country", Source: report.Country, Kind: KindText},
		{Column: "device", Source: report.Device, Kind: KindText},
		{Column: "marketing_opt_in_duration", Source: report.MarketingOptInDuration, Kind: KindText},
		{Column: "preserved_pricing", Source: report.PreservedPricing, Kind: KindText},
		{Column: "proceeds_reason", Source: report.ProceedsReason, Kind: KindText},
		{Column: "client", Source: report.Client, Kind: KindText},
	},
	Filter: func(r report.Row) bool { return !IsRefund(r.Get(report.Refund)) },
}

var Refunds = Entity{
	Table: "refunds",
	Fields: []Field{
		{Column: "refund_date", Source: report.EventDate, Kind: KindDate},
		{Column: "subscriber_id", Source: report.SubscriberID, Kind: KindInt},
		{Column: "app_id", Source: report.AppAppleID, Kind: KindInt},
		{Column: "subscription_id", Source: report.SubscriptionAppleID, Kind: KindInt},
		{Column: "customer_price", Source: report.CustomerPrice, Kind: KindDecimal},
		{Column: "customer_currency", Source: report.CustomerCurrency, Kind: KindText},
		{Column: "developer_proceeds", Source: report.DeveloperProceeds, Kind: KindDecimal},
		{Column: "proceeds_currency", Source: report.ProceedsCurrency, Kind: KindText},
		{Column: "original_purchase_date", Source: report.PurchaseDate, Kind: KindDate},
		{Column: "country", Source: report.Country, Kind: KindText},
		{Column: "device", Source: report.Device, Kind: KindText},
		{Column: "marketing_opt_in_duration", Source: report.MarketingOptInDuration, Kind: KindText},
		{Column: "preserved_pricing", Source: report.PreservedPricing, Kind: KindText},
		{Column: "proceeds_reason", Source: report.ProceedsReason, Kind: KindText},
		{Column: "client", Source: report.Client, Kind: KindText},
	},
	Filter: func(r report.Row) bool { return IsRefund(r.Get(report.Refund)) },
}

// Entities lists every target in load order: dimensions before facts.
var Entities = []Entity{Apps, Subscriptions, Subscribers, Orders, Refunds}
