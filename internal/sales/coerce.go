package sales

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"salesloader/internal/report"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// CoerceError reports a cell that cannot be read as its field's Kind.
type CoerceError struct {
	Table  string
	Column string
	Line   int
	Value  string
	Kind   Kind
	Err    error
}

func (e *CoerceError) Error() string {
	return fmt.Sprintf("%s.%s line %d: cannot read %q as %s: %v", e.Table, e.Column, e.Line, e.Value, e.Kind, e.Err)
}

func (e *CoerceError) Unwrap() error { return e.Err }

// coerce converts c to the Go value bound for f. Null cells bind as nil,
// except for KindBool which always yields a bool.
func coerce(f Field, c report.Cell) (any, error) {
	if f.Kind == KindBool {
		return c.Is(f.When), nil
	}
	if !c.Valid {
		return nil, nil
	}
	switch f.Kind {
	case KindInt:
		return strconv.ParseInt(strings.TrimSpace(c.Value), 10, 64)
	case KindDecimal:
		return decimal.NewFromString(strings.TrimSpace(c.Value))
	case KindDate:
		d, err := time.Parse(dateLayout, strings.TrimSpace(c.Value))
		if err != nil {
			return nil, err
		}
		return d.Format(dateLayout), nil
	default:
		return c.Value, nil
	}
}
