package sales

import (
	"context"
	"fmt"
	"time"

	"salesloader/internal/db"
	"salesloader/internal/metrics"
	"salesloader/internal/report"

	"github.com/rs/zerolog"
)

// Loader writes the projections of one file through an open transaction.
type Loader struct {
	dialect   db.Dialect
	batchSize int
	entities  []Entity
	job       string
	log       zerolog.Logger
}

// NewLoader returns a Loader for dialect. batchSize caps the rows of one
// upsert statement; the dialect's bind parameter limit caps it further.
func NewLoader(dialect db.Dialect, batchSize int, log zerolog.Logger) *Loader {
	return &Loader{
		dialect:   dialect,
		batchSize: batchSize,
		entities:  Entities,
		job:       "sales",
		log:       log,
	}
}

// WithJob sets the job label used for metrics.
func (l *Loader) WithJob(job string) *Loader {
	if job != "" {
		l.job = job
	}
	return l
}

// Load runs every entity against t in order inside tx. The first failure is
// returned and the remaining entities are not attempted.
func (l *Loader) Load(ctx context.Context, tx db.Tx, t *report.Table) (Summary, error) {
	sum := Summary{Rows: t.Len()}
	for _, e := range l.entities {
		start := time.Now()
		c, err := l.loadEntity(ctx, tx, e, t)
		metrics.RecordStep(l.job, e.Table, err, time.Since(start))
		if err != nil {
			return sum, err
		}
		sum.Entities = append(sum.Entities, c)
	}
	return sum, nil
}

// Preview projects every entity without writing.
func (l *Loader) Preview(t *report.Table) (Summary, error) {
	sum := Summary{Rows: t.Len()}
	for _, e := range l.entities {
		p, err := Project(e, t)
		if err != nil {
			return sum, err
		}
		sum.Entities = append(sum.Entities, EntityCount{Table: e.Table, Projected: p.Len()})
	}
	return sum, nil
}

func (l *Loader) loadEntity(ctx context.Context, tx db.Tx, e Entity, t *report.Table) (EntityCount, error) {
	p, err := Project(e, t)
	if err != nil {
		return EntityCount{}, err
	}
	c := EntityCount{Table: e.Table, Projected: p.Len()}
	metrics.RecordRows(l.job, e.Table, "projected", int64(p.Len()))

	if e.IsDimension() {
		c.Written, err = l.upsert(ctx, tx, p)
	} else {
		c.Written, err = l.appendRows(ctx, tx, p)
	}
	if err != nil {
		return c, err
	}
	metrics.RecordRows(l.job, e.Table, "written", c.Written)

	l.log.Debug().
		Str("table", e.Table).
		Int("projected", c.Projected).
		Int64("written", c.Written).
		Msg("entity loaded")
	return c, nil
}

// upsert writes p in key-unique chunks, in file order.
func (l *Loader) upsert(ctx context.Context, tx db.Tx, p *Projection) (int64, error) {
	spec := p.Entity.upsertSpec()
	keyIdx := p.keyIndexes()
	limit := rowLimit(l.dialect.MaxParams(), len(p.Columns), l.batchSize)

	var total int64
	for _, s := range upsertChunks(p.Len(), limit, func(i int) string { return p.keyOf(i, keyIdx) }) {
		n := s.hi - s.lo
		args := make([]any, 0, n*len(p.Columns))
		for _, row := range p.Rows[s.lo:s.hi] {
			args = append(args, row...)
		}
		affected, err := tx.Exec(ctx, l.dialect.Upsert(spec, n), args...)
		if err != nil {
			return total, fmt.Errorf("upsert %s (lines %d-%d): %w", p.Entity.Table, p.Lines[s.lo], p.Lines[s.hi-1], err)
		}
		total += affected
	}
	return total, nil
}

func (l *Loader) appendRows(ctx context.Context, tx db.Tx, p *Projection) (int64, error) {
	if p.Len() == 0 {
		return 0, nil
	}
	n, err := tx.CopyInto(ctx, p.Entity.Table, p.Columns, p.Rows)
	if err != nil {
		return n, fmt.Errorf("insert %s: %w", p.Entity.Table, err)
	}
	return n, nil
}
