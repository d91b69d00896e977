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

// Importer loads report files one at a time, each in its own transaction.
type Importer struct {
	db     db.DB
	loader *Loader
	log    zerolog.Logger
	dryRun bool
}

// NewImporter returns an Importer writing through d.
func NewImporter(d db.DB, loader *Loader, log zerolog.Logger) *Importer {
	return &Importer{db: d, loader: loader, log: log}
}

// NewDryRunImporter returns an Importer that parses and projects files and
// never touches a database.
func NewDryRunImporter(loader *Loader, log zerolog.Logger) *Importer {
	return &Importer{loader: loader, log: log, dryRun: true}
}

// ImportFiles imports files in order and stops at the first failure.
// Files before the failing one stay committed; the failing file is rolled
// back in full.
func (im *Importer) ImportFiles(ctx context.Context, files []string) ([]Summary, error) {
	out := make([]Summary, 0, len(files))
	for _, f := range files {
		s, err := im.ImportFile(ctx, f)
		metrics.RecordFile(im.loader.job, err)
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ImportFile reads path and loads it in a single transaction.
func (im *Importer) ImportFile(ctx context.Context, path string) (Summary, error) {
	start := time.Now()
	t, err := report.ReadFile(ctx, path)
	metrics.RecordStep(im.loader.job, "read", err, time.Since(start))
	if err != nil {
		return Summary{File: path}, err
	}
	metrics.RecordRows(im.loader.job, "report", "read", int64(t.Len()))

	proceeds, refunded, err := proceedsTotals(t)
	if err != nil {
		return Summary{File: path}, fmt.Errorf("import %s: %w", path, err)
	}

	var sum Summary
	if im.dryRun {
		sum, err = im.loader.Preview(t)
	} else {
		err = db.WithTx(ctx, im.db, func(tx db.Tx) error {
			var lerr error
			sum, lerr = im.loader.Load(ctx, tx, t)
			return lerr
		})
	}
	sum.File = path
	if err != nil {
		return sum, fmt.Errorf("import %s: %w", path, err)
	}
	sum.Proceeds, sum.Refunded = proceeds, refunded
	im.logSummary(sum)
	return sum, nil
}

func (im *Importer) logSummary(s Summary) {
	ev := im.log.Info().
		Str("file", s.File).
		Int("rows", s.Rows).
		Bool("dry_run", im.dryRun).
		Str("proceeds", FormatTotals(s.Proceeds)).
		Str("refunded", FormatTotals(s.Refunded))
	for _, c := range s.Entities {
		if im.dryRun {
			ev = ev.Int(c.Table, c.Projected)
		} else {
			ev = ev.Int64(c.Table, c.Written)
		}
	}
	if im.dryRun {
		ev.Msgf("%s was checked successfully.", s.File)
		return
	}
	ev.Msgf("%s was pushed successfully.", s.File)
}
