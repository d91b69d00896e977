// Command importer loads daily subscription-sales exports into the sales
// database. It is a thin composition layer: configuration, logging, the
// database adapter and the metrics backend are wired here and every side
// effect is injected through Deps so run() stays testable.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"salesloader/internal/config"
	"salesloader/internal/db"
	"salesloader/internal/logging"
	"salesloader/internal/metrics"
	"salesloader/internal/metrics/prompush"
	"salesloader/internal/sales"
	"salesloader/internal/source"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Deps holds injectable dependencies so run() is fully testable.
type Deps struct {
	NewPgDB  func(ctx context.Context, dsn string) (db.DB, error)
	NewSQLDB func(ctx context.Context, driver, dsn string) (db.DB, error)

	NewPushBackend func(job, gatewayURL string) (metrics.Backend, error)

	Sleep func(d time.Duration)
}

// defaultDeps wires production implementations. Tests should inject fakes.
func defaultDeps() Deps {
	return Deps{
		NewPgDB:  db.NewPgDB,
		NewSQLDB: db.NewSQLDB,
		NewPushBackend: func(job, gatewayURL string) (metrics.Backend, error) {
			return prompush.NewBackend(job, gatewayURL)
		},
		Sleep: time.Sleep,
	}
}

// factoryFor picks the DB constructor for the configured driver.
func factoryFor(cfg *config.Config, deps Deps) (db.Factory, error) {
	switch strings.ToLower(cfg.DBDriver) {
	case "postgres", "pgx":
		dsn := cfg.PostgresDSN()
		return func(ctx context.Context) (db.DB, error) { return deps.NewPgDB(ctx, dsn) }, nil
	case "mssql", "sqlserver":
		return func(ctx context.Context) (db.DB, error) { return deps.NewSQLDB(ctx, "sqlserver", cfg.DSN) }, nil
	case "sqlite", "sqlite3":
		return func(ctx context.Context) (db.DB, error) { return deps.NewSQLDB(ctx, "sqlite", cfg.DSN) }, nil
	default:
		return nil, fmt.Errorf("unsupported --db_driver=%q", cfg.DBDriver)
	}
}

// run executes one import:
//
//  1. Optionally waits for the database to come up.
//  2. Resolves the file list.
//  3. Installs the Pushgateway backend when configured; it is flushed on exit.
//  4. Imports every file in order, one transaction per file, or only parses
//     and projects them in dry-run mode.
func run(ctx context.Context, cfg *config.Config, deps Deps, log zerolog.Logger) (err error) {
	if err := cfg.Validate(); err != nil {
		return err
	}

	files, err := source.Resolve(cfg.Files, cfg.FileList, cfg.InputDir, cfg.Pattern)
	if err != nil {
		return err
	}

	if cfg.PushgatewayURL != "" {
		backend, berr := deps.NewPushBackend(cfg.MetricsJob, cfg.PushgatewayURL)
		if berr != nil {
			return fmt.Errorf("metrics backend: %w", berr)
		}
		metrics.SetBackend(backend)
		defer func() {
			if ferr := metrics.Flush(); ferr != nil {
				log.Warn().Err(ferr).Msg("metrics push failed")
			}
		}()
	}

	if cfg.DryRun {
		loader := sales.NewLoader(nil, cfg.BatchSize, log).WithJob(cfg.MetricsJob)
		_, err = sales.NewDryRunImporter(loader, log).ImportFiles(ctx, files)
		return err
	}

	if cfg.StartupDelay > 0 {
		deps.Sleep(cfg.StartupDelay)
	}

	factory, err := factoryFor(cfg, deps)
	if err != nil {
		return err
	}
	conn, err := factory(ctx)
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}
	defer func() {
		if cerr := conn.Close(context.Background()); cerr != nil && err == nil {
			err = fmt.Errorf("close: %w", cerr)
		}
	}()

	if cfg.EnsureSchema {
		if err := db.EnsureSchema(ctx, conn, sales.Tables()); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	loader := sales.NewLoader(conn.Dialect(), cfg.BatchSize, log).WithJob(cfg.MetricsJob)
	sums, err := sales.NewImporter(conn, loader, log).ImportFiles(ctx, files)
	if err != nil {
		return err
	}
	log.Info().Int("files", len(sums)).Msg("import complete")
	return nil
}

// main loads .env and config, builds real deps, and runs. Any error is
// logged once and the process exits non-zero.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logging.New(logging.Options{
		ServiceName: "sales-importer",
		Level:       logging.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, defaultDeps(), log)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("import failed")
		os.Exit(1)
	}
}
